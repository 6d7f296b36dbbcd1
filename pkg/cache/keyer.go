package cache

// Keyer derives cache keys. Keys embed a hash of everything the cached
// value depends on, so stale entries are never returned.
type Keyer interface {
	// LayoutKey is the key of a laid-out model.
	LayoutKey(modelHash string, opts LayoutKeyOpts) string
	// ArtifactKey is the key of a rendered diagram.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts lists the layout options that change the result.
type LayoutKeyOpts struct {
	Orientation      string  `json:"orientation"`
	LanesAsGroups    bool    `json:"lanes_as_groups"`
	EventSize        float64 `json:"event_size"`
	GatewaySize      float64 `json:"gateway_size"`
	TaskWidth        float64 `json:"task_width"`
	TaskHeight       float64 `json:"task_height"`
	SubProcessMargin float64 `json:"sub_process_margin"`
	IntraCellSpacing float64 `json:"intra_cell_spacing"`
	InterRankSpacing float64 `json:"inter_rank_spacing"`
	ParentBorder     float64 `json:"parent_border"`
	LabelWrapWidth   int     `json:"label_wrap_width"`
	LineHeight       float64 `json:"line_height"`
	MaxLaneBranches  int     `json:"max_lane_branches"`
	MaxDepth         int     `json:"max_depth"`
}

// ArtifactKeyOpts lists the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed"`
}

// DefaultKeyer builds keys of the form "<kind>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(modelHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", modelHash, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
