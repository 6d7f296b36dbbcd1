// Package pipeline provides the decode → layout → render pipeline of
// bpmnlayout.
//
// The CLI and the HTTP layout service both run models through this package,
// so option defaults, validation and caching behave the same everywhere.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Decode: validate the model document against the schema, build a
//     [bpmn.Model] and check its referential integrity
//  2. Layout: run the [autolayout.Layouter] and encode the model with its
//     diagram interchange section
//  3. Render: draw the laid-out model as SVG, PNG, PDF or DOT
//
// Layouts and artifacts are cached by content hash.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{Orientation: "lr", Formats: []string{"svg"}}
//	result, err := runner.Execute(ctx, data, bpmn.FormatJSON, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run the layout stage only:
//
//	model, encoded, hit, err := runner.LayoutWithCacheInfo(ctx, data, bpmn.FormatYAML, opts)
//
// [bpmn.Model]: github.com/matzehuels/bpmnlayout/pkg/bpmn.Model
// [autolayout.Layouter]: github.com/matzehuels/bpmnlayout/pkg/autolayout.Layouter
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bpmnlayout/pkg/autolayout"
	"github.com/matzehuels/bpmnlayout/pkg/bpmn"
	"github.com/matzehuels/bpmnlayout/pkg/cache"
	"github.com/matzehuels/bpmnlayout/pkg/errors"
	"github.com/matzehuels/bpmnlayout/pkg/hierarchy"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultOrientation is the default rank direction.
	DefaultOrientation = "td"

	// DefaultOutput is the default encoding of the laid-out model.
	DefaultOutput = "json"
)

// Format constants for rendered outputs.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
	FormatDOT = "dot"
)

// ValidFormats is the set of supported render formats.
var ValidFormats = map[string]bool{
	FormatSVG: true,
	FormatPNG: true,
	FormatPDF: true,
	FormatDOT: true,
}

// ValidOutputs is the set of supported model encodings.
var ValidOutputs = map[string]bool{
	string(bpmn.FormatJSON): true,
	string(bpmn.FormatYAML): true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline. Zero values mean
// "use the default", which lets a config file and command-line flags be
// layered over each other.
type Options struct {
	// Layout options
	Orientation      string  `json:"orientation,omitempty" toml:"orientation"`
	LanesAsGroups    bool    `json:"lanes_as_groups,omitempty" toml:"lanes_as_groups"`
	EventSize        float64 `json:"event_size,omitempty" toml:"event_size"`
	GatewaySize      float64 `json:"gateway_size,omitempty" toml:"gateway_size"`
	TaskWidth        float64 `json:"task_width,omitempty" toml:"task_width"`
	TaskHeight       float64 `json:"task_height,omitempty" toml:"task_height"`
	SubProcessMargin float64 `json:"sub_process_margin,omitempty" toml:"sub_process_margin"`
	IntraCellSpacing float64 `json:"intra_cell_spacing,omitempty" toml:"intra_cell_spacing"`
	InterRankSpacing float64 `json:"inter_rank_spacing,omitempty" toml:"inter_rank_spacing"`
	ParentBorder     float64 `json:"parent_border,omitempty" toml:"parent_border"`
	LabelWrapWidth   int     `json:"label_wrap_width,omitempty" toml:"label_wrap_width"`
	LineHeight       float64 `json:"line_height,omitempty" toml:"line_height"`
	MaxLaneBranches  int     `json:"max_lane_branches,omitempty" toml:"max_lane_branches"`
	MaxDepth         int     `json:"max_depth,omitempty" toml:"max_depth"`

	// Output options
	Output   string   `json:"output,omitempty" toml:"output"` // model encoding: json or yaml
	Formats  []string `json:"formats,omitempty" toml:"formats"`
	Detailed bool     `json:"detailed,omitempty" toml:"detailed"`
	Refresh  bool     `json:"refresh,omitempty" toml:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" toml:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool

	// lanesSet and detailedSet mark booleans set explicitly, so Merge keeps
	// them even when they are false.
	lanesSet    bool
	detailedSet bool
}

// SetLanesAsGroups sets LanesAsGroups and marks it as explicit.
func (o *Options) SetLanesAsGroups(v bool) {
	o.LanesAsGroups = v
	o.lanesSet = true
}

// SetDetailed sets Detailed and marks it as explicit.
func (o *Options) SetDetailed(v bool) {
	o.Detailed = v
	o.detailedSet = true
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Model is the laid-out model.
	Model *bpmn.Model

	// ModelHash is the content hash of the input document.
	ModelHash string

	// Encoded is the laid-out model in the requested output encoding.
	Encoded []byte

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ProcessCount int
	ElementCount int
	FlowCount    int
	LayoutTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a render format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, pdf, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all render formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateOutput checks that a model encoding is valid.
func ValidateOutput(output string) error {
	if !ValidOutputs[output] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid output: %q (must be one of: json, yaml)", output)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults applies defaults and checks every option.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults fills every unset layout option with the layouter's
// default.
func (o *Options) SetLayoutDefaults() {
	d := autolayout.DefaultOptions()
	if o.Orientation == "" {
		o.Orientation = DefaultOrientation
	}
	setFloat(&o.EventSize, d.EventSize)
	setFloat(&o.GatewaySize, d.GatewaySize)
	setFloat(&o.TaskWidth, d.TaskWidth)
	setFloat(&o.TaskHeight, d.TaskHeight)
	setFloat(&o.SubProcessMargin, d.SubProcessMargin)
	setFloat(&o.IntraCellSpacing, d.IntraCellSpacing)
	setFloat(&o.InterRankSpacing, d.InterRankSpacing)
	setFloat(&o.ParentBorder, d.ParentBorder)
	setFloat(&o.LineHeight, d.LineHeight)
	setInt(&o.LabelWrapWidth, d.LabelWrapWidth)
	setInt(&o.MaxLaneBranches, d.MaxLaneBranches)
	setInt(&o.MaxDepth, d.MaxDepth)
	if o.Output == "" {
		o.Output = DefaultOutput
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout sets layout defaults and checks the layout options.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidateOutput(o.Output); err != nil {
		return err
	}
	_, err := o.LayoutOptions()
	return err
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// LayoutOptions converts the options into layouter options.
func (o *Options) LayoutOptions() (autolayout.Options, error) {
	orientation, err := hierarchy.ParseOrientation(o.Orientation)
	if err != nil {
		return autolayout.Options{}, err
	}
	lo := autolayout.Options{
		EventSize:        o.EventSize,
		GatewaySize:      o.GatewaySize,
		TaskWidth:        o.TaskWidth,
		TaskHeight:       o.TaskHeight,
		SubProcessMargin: o.SubProcessMargin,
		Orientation:      orientation,
		LanesAsGroups:    o.LanesAsGroups,
		IntraCellSpacing: o.IntraCellSpacing,
		InterRankSpacing: o.InterRankSpacing,
		ParentBorder:     o.ParentBorder,
		LabelWrapWidth:   o.LabelWrapWidth,
		LineHeight:       o.LineHeight,
		MaxLaneBranches:  o.MaxLaneBranches,
		MaxDepth:         o.MaxDepth,
	}
	return lo, lo.Validate()
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Orientation:      o.Orientation,
		LanesAsGroups:    o.LanesAsGroups,
		EventSize:        o.EventSize,
		GatewaySize:      o.GatewaySize,
		TaskWidth:        o.TaskWidth,
		TaskHeight:       o.TaskHeight,
		SubProcessMargin: o.SubProcessMargin,
		IntraCellSpacing: o.IntraCellSpacing,
		InterRankSpacing: o.InterRankSpacing,
		ParentBorder:     o.ParentBorder,
		LabelWrapWidth:   o.LabelWrapWidth,
		LineHeight:       o.LineHeight,
		MaxLaneBranches:  o.MaxLaneBranches,
		MaxDepth:         o.MaxDepth,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format, Detailed: o.Detailed}
}

// Merge returns o with every zero field replaced by the value in base. The
// CLI uses it to layer flags over the config file. Booleans set through
// SetLanesAsGroups or SetDetailed are kept as they are.
func (o Options) Merge(base Options) Options {
	if o.Orientation == "" {
		o.Orientation = base.Orientation
	}
	if !o.lanesSet {
		o.LanesAsGroups = o.LanesAsGroups || base.LanesAsGroups
	}
	setFloat(&o.EventSize, base.EventSize)
	setFloat(&o.GatewaySize, base.GatewaySize)
	setFloat(&o.TaskWidth, base.TaskWidth)
	setFloat(&o.TaskHeight, base.TaskHeight)
	setFloat(&o.SubProcessMargin, base.SubProcessMargin)
	setFloat(&o.IntraCellSpacing, base.IntraCellSpacing)
	setFloat(&o.InterRankSpacing, base.InterRankSpacing)
	setFloat(&o.ParentBorder, base.ParentBorder)
	setFloat(&o.LineHeight, base.LineHeight)
	setInt(&o.LabelWrapWidth, base.LabelWrapWidth)
	setInt(&o.MaxLaneBranches, base.MaxLaneBranches)
	setInt(&o.MaxDepth, base.MaxDepth)
	if o.Output == "" {
		o.Output = base.Output
	}
	if len(o.Formats) == 0 {
		o.Formats = base.Formats
	}
	if !o.detailedSet {
		o.Detailed = o.Detailed || base.Detailed
	}
	if o.Logger == nil {
		o.Logger = base.Logger
	}
	return o
}

func setFloat(v *float64, def float64) {
	if *v == 0 {
		*v = def
	}
}

func setInt(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}
