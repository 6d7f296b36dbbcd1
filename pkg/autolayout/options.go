package autolayout

import (
	"github.com/matzehuels/bpmnlayout/pkg/errors"
	"github.com/matzehuels/bpmnlayout/pkg/hierarchy"
)

// Default sizes and spacings, in diagram units.
const (
	DefaultEventSize        = 30
	DefaultGatewaySize      = 40
	DefaultTaskWidth        = 100
	DefaultTaskHeight       = 60
	DefaultSubProcessMargin = 20
	DefaultIntraCellSpacing = 100
	DefaultInterRankSpacing = 100
	DefaultParentBorder     = 20
	DefaultLabelWrapWidth   = 22
	DefaultLineHeight       = 15
	DefaultMaxLaneBranches  = 4096
	DefaultMaxDepth         = 32
)

// Options configures the auto-layout.
type Options struct {
	EventSize        float64
	GatewaySize      float64
	TaskWidth        float64
	TaskHeight       float64
	SubProcessMargin float64

	Orientation hierarchy.Orientation
	// LanesAsGroups draws every lane as a box around its members and lets
	// the relative lane order pick the routing style of cross-lane flows.
	LanesAsGroups bool

	IntraCellSpacing float64
	InterRankSpacing float64
	ParentBorder     float64

	LabelWrapWidth int
	LineHeight     float64

	// MaxLaneBranches bounds the candidate lane choices explored while
	// separating lanes by rank. Once spent, the first candidate is taken.
	MaxLaneBranches int
	// MaxDepth bounds sub-process nesting.
	MaxDepth int
}

// DefaultOptions returns the standard process diagram options.
func DefaultOptions() Options {
	return Options{
		EventSize:        DefaultEventSize,
		GatewaySize:      DefaultGatewaySize,
		TaskWidth:        DefaultTaskWidth,
		TaskHeight:       DefaultTaskHeight,
		SubProcessMargin: DefaultSubProcessMargin,
		Orientation:      hierarchy.TopDown,
		IntraCellSpacing: DefaultIntraCellSpacing,
		InterRankSpacing: DefaultInterRankSpacing,
		ParentBorder:     DefaultParentBorder,
		LabelWrapWidth:   DefaultLabelWrapWidth,
		LineHeight:       DefaultLineHeight,
		MaxLaneBranches:  DefaultMaxLaneBranches,
		MaxDepth:         DefaultMaxDepth,
	}
}

// Validate reports the first option that cannot produce a layout.
func (o Options) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"event size", o.EventSize},
		{"gateway size", o.GatewaySize},
		{"task width", o.TaskWidth},
		{"task height", o.TaskHeight},
		{"intra-cell spacing", o.IntraCellSpacing},
		{"inter-rank spacing", o.InterRankSpacing},
		{"line height", o.LineHeight},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return errors.New(errors.ErrCodeInvalidInput, "%s must be positive, got %v", p.name, p.value)
		}
	}
	if o.SubProcessMargin < 0 || o.ParentBorder < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "margins must not be negative")
	}
	if o.LabelWrapWidth <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "label wrap width must be positive, got %d", o.LabelWrapWidth)
	}
	if o.MaxLaneBranches <= 0 || o.MaxDepth <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "search bounds must be positive")
	}
	if o.Orientation != hierarchy.TopDown && o.Orientation != hierarchy.LeftRight {
		return errors.New(errors.ErrCodeInvalidInput, "unknown orientation %v", o.Orientation)
	}
	return nil
}

func (o Options) engineOptions(hook hierarchy.RankingHook) hierarchy.Options {
	return hierarchy.Options{
		Orientation:      o.Orientation,
		IntraCellSpacing: o.IntraCellSpacing,
		InterRankSpacing: o.InterRankSpacing,
		ParentBorder:     o.ParentBorder,
		FineTuning:       true,
		UseBoundingBox:   true,
		OrderingPasses:   hierarchy.DefaultOptions().OrderingPasses,
		RankingHook:      hook,
	}
}
