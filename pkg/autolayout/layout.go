package autolayout

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bpmnlayout/pkg/bpmn"
	"github.com/matzehuels/bpmnlayout/pkg/errors"
	"github.com/matzehuels/bpmnlayout/pkg/hierarchy"
	"github.com/matzehuels/bpmnlayout/pkg/observability"
)

// Layouter computes the diagram of every process of a model. A Layouter
// keeps no state between runs and may be reused.
type Layouter struct {
	Options Options
	Logger  *log.Logger
}

// NewLayouter creates a layouter. A nil logger discards all output.
func NewLayouter(opts Options, logger *log.Logger) *Layouter {
	return &Layouter{Options: opts, Logger: logger}
}

var discard = log.NewWithOptions(io.Discard, log.Options{})

func (l *Layouter) logger() *log.Logger {
	if l.Logger == nil {
		return discard
	}
	return l.Logger
}

// Layout clears the diagram of m and lays out each of its processes.
//
// Flows without an id get one first. Processes are laid out one after the
// other, each placed at (ParentBorder, ParentBorder) in its own diagram.
// A process is written to m only when its whole layout succeeded; the first
// failure stops the run and is returned as an *errors.LayoutError naming the
// process and the offending element.
func (l *Layouter) Layout(ctx context.Context, m *bpmn.Model) error {
	if err := l.Options.Validate(); err != nil {
		return err
	}
	m.ClearDI()
	if n := m.EnsureFlowIDs(); n > 0 {
		l.logger().Debug("assigned sequence flow ids", "count", n)
	}

	hooks := observability.Pipeline()
	for _, p := range m.Processes {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		hooks.OnLayoutStart(ctx, p.ID, len(p.Elements))

		staged, err := l.LayoutProcess(p)
		hooks.OnLayoutComplete(ctx, p.ID, time.Since(start), err)
		if err != nil {
			return err
		}
		commit(m, staged)
		l.logger().Debug("laid out process",
			"process", p.ID,
			"shapes", len(staged.Shapes),
			"flows", len(staged.Flows),
			"width", staged.Width,
			"height", staged.Height,
			"duration", time.Since(start))
	}
	return nil
}

// LayoutProcess lays out one process without touching the model. The
// result is offset by ParentBorder.
func (l *Layouter) LayoutProcess(p *bpmn.Process) (*ContainerLayout, error) {
	out, err := l.layoutContainer(p, 0)
	if err != nil {
		return nil, withProcess(err, p.ID)
	}
	TranslateContainer(out, l.Options.ParentBorder, l.Options.ParentBorder)
	return out, nil
}

// commit writes a finished process layout into the DI store of m.
func commit(m *bpmn.Model, c *ContainerLayout) {
	for id, gi := range c.Shapes {
		m.AddGraphicInfo(id, gi)
	}
	for id, pts := range c.Flows {
		waypoints := make([]bpmn.GraphicInfo, len(pts))
		for i, p := range pts {
			waypoints[i] = bpmn.GraphicInfo{X: p.X, Y: p.Y}
		}
		m.AddFlowGraphicInfoList(id, waypoints)
	}
}

func withProcess(err error, processID string) error {
	if le, ok := errors.AsLayout(err); ok {
		if le.ProcessID == "" {
			le.ProcessID = processID
		}
		return err
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return &errors.LayoutError{
		Code:      code,
		ProcessID: processID,
		Message:   "layout failed",
		Cause:     err,
	}
}

// Points converts stored waypoints back into layout points.
func Points(waypoints []bpmn.GraphicInfo) []hierarchy.Point {
	pts := make([]hierarchy.Point, len(waypoints))
	for i, w := range waypoints {
		pts[i] = hierarchy.Point{X: w.X, Y: w.Y}
	}
	return pts
}
