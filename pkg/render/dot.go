package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mitchellh/go-wordwrap"

	"github.com/matzehuels/bpmnlayout/pkg/autolayout"
	"github.com/matzehuels/bpmnlayout/pkg/bpmn"
	"github.com/matzehuels/bpmnlayout/pkg/hierarchy"
)

const (
	// DefaultProcessGap is the vertical space between stacked processes.
	DefaultProcessGap = 40.0

	// DefaultWrapWidth is the label width in characters.
	DefaultWrapWidth = 22

	pointsPerInch = 72.0
	arrowLength   = 6.0
)

// Options configures diagram rendering.
type Options struct {
	// Detailed appends the element id to every label.
	Detailed bool

	// ProcessGap is the vertical space between two processes. Zero means
	// DefaultProcessGap.
	ProcessGap float64

	// WrapWidth is the label width in characters. Zero means
	// DefaultWrapWidth.
	WrapWidth int
}

func (o Options) withDefaults() Options {
	if o.ProcessGap <= 0 {
		o.ProcessGap = DefaultProcessGap
	}
	if o.WrapWidth <= 0 {
		o.WrapWidth = DefaultWrapWidth
	}
	return o
}

// ToDOT converts a laid-out model to Graphviz DOT format. Elements without
// stored bounds and flows without waypoints are skipped, so an unlaid model
// yields an empty graph.
//
// Lanes are written first and every expanded sub-process before its
// children, which keeps containers behind their contents.
func ToDOT(m *bpmn.Model, opts Options) string {
	opts = opts.withDefaults()
	offsets, height := stackProcesses(m, opts.ProcessGap)
	w := &dotWriter{model: m, opts: opts, height: height}

	w.buf.WriteString("digraph \"bpmn\" {\n")
	w.buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&w.buf, "  bb=\"0,0,%.2f,%.2f\";\n", stackWidth(m), height)
	w.buf.WriteString("  node [fixedsize=true, fontname=\"Helvetica\", fontsize=10, style=filled, fillcolor=white];\n")
	w.buf.WriteString("  edge [arrowsize=0.6];\n")

	for i, p := range m.Processes {
		w.dy = offsets[i]
		fmt.Fprintf(&w.buf, "\n  // process %s\n", p.ID)
		for _, l := range p.Lanes {
			w.lane(l)
		}
		w.container(p)
	}

	w.buf.WriteString("}\n")
	return w.buf.String()
}

type dotWriter struct {
	buf    bytes.Buffer
	model  *bpmn.Model
	opts   Options
	height float64
	dy     float64
}

func (w *dotWriter) container(c bpmn.Container) {
	for _, e := range c.FlowElements() {
		gi, ok := w.model.GraphicInfo(e.ID)
		if !ok {
			continue
		}
		w.node(e.ID, w.label(e.Name, e.ID), gi, elementAttrs(e, gi))
		if e.Kind == bpmn.SubProcess {
			w.container(e)
		}
	}
	for _, f := range c.SequenceFlows() {
		w.edge(f)
	}
}

func (w *dotWriter) lane(l *bpmn.Lane) {
	gi, ok := w.model.GraphicInfo(l.ID)
	if !ok {
		return
	}
	w.node(l.ID, w.label(l.Name, l.ID), gi, []string{
		"shape=box", "fillcolor=\"#f5f5f5\"", "color=\"#9e9e9e\"", "labelloc=t", "labeljust=l",
	})
}

func (w *dotWriter) node(id, label string, gi bpmn.GraphicInfo, attrs []string) {
	c := w.flip(hierarchy.Point{X: gi.X + gi.Width/2, Y: gi.Y + gi.Height/2})
	attrs = append([]string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("pos=\"%.2f,%.2f!\"", c.X, c.Y),
		fmt.Sprintf("width=%.4f", gi.Width/pointsPerInch),
		fmt.Sprintf("height=%.4f", gi.Height/pointsPerInch),
	}, attrs...)
	fmt.Fprintf(&w.buf, "  %q [%s];\n", id, strings.Join(attrs, ", "))
}

func (w *dotWriter) edge(f *bpmn.SequenceFlow) {
	points := autolayout.Points(w.model.FlowGraphicInfo(f.ID))
	if len(points) < 2 {
		return
	}
	for i := range points {
		points[i] = w.flip(points[i])
	}
	attrs := []string{
		fmt.Sprintf("id=%q", f.ID),
		fmt.Sprintf("pos=%q", splinePos(points)),
	}
	if f.Name != "" {
		attrs = append(attrs, fmt.Sprintf("xlabel=%q", f.Name))
	}
	fmt.Fprintf(&w.buf, "  %q -> %q [%s];\n", f.SourceRef, f.TargetRef, strings.Join(attrs, ", "))
}

func (w *dotWriter) label(name, id string) string {
	label := wordwrap.WrapString(name, uint(w.opts.WrapWidth))
	if !w.opts.Detailed {
		return label
	}
	if label == "" {
		return id
	}
	return label + "\n" + id
}

// flip moves p into the process slot and converts it to Graphviz
// coordinates, whose y axis points up.
func (w *dotWriter) flip(p hierarchy.Point) hierarchy.Point {
	return hierarchy.Point{X: p.X, Y: w.height - (p.Y + w.dy)}
}

func elementAttrs(e *bpmn.FlowElement, gi bpmn.GraphicInfo) []string {
	switch e.Kind {
	case bpmn.StartEvent:
		return []string{"shape=circle", "fillcolor=\"#e8f5e9\""}
	case bpmn.EndEvent:
		return []string{"shape=circle", "penwidth=3", "fillcolor=\"#ffebee\""}
	case bpmn.IntermediateEvent, bpmn.BoundaryEvent:
		return []string{"shape=doublecircle", "fillcolor=\"#fff8e1\""}
	case bpmn.Gateway:
		return []string{"shape=diamond", "fillcolor=\"#fffde7\""}
	case bpmn.CallActivity:
		return []string{"shape=box", "style=\"rounded,filled\"", "penwidth=3"}
	case bpmn.SubProcess:
		if gi.Expanded {
			return []string{"shape=box", "style=\"rounded,filled\"", "fillcolor=\"#fafafa\"", "labelloc=t"}
		}
		return []string{"shape=box", "style=\"rounded,filled\""}
	default:
		return []string{"shape=box", "style=\"rounded,filled\""}
	}
}

// splinePos encodes a polyline as a Graphviz edge position: an end point
// for the arrowhead followed by a piecewise cubic B-spline whose segments
// are straight lines. The spline stops short of the target by the arrow
// length.
func splinePos(points []hierarchy.Point) string {
	last := len(points) - 1
	tip := points[last]
	end := shorten(points[last-1], tip, arrowLength)

	var b strings.Builder
	fmt.Fprintf(&b, "e,%.2f,%.2f %.2f,%.2f", tip.X, tip.Y, points[0].X, points[0].Y)
	for i := 1; i <= last; i++ {
		from, to := points[i-1], points[i]
		if i == last {
			to = end
		}
		fmt.Fprintf(&b, " %.2f,%.2f %.2f,%.2f %.2f,%.2f", from.X, from.Y, to.X, to.Y, to.X, to.Y)
	}
	return b.String()
}

// shorten moves b towards a by d, or to the midpoint of a short segment.
func shorten(a, b hierarchy.Point, d float64) hierarchy.Point {
	length := a.Dist(b)
	if length == 0 {
		return b
	}
	d = min(d, length/2)
	return hierarchy.Point{X: b.X + (a.X-b.X)*d/length, Y: b.Y + (a.Y-b.Y)*d/length}
}

// stackProcesses returns the vertical offset of every process and the total
// height. Each layouter run places its processes from the same origin, so
// they are stacked here.
func stackProcesses(m *bpmn.Model, gap float64) ([]float64, float64) {
	offsets := make([]float64, len(m.Processes))
	var y float64
	for i, p := range m.Processes {
		offsets[i] = y
		box := processBox(m, p)
		if box.Width == 0 && box.Height == 0 {
			continue
		}
		y += box.MaxY() + gap
	}
	if y > 0 {
		y -= gap
	}
	return offsets, y
}

func stackWidth(m *bpmn.Model) float64 {
	var w float64
	for _, p := range m.Processes {
		w = max(w, processBox(m, p).MaxX())
	}
	return w
}

// processBox is the bounding box of every shape and waypoint of p,
// including its sub-processes and lanes.
func processBox(m *bpmn.Model, p *bpmn.Process) hierarchy.Rect {
	var rects []hierarchy.Rect
	var points []hierarchy.Point
	add := func(id string) {
		if gi, ok := m.GraphicInfo(id); ok {
			rects = append(rects, hierarchy.Rect{X: gi.X, Y: gi.Y, Width: gi.Width, Height: gi.Height})
		}
	}
	for _, l := range p.Lanes {
		add(l.ID)
	}
	var walk func(c bpmn.Container)
	walk = func(c bpmn.Container) {
		for _, e := range c.FlowElements() {
			add(e.ID)
			if e.Kind == bpmn.SubProcess {
				walk(e)
			}
		}
		for _, f := range c.SequenceFlows() {
			points = append(points, autolayout.Points(m.FlowGraphicInfo(f.ID))...)
		}
	}
	walk(p)
	if len(rects) == 0 && len(points) == 0 {
		return hierarchy.Rect{}
	}
	return hierarchy.BoundingBox(rects, points)
}
