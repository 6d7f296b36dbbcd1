package autolayout

import (
	"github.com/matzehuels/bpmnlayout/pkg/bpmn"
	"github.com/matzehuels/bpmnlayout/pkg/dag"
	"github.com/matzehuels/bpmnlayout/pkg/errors"
	"github.com/matzehuels/bpmnlayout/pkg/hierarchy"
)

// ContainerLayout is the finished layout of one container, its nested
// sub-processes included, in the container's own coordinate space. The
// content starts at (0,0) and spans Width x Height.
type ContainerLayout struct {
	Shapes map[string]bpmn.GraphicInfo  // elements and lane boxes by id
	Flows  map[string][]hierarchy.Point // sequence flow waypoints by id
	Width  float64
	Height float64
	Stats  LaneStats
}

func newContainerLayout() *ContainerLayout {
	return &ContainerLayout{
		Shapes: make(map[string]bpmn.GraphicInfo),
		Flows:  make(map[string][]hierarchy.Point),
	}
}

// TranslateContainer moves every shape and waypoint of c by (dx, dy).
func TranslateContainer(c *ContainerLayout, dx, dy float64) {
	for id, gi := range c.Shapes {
		gi.X += dx
		gi.Y += dy
		c.Shapes[id] = gi
	}
	for _, pts := range c.Flows {
		for i := range pts {
			pts[i] = pts[i].Add(dx, dy)
		}
	}
}

// embed copies a laid-out sub-process into c, placed inside the sub-process
// box at (x, y) behind the margin.
func (c *ContainerLayout) embed(sub *ContainerLayout, x, y, margin float64) {
	TranslateContainer(sub, x+margin, y+margin)
	for id, gi := range sub.Shapes {
		c.Shapes[id] = gi
	}
	for id, pts := range sub.Flows {
		c.Flows[id] = pts
	}
}

// normalize shifts the content so its bounding box starts at (0,0) and
// records its size.
func (c *ContainerLayout) normalize() {
	var rects []hierarchy.Rect
	for _, gi := range c.Shapes {
		rects = append(rects, hierarchy.Rect{X: gi.X, Y: gi.Y, Width: gi.Width, Height: gi.Height})
	}
	var points []hierarchy.Point
	for _, pts := range c.Flows {
		points = append(points, pts...)
	}
	box := hierarchy.BoundingBox(rects, points)
	if box.X != 0 || box.Y != 0 {
		TranslateContainer(c, -box.X, -box.Y)
	}
	c.Width, c.Height = box.Width, box.Height
}

// layoutContainer runs the whole pipeline on one container: nested
// sub-processes first, then the container's own graph.
func (l *Layouter) layoutContainer(c bpmn.Container, depth int) (*ContainerLayout, error) {
	if depth > l.Options.MaxDepth {
		return nil, errors.Layout(errors.ErrCodeDepthExceeded, c.ContainerID(),
			"sub-processes nested deeper than %d levels", l.Options.MaxDepth)
	}

	nested := make(map[string]*ContainerLayout)
	for _, e := range c.FlowElements() {
		if e.Kind != bpmn.SubProcess {
			continue
		}
		sub, err := l.layoutContainer(e, depth+1)
		if err != nil {
			return nil, err
		}
		nested[e.ID] = sub
	}

	g, err := buildGraph(c, l.Options, nested)
	if err != nil {
		return nil, err
	}

	out := newContainerLayout()
	var hook hierarchy.RankingHook
	if len(g.laneOf) > 0 {
		hook = func(ranks map[string]int, edges []dag.Edge) (map[string]int, error) {
			resolved, stats, err := EnsureOneLanePerRank(ranks, edges, g.laneOf, g.laneOrder, l.Options.MaxLaneBranches)
			out.Stats = stats
			return resolved, err
		}
	}
	res, err := hierarchy.New(l.Options.engineOptions(hook)).Layout(g.input)
	if err != nil {
		return nil, err
	}
	l.logger().Debug("laid out container",
		"container", c.ContainerID(),
		"depth", depth,
		"vertices", len(g.input.Vertices),
		"edges", len(g.input.Edges),
		"ranks", res.MaxRank+1,
		"lane_conflicts", out.Stats.Conflicts,
		"lane_conflicts_explored", out.Stats.Explored,
		"lane_changes", out.Stats.LaneChanges)
	if out.Stats.BudgetExhausted {
		l.logger().Warn("lane search budget exhausted, kept first candidates",
			"container", c.ContainerID(), "branches", out.Stats.Branches)
	}

	for _, v := range g.input.Vertices {
		rect := res.Vertices[v.ID].Rect
		e := g.elements[v.ID]
		gi := bpmn.GraphicInfo{ElementID: v.ID, X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height}
		if e.Kind == bpmn.SubProcess {
			gi.Expanded = true
			out.embed(nested[v.ID], rect.X, rect.Y, l.Options.SubProcessMargin)
		}
		out.Shapes[v.ID] = gi
	}

	if err := l.refineFlows(g, res, out); err != nil {
		return nil, err
	}

	if l.Options.LanesAsGroups {
		for _, id := range g.laneOrder {
			if box, ok := res.Groups[id]; ok {
				out.Shapes[id] = bpmn.GraphicInfo{ElementID: id, X: box.X, Y: box.Y, Width: box.Width, Height: box.Height}
			}
		}
	}

	out.normalize()
	return out, nil
}

// refineFlows post-processes the routed flows of g: boundary events are
// clipped onto their circle, gateway exits snapped and collinear waypoints
// removed, in that order. Boundary events the engine gave no position, those
// without outgoing flow or looping back to their host, are placed on the
// bottom of the host last.
func (l *Layouter) refineFlows(g *layoutGraph, res *hierarchy.Result, out *ContainerLayout) error {
	placed := make(map[string]bool)
	taken := make(map[string][]float64) // vertex id -> x where flows touch its bottom
	var loops []*bpmn.SequenceFlow
	for _, f := range g.flows {
		pts := res.Edges[f.ID]
		src := g.elements[f.SourceRef]

		if src.Kind == bpmn.BoundaryEvent && g.vertexOf[f.TargetRef] == src.AttachedToRef {
			loops = append(loops, f)
			continue
		}
		g.touchBottom(taken, res, g.vertexOf[f.SourceRef], pts[0])
		g.touchBottom(taken, res, g.vertexOf[f.TargetRef], pts[len(pts)-1])

		if src.Kind == bpmn.BoundaryEvent {
			gi, clipped, err := ClipBoundaryEvent(src.ID, pts, l.Options.EventSize)
			if err != nil {
				return err
			}
			if !placed[src.ID] {
				out.Shapes[src.ID] = gi
				placed[src.ID] = true
			}
			pts = clipped
		}

		if src.Kind == bpmn.Gateway && g.outgoing[src.ID] > 1 && l.Options.Orientation == hierarchy.LeftRight {
			pts = SnapGatewayExit(pts, res.Vertices[src.ID].Rect)
		}

		out.Flows[f.ID] = OptimizeWaypoints(pts)
	}

	var hosts []string
	waiting := make(map[string][]string)
	for _, e := range g.boundary {
		if placed[e.ID] {
			continue
		}
		if _, ok := waiting[e.AttachedToRef]; !ok {
			hosts = append(hosts, e.AttachedToRef)
		}
		waiting[e.AttachedToRef] = append(waiting[e.AttachedToRef], e.ID)
	}
	for _, host := range hosts {
		for id, gi := range placeOnHost(res.Vertices[host].Rect, waiting[host], taken[host], l.Options.EventSize) {
			out.Shapes[id] = gi
		}
	}

	for _, f := range loops {
		host := res.Vertices[g.vertexOf[f.TargetRef]].Rect
		out.Flows[f.ID] = OptimizeWaypoints(boundaryLoop(out.Shapes[f.SourceRef], host, l.Options.IntraCellSpacing/4))
	}
	return nil
}

// touchBottom records p in taken when it lies on the bottom edge of vertex.
func (g *layoutGraph) touchBottom(taken map[string][]float64, res *hierarchy.Result, vertex string, p hierarchy.Point) {
	rect := res.Vertices[vertex].Rect
	if p.Y == rect.MaxY() && p.X >= rect.X && p.X <= rect.MaxX() {
		taken[vertex] = append(taken[vertex], p.X)
	}
}
