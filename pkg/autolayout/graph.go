package autolayout

import (
	"strings"

	"github.com/mitchellh/go-wordwrap"

	"github.com/matzehuels/bpmnlayout/pkg/bpmn"
	"github.com/matzehuels/bpmnlayout/pkg/errors"
	"github.com/matzehuels/bpmnlayout/pkg/hierarchy"
)

// layoutGraph is the working graph of one container. It lives for the
// duration of a single layoutContainer call.
type layoutGraph struct {
	input hierarchy.Input

	elements map[string]*bpmn.FlowElement // handled elements by id
	flows    []*bpmn.SequenceFlow         // declaration order
	boundary []*bpmn.FlowElement          // deferred boundary events
	vertexOf map[string]string            // element id -> vertex id

	laneOf    map[string]string // vertex id -> lane id
	laneOrder []string
	laneIndex map[string]int // lane id -> 1-based position

	outgoing map[string]int // vertex id -> number of outgoing flows
}

// buildGraph translates the elements of c into sized vertices and styled
// edges. nested holds the finished layouts of the sub-processes of c.
func buildGraph(c bpmn.Container, opts Options, nested map[string]*ContainerLayout) (*layoutGraph, error) {
	g := &layoutGraph{
		elements:  make(map[string]*bpmn.FlowElement),
		vertexOf:  make(map[string]string),
		laneOf:    make(map[string]string),
		laneIndex: make(map[string]int),
		outgoing:  make(map[string]int),
	}

	for _, e := range c.FlowElements() {
		g.elements[e.ID] = e
		if e.Kind == bpmn.BoundaryEvent {
			g.boundary = append(g.boundary, e)
			continue
		}
		w, h, err := opts.sizeOf(e, nested)
		if err != nil {
			return nil, err
		}
		g.input.Vertices = append(g.input.Vertices, hierarchy.Vertex{ID: e.ID, Width: w, Height: h})
		g.vertexOf[e.ID] = e.ID
	}

	// Boundary events only exist once their host vertex does.
	for _, e := range g.boundary {
		host, ok := g.elements[e.AttachedToRef]
		if !ok || !host.Kind.IsActivity() {
			return nil, errors.Layout(errors.ErrCodeUnresolvedAttachment, e.ID,
				"boundary event attached to unknown activity %q", e.AttachedToRef)
		}
		g.vertexOf[e.ID] = host.ID
	}

	g.resolveLanes(c.ContainerLanes(), opts.LanesAsGroups)

	for _, f := range c.SequenceFlows() {
		src, okSrc := g.vertexOf[f.SourceRef]
		tgt, okTgt := g.vertexOf[f.TargetRef]
		if !okSrc || !okTgt {
			return nil, errors.Layout(errors.ErrCodeDanglingFlow, f.ID,
				"sequence flow %s -> %s references an unknown element", f.SourceRef, f.TargetRef)
		}
		g.flows = append(g.flows, f)
		g.outgoing[src]++
		style := SelectEdgeStyle(EdgeContext{
			SourceKind:  g.elements[f.SourceRef].Kind,
			SourceLane:  g.lane(src, opts.LanesAsGroups),
			TargetLane:  g.lane(tgt, opts.LanesAsGroups),
			Orientation: opts.Orientation,
		})
		if g.elements[f.SourceRef].Kind == bpmn.BoundaryEvent {
			style.Port = f.SourceRef
		}
		g.input.Edges = append(g.input.Edges, hierarchy.Edge{ID: f.ID, From: src, To: tgt, Style: style})
	}
	return g, nil
}

// resolveLanes records the lane of every vertex. With groups enabled each
// lane also becomes a group of the engine input.
func (g *layoutGraph) resolveLanes(lanes []*bpmn.Lane, groups bool) {
	for i, lane := range lanes {
		g.laneOrder = append(g.laneOrder, lane.ID)
		g.laneIndex[lane.ID] = i + 1
		var members []string
		for _, ref := range lane.FlowNodeRefs {
			e, ok := g.elements[ref]
			if !ok || e.Kind == bpmn.BoundaryEvent {
				continue
			}
			if _, taken := g.laneOf[ref]; taken {
				continue
			}
			g.laneOf[ref] = lane.ID
			members = append(members, ref)
		}
		if groups && len(members) > 0 {
			g.input.Groups = append(g.input.Groups, hierarchy.Group{ID: lane.ID, Members: members})
		}
	}
}

// lane returns the 1-based lane position of a vertex, or 0 when lanes do not
// take part in routing.
func (g *layoutGraph) lane(vertex string, groups bool) int {
	if !groups {
		return 0
	}
	return g.laneIndex[g.laneOf[vertex]]
}

// sizeOf returns the shape size of a non-boundary element.
func (o Options) sizeOf(e *bpmn.FlowElement, nested map[string]*ContainerLayout) (float64, float64, error) {
	switch e.Kind {
	case bpmn.StartEvent, bpmn.IntermediateEvent, bpmn.EndEvent:
		return o.EventSize, o.EventSize, nil
	case bpmn.Gateway:
		return o.GatewaySize, o.GatewaySize, nil
	case bpmn.Task, bpmn.CallActivity:
		return o.TaskWidth, o.labelHeight(e.Name), nil
	case bpmn.SubProcess:
		sub, ok := nested[e.ID]
		if !ok {
			return 0, 0, errors.Layout(errors.ErrCodeInternal, e.ID, "sub-process laid out before its content")
		}
		return sub.Width + 2*o.SubProcessMargin, sub.Height + 2*o.SubProcessMargin, nil
	case bpmn.BoundaryEvent:
		return 0, 0, errors.Layout(errors.ErrCodeInternal, e.ID, "boundary events are sized by their host")
	}
	return 0, 0, errors.Layout(errors.ErrCodeInvalidModel, e.ID, "unsupported element kind %v", e.Kind)
}

// labelHeight returns the task height needed for a wrapped label.
func (o Options) labelHeight(label string) float64 {
	lines := wrapLabel(label, o.LabelWrapWidth)
	if len(lines) == 0 {
		return o.TaskHeight
	}
	padding := 20.0
	if len(lines) > 1 {
		padding = 10
	}
	return max(o.TaskHeight, float64(len(lines))*o.LineHeight+2*padding)
}

// wrapLabel splits a label into lines of at most width characters. Words
// longer than a line are broken.
func wrapLabel(label string, width int) []string {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(wordwrap.WrapString(label, uint(width)), "\n") {
		runes := []rune(strings.TrimSpace(line))
		for len(runes) > width {
			lines = append(lines, string(runes[:width]))
			runes = runes[width:]
		}
		if len(runes) > 0 {
			lines = append(lines, string(runes))
		}
	}
	return lines
}
