package autolayout

import (
	"github.com/matzehuels/bpmnlayout/pkg/bpmn"
	"github.com/matzehuels/bpmnlayout/pkg/hierarchy"
)

// EdgeContext is what the routing style of a sequence flow depends on.
// Lanes are 1-based positions in lane order, 0 when the container has no
// lanes or lanes are not drawn.
type EdgeContext struct {
	SourceKind  bpmn.Kind // kind of the logical source, before boundary events map to their host
	SourceLane  int
	TargetLane  int
	Orientation hierarchy.Orientation
}

// SelectEdgeStyle picks the routing style of a sequence flow.
func SelectEdgeStyle(ec EdgeContext) hierarchy.Style {
	lr := ec.Orientation == hierarchy.LeftRight
	switch {
	case ec.SourceKind == bpmn.BoundaryEvent:
		if lr {
			return hierarchy.Style{Routing: hierarchy.Orthogonal, Exit: anchor(0.5, 1), Entry: anchor(0.5, 1)}
		}
		return hierarchy.Style{Routing: hierarchy.Orthogonal}
	case ec.SourceLane == ec.TargetLane:
		if lr {
			return hierarchy.Style{Routing: hierarchy.Elbow, Entry: anchor(0, 0.5)}
		}
		return hierarchy.Style{Routing: hierarchy.Orthogonal}
	case ec.SourceLane < ec.TargetLane:
		return hierarchy.Style{Routing: hierarchy.Segment, Exit: anchor(0.5, 1), Entry: anchor(0.5, 0)}
	default:
		return hierarchy.Style{Routing: hierarchy.Segment, Exit: anchor(0.5, 0), Entry: anchor(0.5, 1)}
	}
}

func anchor(x, y float64) *hierarchy.Anchor {
	return &hierarchy.Anchor{X: x, Y: y}
}
