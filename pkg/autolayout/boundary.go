package autolayout

import (
	"math"
	"slices"

	"github.com/matzehuels/bpmnlayout/pkg/bpmn"
	"github.com/matzehuels/bpmnlayout/pkg/errors"
	"github.com/matzehuels/bpmnlayout/pkg/hierarchy"
)

// segmentTolerance absorbs rounding when testing whether a point lies on an
// axis-aligned segment.
const segmentTolerance = 0.01

// ClipBoundaryEvent places boundary event id on the first waypoint of its
// outgoing flow and makes the flow start on the event's circle.
//
// The event becomes a square of side eventSize centred on points[0]. The
// leading waypoints closer than eventSize to that centre are replaced by
// the single point where the flow crosses the circle of radius
// eventSize/2; all later waypoints are kept.
func ClipBoundaryEvent(id string, points []hierarchy.Point, eventSize float64) (bpmn.GraphicInfo, []hierarchy.Point, error) {
	if len(points) == 0 {
		return bpmn.GraphicInfo{}, nil, errors.Layout(errors.ErrCodeBoundaryIntersection, id, "outgoing flow has no waypoints")
	}
	center := points[0]
	r := eventSize / 2
	gi := bpmn.GraphicInfo{ElementID: id, X: center.X - r, Y: center.Y - r, Width: eventSize, Height: eventSize}

	i := 0
	for i < len(points) && distSq(points[i], center) < eventSize*eventSize {
		i++
	}
	if i == len(points) {
		return gi, nil, errors.Layout(errors.ErrCodeBoundaryIntersection, id, "outgoing flow ends inside the event")
	}
	if i == 0 {
		return gi, nil, errors.Layout(errors.ErrCodeBoundaryIntersection, id, "event has no extent")
	}
	inside, outside := points[i-1], points[i]

	var hits []hierarchy.Point
	for _, p := range CircleLineIntersections(inside, outside, center, r) {
		if OnSegment(p, inside, outside) {
			hits = append(hits, p)
		}
	}
	if len(hits) != 1 {
		return gi, nil, errors.Layout(errors.ErrCodeBoundaryIntersection, id,
			"outgoing flow crosses the event boundary %d times between %v and %v", len(hits), inside, outside)
	}

	clipped := make([]hierarchy.Point, 0, len(points)-i+1)
	clipped = append(clipped, hits[0])
	clipped = append(clipped, points[i:]...)
	return gi, clipped, nil
}

// CircleLineIntersections returns the points where the infinite line through
// a and b meets the circle around center with radius r: none, one tangent
// point or two points.
func CircleLineIntersections(a, b, center hierarchy.Point, r float64) []hierarchy.Point {
	baX, baY := b.X-a.X, b.Y-a.Y
	caX, caY := center.X-a.X, center.Y-a.Y

	qa := baX*baX + baY*baY
	if qa == 0 {
		return nil
	}
	bBy2 := baX*caX + baY*caY
	c := caX*caX + caY*caY - r*r

	pBy2 := bBy2 / qa
	q := c / qa
	disc := pBy2*pBy2 - q
	if disc < 0 {
		return nil
	}

	at := func(t float64) hierarchy.Point { return hierarchy.Point{X: a.X + baX*t, Y: a.Y + baY*t} }
	if disc == 0 {
		return []hierarchy.Point{at(pBy2)}
	}
	root := math.Sqrt(disc)
	return []hierarchy.Point{at(pBy2 - root), at(pBy2 + root)}
}

// OnSegment reports whether p lies within the bounding box of the segment
// from a to b, with a small tolerance on both axes.
func OnSegment(p, a, b hierarchy.Point) bool {
	return between(p.X, a.X, b.X) && between(p.Y, a.Y, b.Y)
}

func between(v, a, b float64) bool {
	return v >= min(a, b)-segmentTolerance && v <= max(a, b)+segmentTolerance
}

func distSq(p, q hierarchy.Point) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

// placeOnHost spreads boundary events along the bottom edge of their host.
// taken lists the x coordinates on that edge where flows already start or
// end; every one of them removes the nearest free slot.
func placeOnHost(host hierarchy.Rect, ids []string, taken []float64, eventSize float64) map[string]bpmn.GraphicInfo {
	n := len(ids) + len(taken)
	slots := make([]float64, 0, n)
	for i := range n {
		slots = append(slots, host.X+host.Width*float64(i+1)/float64(n+1))
	}
	for _, x := range taken {
		nearest := 0
		for i, s := range slots {
			if math.Abs(s-x) < math.Abs(slots[nearest]-x) {
				nearest = i
			}
		}
		slots = slices.Delete(slots, nearest, nearest+1)
	}

	out := make(map[string]bpmn.GraphicInfo, len(ids))
	r := eventSize / 2
	for i, id := range ids {
		out[id] = bpmn.GraphicInfo{ElementID: id, X: slots[i] - r, Y: host.MaxY() - r, Width: eventSize, Height: eventSize}
	}
	return out
}

// boundaryLoop routes the flow of a boundary event that returns to its own
// host. The flow leaves the event downwards, passes the host on the left and
// enters it from the left side.
func boundaryLoop(event bpmn.GraphicInfo, host hierarchy.Rect, offset float64) []hierarchy.Point {
	cx := event.X + event.Width/2
	bottom := event.Y + event.Height
	below := bottom + offset
	left := host.X - offset
	mid := host.Center().Y
	return []hierarchy.Point{
		{X: cx, Y: bottom},
		{X: cx, Y: below},
		{X: left, Y: below},
		{X: left, Y: mid},
		{X: host.X, Y: mid},
	}
}
