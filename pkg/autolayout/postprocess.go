package autolayout

import (
	"slices"

	"github.com/matzehuels/bpmnlayout/pkg/hierarchy"
)

// OptimizeWaypoints drops interior waypoints that lie on a straight
// horizontal or vertical run between their neighbours. The first and last
// waypoints are always kept. Applying it twice gives the same result as
// applying it once.
func OptimizeWaypoints(points []hierarchy.Point) []hierarchy.Point {
	out := slices.Clone(points)
	for {
		next := optimizeOnce(out)
		if len(next) == len(out) {
			return next
		}
		out = next
	}
}

func optimizeOnce(points []hierarchy.Point) []hierarchy.Point {
	if len(points) < 3 {
		return points
	}
	out := []hierarchy.Point{points[0]}
	for i := 1; i < len(points)-1; i++ {
		prev, p, next := out[len(out)-1], points[i], points[i+1]
		horizontal := p.Y == prev.Y && p.Y == next.Y && inRange(p.X, prev.X, next.X)
		vertical := p.X == prev.X && p.X == next.X && inRange(p.Y, prev.Y, next.Y)
		if horizontal || vertical {
			continue
		}
		out = append(out, p)
	}
	return append(out, points[len(points)-1])
}

func inRange(v, a, b float64) bool {
	return v >= min(a, b) && v <= max(a, b)
}

// SnapGatewayExit moves the first waypoint of a flow leaving a gateway to the
// nearest of the north, south, east and west corners of the gateway diamond,
// given by its bounding box. The second waypoint takes over the coordinate
// of the snapped point across the first segment, so that segment stays
// horizontal (or vertical, if it was). It is meant for left-right layouts.
func SnapGatewayExit(points []hierarchy.Point, box hierarchy.Rect) []hierarchy.Point {
	if len(points) == 0 {
		return points
	}
	c := box.Center()
	corners := []hierarchy.Point{
		{X: c.X, Y: box.Y},
		{X: c.X, Y: box.MaxY()},
		{X: box.MaxX(), Y: c.Y},
		{X: box.X, Y: c.Y},
	}
	snap := corners[0]
	for _, corner := range corners[1:] {
		if corner.Dist(points[0]) < snap.Dist(points[0]) {
			snap = corner
		}
	}

	out := slices.Clone(points)
	out[0] = snap
	if len(out) > 1 {
		if points[0].X == points[1].X && points[0].Y != points[1].Y {
			out[1].X = snap.X
		} else {
			out[1].Y = snap.Y
		}
	}
	return out
}
