package hierarchy

import (
	"math"
	"slices"

	"github.com/matzehuels/bpmnlayout/pkg/dag"
)

// fineTuningPasses is the number of median alignment sweeps.
const fineTuningPasses = 4

// assignCoordinates computes the final rectangle of every node, dummies
// included. Dummies get zero-size rectangles at their bend point.
//
// Positions are first computed along two abstract axes: the main axis runs
// across ranks and the cross axis along a rank. The orientation decides how
// they map onto x and y.
func (e *Engine) assignCoordinates(g *dag.DAG) map[string]Rect {
	rows := g.RowIDs()
	maxRow := g.MaxRow()

	mainSize := func(n *dag.Node) float64 {
		if e.opts.Orientation == LeftRight {
			return n.Width
		}
		return n.Height
	}
	crossSize := func(n *dag.Node) float64 {
		if e.opts.Orientation == LeftRight {
			return n.Height
		}
		return n.Width
	}

	// Rank extents along the main axis.
	extent := make(map[int]float64, len(rows))
	globalMax := 0.0
	for _, r := range rows {
		for _, n := range g.NodesInRow(r) {
			extent[r] = math.Max(extent[r], mainSize(n))
		}
		globalMax = math.Max(globalMax, extent[r])
	}
	if !e.opts.UseBoundingBox {
		for _, r := range rows {
			extent[r] = globalMax
		}
	}

	rankStart := make(map[int]float64, maxRow+1)
	pos := 0.0
	for r := 0; r <= maxRow; r++ {
		rankStart[r] = pos
		if len(g.NodesInRow(r)) > 0 {
			pos += extent[r] + e.opts.InterRankSpacing
		}
	}

	// Cross axis: left-pack each rank, then centre it on 0.
	cross := make(map[string]float64, g.NodeCount())
	for _, r := range rows {
		nodes := g.NodesInRow(r)
		for i, n := range nodes {
			if i == 0 {
				cross[n.ID] = crossSize(n) / 2
				continue
			}
			prev := nodes[i-1]
			cross[n.ID] = cross[prev.ID] + e.separation(prev, n, crossSize)
		}
		if len(nodes) > 0 {
			first, last := nodes[0], nodes[len(nodes)-1]
			lo := cross[first.ID] - crossSize(first)/2
			hi := cross[last.ID] + crossSize(last)/2
			shift := -(lo + hi) / 2
			for _, n := range nodes {
				cross[n.ID] += shift
			}
		}
	}

	if e.opts.FineTuning {
		for pass := 0; pass < fineTuningPasses; pass++ {
			down := pass%2 == 0
			if down {
				for _, r := range rows {
					e.alignRow(g, r, cross, crossSize, true)
				}
			} else {
				for _, r := range slices.Backward(rows) {
					e.alignRow(g, r, cross, crossSize, false)
				}
			}
		}
	}

	rects := make(map[string]Rect, g.NodeCount())
	for _, n := range g.Nodes() {
		mainCenter := rankStart[n.Row] + extent[n.Row]/2
		c := cross[n.ID]
		if e.opts.Orientation == LeftRight {
			rects[n.ID] = Rect{X: mainCenter - n.Width/2, Y: c - n.Height/2, Width: n.Width, Height: n.Height}
		} else {
			rects[n.ID] = Rect{X: c - n.Width/2, Y: mainCenter - n.Height/2, Width: n.Width, Height: n.Height}
		}
	}
	return rects
}

// separation is the minimum distance between the centres of two
// neighbouring nodes of a rank. Dummies get tighter gaps so long edges
// bundle closer to the real vertices.
func (e *Engine) separation(a, b *dag.Node, crossSize func(*dag.Node) float64) float64 {
	gap := e.opts.IntraCellSpacing
	switch {
	case a.IsDummy() && b.IsDummy():
		gap /= 4
	case a.IsDummy() || b.IsDummy():
		gap /= 2
	}
	return crossSize(a)/2 + crossSize(b)/2 + gap
}

// alignRow moves the nodes of one rank towards the median cross position of
// their neighbours in the previous (useParents) or next rank.
//
// The desired positions are made feasible twice: once sweeping left to right
// (pushing nodes right until they respect the separation from their left
// neighbour) and once right to left. The average of the two feasible
// solutions keeps both the order and the separation of the rank.
func (e *Engine) alignRow(g *dag.DAG, row int, cross map[string]float64, crossSize func(*dag.Node) float64, useParents bool) {
	nodes := g.NodesInRow(row)
	if len(nodes) == 0 {
		return
	}
	desired := make([]float64, len(nodes))
	for i, n := range nodes {
		nbrs := g.Children(n.ID)
		if useParents {
			nbrs = g.Parents(n.ID)
		}
		desired[i] = cross[n.ID]
		if len(nbrs) > 0 {
			values := make([]float64, len(nbrs))
			for j, nb := range nbrs {
				values[j] = cross[nb]
			}
			desired[i] = median(values)
		}
	}

	left := make([]float64, len(nodes))
	right := make([]float64, len(nodes))
	for i := range nodes {
		left[i] = desired[i]
		if i > 0 {
			left[i] = math.Max(desired[i], left[i-1]+e.separation(nodes[i-1], nodes[i], crossSize))
		}
	}
	for i := len(nodes) - 1; i >= 0; i-- {
		right[i] = desired[i]
		if i < len(nodes)-1 {
			right[i] = math.Min(desired[i], right[i+1]-e.separation(nodes[i], nodes[i+1], crossSize))
		}
	}
	for i, n := range nodes {
		cross[n.ID] = (left[i] + right[i]) / 2
	}
}

func median(values []float64) float64 {
	s := slices.Clone(values)
	slices.Sort(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
