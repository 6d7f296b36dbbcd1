package hierarchy

import (
	"slices"

	"github.com/matzehuels/bpmnlayout/pkg/dag"
)

// maxTransposeRounds bounds the adjacent-swap refinement.
const maxTransposeRounds = 8

// orderRows reduces edge crossings by reordering the nodes of every row.
//
// It alternates downward sweeps (order each row by the barycenter of its
// parents) and upward sweeps (by the barycenter of its children), keeping
// the best orders seen according to [dag.CountCrossings]. The best orders
// are then refined by swapping adjacent nodes while that removes crossings.
// Ties keep the current order, so the result only depends on insertion order.
func orderRows(g *dag.DAG, passes int) {
	rows := g.RowIDs()
	if len(rows) < 2 {
		return
	}

	best := g.RowOrders()
	bestCrossings := dag.CountCrossings(g, best)

	for pass := 0; pass < passes && bestCrossings > 0; pass++ {
		if pass%2 == 0 {
			for _, r := range rows[1:] {
				sortByBarycenter(g, r, r-1, true)
			}
		} else {
			for i := len(rows) - 2; i >= 0; i-- {
				sortByBarycenter(g, rows[i], rows[i]+1, false)
			}
		}
		orders := g.RowOrders()
		if c := dag.CountCrossings(g, orders); c < bestCrossings {
			best, bestCrossings = orders, c
		}
	}

	for r, ids := range best {
		g.SetRowOrder(r, ids)
	}
	if bestCrossings > 0 {
		transpose(g, rows)
	}
}

func sortByBarycenter(g *dag.DAG, row, adjRow int, useParents bool) {
	nodes := g.NodesInRow(row)
	adjPos := dag.PosMap(dag.NodeIDs(g.NodesInRow(adjRow)))

	type keyed struct {
		id  string
		key float64
	}
	keys := make([]keyed, len(nodes))
	for i, n := range nodes {
		nbrs := g.Children(n.ID)
		if useParents {
			nbrs = g.Parents(n.ID)
		}
		sum, count := 0.0, 0
		for _, nb := range nbrs {
			if p, ok := adjPos[nb]; ok {
				sum += float64(p)
				count++
			}
		}
		key := float64(i)
		if count > 0 {
			key = sum / float64(count)
		}
		keys[i] = keyed{n.ID, key}
	}
	slices.SortStableFunc(keys, func(a, b keyed) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		}
		return 0
	})

	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = k.id
	}
	g.SetRowOrder(row, ids)
}

// transpose swaps adjacent nodes while a swap strictly reduces the crossings
// against both neighbouring rows.
func transpose(g *dag.DAG, rows []int) {
	for round := 0; round < maxTransposeRounds; round++ {
		improved := false
		for _, r := range rows {
			ids := dag.NodeIDs(g.NodesInRow(r))
			if len(ids) < 2 {
				continue
			}
			above := dag.PosMap(dag.NodeIDs(g.NodesInRow(r - 1)))
			below := dag.PosMap(dag.NodeIDs(g.NodesInRow(r + 1)))
			swapped := false
			for i := 0; i+1 < len(ids); i++ {
				u, v := ids[i], ids[i+1]
				current := dag.CountPairCrossingsWithPos(g, u, v, above, true) +
					dag.CountPairCrossingsWithPos(g, u, v, below, false)
				flipped := dag.CountPairCrossingsWithPos(g, v, u, above, true) +
					dag.CountPairCrossingsWithPos(g, v, u, below, false)
				if flipped < current {
					ids[i], ids[i+1] = v, u
					swapped = true
				}
			}
			if swapped {
				g.SetRowOrder(r, ids)
				improved = true
			}
		}
		if !improved {
			return
		}
	}
}
