package transform

import (
	"fmt"

	"github.com/matzehuels/bpmnlayout/pkg/dag"
)

// Subdivide breaks edges that span multiple rows into sequences of single-row
// edges connected by zero-size dummy nodes.
//
// After Subdivide every edge connects nodes in consecutive rows
// (parent.Row + 1 == child.Row). For example:
//
//	Before: review (row 1) → archive (row 4)           [edge f7]
//	After:  review → f7_sub_2 → f7_sub_3 → archive     [three hops, all f7]
//
// Every hop keeps the ID and the Reversed flag of the original edge, and each
// dummy records the edge in [dag.Node.EdgeID]. The returned map lists, per
// subdivided edge ID, the dummy IDs in row order; the router bends the edge
// through them.
//
// # Node IDs
//
// Dummy nodes get IDs of the form "edge_sub_row". If a collision occurs, a
// numeric suffix is appended ("f7_sub_2__1"). All generated IDs are tracked
// to guarantee uniqueness.
//
// Edges whose target is not below their source (self loops) are left alone.
func Subdivide(g *dag.DAG) map[string][]string {
	gen := newIDGen(g.Nodes())
	chains := make(map[string][]string)

	for _, e := range g.Edges() {
		src, srcOK := g.Node(e.From)
		dst, dstOK := g.Node(e.To)
		if !srcOK || !dstOK || dst.Row <= src.Row+1 {
			continue
		}

		g.RemoveEdge(e)
		prevID := src.ID
		for row := src.Row + 1; row < dst.Row; row++ {
			id := gen.next(e.ID, row)
			if err := g.AddNode(dag.Node{ID: id, Row: row, Kind: dag.NodeKindDummy, EdgeID: e.ID}); err != nil {
				panic(err)
			}
			mustAddEdge(g, dag.Edge{ID: e.ID, From: prevID, To: id, Reversed: e.Reversed})
			chains[e.ID] = append(chains[e.ID], id)
			prevID = id
		}
		mustAddEdge(g, dag.Edge{ID: e.ID, From: prevID, To: dst.ID, Reversed: e.Reversed})
	}
	return chains
}

func mustAddEdge(g *dag.DAG, e dag.Edge) {
	if err := g.AddEdge(e); err != nil {
		panic(err)
	}
}

type idGen struct {
	used map[string]struct{}
}

func newIDGen(nodes []*dag.Node) *idGen {
	m := make(map[string]struct{}, len(nodes)*2)
	for _, n := range nodes {
		m[n.ID] = struct{}{}
	}
	return &idGen{used: m}
}

func (gen *idGen) next(base string, row int) string {
	prefix := fmt.Sprintf("%s_sub_%d", base, row)
	id := prefix
	for i := 1; ; i++ {
		if _, exists := gen.used[id]; !exists {
			gen.used[id] = struct{}{}
			return id
		}
		id = fmt.Sprintf("%s__%d", prefix, i)
	}
}
