package transform

import "github.com/matzehuels/bpmnlayout/pkg/dag"

// ReverseCycles makes the graph acyclic by flipping back edges.
//
// A depth-first search starts from every source node in insertion order and
// then from any node not yet visited (nodes that only sit on cycles). Every
// edge that closes a cycle, i.e. points to a node still on the DFS stack, is
// replaced by an edge in the opposite direction with the same ID and
// Reversed set. Unlike dropping back edges, this keeps every flow in the
// layout: loops in a process still need to be drawn.
//
// Self loops are not handled here; they are never back edges worth
// reversing and the engine sets them aside before layering.
//
// Returns the reversed edges in their new orientation.
func ReverseCycles(g *dag.DAG) []dag.Edge {
	const (
		white = iota
		gray
		black
	)

	out := make(map[string][]dag.Edge)
	for _, e := range g.Edges() {
		out[e.From] = append(out[e.From], e)
	}

	color := make(map[string]int, g.NodeCount())
	var backEdges []dag.Edge

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, e := range out[node] {
			switch color[e.To] {
			case white:
				dfs(e.To)
			case gray:
				if e.From != e.To {
					backEdges = append(backEdges, e)
				}
			}
		}
		color[node] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	reversed := make([]dag.Edge, 0, len(backEdges))
	for _, e := range backEdges {
		g.RemoveEdge(e)
		flipped := dag.Edge{ID: e.ID, From: e.To, To: e.From, Reversed: !e.Reversed}
		if err := g.AddEdge(flipped); err != nil {
			panic(err)
		}
		reversed = append(reversed, flipped)
	}
	return reversed
}
