package transform

import (
	"slices"
	"testing"

	"github.com/matzehuels/bpmnlayout/pkg/dag"
)

func build(nodes []string, edges [][3]string) *dag.DAG {
	g := dag.New()
	for _, id := range nodes {
		_ = g.AddNode(dag.Node{ID: id})
	}
	for _, e := range edges {
		_ = g.AddEdge(dag.Edge{ID: e[0], From: e[1], To: e[2]})
	}
	return g
}

func TestReverseCycles_NoCycles(t *testing.T) {
	g := build([]string{"a", "b", "c"}, [][3]string{{"1", "a", "b"}, {"2", "b", "c"}})

	reversed := ReverseCycles(g)

	if len(reversed) != 0 {
		t.Errorf("ReverseCycles() reversed %d edges, want 0", len(reversed))
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
}

func TestReverseCycles_TriangleCycle(t *testing.T) {
	g := build([]string{"a", "b", "c"}, [][3]string{{"1", "a", "b"}, {"2", "b", "c"}, {"3", "c", "a"}})

	reversed := ReverseCycles(g)

	if len(reversed) != 1 {
		t.Fatalf("ReverseCycles() reversed %d edges, want 1", len(reversed))
	}
	r := reversed[0]
	if r.ID != "3" || r.From != "a" || r.To != "c" || !r.Reversed {
		t.Errorf("reversed edge = %+v, want 3 a→c reversed", r)
	}
	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount() = %d, want 3 (edges are flipped, not dropped)", g.EdgeCount())
	}
	if err := g.DetectCycles(); err != nil {
		t.Errorf("DetectCycles() = %v, want nil", err)
	}
}

func TestReverseCycles_OnlyCycle(t *testing.T) {
	// No sources at all: the search must still visit the nodes.
	g := build([]string{"a", "b"}, [][3]string{{"1", "a", "b"}, {"2", "b", "a"}})

	ReverseCycles(g)

	if err := g.DetectCycles(); err != nil {
		t.Errorf("DetectCycles() = %v, want nil", err)
	}
}

func TestAssignLayers(t *testing.T) {
	// a → b → d, a → c → d, a → d
	g := build([]string{"a", "b", "c", "d"}, [][3]string{
		{"1", "a", "b"}, {"2", "a", "c"}, {"3", "b", "d"}, {"4", "c", "d"}, {"5", "a", "d"},
	})

	AssignLayers(g)

	want := map[string]int{"a": 0, "b": 1, "c": 1, "d": 2}
	for id, row := range want {
		if n, _ := g.Node(id); n.Row != row {
			t.Errorf("row(%s) = %d, want %d", id, n.Row, row)
		}
	}
}

func TestNormalizeRows(t *testing.T) {
	rows := map[string]int{"a": -2, "b": 0, "c": 3}
	if shift := NormalizeRows(rows); shift != 2 {
		t.Errorf("NormalizeRows() = %d, want 2", shift)
	}
	want := map[string]int{"a": 0, "b": 2, "c": 5}
	for id, r := range want {
		if rows[id] != r {
			t.Errorf("rows[%s] = %d, want %d", id, rows[id], r)
		}
	}
}

func TestSubdivide(t *testing.T) {
	g := build([]string{"a", "b", "c"}, [][3]string{{"long", "a", "c"}, {"1", "a", "b"}, {"2", "b", "c"}})
	g.SetRows(map[string]int{"a": 0, "b": 1, "c": 3})

	chains := Subdivide(g)

	if got, want := chains["long"], []string{"long_sub_1", "long_sub_2"}; !slices.Equal(got, want) {
		t.Errorf("chains[long] = %v, want %v", got, want)
	}
	if got, want := chains["2"], []string{"2_sub_2"}; !slices.Equal(got, want) {
		t.Errorf("chains[2] = %v, want %v", got, want)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() after Subdivide = %v", err)
	}
	n, ok := g.Node("long_sub_1")
	if !ok || !n.IsDummy() || n.EdgeID != "long" || n.Row != 1 {
		t.Errorf("dummy = %+v, want dummy of edge long at row 1", n)
	}
	for _, e := range g.Edges() {
		if e.ID == "" {
			t.Errorf("edge %s→%s lost its id", e.From, e.To)
		}
	}
}
