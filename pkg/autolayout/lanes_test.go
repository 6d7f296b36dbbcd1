package autolayout

import (
	"maps"
	"testing"

	"github.com/matzehuels/bpmnlayout/pkg/dag"
	"github.com/matzehuels/bpmnlayout/pkg/errors"
)

func edges(pairs ...string) []dag.Edge {
	var out []dag.Edge
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, dag.Edge{ID: pairs[i] + pairs[i+1], From: pairs[i], To: pairs[i+1]})
	}
	return out
}

func TestEnsureOneLanePerRank_MinimalLaneChanges(t *testing.T) {
	// a -> b -> c, d alone. a and d share rank 0 but sit in different lanes.
	ranks := map[string]int{"a": 0, "d": 0, "b": 1, "c": 2}
	laneOf := map[string]string{"a": "L2", "b": "L2", "c": "L1", "d": "L1"}

	got, stats, err := EnsureOneLanePerRank(ranks, edges("a", "b", "b", "c"), laneOf, []string{"L1", "L2"}, 100)
	if err != nil {
		t.Fatalf("EnsureOneLanePerRank() error = %v", err)
	}
	want := map[string]int{"a": 0, "b": 1, "c": 2, "d": 2}
	if !maps.Equal(got, want) {
		t.Errorf("EnsureOneLanePerRank() = %v, want %v", got, want)
	}
	if stats.LaneChanges != 1 {
		t.Errorf("LaneChanges = %d, want 1", stats.LaneChanges)
	}
	if stats.Conflicts != 2 || stats.Explored != 2 || stats.Branches != 4 {
		t.Errorf("stats = %+v, want 2 conflicts, 2 explored and 4 branches", stats)
	}
	if stats.BudgetExhausted {
		t.Error("BudgetExhausted = true, want false")
	}
	if ranks["d"] != 0 {
		t.Error("EnsureOneLanePerRank() modified its input")
	}
}

func TestEnsureOneLanePerRank_BudgetKeepsFirstCandidate(t *testing.T) {
	ranks := map[string]int{"a": 0, "d": 0, "b": 1, "c": 2}
	laneOf := map[string]string{"a": "L2", "b": "L2", "c": "L1", "d": "L1"}

	got, stats, err := EnsureOneLanePerRank(ranks, edges("a", "b", "b", "c"), laneOf, []string{"L1", "L2"}, 1)
	if err != nil {
		t.Fatalf("EnsureOneLanePerRank() error = %v", err)
	}
	want := map[string]int{"a": 1, "b": 2, "c": 3, "d": 0}
	if !maps.Equal(got, want) {
		t.Errorf("EnsureOneLanePerRank() = %v, want %v", got, want)
	}
	if !stats.BudgetExhausted {
		t.Error("BudgetExhausted = false, want true")
	}
	// The losing branch met a second conflict the chosen ranking never had.
	if stats.Conflicts != 1 || stats.Explored != 2 {
		t.Errorf("stats = %+v, want 1 conflict on the chosen ranking and 2 explored", stats)
	}
}

func TestEnsureOneLanePerRank_Properties(t *testing.T) {
	tests := []struct {
		name   string
		ranks  map[string]int
		edges  []dag.Edge
		laneOf map[string]string
		lanes  []string
	}{
		{
			name:   "two parallel lanes",
			ranks:  map[string]int{"a1": 0, "a2": 1, "a3": 2, "b1": 0, "b2": 1, "b3": 2},
			edges:  edges("a1", "a2", "a2", "a3", "b1", "b2", "b2", "b3"),
			laneOf: map[string]string{"a1": "A", "a2": "A", "a3": "A", "b1": "B", "b2": "B", "b3": "B"},
			lanes:  []string{"A", "B"},
		},
		{
			name:   "hand-over and back",
			ranks:  map[string]int{"s": 0, "x": 1, "y": 1, "j": 2, "e": 3},
			edges:  edges("s", "x", "s", "y", "x", "j", "y", "j", "j", "e"),
			laneOf: map[string]string{"s": "A", "x": "A", "y": "B", "j": "B", "e": "A"},
			lanes:  []string{"A", "B"},
		},
		{
			name:   "three lanes on one rank",
			ranks:  map[string]int{"s": 0, "p": 1, "q": 1, "r": 1, "e": 2},
			edges:  edges("s", "p", "s", "q", "s", "r", "p", "e", "q", "e", "r", "e"),
			laneOf: map[string]string{"p": "A", "q": "B", "r": "C"},
			lanes:  []string{"A", "B", "C"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := EnsureOneLanePerRank(tt.ranks, tt.edges, tt.laneOf, tt.lanes, 4096)
			if err != nil {
				t.Fatalf("EnsureOneLanePerRank() error = %v", err)
			}
			for _, e := range tt.edges {
				if got[e.From] >= got[e.To] {
					t.Errorf("rank(%s)=%d, rank(%s)=%d, want increasing", e.From, got[e.From], e.To, got[e.To])
				}
			}
			laneAt := make(map[int]string)
			low := -1
			for id, r := range got {
				if low < 0 || r < low {
					low = r
				}
				lane, ok := tt.laneOf[id]
				if !ok {
					continue
				}
				if prev, seen := laneAt[r]; seen && prev != lane {
					t.Errorf("rank %d holds lanes %s and %s", r, prev, lane)
				}
				laneAt[r] = lane
			}
			if low != 0 {
				t.Errorf("min rank = %d, want 0", low)
			}
		})
	}
}

func TestEnsureOneLanePerRank_UnlanedVerticesStay(t *testing.T) {
	ranks := map[string]int{"a": 0, "b": 0, "free": 0}
	laneOf := map[string]string{"a": "A", "b": "B"}

	got, _, err := EnsureOneLanePerRank(ranks, nil, laneOf, []string{"A", "B"}, 10)
	if err != nil {
		t.Fatalf("EnsureOneLanePerRank() error = %v", err)
	}
	want := map[string]int{"a": 0, "b": 1, "free": 0}
	if !maps.Equal(got, want) {
		t.Errorf("EnsureOneLanePerRank() = %v, want %v", got, want)
	}
}

func TestLaneSearchScore_Conflict(t *testing.T) {
	s := &laneSearch{
		ids:       []string{"a", "b"},
		laneOf:    map[string]string{"a": "A", "b": "B"},
		laneIndex: map[string]int{"A": 0, "B": 1},
	}
	_, err := s.score(map[string]int{"a": 0, "b": 0})
	if !errors.Is(err, errors.ErrCodeLaneConflict) {
		t.Fatalf("score() error = %v, want %s", err, errors.ErrCodeLaneConflict)
	}
	if id := errors.ElementID(err); id != "b" {
		t.Errorf("ElementID() = %q, want b", id)
	}
}
