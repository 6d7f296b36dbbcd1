package autolayout

import (
	"maps"
	"slices"

	"github.com/matzehuels/bpmnlayout/pkg/dag"
	"github.com/matzehuels/bpmnlayout/pkg/errors"
)

// LaneStats describes one run of [EnsureOneLanePerRank].
type LaneStats struct {
	Conflicts       int  // ranks carrying more than one lane on the way to the chosen ranking
	Explored        int  // conflicting ranks met across every explored branch
	Branches        int  // candidate lanes tried
	BudgetExhausted bool // the branch budget ran out before the search ended
	LaneChanges     int  // lane changes of the chosen ranking
}

// EnsureOneLanePerRank re-ranks a layered graph so that every rank holds
// vertices of at most one lane.
//
// Ranks are scanned from the first to the last. At a rank holding several
// lanes, each lane is tried in turn as the one that stays: every vertex of
// another lane is pushed one rank further, and the push cascades along
// outgoing edges wherever rank(From) < rank(To) would break. The remaining
// ranks are then resolved recursively. Of the complete rankings, the one
// with the fewest lane changes wins; ties go to the lane declared first.
//
// Vertices without a lane never take part in the constraint. Once
// maxBranches candidates have been tried, every further conflict keeps only
// its first lane. The result is shifted so that its smallest rank is 0.
// The input map is not modified.
func EnsureOneLanePerRank(ranks map[string]int, edges []dag.Edge, laneOf map[string]string,
	laneOrder []string, maxBranches int) (map[string]int, LaneStats, error) {
	s := &laneSearch{
		ids:       slices.Sorted(maps.Keys(ranks)),
		succ:      make(map[string][]string),
		laneOf:    laneOf,
		laneIndex: make(map[string]int, len(laneOrder)),
		budget:    maxBranches,
	}
	for i, l := range laneOrder {
		s.laneIndex[l] = i
	}
	for _, e := range edges {
		s.succ[e.From] = append(s.succ[e.From], e.To)
	}

	resolved, conflicts, err := s.resolve(maps.Clone(ranks), minRank(ranks))
	if err != nil {
		return nil, s.stats, err
	}
	s.stats.Conflicts = conflicts
	changes, err := s.score(resolved)
	if err != nil {
		return nil, s.stats, err
	}
	s.stats.LaneChanges = changes

	if low := minRank(resolved); low != 0 {
		for id := range resolved {
			resolved[id] -= low
		}
	}
	return resolved, s.stats, nil
}

type laneSearch struct {
	ids       []string // sorted vertex ids
	succ      map[string][]string
	laneOf    map[string]string
	laneIndex map[string]int
	budget    int
	stats     LaneStats
}

// resolve removes every lane conflict at rank r and beyond. It also returns
// the number of conflicts resolved on the way to the returned ranking.
func (s *laneSearch) resolve(ranks map[string]int, r int) (map[string]int, int, error) {
	for ; r <= maxRank(ranks); r++ {
		lanes := s.lanesAt(ranks, r)
		if len(lanes) < 2 {
			continue
		}
		s.stats.Explored++
		candidates := lanes
		if s.budget <= 0 {
			s.stats.BudgetExhausted = true
			candidates = lanes[:1]
		}

		var (
			best          map[string]int
			bestScore     int
			bestConflicts int
			firstErr      error
		)
		for _, keep := range candidates {
			s.budget--
			s.stats.Branches++
			next, conflicts, err := s.resolve(s.demote(ranks, r, keep), r+1)
			if err == nil {
				var score int
				if score, err = s.score(next); err == nil && (best == nil || score < bestScore) {
					best, bestScore, bestConflicts = next, score, conflicts+1
				}
			}
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if best == nil {
			return nil, 0, firstErr
		}
		return best, bestConflicts, nil
	}
	return ranks, 0, nil
}

// demote returns a copy of ranks in which every vertex at rank r whose lane
// is not keep moves one rank further, along with the successors it would
// otherwise catch up with.
func (s *laneSearch) demote(ranks map[string]int, r int, keep string) map[string]int {
	target := make(map[string]int)
	var bump func(v string, r int)
	bump = func(v string, r int) {
		if ranks[v] > r {
			return
		}
		if t, ok := target[v]; ok && t > r {
			return
		}
		target[v] = r + 1
		for _, w := range s.succ[v] {
			bump(w, r+1)
		}
	}
	for _, id := range s.ids {
		lane, ok := s.laneOf[id]
		if ok && ranks[id] == r && lane != keep {
			bump(id, r)
		}
	}

	next := maps.Clone(ranks)
	maps.Copy(next, target)
	return next
}

// lanesAt lists the lanes present at rank r in declaration order.
func (s *laneSearch) lanesAt(ranks map[string]int, r int) []string {
	var lanes []string
	for _, id := range s.ids {
		lane, ok := s.laneOf[id]
		if ok && ranks[id] == r && !slices.Contains(lanes, lane) {
			lanes = append(lanes, lane)
		}
	}
	slices.SortStableFunc(lanes, func(a, b string) int { return s.laneIndex[a] - s.laneIndex[b] })
	return lanes
}

// score counts the lane changes met when walking the ranks in order,
// skipping ranks without lane members. A rank with two lanes is an error.
func (s *laneSearch) score(ranks map[string]int) (int, error) {
	changes := 0
	prev := ""
	for r := minRank(ranks); r <= maxRank(ranks); r++ {
		lanes := s.lanesAt(ranks, r)
		switch len(lanes) {
		case 0:
			continue
		case 1:
			if prev != "" && prev != lanes[0] {
				changes++
			}
			prev = lanes[0]
		default:
			return 0, errors.Layout(errors.ErrCodeLaneConflict, s.memberAt(ranks, r, lanes[1]),
				"rank %d holds lanes %q and %q", r, lanes[0], lanes[1])
		}
	}
	return changes, nil
}

// memberAt returns the first vertex of lane at rank r.
func (s *laneSearch) memberAt(ranks map[string]int, r int, lane string) string {
	for _, id := range s.ids {
		if ranks[id] == r && s.laneOf[id] == lane {
			return id
		}
	}
	return ""
}

func minRank(ranks map[string]int) int {
	first := true
	low := 0
	for _, r := range ranks {
		if first || r < low {
			low, first = r, false
		}
	}
	return low
}

func maxRank(ranks map[string]int) int {
	high := 0
	for _, r := range ranks {
		high = max(high, r)
	}
	return high
}
