package hierarchy

import (
	"fmt"
	"maps"

	"github.com/matzehuels/bpmnlayout/pkg/dag"
	"github.com/matzehuels/bpmnlayout/pkg/dag/transform"
	"github.com/matzehuels/bpmnlayout/pkg/errors"
)

// Engine lays out directed graphs in ranks. An Engine holds no state
// between calls; one value may be reused for any number of layouts.
type Engine struct {
	opts Options
}

// New creates an engine. Zero spacings and pass counts in opts are
// replaced by their defaults.
func New(opts Options) *Engine {
	def := DefaultOptions()
	if opts.IntraCellSpacing <= 0 {
		opts.IntraCellSpacing = def.IntraCellSpacing
	}
	if opts.InterRankSpacing <= 0 {
		opts.InterRankSpacing = def.InterRankSpacing
	}
	if opts.ParentBorder < 0 {
		opts.ParentBorder = 0
	}
	if opts.OrderingPasses <= 0 {
		opts.OrderingPasses = def.OrderingPasses
	}
	return &Engine{opts: opts}
}

// Options returns the effective options of the engine.
func (e *Engine) Options() Options { return e.opts }

// Layout places the vertices of in and routes its edges.
//
// The phases are:
//
//  1. cycle reversal: back edges are flipped, never dropped
//  2. longest-path ranking
//  3. the ranking hook, if any, may replace the ranks
//  4. rank normalisation and long-edge subdivision with dummy vertices
//  5. barycentric crossing reduction
//  6. coordinate assignment with optional median fine tuning
//  7. edge routing per [Style]
//  8. group boxes and normalisation of the content to (0,0)
func (e *Engine) Layout(in Input) (*Result, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	g := dag.New()
	for _, v := range in.Vertices {
		if err := g.AddNode(dag.Node{ID: v.ID, Width: v.Width, Height: v.Height}); err != nil {
			return nil, fmt.Errorf("add vertex %q: %w", v.ID, err)
		}
	}
	var selfLoops []Edge
	for _, ed := range in.Edges {
		if ed.From == ed.To {
			selfLoops = append(selfLoops, ed)
			continue
		}
		if err := g.AddEdge(dag.Edge{ID: ed.ID, From: ed.From, To: ed.To}); err != nil {
			return nil, fmt.Errorf("add edge %q: %w", ed.ID, err)
		}
	}

	transform.ReverseCycles(g)
	transform.AssignLayers(g)

	ranks := g.Rows()
	if e.opts.RankingHook != nil {
		hooked, err := e.opts.RankingHook(maps.Clone(ranks), g.Edges())
		if err != nil {
			return nil, err
		}
		if err := validateRanks(g, hooked); err != nil {
			return nil, err
		}
		for id := range ranks {
			ranks[id] = hooked[id]
		}
	}
	transform.NormalizeRows(ranks)
	g.SetRows(ranks)

	chains := transform.Subdivide(g)
	orderRows(g, e.opts.OrderingPasses)

	rects := e.assignCoordinates(g)

	res := &Result{
		Vertices: make(map[string]Placement, len(in.Vertices)),
		Edges:    make(map[string][]Point, len(in.Edges)),
		Groups:   make(map[string]Rect, len(in.Groups)),
		MaxRank:  g.MaxRow(),
	}
	for _, v := range in.Vertices {
		n, _ := g.Node(v.ID)
		res.Vertices[v.ID] = Placement{Rect: rects[v.ID], Rank: n.Row}
	}

	reversed := make(map[string]bool)
	for _, de := range g.Edges() {
		if de.Reversed {
			reversed[de.ID] = true
		}
	}
	r := newRouter(e.opts, rects, in.Edges, reversed)
	for _, ed := range in.Edges {
		if ed.From == ed.To {
			continue
		}
		res.Edges[ed.ID] = r.route(ed, chains[ed.ID])
	}
	for _, ed := range selfLoops {
		res.Edges[ed.ID] = r.selfLoop(rects[ed.From])
	}

	for _, grp := range in.Groups {
		var members []Rect
		for _, id := range grp.Members {
			members = append(members, rects[id])
		}
		if len(members) == 0 {
			continue
		}
		res.Groups[grp.ID] = BoundingBox(members, nil).Grow(e.opts.ParentBorder)
	}

	res.normalize()
	return res, nil
}

// normalize shifts the whole result so its bounding box starts at (0,0).
func (res *Result) normalize() {
	b := newBounds()
	for _, p := range res.Vertices {
		b.addRect(p.Rect)
	}
	for _, pts := range res.Edges {
		for _, p := range pts {
			b.addPoint(p)
		}
	}
	for _, r := range res.Groups {
		b.addRect(r)
	}
	box := b.rect()
	dx, dy := -box.X, -box.Y
	for id, p := range res.Vertices {
		p.Rect = p.Rect.Translate(dx, dy)
		res.Vertices[id] = p
	}
	for id, pts := range res.Edges {
		for i := range pts {
			pts[i] = pts[i].Add(dx, dy)
		}
		res.Edges[id] = pts
	}
	for id, r := range res.Groups {
		res.Groups[id] = r.Translate(dx, dy)
	}
	res.Bounds = Rect{Width: box.Width, Height: box.Height}
}

func validateInput(in Input) error {
	vertices := make(map[string]bool, len(in.Vertices))
	for _, v := range in.Vertices {
		if v.ID == "" {
			return errors.New(errors.ErrCodeInvalidInput, "vertex without id")
		}
		if vertices[v.ID] {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate vertex %q", v.ID)
		}
		if v.Width < 0 || v.Height < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "vertex %q has negative size", v.ID)
		}
		vertices[v.ID] = true
	}
	edges := make(map[string]bool, len(in.Edges))
	for _, ed := range in.Edges {
		if ed.ID == "" {
			return errors.New(errors.ErrCodeInvalidInput, "edge %s->%s without id", ed.From, ed.To)
		}
		if edges[ed.ID] {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate edge %q", ed.ID)
		}
		edges[ed.ID] = true
		if !vertices[ed.From] || !vertices[ed.To] {
			return errors.New(errors.ErrCodeInvalidInput, "edge %q references unknown vertex", ed.ID)
		}
	}
	for _, grp := range in.Groups {
		for _, m := range grp.Members {
			if !vertices[m] {
				return errors.New(errors.ErrCodeInvalidInput, "group %q references unknown vertex %q", grp.ID, m)
			}
		}
	}
	return nil
}

// validateRanks checks the contract of a RankingHook result.
func validateRanks(g *dag.DAG, ranks map[string]int) error {
	for _, n := range g.Nodes() {
		if _, ok := ranks[n.ID]; !ok {
			return errors.New(errors.ErrCodeInvalidRanking, "ranking hook dropped vertex %q", n.ID)
		}
	}
	for _, ed := range g.Edges() {
		if ranks[ed.From] >= ranks[ed.To] {
			return errors.New(errors.ErrCodeInvalidRanking,
				"ranking hook breaks edge %q: rank(%s)=%d is not before rank(%s)=%d",
				ed.ID, ed.From, ranks[ed.From], ed.To, ranks[ed.To])
		}
	}
	return nil
}
