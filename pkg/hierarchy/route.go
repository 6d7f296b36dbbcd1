package hierarchy

import (
	"cmp"
	"math"
	"slices"
)

// port is one end of a routing leg: a point and the direction of travel
// through it (leaving for the start of a leg, arriving for its end).
type port struct {
	p   Point
	dir Point
}

var (
	dirDown  = Point{0, 1}
	dirUp    = Point{0, -1}
	dirRight = Point{1, 0}
	dirLeft  = Point{-1, 0}
)

type router struct {
	opts     Options
	rects    map[string]Rect
	reversed map[string]bool
	exits    map[string]Anchor // spread source anchors by edge id
}

func newRouter(opts Options, rects map[string]Rect, edges []Edge, reversed map[string]bool) router {
	r := router{opts: opts, rects: rects, reversed: reversed, exits: make(map[string]Anchor)}
	r.spreadExits(edges)
	return r
}

// flow is the direction of travel along the main axis.
func (r router) flow() Point {
	if r.opts.Orientation == LeftRight {
		return dirRight
	}
	return dirDown
}

func (r router) defaultExit() Anchor {
	if r.opts.Orientation == LeftRight {
		return Anchor{1, 0.5}
	}
	return Anchor{0.5, 1}
}

func (r router) defaultEntry() Anchor {
	if r.opts.Orientation == LeftRight {
		return Anchor{0, 0.5}
	}
	return Anchor{0.5, 0}
}

// side returns the outward normal of the side an anchor lies on. Corners
// resolve to the side across the main axis; interior anchors have no side
// and report the flow direction.
func (r router) side(a Anchor) Point {
	vertical := []struct {
		on  bool
		dir Point
	}{{a.Y >= 1, dirDown}, {a.Y <= 0, dirUp}}
	horizontal := []struct {
		on  bool
		dir Point
	}{{a.X >= 1, dirRight}, {a.X <= 0, dirLeft}}

	first, second := vertical, horizontal
	if r.opts.Orientation == LeftRight {
		first, second = horizontal, vertical
	}
	for _, s := range append(first, second...) {
		if s.on {
			return s.dir
		}
	}
	return r.flow()
}

// anchors returns where e attaches to its own source and target. A reversed
// edge is routed against the flow, so its defaults swap ends.
func (r router) anchors(e Edge) (src, dst Anchor) {
	src, dst = r.defaultExit(), r.defaultEntry()
	if r.reversed[e.ID] {
		src, dst = dst, src
	}
	if e.Style.Exit != nil {
		src = *e.Style.Exit
	}
	if e.Style.Entry != nil {
		dst = *e.Style.Entry
	}
	if a, ok := r.exits[e.ID]; ok {
		src = a
	}
	return src, dst
}

// spreadExits assigns the exit anchors of edges with a port, see [Style].
func (r router) spreadExits(edges []Edge) {
	type slot struct {
		vertex string
		side   Point
	}
	var order []slot
	ports := make(map[slot][]string)
	byPort := make(map[string][]Edge)
	centreTaken := make(map[slot]bool)
	for _, e := range edges {
		if e.From == e.To {
			continue
		}
		src, _ := r.anchors(e)
		s := slot{e.From, r.side(src)}
		if e.Style.Port == "" {
			if along(s.side, Point(src)) == 0.5 {
				centreTaken[s] = true
			}
			continue
		}
		if _, ok := ports[s]; !ok {
			order = append(order, s)
		}
		key := e.From + "\x00" + e.Style.Port
		if _, ok := byPort[key]; !ok {
			ports[s] = append(ports[s], key)
		}
		byPort[key] = append(byPort[key], e)
	}

	for _, s := range order {
		keys := ports[s]
		if len(keys) == 1 && !centreTaken[s] {
			continue
		}
		slices.SortStableFunc(keys, func(a, b string) int {
			return cmp.Compare(along(s.side, r.rects[byPort[a][0].To].Center()), along(s.side, r.rects[byPort[b][0].To].Center()))
		})
		fractions := spreadFractions(len(keys), centreTaken[s])
		for i, key := range keys {
			for _, e := range byPort[key] {
				src, _ := r.anchors(e)
				if s.side.X == 0 {
					src.X = fractions[i]
				} else {
					src.Y = fractions[i]
				}
				r.exits[e.ID] = src
			}
		}
	}
}

// along returns the coordinate of p that runs parallel to the side with
// outward normal side.
func along(side, p Point) float64 {
	if side.X == 0 {
		return p.X
	}
	return p.Y
}

// spreadFractions returns n distinct fractions of a side, evenly spaced.
// With skipCentre the slot nearest the centre is left out.
func spreadFractions(n int, skipCentre bool) []float64 {
	slots := n
	if skipCentre {
		slots++
	}
	out := make([]float64, 0, slots)
	for j := 1; j <= slots; j++ {
		out = append(out, float64(j)/float64(slots+1))
	}
	if skipCentre {
		drop := 0
		for j := range out {
			if math.Abs(out[j]-0.5) < math.Abs(out[drop]-0.5) {
				drop = j
			}
		}
		out = slices.Delete(out, drop, drop+1)
	}
	return out
}

// route computes the polyline of a non-loop edge. chain lists the dummy
// vertices of the edge in rank order. An edge the engine flipped to break a
// cycle is routed in layout direction and returned back to front.
func (r router) route(e Edge, chain []string) []Point {
	reversed := r.reversed[e.ID]
	from, to := e.From, e.To
	exitAnchor, entryAnchor := r.anchors(e)
	if reversed {
		from, to = to, from
		exitAnchor, entryAnchor = entryAnchor, exitAnchor
	}

	ports := []port{{r.rects[from].At(exitAnchor), r.side(exitAnchor)}}
	if e.Style.Routing != Elbow {
		for _, id := range chain {
			ports = append(ports, port{r.rects[id].Center(), r.flow()})
		}
	}
	entrySide := r.side(entryAnchor)
	ports = append(ports, port{r.rects[to].At(entryAnchor), Point{-entrySide.X, -entrySide.Y}})

	points := []Point{ports[0].p}
	for i := 0; i+1 < len(ports); i++ {
		leg := r.leg(ports[i], ports[i+1])
		points = append(points, leg[1:]...)
	}
	points = dedupe(points)
	if reversed {
		slices.Reverse(points)
	}
	return points
}

// leg connects two ports with horizontal and vertical segments. The result
// starts at a.p and ends at b.p.
func (r router) leg(a, b port) []Point {
	stub := r.opts.InterRankSpacing / 2
	p, q := a.p, b.p
	d1, d2 := a.dir, b.dir
	vertical1 := d1.X == 0
	vertical2 := d2.X == 0

	if vertical1 == vertical2 {
		same := d1 == d2
		if vertical1 {
			ahead := (q.Y - p.Y) * d1.Y
			switch {
			case same && p.X == q.X && ahead >= 0:
				return []Point{p, q}
			case same && ahead > 0:
				mid := (p.Y + q.Y) / 2
				return []Point{p, {p.X, mid}, {q.X, mid}, q}
			case same:
				// Target lies behind the start: leave, cross over, come back in.
				y1 := p.Y + d1.Y*stub
				y2 := q.Y - d2.Y*stub
				mx := (p.X + q.X) / 2
				return []Point{p, {p.X, y1}, {mx, y1}, {mx, y2}, {q.X, y2}, q}
			default:
				// Opposite directions: U-shape beyond the extreme end.
				ext := extreme(p.Y, q.Y, d1.Y) + d1.Y*stub
				return []Point{p, {p.X, ext}, {q.X, ext}, q}
			}
		}
		ahead := (q.X - p.X) * d1.X
		switch {
		case same && p.Y == q.Y && ahead >= 0:
			return []Point{p, q}
		case same && ahead > 0:
			mid := (p.X + q.X) / 2
			return []Point{p, {mid, p.Y}, {mid, q.Y}, q}
		case same:
			x1 := p.X + d1.X*stub
			x2 := q.X - d2.X*stub
			my := (p.Y + q.Y) / 2
			return []Point{p, {x1, p.Y}, {x1, my}, {x2, my}, {x2, q.Y}, q}
		default:
			ext := extreme(p.X, q.X, d1.X) + d1.X*stub
			return []Point{p, {ext, p.Y}, {ext, q.Y}, q}
		}
	}

	// Differing axes: a single corner when it lies ahead of both ends.
	if vertical1 {
		if (q.Y-p.Y)*d1.Y >= 0 && (q.X-p.X)*d2.X >= 0 {
			return []Point{p, {p.X, q.Y}, q}
		}
		y1 := p.Y + d1.Y*stub
		x2 := q.X - d2.X*stub
		return []Point{p, {p.X, y1}, {x2, y1}, {x2, q.Y}, q}
	}
	if (q.X-p.X)*d1.X >= 0 && (q.Y-p.Y)*d2.Y >= 0 {
		return []Point{p, {q.X, p.Y}, q}
	}
	x1 := p.X + d1.X*stub
	y2 := q.Y - d2.Y*stub
	return []Point{p, {x1, p.Y}, {x1, y2}, {q.X, y2}, q}
}

// extreme returns the larger of a and b along the sign of dir.
func extreme(a, b, dir float64) float64 {
	if dir > 0 {
		return max(a, b)
	}
	return min(a, b)
}

// selfLoop draws a loop on the trailing side of a vertex: the right side in
// top-down layouts, the bottom side in left-right layouts.
func (r router) selfLoop(rect Rect) []Point {
	off := r.opts.IntraCellSpacing / 4
	c := rect.Center()
	if r.opts.Orientation == LeftRight {
		x1, x2 := c.X-rect.Width/4, c.X+rect.Width/4
		return []Point{{x1, rect.MaxY()}, {x1, rect.MaxY() + off}, {x2, rect.MaxY() + off}, {x2, rect.MaxY()}}
	}
	y1, y2 := c.Y-rect.Height/4, c.Y+rect.Height/4
	return []Point{{rect.MaxX(), y1}, {rect.MaxX() + off, y1}, {rect.MaxX() + off, y2}, {rect.MaxX(), y2}}
}

// dedupe drops consecutive duplicate points.
func dedupe(points []Point) []Point {
	out := points[:0:0]
	for i, p := range points {
		if i > 0 && p == out[len(out)-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}
