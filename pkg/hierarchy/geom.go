package hierarchy

import "math"

// Point is a position in layout coordinates (y grows downward).
type Point struct {
	X float64
	Y float64
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy float64) Point { return Point{p.X + dx, p.Y + dy} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Rect is an axis-aligned box given by its top-left corner and size.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// MaxX returns the right edge of r.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the bottom edge of r.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Center returns the midpoint of r.
func (r Rect) Center() Point { return Point{r.X + r.Width/2, r.Y + r.Height/2} }

// At returns the point at the given shape-relative fractions of r.
func (r Rect) At(a Anchor) Point { return Point{r.X + a.X*r.Width, r.Y + a.Y*r.Height} }

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Grow returns r enlarged by d on every side.
func (r Rect) Grow(d float64) Rect {
	return Rect{r.X - d, r.Y - d, r.Width + 2*d, r.Height + 2*d}
}

// bounds accumulates the bounding box of rectangles and points.
type bounds struct {
	minX, minY, maxX, maxY float64
	empty                  bool
}

func newBounds() *bounds { return &bounds{empty: true} }

func (b *bounds) addPoint(p Point) {
	if b.empty {
		b.minX, b.minY, b.maxX, b.maxY = p.X, p.Y, p.X, p.Y
		b.empty = false
		return
	}
	b.minX = math.Min(b.minX, p.X)
	b.minY = math.Min(b.minY, p.Y)
	b.maxX = math.Max(b.maxX, p.X)
	b.maxY = math.Max(b.maxY, p.Y)
}

func (b *bounds) addRect(r Rect) {
	b.addPoint(Point{r.X, r.Y})
	b.addPoint(Point{r.MaxX(), r.MaxY()})
}

func (b *bounds) rect() Rect {
	if b.empty {
		return Rect{}
	}
	return Rect{b.minX, b.minY, b.maxX - b.minX, b.maxY - b.minY}
}

// BoundingBox returns the smallest Rect containing all rects and points.
// It returns the zero Rect when both are empty.
func BoundingBox(rects []Rect, points []Point) Rect {
	b := newBounds()
	for _, r := range rects {
		b.addRect(r)
	}
	for _, p := range points {
		b.addPoint(p)
	}
	return b.rect()
}
