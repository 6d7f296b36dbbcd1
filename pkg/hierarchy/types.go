package hierarchy

import (
	"fmt"
	"strings"

	"github.com/matzehuels/bpmnlayout/pkg/dag"
	"github.com/matzehuels/bpmnlayout/pkg/errors"
)

// Orientation selects the main axis along which ranks are stacked.
type Orientation int

const (
	// TopDown stacks ranks vertically; edges flow downward.
	TopDown Orientation = iota
	// LeftRight stacks ranks horizontally; edges flow to the right.
	LeftRight
)

// String returns the short name used in configuration files and flags.
func (o Orientation) String() string {
	switch o {
	case TopDown:
		return "td"
	case LeftRight:
		return "lr"
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

// ParseOrientation accepts "td", "top-down", "lr" and "left-right".
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "td", "tb", "top-down", "topdown":
		return TopDown, nil
	case "lr", "left-right", "leftright":
		return LeftRight, nil
	}
	return TopDown, errors.New(errors.ErrCodeInvalidInput, "unknown orientation %q (want td or lr)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (o Orientation) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Orientation) UnmarshalText(b []byte) error {
	v, err := ParseOrientation(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Routing is the edge routing style.
type Routing int

const (
	// Orthogonal routes through every bend point of the edge with
	// horizontal and vertical segments only.
	Orthogonal Routing = iota
	// Elbow connects the two ends directly with a single orthogonal leg,
	// ignoring intermediate bend points.
	Elbow
	// Segment routes like Orthogonal but is meant for anchors on arbitrary
	// sides of the shapes.
	Segment
)

func (r Routing) String() string {
	switch r {
	case Orthogonal:
		return "orthogonal"
	case Elbow:
		return "elbow"
	case Segment:
		return "segment"
	}
	return fmt.Sprintf("Routing(%d)", int(r))
}

// Anchor is a point on a shape in fractions of its size: (0,0) is the
// top-left corner, (0.5,1) the bottom centre.
type Anchor struct {
	X float64
	Y float64
}

// Style is the routing hint for one edge. Nil anchors fall back to the
// orientation's defaults.
//
// Edges leaving one vertex through the same side with different non-empty
// Ports get distinct exit points along that side, ordered by the position of
// their targets; edges sharing a Port share the point. When an edge without
// a Port leaves through the centre of that side, the centre stays free.
type Style struct {
	Routing Routing
	Exit    *Anchor
	Entry   *Anchor
	Port    string
}

// Vertex is a sized node to place.
type Vertex struct {
	ID     string
	Width  float64
	Height float64
}

// Edge is a directed connection between two vertices.
type Edge struct {
	ID    string
	From  string
	To    string
	Style Style
}

// Group is a set of vertices that gets a bounding box in the result.
type Group struct {
	ID      string
	Members []string
}

// Input is everything the engine lays out in one call.
type Input struct {
	Vertices []Vertex
	Edges    []Edge
	Groups   []Group
}

// Placement is the final position of a vertex.
type Placement struct {
	Rect
	Rank int
}

// Result is the output of one layout run. All coordinates are normalised so
// that the content starts at (0,0).
type Result struct {
	Vertices map[string]Placement
	Edges    map[string][]Point
	Groups   map[string]Rect
	Bounds   Rect
	MaxRank  int
}

// RankingHook may override the ranks computed by the engine before
// coordinates are assigned. It receives a copy of the current ranks and the
// edges of the acyclic layout graph (reversed back edges included, self
// loops excluded) and returns the ranks to use. The returned map must rank
// every vertex and keep rank(From) < rank(To) for every edge.
type RankingHook func(ranks map[string]int, edges []dag.Edge) (map[string]int, error)

// Options configures the engine.
type Options struct {
	Orientation      Orientation
	IntraCellSpacing float64 // gap between neighbouring vertices of one rank
	InterRankSpacing float64 // gap between consecutive ranks
	ParentBorder     float64 // border added around group boxes
	FineTuning       bool    // align vertices with the median of their neighbours
	UseBoundingBox   bool    // size each rank by its own largest vertex
	OrderingPasses   int     // barycentric sweeps for crossing reduction
	RankingHook      RankingHook
}

// DefaultOptions returns the options used for process diagrams.
func DefaultOptions() Options {
	return Options{
		Orientation:      TopDown,
		IntraCellSpacing: 100,
		InterRankSpacing: 100,
		ParentBorder:     20,
		FineTuning:       true,
		UseBoundingBox:   true,
		OrderingPasses:   8,
	}
}
