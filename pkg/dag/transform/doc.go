// Package transform provides the graph transformations that prepare a
// [dag.DAG] for hierarchical layout.
//
// # Overview
//
// Process graphs arrive with loops, edges of arbitrary length and no rank
// information. The layout engine applies these transformations in order:
//
//  1. [ReverseCycles] flips back edges so the graph becomes acyclic
//  2. [AssignLayers] computes longest-path ranks
//  3. (the engine's ranking hook may override the ranks here)
//  4. [NormalizeRows] shifts ranks so the smallest is 0
//  5. [Subdivide] splits long edges into single-row hops through dummies
//
// # Cycle Reversal
//
// Back edges found by a depth-first search are reversed rather than removed,
// so every sequence flow of a loop keeps a drawn polyline. Reversed edges
// carry [dag.Edge.Reversed]; the router uses it to restore the original
// direction of the polyline.
//
// # Edge Subdivision
//
// [Subdivide] breaks long edges into chains of single-row hops:
//
//	Before: review (row 1) → archive (row 3)
//	After:  review → f7_sub_2 → archive
//
// Dummy nodes have zero size; their final coordinates become the bend points
// of the edge.
package transform
