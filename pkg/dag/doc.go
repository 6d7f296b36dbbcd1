// Package dag provides the layered directed graph that backs the
// hierarchical layout engine.
//
// # Overview
//
// Hierarchical (Sugiyama-style) layout organises vertices into ranks, which
// this package calls rows. A [DAG] stores vertices with their size and row,
// edges with the identity of the flow they were built from, and the
// left-to-right order of the vertices in every row.
//
// # Basic Usage
//
// Create a new graph with [New], add nodes with [DAG.AddNode], and edges with
// [DAG.AddEdge]:
//
//	g := dag.New()
//	g.AddNode(dag.Node{ID: "start", Width: 30, Height: 30})
//	g.AddNode(dag.Node{ID: "review", Width: 100, Height: 60})
//	g.AddEdge(dag.Edge{ID: "flow1", From: "start", To: "review"})
//
// Row assignment, cycle reversal and long-edge subdivision live in the
// transform subpackage.
//
// # Node Types
//
//   - [NodeKindRegular]: vertices supplied by the caller
//   - [NodeKindDummy]: zero-size vertices that break long edges into
//     single-row hops; the router bends edges through them
//
// # Determinism
//
// Every accessor returns nodes and edges in insertion order. Layout results
// therefore depend only on the order in which the caller added elements,
// never on Go map iteration order.
//
// # Edge Crossings
//
// [CountCrossings] and [CountLayerCrossings] use a Fenwick tree to count
// inversions in O(E log V) time. The ordering phase uses them to keep the
// best row orders it has seen, and [CountPairCrossingsWithPos] to decide
// adjacent swaps.
//
// # Concurrency
//
// A DAG is not safe for concurrent use. The layout engine builds one graph
// per invocation and never shares it.
package dag
