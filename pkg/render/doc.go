// Package render draws laid-out BPMN models.
//
// # Overview
//
// The layouter only produces diagram interchange data: shape bounds and
// waypoint lists. This package turns that data into something a person can
// look at. It does not compute any geometry itself; every node and every
// edge is pinned to the coordinates stored in the model.
//
// # DOT
//
// [ToDOT] writes Graphviz DOT source with one node per shape and one edge
// per sequence flow. Node positions carry a trailing "!" and edges carry an
// explicit spline, so Graphviz renders them as they are instead of running
// its own layout. Processes of a multi-process model are stacked vertically
// with [Options.ProcessGap] between them.
//
//	dot := render.ToDOT(model, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//	png, err := render.RenderPNG(ctx, dot)
//
// # Format Conversion
//
// SVG and PNG come straight from the embedded Graphviz build. [ToPDF]
// converts an SVG with the external rsvg-convert tool (from librsvg).
package render
