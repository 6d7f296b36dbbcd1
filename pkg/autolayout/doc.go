// Package autolayout computes diagram positions for BPMN process models that
// carry no diagram information.
//
// A [Layouter] clears the diagram store of a [bpmn.Model] and lays out each
// process on its own. For every container (a process or an expanded
// sub-process) the layouter:
//
//  1. lays out the nested sub-processes first, recursively
//  2. builds a sized layout graph: events and gateways are squares, tasks
//     grow with their wrapped label, sub-processes take the size of their
//     content plus a margin, boundary events are folded into their host
//  3. runs the hierarchical engine of package hierarchy, with
//     [EnsureOneLanePerRank] installed as ranking hook when the container
//     has lanes
//  4. styles every flow with [SelectEdgeStyle]
//  5. refines the routed flows: [ClipBoundaryEvent] moves flows leaving a
//     boundary event onto the event circle, [SnapGatewayExit] moves gateway
//     exits onto a diamond corner and [OptimizeWaypoints] removes redundant
//     bends
//  6. translates the sub-process content into the parent's coordinates with
//     [TranslateContainer]
//
// Results are staged per process and written to the model only once the
// whole process succeeded. Failures are *errors.LayoutError values naming
// the offending element and process.
//
// # Usage
//
//	m, err := bpmn.ReadFile("order.json")
//	if err != nil {
//	    return err
//	}
//	l := autolayout.NewLayouter(autolayout.DefaultOptions(), logger)
//	if err := l.Layout(ctx, m); err != nil {
//	    return err
//	}
//	gi, _ := m.GraphicInfo("check-order")
package autolayout
