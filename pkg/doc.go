// Package pkg provides the libraries of bpmnlayout, an automatic layouter
// for BPMN process models.
//
// # Overview
//
// A process model without diagram data (or with stale data) goes in; the
// same model comes out with shape bounds for every element and lane and a
// waypoint list for every sequence flow. The pkg directory is organized
// bottom-up:
//
//  1. [bpmn] - Process model, diagram interchange store, decoding and validation
//  2. [dag], [dag/transform] - Layered graph and the layering phases
//  3. [hierarchy] - Generic hierarchical layout engine with a ranking hook
//  4. [autolayout] - BPMN rules on top of the engine (lanes, boundary events, sub-processes)
//  5. [render] - DOT, SVG, PNG and PDF drawings of laid-out models
//  6. [pipeline] - Orchestration (decode → layout → render) with caching
//  7. [cache], [errors], [observability], [buildinfo] - Infrastructure
//
// # Architecture
//
//	model.json / model.yaml
//	         ↓
//	    [bpmn] package (schema check, decode, validate)
//	         ↓
//	    [autolayout] package (graph per container, lane-aware ranking)
//	         ↓
//	    [hierarchy] package (ordering, coordinates, edge routing)
//	         ↓
//	    model with diagram section, SVG/PNG/PDF/DOT
//
// # Quick Start
//
//	m, err := bpmn.ReadFile("order.yaml")
//	if err != nil {
//	    return err
//	}
//	layouter := autolayout.NewLayouter(autolayout.DefaultOptions(), logger)
//	if err := layouter.Layout(ctx, m); err != nil {
//	    return err
//	}
//	return bpmn.WriteJSON(os.Stdout, m)
//
// [bpmn]: github.com/matzehuels/bpmnlayout/pkg/bpmn
// [dag]: github.com/matzehuels/bpmnlayout/pkg/dag
// [dag/transform]: github.com/matzehuels/bpmnlayout/pkg/dag/transform
// [hierarchy]: github.com/matzehuels/bpmnlayout/pkg/hierarchy
// [autolayout]: github.com/matzehuels/bpmnlayout/pkg/autolayout
// [render]: github.com/matzehuels/bpmnlayout/pkg/render
// [pipeline]: github.com/matzehuels/bpmnlayout/pkg/pipeline
// [cache]: github.com/matzehuels/bpmnlayout/pkg/cache
// [errors]: github.com/matzehuels/bpmnlayout/pkg/errors
// [observability]: github.com/matzehuels/bpmnlayout/pkg/observability
// [buildinfo]: github.com/matzehuels/bpmnlayout/pkg/buildinfo
package pkg
