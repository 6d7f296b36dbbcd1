// Package bpmn holds the process model the layouter reads and the diagram
// interchange (DI) store it writes.
//
// A [Model] is a list of [Process] values plus two DI maps: shape bounds per
// element id and waypoint lists per sequence flow id. Processes and expanded
// sub-processes both implement [Container].
//
// Element kinds form a closed enumeration ([Kind]); the many BPMN task and
// gateway flavours collapse onto [Task] and [Gateway] when a model is read.
//
// Models are exchanged as JSON or YAML documents:
//
//	processes:
//	  - id: order
//	    elements:
//	      - {id: start, type: startEvent}
//	      - {id: check, type: userTask, name: Check order}
//	      - {id: end, type: endEvent}
//	    flows:
//	      - {source: start, target: check}
//	      - {source: check, target: end}
//
// Both encodings are validated against the embedded JSON Schema before they
// are decoded; [Model.Validate] then checks referential integrity.
package bpmn
