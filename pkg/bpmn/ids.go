package bpmn

import "github.com/google/uuid"

// FlowIDPrefix starts every generated sequence flow id.
const FlowIDPrefix = "sequenceFlow-"

// EnsureFlowIDs assigns an id to every sequence flow that has none, in every
// container of the model. Generated ids are "sequenceFlow-" followed by a
// random UUID, so they cannot collide with each other or with the ids of a
// hand-written model. Flows that already carry an id keep it. Returns the
// number of ids assigned.
func (m *Model) EnsureFlowIDs() int {
	assigned := 0
	m.Walk(func(c Container, _ int) bool {
		for _, f := range c.SequenceFlows() {
			if f.ID == "" {
				f.ID = FlowIDPrefix + uuid.NewString()
				assigned++
			}
		}
		return true
	})
	return assigned
}
