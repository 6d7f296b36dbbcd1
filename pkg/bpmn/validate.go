package bpmn

import (
	"github.com/matzehuels/bpmnlayout/pkg/errors"
)

// Validate checks the referential integrity of the model:
//   - ids are well formed and unique across the whole model
//   - every sequence flow references elements of its own container
//   - every boundary event is attached to an activity of its container
//   - no element belongs to more than one lane, lanes reference known elements
//
// Flows without an id are accepted; [Model.EnsureFlowIDs] assigns them.
// The first problem found is returned as an *errors.LayoutError carrying the
// offending id, so callers can point at the broken element.
func (m *Model) Validate() error {
	seen := make(map[string]bool)
	claim := func(id string) error {
		if err := errors.ValidateID(id); err != nil {
			return &errors.LayoutError{Code: errors.ErrCodeInvalidModel, ElementID: id, Message: "invalid id", Cause: err}
		}
		if seen[id] {
			return errors.Layout(errors.ErrCodeInvalidModel, id, "duplicate id")
		}
		seen[id] = true
		return nil
	}

	for _, p := range m.Processes {
		if err := claim(p.ID); err != nil {
			return err
		}
		if err := validateContainer(p, claim); err != nil {
			return withProcess(err, p.ID)
		}
		if err := validateLanes(p, claim); err != nil {
			return withProcess(err, p.ID)
		}
	}
	return nil
}

func validateContainer(c Container, claim func(string) error) error {
	elements := make(map[string]*FlowElement, len(c.FlowElements()))
	for _, e := range c.FlowElements() {
		if err := claim(e.ID); err != nil {
			return err
		}
		elements[e.ID] = e
	}

	for _, e := range c.FlowElements() {
		if e.Kind == BoundaryEvent {
			host, ok := elements[e.AttachedToRef]
			if !ok || !host.Kind.IsActivity() {
				return errors.Layout(errors.ErrCodeUnresolvedAttachment, e.ID,
					"boundary event attached to unknown activity %q", e.AttachedToRef)
			}
		}
	}

	for _, f := range c.SequenceFlows() {
		if f.ID != "" {
			if err := claim(f.ID); err != nil {
				return err
			}
		}
		for _, ref := range []string{f.SourceRef, f.TargetRef} {
			if _, ok := elements[ref]; !ok {
				return errors.Layout(errors.ErrCodeDanglingFlow, flowRef(f),
					"sequence flow references unknown element %q", ref)
			}
		}
	}

	for _, e := range c.FlowElements() {
		if e.Kind == SubProcess {
			if err := validateContainer(e, claim); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateLanes(p *Process, claim func(string) error) error {
	top := make(map[string]bool, len(p.Elements))
	for _, e := range p.Elements {
		top[e.ID] = true
	}
	owner := make(map[string]string)
	for _, lane := range p.Lanes {
		if err := claim(lane.ID); err != nil {
			return err
		}
		for _, ref := range lane.FlowNodeRefs {
			if !top[ref] {
				return errors.Layout(errors.ErrCodeInvalidModel, lane.ID, "lane references unknown element %q", ref)
			}
			if prev, ok := owner[ref]; ok && prev != lane.ID {
				return errors.Layout(errors.ErrCodeInvalidModel, ref, "element belongs to lanes %q and %q", prev, lane.ID)
			}
			owner[ref] = lane.ID
		}
	}
	return nil
}

// flowRef names a flow in error messages, even before it has an id.
func flowRef(f *SequenceFlow) string {
	if f.ID != "" {
		return f.ID
	}
	return f.SourceRef + "->" + f.TargetRef
}

func withProcess(err error, processID string) error {
	if le, ok := err.(*errors.LayoutError); ok && le.ProcessID == "" {
		le.ProcessID = processID
	}
	return err
}
