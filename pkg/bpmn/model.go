package bpmn

import (
	"fmt"
	"strings"
)

// Kind is the closed set of flow element kinds the layouter understands.
// Every task flavour of BPMN maps to [Task] and every gateway flavour to
// [Gateway]; the distinction does not affect geometry.
type Kind int

const (
	StartEvent Kind = iota
	IntermediateEvent
	BoundaryEvent
	EndEvent
	Task
	CallActivity
	SubProcess
	Gateway
)

var kindNames = [...]string{
	StartEvent:        "startEvent",
	IntermediateEvent: "intermediateEvent",
	BoundaryEvent:     "boundaryEvent",
	EndEvent:          "endEvent",
	Task:              "task",
	CallActivity:      "callActivity",
	SubProcess:        "subProcess",
	Gateway:           "gateway",
}

// kindAliases maps BPMN 2.0 element names onto the closed kinds.
var kindAliases = map[string]Kind{
	"intermediatecatchevent": IntermediateEvent,
	"intermediatethrowevent": IntermediateEvent,
	"usertask":               Task,
	"servicetask":            Task,
	"scripttask":             Task,
	"sendtask":               Task,
	"receivetask":            Task,
	"manualtask":             Task,
	"businessruletask":       Task,
	"exclusivegateway":       Gateway,
	"inclusivegateway":       Gateway,
	"parallelgateway":        Gateway,
	"eventbasedgateway":      Gateway,
	"complexgateway":         Gateway,
	"eventsubprocess":        SubProcess,
	"transaction":            SubProcess,
}

// String returns the canonical name of the kind as used in model files.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind resolves an element type name, case-insensitively, to a Kind.
func ParseKind(name string) (Kind, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if strings.ToLower(n) == lower {
			return Kind(k), nil
		}
	}
	if k, ok := kindAliases[lower]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown element type %q", name)
}

// KindNames lists every accepted element type name, canonical names first.
func KindNames() []string {
	names := make([]string, 0, len(kindNames)+len(kindAliases))
	names = append(names, kindNames[:]...)
	for _, alias := range []string{
		"intermediateCatchEvent", "intermediateThrowEvent",
		"userTask", "serviceTask", "scriptTask", "sendTask", "receiveTask", "manualTask", "businessRuleTask",
		"exclusiveGateway", "inclusiveGateway", "parallelGateway", "eventBasedGateway", "complexGateway",
		"eventSubProcess", "transaction",
	} {
		names = append(names, alias)
	}
	return names
}

// IsEvent reports whether elements of this kind are drawn as circles.
func (k Kind) IsEvent() bool {
	switch k {
	case StartEvent, IntermediateEvent, BoundaryEvent, EndEvent:
		return true
	case Task, CallActivity, SubProcess, Gateway:
		return false
	}
	return false
}

// IsActivity reports whether boundary events may be attached to elements
// of this kind.
func (k Kind) IsActivity() bool {
	switch k {
	case Task, CallActivity, SubProcess:
		return true
	case StartEvent, IntermediateEvent, BoundaryEvent, EndEvent, Gateway:
		return false
	}
	return false
}

// FlowElement is one node of a process: an event, activity or gateway.
// Elements and Flows are only used by sub-processes, which are containers
// themselves.
type FlowElement struct {
	ID            string
	Kind          Kind
	Name          string
	AttachedToRef string // host activity of a boundary event

	Elements []*FlowElement
	Flows    []*SequenceFlow
}

// SequenceFlow is a directed control-flow connection between two elements
// of the same container.
type SequenceFlow struct {
	ID        string
	SourceRef string
	TargetRef string
	Name      string
}

// Lane partitions the elements of a process. FlowNodeRefs keeps the
// declaration order of its members.
type Lane struct {
	ID           string
	Name         string
	FlowNodeRefs []string
}

// Container is anything that owns flow elements and sequence flows: a
// top-level process or an expanded sub-process.
type Container interface {
	ContainerID() string
	FlowElements() []*FlowElement
	SequenceFlows() []*SequenceFlow
	ContainerLanes() []*Lane
}

// ContainerID implements [Container].
func (e *FlowElement) ContainerID() string { return e.ID }

// FlowElements implements [Container].
func (e *FlowElement) FlowElements() []*FlowElement { return e.Elements }

// SequenceFlows implements [Container].
func (e *FlowElement) SequenceFlows() []*SequenceFlow { return e.Flows }

// ContainerLanes implements [Container]. Sub-processes have no lanes.
func (e *FlowElement) ContainerLanes() []*Lane { return nil }

// Process is a top-level BPMN process.
type Process struct {
	ID       string
	Name     string
	Elements []*FlowElement
	Flows    []*SequenceFlow
	Lanes    []*Lane
}

// ContainerID implements [Container].
func (p *Process) ContainerID() string { return p.ID }

// FlowElements implements [Container].
func (p *Process) FlowElements() []*FlowElement { return p.Elements }

// SequenceFlows implements [Container].
func (p *Process) SequenceFlows() []*SequenceFlow { return p.Flows }

// ContainerLanes implements [Container].
func (p *Process) ContainerLanes() []*Lane { return p.Lanes }

// GraphicInfo is one diagram interchange record: the bounds of a shape, or a
// single waypoint of an edge (Width and Height are zero for waypoints).
type GraphicInfo struct {
	ElementID string
	X         float64
	Y         float64
	Width     float64
	Height    float64
	Expanded  bool
}

// Model is a set of processes together with their diagram interchange
// store. The layouter clears the store and fills it again.
type Model struct {
	Processes     []*Process
	Locations     map[string]GraphicInfo
	FlowLocations map[string][]GraphicInfo
}

// NewModel returns an empty model with an initialised DI store.
func NewModel(processes ...*Process) *Model {
	m := &Model{Processes: processes}
	m.ClearDI()
	return m
}

// ClearDI drops every stored shape and waypoint list.
func (m *Model) ClearDI() {
	m.Locations = make(map[string]GraphicInfo)
	m.FlowLocations = make(map[string][]GraphicInfo)
}

// AddGraphicInfo stores the bounds of an element, replacing earlier bounds.
func (m *Model) AddGraphicInfo(id string, gi GraphicInfo) {
	if m.Locations == nil {
		m.Locations = make(map[string]GraphicInfo)
	}
	gi.ElementID = id
	m.Locations[id] = gi
}

// AddFlowGraphicInfoList stores the waypoints of a sequence flow.
func (m *Model) AddFlowGraphicInfoList(id string, points []GraphicInfo) {
	if m.FlowLocations == nil {
		m.FlowLocations = make(map[string][]GraphicInfo)
	}
	for i := range points {
		points[i].ElementID = id
	}
	m.FlowLocations[id] = points
}

// GraphicInfo returns the stored bounds of an element.
func (m *Model) GraphicInfo(id string) (GraphicInfo, bool) {
	gi, ok := m.Locations[id]
	return gi, ok
}

// FlowGraphicInfo returns the stored waypoints of a sequence flow.
func (m *Model) FlowGraphicInfo(id string) []GraphicInfo {
	return m.FlowLocations[id]
}

// Process returns the process with the given id.
func (m *Model) Process(id string) (*Process, bool) {
	for _, p := range m.Processes {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Walk visits every container of the model depth first, processes first and
// then their sub-processes in declaration order. Returning false from fn
// stops the walk.
func (m *Model) Walk(fn func(c Container, depth int) bool) {
	var walk func(c Container, depth int) bool
	walk = func(c Container, depth int) bool {
		if !fn(c, depth) {
			return false
		}
		for _, e := range c.FlowElements() {
			if e.Kind == SubProcess && !walk(e, depth+1) {
				return false
			}
		}
		return true
	}
	for _, p := range m.Processes {
		if !walk(p, 0) {
			return
		}
	}
}
