package render

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/bpmnlayout/pkg/autolayout"
	"github.com/matzehuels/bpmnlayout/pkg/bpmn"
	"github.com/matzehuels/bpmnlayout/pkg/hierarchy"
)

// twoStep builds a process "start -> task" with hand-placed DI.
func twoStep(m *bpmn.Model, prefix string) *bpmn.Process {
	p := &bpmn.Process{
		ID: prefix,
		Elements: []*bpmn.FlowElement{
			{ID: prefix + "-start", Kind: bpmn.StartEvent},
			{ID: prefix + "-task", Kind: bpmn.Task, Name: "Check order"},
		},
		Flows: []*bpmn.SequenceFlow{
			{ID: prefix + "-f1", SourceRef: prefix + "-start", TargetRef: prefix + "-task"},
		},
	}
	m.AddGraphicInfo(prefix+"-start", bpmn.GraphicInfo{X: 20, Y: 20, Width: 30, Height: 30})
	m.AddGraphicInfo(prefix+"-task", bpmn.GraphicInfo{X: 100, Y: 15, Width: 100, Height: 60})
	m.AddFlowGraphicInfoList(prefix+"-f1", []bpmn.GraphicInfo{{X: 50, Y: 35}, {X: 100, Y: 35}})
	return p
}

func TestToDOT(t *testing.T) {
	m := bpmn.NewModel()
	m.Processes = append(m.Processes, twoStep(m, "p"))

	dot := ToDOT(m, Options{})
	for _, want := range []string{
		`digraph "bpmn" {`,
		`bb="0,0,200.00,75.00"`,
		`"p-start" [label="", pos="35.00,40.00!", width=0.4167, height=0.4167, shape=circle`,
		`"p-task" [label="Check order", pos="150.00,30.00!", width=1.3889, height=0.8333, shape=box`,
		`"p-start" -> "p-task" [id="p-f1", pos="e,100.00,40.00 50.00,40.00 50.00,40.00 94.00,40.00 94.00,40.00"]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q\n%s", want, dot)
		}
	}
}

func TestToDOT_Detailed(t *testing.T) {
	m := bpmn.NewModel()
	m.Processes = append(m.Processes, twoStep(m, "p"))

	dot := ToDOT(m, Options{Detailed: true})
	if !strings.Contains(dot, `label="Check order\np-task"`) {
		t.Errorf("ToDOT() detailed label missing id:\n%s", dot)
	}
	if !strings.Contains(dot, `label="p-start"`) {
		t.Errorf("ToDOT() unnamed element should be labelled by id:\n%s", dot)
	}
}

func TestToDOT_StacksProcesses(t *testing.T) {
	m := bpmn.NewModel()
	m.Processes = append(m.Processes, twoStep(m, "a"), twoStep(m, "b"))

	offsets, height := stackProcesses(m, DefaultProcessGap)
	if offsets[0] != 0 || offsets[1] != 115 {
		t.Errorf("stackProcesses() offsets = %v, want [0 115]", offsets)
	}
	if height != 190 {
		t.Errorf("stackProcesses() height = %v, want 190", height)
	}

	dot := ToDOT(m, Options{})
	if !strings.Contains(dot, `"a-start" [label="", pos="35.00,155.00!"`) {
		t.Errorf("first process not at the top:\n%s", dot)
	}
	if !strings.Contains(dot, `"b-start" [label="", pos="35.00,40.00!"`) {
		t.Errorf("second process not below the first:\n%s", dot)
	}
}

func TestToDOT_SkipsElementsWithoutDI(t *testing.T) {
	m := bpmn.NewModel(&bpmn.Process{
		ID:       "p",
		Elements: []*bpmn.FlowElement{{ID: "a", Kind: bpmn.Task}},
	})
	if dot := ToDOT(m, Options{}); strings.Contains(dot, `"a"`) {
		t.Errorf("ToDOT() wrote a node without bounds:\n%s", dot)
	}
}

func TestSplinePos(t *testing.T) {
	tests := []struct {
		name   string
		points []hierarchy.Point
		want   string
	}{
		{
			name:   "straight",
			points: []hierarchy.Point{{X: 0, Y: 0}, {X: 0, Y: 20}},
			want:   "e,0.00,20.00 0.00,0.00 0.00,0.00 0.00,14.00 0.00,14.00",
		},
		{
			name:   "bend",
			points: []hierarchy.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 4}},
			want:   "e,10.00,4.00 0.00,0.00 0.00,0.00 10.00,0.00 10.00,0.00 10.00,0.00 10.00,2.00 10.00,2.00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splinePos(tt.points); got != tt.want {
				t.Errorf("splinePos() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "negative origin",
			svg:  `<svg viewBox="-4 -4 100 50">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50">content</svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
		},
		{
			name: "zero dimensions",
			svg:  `<svg viewBox="0 0 0 0">content</svg>`,
			want: `<svg viewBox="0 0 0 0">content</svg>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeViewBox([]byte(tt.svg))
			if string(got) != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", string(got), tt.want)
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	m := bpmn.NewModel(&bpmn.Process{
		ID: "p",
		Elements: []*bpmn.FlowElement{
			{ID: "start", Kind: bpmn.StartEvent},
			{ID: "gw", Kind: bpmn.Gateway},
			{ID: "a", Kind: bpmn.Task, Name: "Ship"},
			{ID: "b", Kind: bpmn.Task, Name: "Cancel"},
			{ID: "end", Kind: bpmn.EndEvent},
		},
		Flows: []*bpmn.SequenceFlow{
			{ID: "f1", SourceRef: "start", TargetRef: "gw"},
			{ID: "f2", SourceRef: "gw", TargetRef: "a"},
			{ID: "f3", SourceRef: "gw", TargetRef: "b"},
			{ID: "f4", SourceRef: "a", TargetRef: "end"},
			{ID: "f5", SourceRef: "b", TargetRef: "end"},
		},
	})
	ctx := context.Background()
	if err := autolayout.NewLayouter(autolayout.DefaultOptions(), nil).Layout(ctx, m); err != nil {
		t.Fatalf("Layout() error = %v", err)
	}

	svg, err := RenderSVG(ctx, ToDOT(m, Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output missing <svg> tag")
	}
	if !strings.Contains(string(svg), "Cancel") {
		t.Error("RenderSVG() output missing task label")
	}
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), `not valid DOT {{{`); err == nil {
		t.Error("RenderSVG() should return error for invalid DOT")
	}
}
