package bpmn

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/bpmnlayout/pkg/errors"
)

// Format is a model file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from a file extension. Unknown
// extensions are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

type document struct {
	Processes []processDoc `json:"processes" yaml:"processes"`
	Diagram   *diagramDoc  `json:"diagram,omitempty" yaml:"diagram,omitempty"`
}

type processDoc struct {
	ID       string       `json:"id" yaml:"id"`
	Name     string       `json:"name,omitempty" yaml:"name,omitempty"`
	Elements []elementDoc `json:"elements" yaml:"elements"`
	Flows    []flowDoc    `json:"flows,omitempty" yaml:"flows,omitempty"`
	Lanes    []laneDoc    `json:"lanes,omitempty" yaml:"lanes,omitempty"`
}

type elementDoc struct {
	ID         string       `json:"id" yaml:"id"`
	Type       string       `json:"type" yaml:"type"`
	Name       string       `json:"name,omitempty" yaml:"name,omitempty"`
	AttachedTo string       `json:"attachedTo,omitempty" yaml:"attachedTo,omitempty"`
	Elements   []elementDoc `json:"elements,omitempty" yaml:"elements,omitempty"`
	Flows      []flowDoc    `json:"flows,omitempty" yaml:"flows,omitempty"`
}

type flowDoc struct {
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
}

type laneDoc struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name,omitempty" yaml:"name,omitempty"`
	Elements []string `json:"elements" yaml:"elements"`
}

type diagramDoc struct {
	Shapes []shapeDoc `json:"shapes" yaml:"shapes"`
	Edges  []edgeDoc  `json:"edges" yaml:"edges"`
}

type shapeDoc struct {
	Element  string  `json:"element" yaml:"element"`
	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	Width    float64 `json:"width" yaml:"width"`
	Height   float64 `json:"height" yaml:"height"`
	Expanded bool    `json:"expanded,omitempty" yaml:"expanded,omitempty"`
}

type edgeDoc struct {
	Element   string     `json:"element" yaml:"element"`
	Waypoints []pointDoc `json:"waypoints" yaml:"waypoints"`
}

type pointDoc struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// ReadJSON decodes a JSON model. The document is checked against the model
// schema first, so structural mistakes are reported with their location.
func ReadJSON(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(data, FormatJSON)
}

// ReadYAML decodes a YAML model, validating it against the model schema.
func ReadYAML(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(data, FormatYAML)
}

// ReadFile decodes the model stored at path, picking the encoding from the
// file extension.
func ReadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Decode validates raw model bytes against the schema and converts them into
// a Model.
func Decode(data []byte, format Format) (*Model, error) {
	var doc document
	switch format {
	case FormatYAML:
		if err := ValidateSchemaYAML(data); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
		}
	default:
		if err := ValidateSchema(data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
		}
	}
	return doc.toModel()
}

func (doc *document) toModel() (*Model, error) {
	m := NewModel()
	for _, pd := range doc.Processes {
		p := &Process{ID: pd.ID, Name: pd.Name}
		var err error
		if p.Elements, err = toElements(pd.Elements); err != nil {
			return nil, err
		}
		p.Flows = toFlows(pd.Flows)
		for _, ld := range pd.Lanes {
			p.Lanes = append(p.Lanes, &Lane{ID: ld.ID, Name: ld.Name, FlowNodeRefs: slices.Clone(ld.Elements)})
		}
		m.Processes = append(m.Processes, p)
	}
	if doc.Diagram != nil {
		for _, s := range doc.Diagram.Shapes {
			m.AddGraphicInfo(s.Element, GraphicInfo{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height, Expanded: s.Expanded})
		}
		for _, e := range doc.Diagram.Edges {
			points := make([]GraphicInfo, len(e.Waypoints))
			for i, wp := range e.Waypoints {
				points[i] = GraphicInfo{X: wp.X, Y: wp.Y}
			}
			m.AddFlowGraphicInfoList(e.Element, points)
		}
	}
	return m, nil
}

func toElements(docs []elementDoc) ([]*FlowElement, error) {
	elements := make([]*FlowElement, 0, len(docs))
	for _, ed := range docs {
		kind, err := ParseKind(ed.Type)
		if err != nil {
			return nil, fmt.Errorf("element %q: %w", ed.ID, err)
		}
		e := &FlowElement{ID: ed.ID, Kind: kind, Name: ed.Name, AttachedToRef: ed.AttachedTo}
		if kind == SubProcess {
			if e.Elements, err = toElements(ed.Elements); err != nil {
				return nil, err
			}
			e.Flows = toFlows(ed.Flows)
		}
		elements = append(elements, e)
	}
	return elements, nil
}

func toFlows(docs []flowDoc) []*SequenceFlow {
	flows := make([]*SequenceFlow, 0, len(docs))
	for _, fd := range docs {
		flows = append(flows, &SequenceFlow{ID: fd.ID, SourceRef: fd.Source, TargetRef: fd.Target, Name: fd.Name})
	}
	return flows
}

// WriteJSON encodes the model, including its diagram section, as indented
// JSON. Shapes and edges are written in model declaration order, so the
// output is byte-identical for identical layouts.
func WriteJSON(w io.Writer, m *Model) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(fromModel(m))
}

// WriteYAML encodes the model, including its diagram section, as YAML.
func WriteYAML(w io.Writer, m *Model) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fromModel(m)); err != nil {
		return err
	}
	return enc.Close()
}

// Encode renders the model in the given format.
func Encode(m *Model, format Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if format == FormatYAML {
		err = WriteYAML(&buf, m)
	} else {
		err = WriteJSON(&buf, m)
	}
	return buf.Bytes(), err
}

func fromModel(m *Model) *document {
	doc := &document{}
	var shapeIDs, edgeIDs []string
	for _, p := range m.Processes {
		pd := processDoc{ID: p.ID, Name: p.Name, Elements: fromElements(p.Elements), Flows: fromFlows(p.Flows)}
		for _, l := range p.Lanes {
			pd.Lanes = append(pd.Lanes, laneDoc{ID: l.ID, Name: l.Name, Elements: slices.Clone(l.FlowNodeRefs)})
		}
		doc.Processes = append(doc.Processes, pd)
	}

	m.Walk(func(c Container, depth int) bool {
		if p, ok := c.(*Process); ok {
			shapeIDs = append(shapeIDs, p.ID)
			for _, l := range p.Lanes {
				shapeIDs = append(shapeIDs, l.ID)
			}
		}
		for _, e := range c.FlowElements() {
			shapeIDs = append(shapeIDs, e.ID)
		}
		for _, f := range c.SequenceFlows() {
			edgeIDs = append(edgeIDs, f.ID)
		}
		return true
	})
	shapeIDs = appendMissing(shapeIDs, slices.Sorted(maps.Keys(m.Locations)))
	edgeIDs = appendMissing(edgeIDs, slices.Sorted(maps.Keys(m.FlowLocations)))

	if len(m.Locations) == 0 && len(m.FlowLocations) == 0 {
		return doc
	}
	doc.Diagram = &diagramDoc{Shapes: []shapeDoc{}, Edges: []edgeDoc{}}
	for _, id := range shapeIDs {
		gi, ok := m.Locations[id]
		if !ok {
			continue
		}
		doc.Diagram.Shapes = append(doc.Diagram.Shapes, shapeDoc{
			Element: id, X: gi.X, Y: gi.Y, Width: gi.Width, Height: gi.Height, Expanded: gi.Expanded,
		})
	}
	for _, id := range edgeIDs {
		points, ok := m.FlowLocations[id]
		if !ok {
			continue
		}
		ed := edgeDoc{Element: id, Waypoints: make([]pointDoc, len(points))}
		for i, p := range points {
			ed.Waypoints[i] = pointDoc{X: p.X, Y: p.Y}
		}
		doc.Diagram.Edges = append(doc.Diagram.Edges, ed)
	}
	return doc
}

// appendMissing appends the ids of extra that are not yet in ids.
func appendMissing(ids, extra []string) []string {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	for _, id := range extra {
		if !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	return ids
}

func fromElements(elements []*FlowElement) []elementDoc {
	docs := make([]elementDoc, 0, len(elements))
	for _, e := range elements {
		ed := elementDoc{ID: e.ID, Type: e.Kind.String(), Name: e.Name, AttachedTo: e.AttachedToRef}
		if e.Kind == SubProcess {
			ed.Elements = fromElements(e.Elements)
			ed.Flows = fromFlows(e.Flows)
		}
		docs = append(docs, ed)
	}
	return docs
}

func fromFlows(flows []*SequenceFlow) []flowDoc {
	docs := make([]flowDoc, 0, len(flows))
	for _, f := range flows {
		docs = append(docs, flowDoc{ID: f.ID, Source: f.SourceRef, Target: f.TargetRef, Name: f.Name})
	}
	return docs
}
