package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/bpmnlayout/pkg/autolayout"
	"github.com/matzehuels/bpmnlayout/pkg/bpmn"
	"github.com/matzehuels/bpmnlayout/pkg/cache"
	"github.com/matzehuels/bpmnlayout/pkg/errors"
	"github.com/matzehuels/bpmnlayout/pkg/hierarchy"
)

const shipJSON = `{
  "processes": [{
    "id": "ship",
    "elements": [
      {"id": "start", "type": "startEvent"},
      {"id": "pack", "type": "userTask", "name": "Pack parcel"},
      {"id": "end", "type": "endEvent"}
    ],
    "flows": [
      {"id": "f1", "source": "start", "target": "pack"},
      {"id": "f2", "source": "pack", "target": "end"}
    ]
  }]
}`

const danglingJSON = `{
  "processes": [{
    "id": "p",
    "elements": [{"id": "a", "type": "task"}],
    "flows": [{"id": "broken", "source": "a", "target": "ghost"}]
  }]
}`

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"dot", false},
		{"json", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateOutput(t *testing.T) {
	tests := []struct {
		output  string
		wantErr bool
	}{
		{"json", false},
		{"yaml", false},
		{"xml", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateOutput(tt.output)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateOutput(%q) error = %v, wantErr %v", tt.output, err, tt.wantErr)
		}
	}
}

func TestSetLayoutDefaults(t *testing.T) {
	var opts Options
	opts.SetLayoutDefaults()

	got, err := opts.LayoutOptions()
	if err != nil {
		t.Fatalf("LayoutOptions() error = %v", err)
	}
	if want := autolayout.DefaultOptions(); got != want {
		t.Errorf("LayoutOptions() = %+v, want %+v", got, want)
	}
	if opts.Output != DefaultOutput {
		t.Errorf("Output = %q, want %q", opts.Output, DefaultOutput)
	}
	if opts.Logger == nil {
		t.Error("SetLayoutDefaults() left Logger nil")
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"zero", Options{}, false},
		{"left-right", Options{Orientation: "lr"}, false},
		{"bad orientation", Options{Orientation: "diagonal"}, true},
		{"negative size", Options{EventSize: -1}, true},
		{"bad format", Options{Formats: []string{"gif"}}, true},
		{"bad output", Options{Output: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAndSetDefaults() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLayoutOptions_Orientation(t *testing.T) {
	opts := Options{Orientation: "left-right", LanesAsGroups: true}
	opts.SetLayoutDefaults()
	lo, err := opts.LayoutOptions()
	if err != nil {
		t.Fatalf("LayoutOptions() error = %v", err)
	}
	if lo.Orientation != hierarchy.LeftRight || !lo.LanesAsGroups {
		t.Errorf("LayoutOptions() = %v/%v, want lr with lane groups", lo.Orientation, lo.LanesAsGroups)
	}
}

func TestMerge(t *testing.T) {
	base := Options{Orientation: "lr", TaskWidth: 120, Formats: []string{"png"}, Detailed: true}
	flags := Options{TaskWidth: 140}

	got := flags.Merge(base)
	if got.Orientation != "lr" {
		t.Errorf("Merge() Orientation = %q, want lr", got.Orientation)
	}
	if got.TaskWidth != 140 {
		t.Errorf("Merge() TaskWidth = %v, want flag value 140", got.TaskWidth)
	}
	if len(got.Formats) != 1 || got.Formats[0] != "png" || !got.Detailed {
		t.Errorf("Merge() = %+v, want formats and detail from base", got)
	}
}

func TestMerge_ExplicitFalse(t *testing.T) {
	base := Options{LanesAsGroups: true, Detailed: true}

	var implicit Options
	if got := implicit.Merge(base); !got.LanesAsGroups || !got.Detailed {
		t.Errorf("Merge() = %v/%v, want base values when unset", got.LanesAsGroups, got.Detailed)
	}

	var explicit Options
	explicit.SetLanesAsGroups(false)
	explicit.SetDetailed(false)
	if got := explicit.Merge(base); got.LanesAsGroups || got.Detailed {
		t.Errorf("Merge() = %v/%v, want explicit false kept", got.LanesAsGroups, got.Detailed)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
orientation = "lr"
lanes_as_groups = true
task_width = 120
formats = ["svg", "dot"]

[cache]
backend = "redis"
redis_url = "redis://localhost:6379/1"
ttl = "24h"

[server]
addr = ":9090"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Orientation != "lr" || !cfg.LanesAsGroups || cfg.TaskWidth != 120 {
		t.Errorf("LoadConfig() options = %+v", cfg.Options)
	}
	if len(cfg.Formats) != 2 {
		t.Errorf("LoadConfig() formats = %v, want 2 entries", cfg.Formats)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisURL != "redis://localhost:6379/1" {
		t.Errorf("LoadConfig() cache = %+v", cfg.Cache)
	}
	if ttl, _ := cfg.Cache.TTLDuration(); ttl.Hours() != 24 {
		t.Errorf("TTLDuration() = %v, want 24h", ttl)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("LoadConfig() server addr = %q", cfg.Server.Addr)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing explicit file", filepath.Join(dir, "nope.toml")},
		{"unknown key", write("typo.toml", `orientaton = "lr"`)},
		{"bad backend", write("backend.toml", "[cache]\nbackend = \"memcached\"")},
		{"redis without url", write("redis.toml", "[cache]\nbackend = \"redis\"")},
		{"bad ttl", write("ttl.toml", "[cache]\nttl = \"soon\"")},
		{"syntax", write("syntax.toml", `orientation = `)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(tt.path); err == nil {
				t.Errorf("LoadConfig(%s) = nil error, want error", filepath.Base(tt.path))
			}
		})
	}
}

func TestLoadConfig_DefaultPathMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") error = %v", err)
	}
	if cfg.Orientation != "" || cfg.Cache.Backend != "" {
		t.Errorf("LoadConfig(\"\") = %+v, want empty config", cfg)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/custom-config")
	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath() error = %v", err)
	}
	if want := filepath.Join("/tmp/custom-config", AppName, "config.toml"); path != want {
		t.Errorf("DefaultConfigPath() = %q, want %q", path, want)
	}
}

func TestRunnerExecute_Caches(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	opts := Options{Formats: []string{FormatDOT}}
	first, err := runner.Execute(ctx, []byte(shipJSON), bpmn.FormatJSON, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Errorf("first Execute() CacheInfo = %+v, want misses", first.CacheInfo)
	}
	if first.Stats.ProcessCount != 1 || first.Stats.ElementCount != 3 || first.Stats.FlowCount != 2 {
		t.Errorf("Execute() Stats = %+v, want 1 process, 3 elements, 2 flows", first.Stats)
	}
	if !bytes.Contains(first.Encoded, []byte(`"diagram"`)) {
		t.Errorf("Execute() Encoded has no diagram section:\n%s", first.Encoded)
	}
	if !bytes.Contains(first.Artifacts[FormatDOT], []byte(`"start" -> "pack"`)) {
		t.Errorf("Execute() dot artifact missing flow:\n%s", first.Artifacts[FormatDOT])
	}

	second, err := runner.Execute(ctx, []byte(shipJSON), bpmn.FormatJSON, opts)
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second Execute() CacheInfo = %+v, want hits", second.CacheInfo)
	}
	if !bytes.Equal(first.Encoded, second.Encoded) {
		t.Error("cached layout differs from computed layout")
	}
	if _, ok := second.Model.GraphicInfo("pack"); !ok {
		t.Error("cached model lost its diagram data")
	}

	refreshed, err := runner.Execute(ctx, []byte(shipJSON), bpmn.FormatJSON, Options{Formats: []string{FormatDOT}, Refresh: true})
	if err != nil {
		t.Fatalf("refresh Execute() error = %v", err)
	}
	if refreshed.CacheInfo.LayoutHit {
		t.Error("Execute() with Refresh hit the layout cache")
	}
}

func TestRunnerExecute_OptionsChangeKey(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	runner := NewRunner(fc, nil, nil)

	if _, err := runner.Execute(ctx, []byte(shipJSON), bpmn.FormatJSON, Options{Formats: []string{FormatDOT}}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	res, err := runner.Execute(ctx, []byte(shipJSON), bpmn.FormatJSON, Options{Orientation: "lr", Formats: []string{FormatDOT}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.CacheInfo.LayoutHit {
		t.Error("different orientation reused the cached layout")
	}
}

const nestedJSON = `{
  "processes": [{
    "id": "p",
    "elements": [
      {"id": "start", "type": "startEvent"},
      {"id": "outer", "type": "subProcess", "elements": [
        {"id": "inner", "type": "subProcess", "elements": [
          {"id": "t", "type": "task"}
        ]}
      ]},
      {"id": "end", "type": "endEvent"}
    ],
    "flows": [
      {"id": "f1", "source": "start", "target": "outer"},
      {"id": "f2", "source": "outer", "target": "end"}
    ]
  }]
}`

func TestRunnerLayout_MaxDepthChangesKey(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	runner := NewRunner(fc, nil, nil)

	if _, err := runner.Layout(ctx, []byte(nestedJSON), bpmn.FormatJSON, Options{}); err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	_, err = runner.Layout(ctx, []byte(nestedJSON), bpmn.FormatJSON, Options{MaxDepth: 1})
	if !errors.Is(err, errors.ErrCodeDepthExceeded) {
		t.Errorf("Layout(MaxDepth 1) error = %v, want %s", err, errors.ErrCodeDepthExceeded)
	}

	shallow, deep := Options{MaxDepth: 2}, Options{MaxDepth: 32}
	keyer := cache.NewDefaultKeyer()
	if keyer.LayoutKey("h", shallow.LayoutKeyOpts()) == keyer.LayoutKey("h", deep.LayoutKeyOpts()) {
		t.Error("LayoutKey() ignores MaxDepth")
	}
}

func TestRunnerExecute_YAMLOutput(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	res, err := runner.Execute(context.Background(), []byte(shipJSON), bpmn.FormatJSON,
		Options{Output: "yaml", Formats: []string{FormatDOT}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(string(res.Encoded), "processes:") {
		t.Errorf("Execute() yaml output = %.40q", res.Encoded)
	}
}

func TestRunnerExecute_DanglingFlow(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	_, err := runner.Execute(context.Background(), []byte(danglingJSON), bpmn.FormatJSON, Options{})
	if !errors.Is(err, errors.ErrCodeDanglingFlow) {
		t.Fatalf("Execute() error = %v, want %s", err, errors.ErrCodeDanglingFlow)
	}
	if got := errors.ElementID(err); got != "broken" {
		t.Errorf("ElementID() = %q, want broken", got)
	}
}

func TestRender_SVG(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(nil, nil, nil)
	m, err := runner.Layout(ctx, []byte(shipJSON), bpmn.FormatJSON, Options{})
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	artifacts, err := Render(ctx, m, Options{Formats: []string{FormatSVG, FormatDOT}})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.Contains(artifacts[FormatSVG], []byte("<svg")) {
		t.Error("Render() svg missing <svg> tag")
	}
	if !bytes.HasPrefix(artifacts[FormatDOT], []byte("digraph")) {
		t.Error("Render() dot does not start with digraph")
	}
}

func TestRender_InvalidFormat(t *testing.T) {
	if _, err := Render(context.Background(), bpmn.NewModel(), Options{Formats: []string{"gif"}}); err == nil {
		t.Error("Render() with gif = nil error, want error")
	}
}

func TestExamples(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "*.*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Skip("no example models")
	}
	runner := NewRunner(nil, nil, nil)
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			for _, orientation := range []string{"td", "lr"} {
				res, err := runner.Execute(context.Background(), data, bpmn.FormatFromPath(path),
					Options{Orientation: orientation, LanesAsGroups: true, Formats: []string{FormatDOT}})
				if err != nil {
					t.Fatalf("Execute(%s) error = %v", orientation, err)
				}
				res.Model.Walk(func(c bpmn.Container, _ int) bool {
					for _, e := range c.FlowElements() {
						if _, ok := res.Model.GraphicInfo(e.ID); !ok {
							t.Errorf("%s: element %s has no bounds", orientation, e.ID)
						}
					}
					for _, f := range c.SequenceFlows() {
						if len(res.Model.FlowGraphicInfo(f.ID)) < 2 {
							t.Errorf("%s: flow %s has no waypoints", orientation, f.ID)
						}
					}
					return true
				})
			}
		})
	}
}
