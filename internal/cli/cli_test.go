package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bpmnlayout/pkg/bpmn"
	"github.com/matzehuels/bpmnlayout/pkg/cache"
	"github.com/matzehuels/bpmnlayout/pkg/errors"
	"github.com/matzehuels/bpmnlayout/pkg/pipeline"
)

const orderJSON = `{
  "processes": [{
    "id": "order",
    "elements": [
      {"id": "start", "type": "startEvent"},
      {"id": "check", "type": "task", "name": "Check stock"},
      {"id": "end", "type": "endEvent"}
    ],
    "flows": [
      {"id": "f1", "source": "start", "target": "check"},
      {"id": "f2", "source": "check", "target": "end"}
    ]
  }]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// isolate points config and cache lookups at empty temp directories.
func isolate(t *testing.T) string {
	t.Helper()
	cacheHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", cacheHome)
	return cacheHome
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestCacheDir(t *testing.T) {
	home, _ := os.UserHomeDir()
	tests := []struct {
		name string
		xdg  string
		want string
	}{
		{"default", "", filepath.Join(home, ".cache", appName)},
		{"xdg", "/tmp/custom-cache", filepath.Join("/tmp/custom-cache", appName)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CACHE_HOME", tt.xdg)
			got, err := cacheDir()
			if err != nil {
				t.Fatalf("cacheDir() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("cacheDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"svg", []string{"svg"}},
		{"svg, png,,dot ", []string{"svg", "png", "dot"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestReadModel(t *testing.T) {
	path := writeFile(t, "order.yml", "processes: []\n")
	data, format, err := readModel(path)
	if err != nil {
		t.Fatalf("readModel() error = %v", err)
	}
	if format != bpmn.FormatYAML || len(data) == 0 {
		t.Errorf("readModel() = %d bytes, %q; want yaml content", len(data), format)
	}

	if _, _, err := readModel(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("readModel(missing) error = %v, want FILE_NOT_FOUND", err)
	}
	if _, _, err := readModel(writeFile(t, "order.xml", "<definitions/>")); err == nil {
		t.Error("readModel(order.xml) error = nil, want unsupported extension")
	}
}

func TestLayoutPath(t *testing.T) {
	tests := []struct {
		input, output, want string
	}{
		{"order.json", "json", "order.layout.json"},
		{"order.json", "yaml", "order.layout.yaml"},
		{"dir/order.yml", "yaml", "dir/order.layout.yml"},
		{"order.yaml", "json", "order.layout.json"},
	}
	for _, tt := range tests {
		if got := layoutPath(tt.input, tt.output); got != tt.want {
			t.Errorf("layoutPath(%q, %q) = %q, want %q", tt.input, tt.output, got, tt.want)
		}
	}
}

func TestLayoutFlagsOptions(t *testing.T) {
	cfg := pipeline.Config{Options: pipeline.Options{Orientation: "lr", TaskWidth: 150, TaskHeight: 70}}
	f := layoutFlags{opts: pipeline.Options{TaskWidth: 120}, refresh: true}

	opts := f.options(cfg, nil)
	if opts.Orientation != "lr" || opts.TaskWidth != 120 || opts.TaskHeight != 70 || !opts.Refresh {
		t.Errorf("options() = %+v, want flags over config", opts)
	}
}

func TestLayoutFlagsOptions_LanesFlagOverridesConfig(t *testing.T) {
	cfg := pipeline.Config{Options: pipeline.Options{LanesAsGroups: true}}
	tests := []struct {
		args []string
		want bool
	}{
		{nil, true},
		{[]string{"--lanes-as-groups=false"}, false},
		{[]string{"--lanes-as-groups"}, true},
	}
	for _, tt := range tests {
		cmd := &cobra.Command{}
		var f layoutFlags
		f.bind(cmd)
		if err := cmd.ParseFlags(tt.args); err != nil {
			t.Fatalf("ParseFlags(%v) error = %v", tt.args, err)
		}
		if got := f.options(cfg, nil).LanesAsGroups; got != tt.want {
			t.Errorf("options(%v).LanesAsGroups = %v, want %v", tt.args, got, tt.want)
		}
	}
}

func TestLayoutFlagsCacheConfig(t *testing.T) {
	cfg := pipeline.Config{Cache: pipeline.CacheConfig{Backend: pipeline.CacheRedis, RedisURL: "redis://cfg"}}
	tests := []struct {
		name        string
		flags       layoutFlags
		wantBackend string
		wantURL     string
	}{
		{"config", layoutFlags{}, pipeline.CacheRedis, "redis://cfg"},
		{"override url", layoutFlags{cache: pipeline.CacheConfig{RedisURL: "redis://flag"}}, pipeline.CacheRedis, "redis://flag"},
		{"no cache", layoutFlags{noCache: true}, pipeline.CacheNone, "redis://cfg"},
		{"backend", layoutFlags{cache: pipeline.CacheConfig{Backend: pipeline.CacheFile}}, pipeline.CacheFile, "redis://cfg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := tt.flags.cacheConfig(cfg)
			if cc.Backend != tt.wantBackend || cc.RedisURL != tt.wantURL {
				t.Errorf("cacheConfig() = %q %q, want %q %q", cc.Backend, cc.RedisURL, tt.wantBackend, tt.wantURL)
			}
		})
	}
}

func TestNewCache(t *testing.T) {
	ctx := context.Background()

	c, err := newCache(ctx, pipeline.CacheConfig{Backend: pipeline.CacheNone})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(cache.NullCache); !ok {
		t.Errorf("newCache(none) = %T, want cache.NullCache", c)
	}

	dir := t.TempDir()
	c, err = newCache(ctx, pipeline.CacheConfig{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	fc, ok := c.(*cache.FileCache)
	if !ok || fc.Dir() != dir {
		t.Errorf("newCache(file) = %T, want *cache.FileCache in %s", c, dir)
	}
}

func TestDescribeError(t *testing.T) {
	err := &errors.LayoutError{Code: errors.ErrCodeDanglingFlow, ElementID: "f9", ProcessID: "order", Message: "flow target not found"}
	got := describeError(err)
	for _, want := range []string{"flow target not found", `"f9"`, "[DANGLING_FLOW]", `process "order"`} {
		if !strings.Contains(got, want) {
			t.Errorf("describeError() = %q, missing %q", got, want)
		}
	}
}

func TestLayoutCommand(t *testing.T) {
	isolate(t)
	in := writeFile(t, "order.json", orderJSON)
	out := filepath.Join(filepath.Dir(in), "out.yaml")

	if err := run(t, "layout", in, "-o", out, "--format", "yaml", "--orientation", "lr"); err != nil {
		t.Fatalf("layout error = %v", err)
	}
	m, err := bpmn.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", out, err)
	}
	if _, ok := m.GraphicInfo("check"); !ok {
		t.Error("laid-out model has no bounds for check")
	}
}

func TestLayoutCommand_DefaultOutput(t *testing.T) {
	isolate(t)
	in := writeFile(t, "order.json", orderJSON)
	if err := run(t, "layout", in, "--no-cache"); err != nil {
		t.Fatalf("layout error = %v", err)
	}
	if _, err := os.Stat(strings.TrimSuffix(in, ".json") + ".layout.json"); err != nil {
		t.Errorf("default output missing: %v", err)
	}
}

func TestRenderCommand(t *testing.T) {
	cacheHome := isolate(t)
	in := writeFile(t, "order.json", orderJSON)
	base := filepath.Join(t.TempDir(), "build", "order")

	if err := run(t, "render", in, "-f", "svg,dot", "-o", base, "--detailed"); err != nil {
		t.Fatalf("render error = %v", err)
	}
	dot, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(dot), `Check stock\ncheck`) {
		t.Errorf("detailed DOT missing id label:\n%s", dot)
	}
	svg, err := os.ReadFile(base + ".svg")
	if err != nil || !strings.Contains(string(svg), "<svg") {
		t.Errorf("SVG output = %q, %v", svg, err)
	}
	if entries, _ := os.ReadDir(filepath.Join(cacheHome, appName)); len(entries) == 0 {
		t.Error("render did not populate the file cache")
	}
}

func TestRenderCommand_InvalidFormat(t *testing.T) {
	isolate(t)
	in := writeFile(t, "order.json", orderJSON)
	if err := run(t, "render", in, "-f", "gif"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("render -f gif error = %v, want INVALID_FORMAT", err)
	}
}

func TestValidateCommand(t *testing.T) {
	isolate(t)
	tests := []struct {
		name string
		doc  string
		code errors.Code
	}{
		{"valid", orderJSON, ""},
		{"dangling", `{"processes":[{"id":"p","elements":[{"id":"a","type":"task"}],"flows":[{"id":"x","source":"a","target":"ghost"}]}]}`, errors.ErrCodeDanglingFlow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(t, "validate", writeFile(t, "model.json", tt.doc))
			if got := errors.GetCode(err); got != tt.code || (tt.code == "" && err != nil) {
				t.Errorf("validate error = %v, want code %q", err, tt.code)
			}
		})
	}
}

func TestCacheCommands(t *testing.T) {
	isolate(t)
	cfgPath := writeFile(t, "config.toml", "[cache]\ndir = \""+filepath.ToSlash(t.TempDir())+"\"\n")

	if err := run(t, "cache", "path", "--config", cfgPath); err != nil {
		t.Errorf("cache path error = %v", err)
	}
	if err := run(t, "cache", "clear", "--config", cfgPath); err != nil {
		t.Errorf("cache clear error = %v", err)
	}
	if err := run(t, "cache", "clear", "--cache-backend", "redis"); err == nil {
		t.Error("cache clear with redis and no URL error = nil")
	}
}
