package cli

import (
	"io"
	"testing"

	"github.com/matzehuels/bpmnlayout/pkg/buildinfo"
)

func TestSetVersion(t *testing.T) {
	old := buildinfo.Current()
	defer func() {
		buildinfo.Version, buildinfo.Commit, buildinfo.Date = old.Version, old.Commit, old.Date
	}()

	SetVersion("1.0.0", "abc123", "2024-01-01")
	if got := buildinfo.Current(); got != (buildinfo.Info{Version: "1.0.0", Commit: "abc123", Date: "2024-01-01"}) {
		t.Errorf("buildinfo.Current() = %+v", got)
	}

	SetVersion("", "", "")
	if buildinfo.Version != "1.0.0" {
		t.Errorf("SetVersion with empty values changed version to %q", buildinfo.Version)
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"layout", "render", "validate", "serve", "cache", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("root.Find(%q) = %v, %v", name, cmd, err)
		}
	}
}
