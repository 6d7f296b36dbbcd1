// Package cli implements the bpmnlayout command-line interface.
//
// The commands lay out, render and validate BPMN process models stored as
// JSON or YAML, serve the same pipeline over HTTP, and manage the layout
// cache. The CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - layout: Compute diagram data and write the laid-out model
//   - render: Draw a model as SVG, PNG, PDF or DOT
//   - validate: Check a model against the schema and its references
//   - serve: Run the HTTP layout service
//   - cache: Manage the layout cache
//
// # Example
//
//	func main() {
//	    if err := cli.Execute(ctx); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"os"

	"github.com/matzehuels/bpmnlayout/pkg/buildinfo"
)

// SetVersion sets the version information displayed by --version.
// Empty values keep the ldflags defaults.
func SetVersion(v, c, d string) {
	if v != "" {
		buildinfo.Version = v
	}
	if c != "" {
		buildinfo.Commit = c
	}
	if d != "" {
		buildinfo.Date = d
	}
}

// Execute runs the bpmnlayout CLI and returns an error if any command fails.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
func Execute(ctx context.Context) error {
	return New(os.Stderr, LogInfo).RootCommand().ExecuteContext(ctx)
}
