package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bpmnlayout/pkg/cache"
)

// renderCommand creates the render command: layout followed by drawing the
// diagram in one or more formats.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags    layoutFlags
		output   string
		formats  string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "render <model>",
		Short: "Lay out a BPMN model and draw the diagram",
		Long: `Lay out a model and render the result. Supported formats are svg, png,
pdf (requires rsvg-convert) and dot. Each format is written to
<output>.<format>.`,
		Example: `  bpmnlayout render order.json
  bpmnlayout render order.yaml -f svg,png -o build/order
  bpmnlayout render order.json -f dot --detailed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			data, inFormat, err := readModel(args[0])
			if err != nil {
				return err
			}

			flags.opts.Formats = parseFormats(formats)
			flags.opts.Detailed = detailed
			opts := flags.options(c.Config, logger)
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0]))
			}

			runner, err := c.newRunner(ctx, flags.cacheConfig(c.Config), cache.NewDefaultKeyer())
			if err != nil {
				return err
			}
			defer runner.Close()

			prog := newProgress(logger)
			spin := newSpinner(ctx, "Rendering "+filepath.Base(args[0])+"...")
			spin.Start()
			result, err := runner.Execute(ctx, data, inFormat, opts)
			spin.Stop()
			if spin.Cancelled() {
				return ctx.Err()
			}
			if err != nil {
				printError("%s", describeError(err))
				return err
			}

			paths, err := writeArtifacts(output, result.Artifacts)
			if err != nil {
				return err
			}
			s := result.Stats
			cached := result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit
			prog.done(fmt.Sprintf("Rendered %d artifacts", len(paths)), s, cached)

			printSuccess("Render complete")
			for _, p := range paths {
				printFile(p)
			}
			printStats(s.ProcessCount, s.ElementCount, s.FlowCount, cached)
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path (default: model path without extension)")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "comma-separated formats: svg, png, pdf, dot (default: svg)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "add element ids to labels")
	return cmd
}

// writeArtifacts writes every artifact to base.<format> in a stable order.
func writeArtifacts(base string, artifacts map[string][]byte) ([]string, error) {
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	formats := make([]string, 0, len(artifacts))
	for f := range artifacts {
		formats = append(formats, f)
	}
	sort.Strings(formats)

	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		path := base + "." + f
		if err := os.WriteFile(path, artifacts[f], 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
