package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bpmnlayout/pkg/bpmn"
	"github.com/matzehuels/bpmnlayout/pkg/cache"
	"github.com/matzehuels/bpmnlayout/pkg/pipeline"
)

// layoutCommand creates the layout command, which writes the input model
// back out with diagram data for every element and flow.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "layout <model>",
		Short: "Compute a diagram layout for a BPMN model",
		Long: `Compute shape bounds and sequence flow waypoints for every process in a
model file (.json, .yaml or .yml). Existing diagram data is replaced.`,
		Example: `  bpmnlayout layout order.json
  bpmnlayout layout order.yaml --orientation lr -o order.layout.yaml
  bpmnlayout layout order.json --lanes-as-groups --no-cache`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, inFormat, err := readModel(args[0])
			if err != nil {
				return err
			}

			opts := flags.options(c.Config, loggerFromContext(ctx))
			if format != "" {
				opts.Output = format
			} else if opts.Output == "" {
				opts.Output = string(inFormat)
			}
			if err := pipeline.ValidateOutput(opts.Output); err != nil {
				return err
			}
			if output == "" {
				output = layoutPath(args[0], opts.Output)
			}

			runner, err := c.newRunner(ctx, flags.cacheConfig(c.Config), cache.NewDefaultKeyer())
			if err != nil {
				return err
			}
			defer runner.Close()

			prog := newProgress(opts.Logger)
			spin := newSpinner(ctx, "Laying out "+filepath.Base(args[0])+"...")
			spin.Start()
			m, encoded, cached, err := runner.LayoutWithCacheInfo(ctx, data, inFormat, opts)
			spin.Stop()
			if spin.Cancelled() {
				return ctx.Err()
			}
			if err != nil {
				printError("%s", describeError(err))
				return err
			}

			if bpmn.Format(opts.Output) != bpmn.FormatJSON {
				if encoded, err = bpmn.Encode(m, bpmn.Format(opts.Output)); err != nil {
					return err
				}
			}
			if err := os.WriteFile(output, encoded, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			stats := pipeline.ModelStats(m)
			prog.done("Laid out "+filepath.Base(args[0]), stats, cached)
			printSuccess("Layout complete")
			printFile(output)
			printStats(stats.ProcessCount, stats.ElementCount, stats.FlowCount, cached)
			printNextStep("Render it", fmt.Sprintf("%s render %s", appName, output))
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <model>.layout.<ext>)")
	cmd.Flags().StringVar(&format, "format", "", "output encoding: json, yaml (default: same as input)")
	return cmd
}

// layoutPath derives the default output path, e.g. order.json becomes
// order.layout.json.
func layoutPath(input, output string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	if output == string(bpmn.FormatYAML) && ext != ".yml" {
		ext = ".yaml"
	} else if output == string(bpmn.FormatJSON) {
		ext = ".json"
	}
	return base + ".layout" + ext
}
