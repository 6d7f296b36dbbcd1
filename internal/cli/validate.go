package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bpmnlayout/pkg/errors"
	"github.com/matzehuels/bpmnlayout/pkg/pipeline"
)

// validateCommand checks a model file without laying it out.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <model>",
		Short: "Check a BPMN model for structural errors",
		Long: `Decode a model file, check it against the model schema and verify its
references: flow endpoints, boundary event attachments and lane members.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, format, err := readModel(args[0])
			if err != nil {
				return err
			}

			runner := pipeline.NewRunner(nil, nil, loggerFromContext(ctx))
			m, err := runner.Decode(ctx, data, format)
			if err != nil {
				printError("%s", describeError(err))
				if id := errors.ElementID(err); id != "" {
					printDetail("element: %s", id)
				}
				return err
			}

			s := pipeline.ModelStats(m)
			printSuccess("%s is valid", args[0])
			printKeyValue("processes", strconv.Itoa(s.ProcessCount))
			printKeyValue("elements", strconv.Itoa(s.ElementCount))
			printKeyValue("flows", strconv.Itoa(s.FlowCount))
			return nil
		},
	}
}
