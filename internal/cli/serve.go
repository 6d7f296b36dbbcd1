package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/bpmnlayout/internal/server"
	"github.com/matzehuels/bpmnlayout/pkg/cache"
)

const defaultAddr = ":8080"

// serveCommand starts the HTTP layout service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags layoutFlags
		addr  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP layout service",
		Long: `Serve layout and render requests over HTTP until interrupted.

  POST /layout   lay out the model in the request body
  POST /render   lay out and render it (?format=svg|png|pdf|dot)
  GET  /healthz  liveness and build information

The layout flags set the defaults for requests that leave an option unset.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			if addr == "" {
				addr = defaultAddr
			}

			keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "server:")
			runner, err := c.newRunner(ctx, flags.cacheConfig(c.Config), keyer)
			if err != nil {
				return err
			}
			defer runner.Close()

			defaults := flags.options(c.Config, c.Logger)
			printInfo("Serving on %s", StyleLink.Render("http://"+displayAddr(addr)))
			return server.New(runner, defaults, c.Logger).ListenAndServe(ctx, addr)
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr from the config, or :8080)")
	return cmd
}

// displayAddr turns ":8080" into "localhost:8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
