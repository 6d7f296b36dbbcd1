package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bpmnlayout/pkg/cache"
	"github.com/matzehuels/bpmnlayout/pkg/pipeline"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached layouts and rendered artifacts",
	}
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand. It clears the
// backend named in the config file, the local file cache by default.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var flags layoutFlags
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached layout and artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cc := flags.cacheConfig(c.Config)
			if cc.Backend == pipeline.CacheNone {
				printInfo("Caching is disabled")
				return nil
			}
			if err := cc.Validate(); err != nil {
				return err
			}
			ch, err := newCache(ctx, cc)
			if err != nil {
				return err
			}
			defer ch.Close()

			clearer, ok := ch.(cache.Clearer)
			if !ok {
				printWarning("The %s backend cannot be cleared", backendName(cc))
				return nil
			}
			if err := clearer.Clear(ctx); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess("Cleared the %s cache", backendName(cc))
			if fc, ok := ch.(*cache.FileCache); ok {
				printDetail("Directory: %s", fc.Dir())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.cache.Backend, "cache-backend", "", "cache backend: file (default), redis, mongo")
	cmd.Flags().StringVar(&flags.cache.RedisURL, "redis-url", "", "redis URL for --cache-backend redis")
	cmd.Flags().StringVar(&flags.cache.MongoURI, "mongo-uri", "", "mongodb URI for --cache-backend mongo")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := c.Config.Cache.Dir
			if dir == "" {
				var err error
				if dir, err = cacheDir(); err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

func backendName(cc pipeline.CacheConfig) string {
	if cc.Backend == "" {
		return pipeline.CacheFile
	}
	return cc.Backend
}
