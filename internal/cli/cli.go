package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bpmnlayout/pkg/bpmn"
	"github.com/matzehuels/bpmnlayout/pkg/buildinfo"
	"github.com/matzehuels/bpmnlayout/pkg/cache"
	"github.com/matzehuels/bpmnlayout/pkg/errors"
	"github.com/matzehuels/bpmnlayout/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = pipeline.AppName
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded from --config (or the default location) before any
	// command runs.
	Config pipeline.Config

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "bpmnlayout computes diagram layouts for BPMN process models",
		Long:         `bpmnlayout takes BPMN process models without diagram data and computes shape bounds and sequence flow waypoints for them, honouring lanes, boundary events and expanded sub-processes.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))

			cfg, err := pipeline.LoadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/bpmnlayout/config.toml)")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Flags
// =============================================================================

// layoutFlags are the layout options every model-processing command accepts.
// Unset flags fall back to the config file, then to the built-in defaults.
type layoutFlags struct {
	opts    pipeline.Options
	noCache bool
	refresh bool
	cache   pipeline.CacheConfig
	changed func(name string) bool
}

func (f *layoutFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	f.changed = flags.Changed
	flags.StringVar(&f.opts.Orientation, "orientation", "", "rank direction: td (default), lr")
	flags.BoolVar(&f.opts.LanesAsGroups, "lanes-as-groups", false, "draw lanes as boxes around their members")
	flags.Float64Var(&f.opts.TaskWidth, "task-width", 0, "task width (default 100)")
	flags.Float64Var(&f.opts.TaskHeight, "task-height", 0, "minimum task height (default 60)")
	flags.Float64Var(&f.opts.IntraCellSpacing, "node-spacing", 0, "spacing between elements of one rank (default 100)")
	flags.Float64Var(&f.opts.InterRankSpacing, "rank-spacing", 0, "spacing between ranks (default 100)")
	flags.IntVar(&f.opts.MaxLaneBranches, "lane-branches", 0, "branch budget of the lane separation search (default 4096)")
	flags.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	flags.BoolVar(&f.refresh, "refresh", false, "recompute even if a cached layout exists")
	flags.StringVar(&f.cache.Backend, "cache-backend", "", "cache backend: file (default), redis, mongo, none")
	flags.StringVar(&f.cache.RedisURL, "redis-url", "", "redis URL for --cache-backend redis")
	flags.StringVar(&f.cache.MongoURI, "mongo-uri", "", "mongodb URI for --cache-backend mongo")
}

// options layers the flags over the config file.
func (f *layoutFlags) options(cfg pipeline.Config, logger *log.Logger) pipeline.Options {
	if f.changed != nil && f.changed("lanes-as-groups") {
		f.opts.SetLanesAsGroups(f.opts.LanesAsGroups)
	}
	opts := f.opts.Merge(cfg.Options)
	opts.Refresh = f.refresh
	opts.Logger = logger
	return opts
}

// cacheConfig layers the cache flags over the config file.
func (f *layoutFlags) cacheConfig(cfg pipeline.Config) pipeline.CacheConfig {
	cc := cfg.Cache
	if f.noCache {
		cc.Backend = pipeline.CacheNone
		return cc
	}
	if f.cache.Backend != "" {
		cc.Backend = f.cache.Backend
	}
	if f.cache.RedisURL != "" {
		cc.RedisURL = f.cache.RedisURL
	}
	if f.cache.MongoURI != "" {
		cc.MongoURI = f.cache.MongoURI
	}
	return cc
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cc pipeline.CacheConfig, keyer cache.Keyer) (*pipeline.Runner, error) {
	if err := cc.Validate(); err != nil {
		return nil, err
	}
	ch, err := newCache(ctx, cc)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(ch, keyer, c.Logger)
	if runner.TTL, err = cc.TTLDuration(); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return runner, nil
}

func newCache(ctx context.Context, cc pipeline.CacheConfig) (cache.Cache, error) {
	switch cc.Backend {
	case pipeline.CacheNone:
		return cache.NewNullCache(), nil
	case pipeline.CacheRedis:
		return cache.NewRedisCache(ctx, cc.RedisURL, cc.RedisPrefix)
	case pipeline.CacheMongo:
		return cache.NewMongoCache(ctx, cc.MongoURI, cc.MongoDatabase, cc.MongoCollection)
	}
	dir := cc.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/bpmnlayout/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Input Helpers
// =============================================================================

// readModel reads a model file and picks its encoding from the extension.
func readModel(path string) ([]byte, bpmn.Format, error) {
	if err := errors.ValidateFilename(filepath.Base(path)); err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", errors.Wrap(errors.ErrCodeFileNotFound, err, "model file %s not found", path)
		}
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	return data, bpmn.FormatFromPath(path), nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

// describeError formats layout failures with the element they refer to.
func describeError(err error) string {
	msg := errors.UserMessage(err)
	if code := errors.GetCode(err); code != "" {
		msg = fmt.Sprintf("%s [%s]", msg, code)
	}
	if le, ok := errors.AsLayout(err); ok && le.ProcessID != "" {
		msg = fmt.Sprintf("%s in process %q", msg, le.ProcessID)
	}
	return msg
}
