package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bpmnlayout/pkg/autolayout"
	"github.com/matzehuels/bpmnlayout/pkg/bpmn"
	"github.com/matzehuels/bpmnlayout/pkg/cache"
	"github.com/matzehuels/bpmnlayout/pkg/observability"
)

// Cache key types reported to observability hooks.
const (
	keyTypeLayout   = "layout"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.DefaultTTL,
	}
}

// Execute runs the complete decode → layout → render pipeline with caching.
// Use [Runner.LayoutWithCacheInfo] for layout-only runs.
func (r *Runner) Execute(ctx context.Context, data []byte, format bpmn.Format, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{ModelHash: cache.Hash(data)}

	// Stage 1+2: Decode and layout
	layoutStart := time.Now()
	m, encoded, layoutHit, err := r.LayoutWithCacheInfo(ctx, data, format, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Model = m
	result.Stats = ModelStats(m)
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	if result.Encoded, err = r.encode(m, encoded, opts.Output); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	r.Logger.Info("laid out model",
		"processes", result.Stats.ProcessCount,
		"elements", result.Stats.ElementCount,
		"flows", result.Stats.FlowCount,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, m, encoded, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Decode turns a model document into a validated model.
func (r *Runner) Decode(ctx context.Context, data []byte, format bpmn.Format) (*bpmn.Model, error) {
	start := time.Now()
	m, err := bpmn.Decode(data, format)
	if err == nil {
		err = m.Validate()
	}
	count := 0
	if m != nil {
		count = len(m.Processes)
	}
	observability.Pipeline().OnDecodeComplete(ctx, string(format), count, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// LayoutWithCacheInfo decodes and lays out a model document. It returns the
// laid-out model, its JSON encoding (the form that is cached) and whether
// the layout came from the cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, data []byte, format bpmn.Format, opts Options) (*bpmn.Model, []byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, nil, false, err
	}

	cacheKey := r.Keyer.LayoutKey(cache.Hash(data), opts.LayoutKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if cached, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if m, err := bpmn.Decode(cached, bpmn.FormatJSON); err == nil {
				observability.Cache().OnCacheHit(ctx, keyTypeLayout)
				return m, cached, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeLayout)
	}

	m, err := r.Decode(ctx, data, format)
	if err != nil {
		return nil, nil, false, err
	}
	layoutOpts, err := opts.LayoutOptions()
	if err != nil {
		return nil, nil, false, err
	}
	if err := autolayout.NewLayouter(layoutOpts, opts.Logger).Layout(ctx, m); err != nil {
		return nil, nil, false, err
	}
	encoded, err := bpmn.Encode(m, bpmn.FormatJSON)
	if err != nil {
		return nil, nil, false, err
	}

	if err := r.Cache.Set(ctx, cacheKey, encoded, r.TTL); err != nil {
		r.Logger.Warn("cache write failed", "key", cacheKey, "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, keyTypeLayout, len(encoded))
	}
	return m, encoded, false, nil
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and returns
// only the model.
func (r *Runner) Layout(ctx context.Context, data []byte, format bpmn.Format, opts Options) (*bpmn.Model, error) {
	m, _, _, err := r.LayoutWithCacheInfo(ctx, data, format, opts)
	return m, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit
// info. layoutJSON is the encoded laid-out model and keys the artifacts.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, m *bpmn.Model, layoutJSON []byte, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	layoutHash := cache.Hash(layoutJSON)

	// Try to get all formats from cache
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, keyTypeArtifact)
		return artifacts, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, keyTypeArtifact)

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	rendered, err := Render(ctx, m, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, r.TTL); err == nil {
			observability.Cache().OnCacheSet(ctx, keyTypeArtifact, len(data))
		}
	}
	return rendered, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func (r *Runner) encode(m *bpmn.Model, jsonData []byte, output string) ([]byte, error) {
	if bpmn.Format(output) == bpmn.FormatYAML {
		return bpmn.Encode(m, bpmn.FormatYAML)
	}
	return jsonData, nil
}

// ModelStats counts the processes, flow elements and sequence flows of m,
// including those nested in sub-processes.
func ModelStats(m *bpmn.Model) Stats {
	s := Stats{ProcessCount: len(m.Processes)}
	m.Walk(func(c bpmn.Container, _ int) bool {
		s.ElementCount += len(c.FlowElements())
		s.FlowCount += len(c.SequenceFlows())
		return true
	})
	return s
}
