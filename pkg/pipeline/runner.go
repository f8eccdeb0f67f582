package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/cache"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/diagram"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/engine"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/model"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/observability"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/render"
)

// Runner executes the pipeline with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store results. Multiple goroutines can safely share one Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
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
	}
}

// Execute runs the complete relayout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, s *model.Snapshot, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	snapData, err := marshalSnapshot(s, opts.Settings.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("serialize input: %w", err)
	}
	result.SnapshotHash = cache.Hash(snapData)
	result.Stats.NodeCount = s.Len()

	layoutStart := time.Now()
	laid, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, s, result.SnapshotHash, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Snapshot = laid
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	laidData, err := marshalSnapshot(laid, opts.Settings.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("serialize layout: %w", err)
	}
	result.LayoutHash = cache.Hash(laidData)

	r.Logger.Info("computed layout",
		"nodes", s.Len(),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, laid, result.LayoutHash, laidData, opts)
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

// ComputeLayoutWithCacheInfo re-derives the snapshot's layout with caching
// and reports whether the result came from the cache.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, s *model.Snapshot, snapshotHash string, opts Options) (*model.Snapshot, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	hooks := observability.Cache()

	cacheKey := r.Keyer.LayoutKey(snapshotHash, opts.LayoutKeyOpts())
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			doc, err := diagram.Read(bytes.NewReader(data))
			if err == nil {
				if cached, err := diagram.ToSnapshot(doc); err == nil {
					hooks.OnCacheHit(ctx, "layout")
					return cached, true, nil
				}
			}
			// Corrupt entry: fall through and recompute.
		}
	}
	hooks.OnCacheMiss(ctx, "layout")

	cfg, err := opts.Settings.LayoutConfig()
	if err != nil {
		return nil, false, err
	}
	laid, err := engine.New(cfg).Relayout(ctx, s)
	if err != nil {
		return nil, false, err
	}

	if data, err := marshalSnapshot(laid, opts.Settings.Algorithm); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout); err == nil {
			hooks.OnCacheSet(ctx, "layout", len(data))
		}
	}

	return laid, false, nil
}

// RenderWithCacheInfo renders the requested artifacts with caching and
// reports whether all of them came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, laid *model.Snapshot, layoutHash string, laidData []byte, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	hooks := observability.Cache()

	allCached := !opts.Refresh
	artifacts := make(map[string][]byte)
	if allCached {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
	}
	if allCached && len(artifacts) == len(opts.Formats) {
		hooks.OnCacheHit(ctx, "artifact")
		return artifacts, true, nil
	}
	hooks.OnCacheMiss(ctx, "artifact")

	rendered := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := r.renderFormat(laid, laidData, format, opts)
		if err != nil {
			return nil, false, err
		}
		rendered[format] = data
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
			hooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, false, nil
}

func (r *Runner) renderFormat(laid *model.Snapshot, laidData []byte, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatJSON:
		return laidData, nil
	case FormatSVG:
		svgOpts := []render.Option{render.WithScale(opts.Settings.GridUnitPx)}
		if opts.ShowIDs {
			svgOpts = append(svgOpts, render.WithIDs())
		}
		return render.RenderSVG(laid, svgOpts...), nil
	case FormatDOT:
		return []byte(render.ToDOT(laid, render.DOTOptions{Detailed: opts.Detailed})), nil
	}
	return nil, fmt.Errorf("invalid format: %q", format)
}

// marshalSnapshot serializes a snapshot to its canonical document bytes.
func marshalSnapshot(s *model.Snapshot, algorithm string) ([]byte, error) {
	var buf bytes.Buffer
	if err := diagram.Write(diagram.FromSnapshot(s, algorithm), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
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
