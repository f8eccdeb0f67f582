// Package pipeline runs the load → relayout → render sequence shared by the
// CLI and the HTTP server.
//
// Relayout is deterministic, so both stages cache by content hash: the
// snapshot hash plus layout settings key the laid-out document, the layout
// hash plus render settings key each artifact. Centralizing this here keeps
// caching behavior identical across every entry point.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Settings: settings.Default(),
//	    Formats:  []string{pipeline.FormatSVG},
//	}
//	result, err := runner.Execute(ctx, snapshot, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/cache"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/model"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/settings"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"  // box view, native SVG
	FormatDOT  = "dot"  // containment tree, Graphviz DOT text
	FormatJSON = "json" // laid-out document
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Settings are the layout and render settings for the run.
	Settings settings.Settings `json:"settings"`

	// Formats selects the artifacts to render. Defaults to ["svg"].
	Formats []string `json:"formats,omitempty"`

	// ShowIDs draws node ids on unlabeled boxes in the SVG view.
	ShowIDs bool `json:"show_ids,omitempty"`

	// Detailed includes geometry and flags in DOT labels.
	Detailed bool `json:"detailed,omitempty"`

	// Refresh bypasses the cache for this run.
	Refresh bool `json:"refresh,omitempty"`

	// Logger for progress output. Defaults to a discard logger.
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks fields and applies defaults for the full
// pipeline. Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Settings == (settings.Settings{}) {
		o.Settings = settings.Default()
	}
	if err := o.Settings.Validate(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutKeyOpts returns the cache key options the layout result depends on.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Algorithm:   o.Settings.Algorithm,
		Margin:      o.Settings.Margin,
		LabelMargin: o.Settings.LabelMargin,
		EnforceLeaf: o.Settings.Leaf.Enforce,
		LeafW:       o.Settings.Leaf.Width,
		LeafH:       o.Settings.Leaf.Height,
	}
}

// ArtifactKeyOpts returns the cache key options an artifact depends on.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     format,
		GridUnitPx: o.Settings.GridUnitPx,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Snapshot is the laid-out diagram.
	Snapshot *model.Snapshot

	// SnapshotHash is the content hash of the input diagram.
	SnapshotHash string

	// LayoutHash is the content hash of the laid-out diagram.
	LayoutHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // layout came from cache
	RenderHit bool // all artifacts came from cache
}
