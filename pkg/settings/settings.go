// Package settings loads engine configuration from TOML files.
//
// A settings file tunes the layout engine and the renderer:
//
//	algorithm    = "grid"   # grid | flow | mixed-flow
//	margin       = 1        # grid units, inset and sibling gap
//	label_margin = 2        # extra top inset for labeled containers
//	grid_unit_px = 12       # renderer scale
//	cache_url    = "file"   # file | null | redis://... | mongodb://...
//
//	[leaf]
//	enforce = true          # snap leaves to fixed dimensions on relayout
//	width   = 10
//	height  = 5
//
// Missing files yield the defaults; a present file overrides only the keys
// it sets. CLI flags override file values on top.
package settings

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/errors"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/geometry"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/layout"
)

// Leaf holds the fixed-leaf-dimension settings.
type Leaf struct {
	Enforce bool `toml:"enforce"`
	Width   int  `toml:"width"`
	Height  int  `toml:"height"`
}

// Settings is the full engine and renderer configuration.
type Settings struct {
	Algorithm   string `toml:"algorithm"`
	Margin      int    `toml:"margin"`
	LabelMargin int    `toml:"label_margin"`
	GridUnitPx  int    `toml:"grid_unit_px"`
	CacheURL    string `toml:"cache_url"`
	Leaf        Leaf   `toml:"leaf"`
}

// Default returns the built-in configuration.
func Default() Settings {
	return Settings{
		Algorithm:   string(layout.KindGrid),
		Margin:      1,
		LabelMargin: 2,
		GridUnitPx:  12,
		CacheURL:    "file",
		Leaf:        Leaf{Enforce: true, Width: 10, Height: 5},
	}
}

// Load reads a TOML settings file on top of the defaults.
// A missing file is not an error: the defaults are returned as-is. Unknown
// keys and malformed values are rejected so typos do not silently fall back.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return Settings{}, errors.Wrap(errors.ErrCodeInternal, err, "read settings %s", path)
	}

	meta, err := toml.Decode(string(data), &s)
	if err != nil {
		return Settings{}, errors.Wrap(errors.ErrCodeInvalidSettings, err, "parse settings %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Settings{}, errors.New(errors.ErrCodeInvalidSettings, "unknown settings key %q in %s", undecoded[0].String(), path)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks value ranges and the algorithm name.
func (s Settings) Validate() error {
	if _, err := layout.ParseKind(s.Algorithm); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSettings, err, "algorithm")
	}
	if s.Margin < 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "margin must be >= 0, got %d", s.Margin)
	}
	if s.LabelMargin < 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "label_margin must be >= 0, got %d", s.LabelMargin)
	}
	if s.GridUnitPx <= 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "grid_unit_px must be > 0, got %d", s.GridUnitPx)
	}
	if s.Leaf.Width <= 0 || s.Leaf.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "leaf dimensions must be positive, got %dx%d", s.Leaf.Width, s.Leaf.Height)
	}
	return nil
}

// LayoutConfig converts the settings into the engine's layout configuration.
func (s Settings) LayoutConfig() (layout.Config, error) {
	kind, err := layout.ParseKind(s.Algorithm)
	if err != nil {
		return layout.Config{}, errors.Wrap(errors.ErrCodeInvalidSettings, err, "algorithm")
	}
	return layout.Config{
		Algorithm:       kind,
		Margin:          s.Margin,
		LabelMargin:     s.LabelMargin,
		EnforceLeafSize: s.Leaf.Enforce,
		LeafSize:        geometry.Size{W: s.Leaf.Width, H: s.Leaf.Height},
	}, nil
}
