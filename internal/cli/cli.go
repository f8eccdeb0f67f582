// Package cli implements the designer command-line interface.
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

	"github.com/ThomasRohde/domain-designer-sub000/pkg/buildinfo"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/cache"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/pipeline"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/settings"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "designer"
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
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "designer",
		Short:        "Designer lays out hierarchical box-in-box diagrams",
		Long:         `Designer is a CLI tool for hierarchical box-in-box diagrams: it packs children into parents with grid and flow algorithms, keeps sizes consistent through constraint propagation, and renders the result as SVG or Graphviz trees.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.sessionCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The cache backend comes
// from the settings cache URL; --no-cache forces the null backend.
func (c *CLI) newRunner(ctx context.Context, cfg settings.Settings, noCache bool) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, nil, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, cfg settings.Settings, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	store, err := cache.Open(ctx, cfg.CacheURL, dir)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "err", err)
		return cache.NewNullCache(), nil
	}
	return store, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/designer/).
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
// Settings Helpers
// =============================================================================

// loadSettings loads settings from the given file, falling back to defaults
// when path is empty or the file does not exist.
func loadSettings(path string) (settings.Settings, error) {
	if path == "" {
		return settings.Default(), nil
	}
	return settings.Load(path)
}

// applySettingsFlags overlays explicitly set flags on top of file settings.
func applySettingsFlags(cmd *cobra.Command, cfg *settings.Settings) error {
	flags := cmd.Flags()
	if flags.Changed("algorithm") {
		cfg.Algorithm, _ = flags.GetString("algorithm")
	}
	if flags.Changed("margin") {
		cfg.Margin, _ = flags.GetInt("margin")
	}
	if flags.Changed("label-margin") {
		cfg.LabelMargin, _ = flags.GetInt("label-margin")
	}
	if flags.Changed("scale") {
		cfg.GridUnitPx, _ = flags.GetInt("scale")
	}
	return cfg.Validate()
}

// addSettingsFlags registers the shared layout settings flags.
func addSettingsFlags(cmd *cobra.Command, settingsPath *string) {
	cmd.Flags().StringVar(settingsPath, "settings", "", "settings file (TOML)")
	cmd.Flags().String("algorithm", "", "packing algorithm: grid, flow, mixed-flow")
	cmd.Flags().Int("margin", 0, "margin between siblings and container edges (grid units)")
	cmd.Flags().Int("label-margin", 0, "extra top inset for labeled containers (grid units)")
	cmd.Flags().Int("scale", 0, "pixels per grid unit in SVG output")
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}

// outputPath derives the output file path from the input path when --output
// is not given, replacing the extension with suffix.
func outputPath(output, input, suffix string) string {
	if output != "" {
		return output
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}

// writeFile writes data to path, creating parent directories as needed.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
