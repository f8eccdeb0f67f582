package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/diagram"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/pipeline"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/render"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/settings"
)

const (
	vizBoxes = "boxes" // nested rectangles, native SVG
	vizTree  = "tree"  // containment hierarchy as a Graphviz node-link graph
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file path (or base path for multiple formats)
	viz      string   // visualization: "boxes" or "tree"
	formats  []string // output formats: "svg", "dot", "json"
	showIDs  bool     // draw node ids on unlabeled boxes
	detailed bool     // include geometry and flags in tree labels
	noCache  bool     // disable caching
	refresh  bool     // bypass the cache for this run
}

// renderCommand creates the render command for generating visualizations.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		settingsPath string
		formatsStr   string
	)
	opts := renderOpts{viz: vizBoxes}

	cmd := &cobra.Command{
		Use:   "render [diagram.json]",
		Short: "Render a diagram to SVG, DOT, or JSON",
		Long: `Render a diagram to SVG, DOT, or JSON.

The boxes view draws the diagram as nested rectangles, scaled from grid
units to pixels. The tree view draws the containment hierarchy as a
node-link graph via Graphviz; its "svg" format runs the DOT through the
Graphviz engine, its "dot" format emits the DOT source.

The layout is always recomputed (and cached) before rendering.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateViz(opts.viz); err != nil {
				return err
			}
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			cfg, err := loadSettings(settingsPath)
			if err != nil {
				return err
			}
			if err := applySettingsFlags(cmd, &cfg); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], cfg, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVar(&opts.viz, "viz", opts.viz, "visualization: boxes (default), tree")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.showIDs, "show-ids", false, "draw node ids on unlabeled boxes (boxes)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include geometry and flags in labels (tree)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when cached")
	addSettingsFlags(cmd, &settingsPath)

	return cmd
}

// validateViz checks that the visualization is either "boxes" or "tree".
func validateViz(v string) error {
	if v != vizBoxes && v != vizTree {
		return fmt.Errorf("invalid viz: %s (must be 'boxes' or 'tree')", v)
	}
	return nil
}

// runRender loads the diagram, recomputes the layout, and renders the
// requested formats.
func (c *CLI) runRender(ctx context.Context, input string, cfg settings.Settings, opts *renderOpts) error {
	snap, _, err := diagram.Import(input)
	if err != nil {
		return fmt.Errorf("load diagram %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, cfg, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	pipeFormats := opts.formats
	if opts.viz == vizTree {
		// The tree view renders from the laid-out snapshot, so only the
		// layout stage goes through the pipeline.
		pipeFormats = []string{pipeline.FormatJSON}
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s view...", opts.viz))
	spinner.Start()

	result, err := runner.Execute(ctx, snap, pipeline.Options{
		Settings: cfg,
		Formats:  pipeFormats,
		ShowIDs:  opts.showIDs,
		Detailed: opts.detailed,
		Refresh:  opts.refresh,
	})
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}

	artifacts := result.Artifacts
	if opts.viz == vizTree {
		artifacts, err = c.renderTree(ctx, result, opts)
		if err != nil {
			spinner.StopWithError("Render failed")
			return err
		}
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	printSuccess("Render complete")
	for _, format := range opts.formats {
		path := renderOutputPath(opts.output, input, format, len(opts.formats))
		if err := writeFile(path, artifacts[format]); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(result.Stats.NodeCount, len(result.Snapshot.Roots()), result.CacheInfo.RenderHit)

	return nil
}

// renderOutputPath derives the output path for one format. A single format
// honors --output verbatim; multiple formats treat it as a base path.
func renderOutputPath(output, input, format string, formatCount int) string {
	if output != "" && formatCount == 1 {
		return output
	}
	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return base + "." + format
}

// renderTree produces the tree-view artifacts from a laid-out snapshot.
func (c *CLI) renderTree(ctx context.Context, result *pipeline.Result, opts *renderOpts) (map[string][]byte, error) {
	dot := render.ToDOT(result.Snapshot, render.DOTOptions{Detailed: opts.detailed})

	artifacts := make(map[string][]byte, len(opts.formats))
	for _, format := range opts.formats {
		switch format {
		case pipeline.FormatDOT:
			artifacts[format] = []byte(dot)
		case pipeline.FormatSVG:
			svg, err := render.RenderDOTSVG(ctx, dot)
			if err != nil {
				return nil, fmt.Errorf("graphviz render: %w", err)
			}
			artifacts[format] = svg
		case pipeline.FormatJSON:
			artifacts[format] = result.Artifacts[pipeline.FormatJSON]
		}
	}
	return artifacts, nil
}
