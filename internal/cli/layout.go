package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/diagram"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/pipeline"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/settings"
)

// layoutCommand creates the layout command for recomputing diagram layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		settingsPath string
		output       string
		noCache      bool
		refresh      bool
	)

	cmd := &cobra.Command{
		Use:   "layout [diagram.json]",
		Short: "Recompute a diagram's layout",
		Long: `Recompute a diagram's layout.

The layout command reads a diagram file, re-derives every node's geometry
from the hierarchy and the configured packing algorithm, and writes the
laid-out diagram as JSON. Manually positioned subtrees keep their geometry.

Results are cached locally by content hash for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(settingsPath)
			if err != nil {
				return err
			}
			if err := applySettingsFlags(cmd, &cfg); err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), args[0], cfg, output, noCache, refresh)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")
	addSettingsFlags(cmd, &settingsPath)

	return cmd
}

// runLayout loads the diagram, recomputes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, cfg settings.Settings, output string, noCache, refresh bool) error {
	snap, _, err := diagram.Import(input)
	if err != nil {
		return fmt.Errorf("load diagram %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", cfg.Algorithm))
	spinner.Start()

	result, err := runner.Execute(ctx, snap, pipeline.Options{
		Settings: cfg,
		Formats:  []string{pipeline.FormatJSON},
		Refresh:  refresh,
	})
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	out := outputPath(output, input, ".layout.json")
	if err := writeFile(out, result.Artifacts[pipeline.FormatJSON]); err != nil {
		return fmt.Errorf("write output %s: %w", out, err)
	}

	printSuccess("Layout complete")
	printFile(out)
	printStats(result.Stats.NodeCount, len(result.Snapshot.Roots()), result.CacheInfo.LayoutHit)
	printNewline()
	printNextStep("Render", "designer render "+out)

	return nil
}
