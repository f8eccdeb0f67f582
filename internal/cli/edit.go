package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/diagram"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/engine"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/errors"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/geometry"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/layout"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/model"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/session"
)

// rootParent is the CLI sentinel for "no parent" in reparent arguments.
const rootParent = "-"

// editOpts holds the flags shared by all edit subcommands.
type editOpts struct {
	settingsPath string // settings file
	output       string // output file (default: overwrite input)
	sessionName  string // session to record the result in
}

// editCommand creates the edit command group. Every subcommand applies one
// mutation to a diagram file: it loads the diagram, runs the engine
// operation (which relayouts affected subtrees), and writes the result back.
func (c *CLI) editCommand() *cobra.Command {
	opts := &editOpts{}

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Apply a single mutation to a diagram",
		Long: `Apply a single mutation to a diagram.

Each subcommand loads the diagram, applies one engine operation, relayouts
the affected subtrees, and writes the result back to the input file (or to
--output). Constraint rejections (cycles, collisions, boundary violations)
leave the file untouched and report why.`,
	}

	cmd.PersistentFlags().StringVar(&opts.settingsPath, "settings", "", "settings file (TOML)")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "output file (default: overwrite input)")
	cmd.PersistentFlags().StringVar(&opts.sessionName, "session", "", "record the result in this session's history")

	cmd.AddCommand(c.editAddCommand(opts))
	cmd.AddCommand(c.editLabelCommand(opts))
	cmd.AddCommand(c.editRemoveCommand(opts))
	cmd.AddCommand(c.editReparentCommand(opts))
	cmd.AddCommand(c.editResizeCommand(opts))
	cmd.AddCommand(c.editMoveCommand(opts))
	cmd.AddCommand(c.editAlgorithmCommand(opts))

	return cmd
}

// editAddCommand creates the "edit add" subcommand.
func (c *CLI) editAddCommand(opts *editOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "add [diagram.json] [parent-id] [label]",
		Short: "Add a child node to a container",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			label := ""
			if len(args) == 3 {
				label = args[2]
			}
			return c.runEdit(cmd.Context(), args[0], opts, func(ctx context.Context, e *engine.Engine, s *model.Snapshot) (*model.Snapshot, error) {
				next, id, err := e.AddChild(ctx, s, args[1], label)
				if err != nil {
					return nil, err
				}
				printDetail("New node: %s", id)
				return next, nil
			})
		},
	}
}

// editLabelCommand creates the "edit label" subcommand.
func (c *CLI) editLabelCommand(opts *editOpts) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "label [diagram.json] [parent-id] [text]",
		Short: "Add a free-floating text label to a container",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			point, err := parsePoint(at)
			if err != nil {
				return err
			}
			return c.runEdit(cmd.Context(), args[0], opts, func(ctx context.Context, e *engine.Engine, s *model.Snapshot) (*model.Snapshot, error) {
				next, id, err := e.AddLabel(ctx, s, args[1], args[2], point)
				if err != nil {
					return nil, err
				}
				printDetail("New label: %s", id)
				return next, nil
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "0,0", "label position inside the parent (x,y in grid units)")
	return cmd
}

// editRemoveCommand creates the "edit remove" subcommand.
func (c *CLI) editRemoveCommand(opts *editOpts) *cobra.Command {
	var cascade string

	cmd := &cobra.Command{
		Use:   "remove [diagram.json] [id]",
		Short: "Remove a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := engine.ParseCascadePolicy(cascade)
			if err != nil {
				return err
			}
			return c.runEdit(cmd.Context(), args[0], opts, func(ctx context.Context, e *engine.Engine, s *model.Snapshot) (*model.Snapshot, error) {
				return e.RemoveNode(ctx, s, args[1], policy)
			})
		},
	}
	cmd.Flags().StringVar(&cascade, "cascade", string(engine.CascadeDeleteSubtree), "cascade policy: delete-subtree, promote-children")
	return cmd
}

// editReparentCommand creates the "edit reparent" subcommand.
func (c *CLI) editReparentCommand(opts *editOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "reparent [diagram.json] [child-id] [new-parent-id]",
		Short: "Move a node (and its subtree) under a different parent",
		Long: `Move a node (and its subtree) under a different parent.

Use "` + rootParent + `" as the new parent to promote the node to a root. Reparenting a
node into its own subtree is rejected.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID := args[2]
			if parentID == rootParent {
				parentID = ""
			}
			return c.runEdit(cmd.Context(), args[0], opts, func(ctx context.Context, e *engine.Engine, s *model.Snapshot) (*model.Snapshot, error) {
				return e.Reparent(ctx, s, args[1], parentID)
			})
		},
	}
}

// editResizeCommand creates the "edit resize" subcommand.
func (c *CLI) editResizeCommand(opts *editOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "resize [diagram.json] [id] [WxH]",
		Short: "Resize a node (clamped to its minimum size unless locked)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := parseSize(args[2])
			if err != nil {
				return err
			}
			return c.runEdit(cmd.Context(), args[0], opts, func(ctx context.Context, e *engine.Engine, s *model.Snapshot) (*model.Snapshot, error) {
				return e.Resize(ctx, s, args[1], size)
			})
		},
	}
}

// editMoveCommand creates the "edit move" subcommand.
func (c *CLI) editMoveCommand(opts *editOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "move [diagram.json] [id,id,...] [dx,dy]",
		Short: "Move a selection of sibling nodes by a delta",
		Long: `Move a selection of sibling nodes by a delta.

All selected nodes must share a manually positioned parent (or all be
roots). The move is clamped at the parent's interior; sibling overlap
shrinks the delta, and a fully blocked move is rejected with the offending
sibling ids.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := parseDelta(args[2])
			if err != nil {
				return err
			}
			selection := strings.Split(args[1], ",")
			return c.runEdit(cmd.Context(), args[0], opts, func(ctx context.Context, e *engine.Engine, s *model.Snapshot) (*model.Snapshot, error) {
				result, err := e.MoveSelection(ctx, s, selection, delta)
				if err != nil {
					return nil, err
				}
				if result.Clamped {
					printDetail("Clamped to (%d,%d)", result.Applied.DX, result.Applied.DY)
				}
				return result.Snapshot, nil
			})
		},
	}
}

// editAlgorithmCommand creates the "edit algorithm" subcommand.
func (c *CLI) editAlgorithmCommand(opts *editOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "algorithm [diagram.json] [grid|flow|mixed-flow]",
		Short: "Switch the packing algorithm and relayout the whole diagram",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := layout.ParseKind(args[1])
			if err != nil {
				return err
			}
			return c.runEdit(cmd.Context(), args[0], opts, func(ctx context.Context, e *engine.Engine, s *model.Snapshot) (*model.Snapshot, error) {
				_, next, err := e.SetAlgorithm(ctx, s, kind)
				return next, err
			})
		},
	}
}

// editFn applies one mutation and returns the resulting snapshot.
type editFn func(ctx context.Context, e *engine.Engine, s *model.Snapshot) (*model.Snapshot, error)

// runEdit is the shared load → mutate → write sequence for edit subcommands.
func (c *CLI) runEdit(ctx context.Context, input string, opts *editOpts, fn editFn) error {
	cfg, err := loadSettings(opts.settingsPath)
	if err != nil {
		return err
	}
	layoutCfg, err := cfg.LayoutConfig()
	if err != nil {
		return err
	}

	snap, doc, err := diagram.Import(input)
	if err != nil {
		return fmt.Errorf("load diagram %s: %w", input, err)
	}
	if doc.Algorithm != "" {
		kind, err := layout.ParseKind(doc.Algorithm)
		if err != nil {
			return fmt.Errorf("diagram %s: %w", input, err)
		}
		layoutCfg.Algorithm = kind
	}

	next, err := fn(ctx, engine.New(layoutCfg), snap)
	if err != nil {
		if errors.IsRejection(err) {
			printWarning("Rejected: %s", errors.UserMessage(err))
			if report, ok := engine.ReportOf(err); ok && len(report.OffendingSiblings) > 0 {
				printDetail("Blocked by: %s", strings.Join(report.OffendingSiblings, ", "))
			}
		}
		return err
	}

	out := input
	if opts.output != "" {
		out = opts.output
	}
	nextDoc := diagram.FromSnapshot(next, string(layoutCfg.Algorithm))
	if err := diagram.Export(nextDoc, out); err != nil {
		return fmt.Errorf("write diagram %s: %w", out, err)
	}

	if opts.sessionName != "" {
		store, err := session.NewFileStore("")
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
		entry, err := store.Save(ctx, opts.sessionName, next, string(layoutCfg.Algorithm), "edit "+input)
		if err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		printDetail("Session %s entry %d", opts.sessionName, entry.Seq)
	}

	printSuccess("Edit applied")
	printFile(out)
	return nil
}

// =============================================================================
// Argument Parsers
// =============================================================================

// parseSize parses a "WxH" argument into a Size.
func parseSize(s string) (geometry.Size, error) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return geometry.Size{}, fmt.Errorf("invalid size %q (want WxH)", s)
	}
	w, errW := strconv.Atoi(parts[0])
	h, errH := strconv.Atoi(parts[1])
	if errW != nil || errH != nil {
		return geometry.Size{}, fmt.Errorf("invalid size %q (want WxH)", s)
	}
	return geometry.Size{W: w, H: h}, nil
}

// parseDelta parses a "dx,dy" argument into a Delta.
func parseDelta(s string) (geometry.Delta, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return geometry.Delta{}, fmt.Errorf("invalid delta %q (want dx,dy)", s)
	}
	dx, errX := strconv.Atoi(parts[0])
	dy, errY := strconv.Atoi(parts[1])
	if errX != nil || errY != nil {
		return geometry.Delta{}, fmt.Errorf("invalid delta %q (want dx,dy)", s)
	}
	return geometry.Delta{DX: dx, DY: dy}, nil
}

// parsePoint parses an "x,y" argument into a Point.
func parsePoint(s string) (geometry.Point, error) {
	d, err := parseDelta(s)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("invalid point %q (want x,y)", s)
	}
	return geometry.Point{X: d.DX, Y: d.DY}, nil
}
