package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/diagram"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/session"
)

// sessionCommand creates the session command group for named snapshot
// history. Sessions are the manual undo story: every save appends an entry,
// restore writes any entry back out as a diagram file.
func (c *CLI) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Save and restore named diagram snapshots",
	}

	cmd.AddCommand(c.sessionSaveCommand())
	cmd.AddCommand(c.sessionRestoreCommand())
	cmd.AddCommand(c.sessionListCommand())
	cmd.AddCommand(c.sessionDeleteCommand())

	return cmd
}

// sessionSaveCommand creates the "session save" subcommand.
func (c *CLI) sessionSaveCommand() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "save [name] [diagram.json]",
		Short: "Append a diagram snapshot to a session's history",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, doc, err := diagram.Import(args[1])
			if err != nil {
				return fmt.Errorf("load diagram %s: %w", args[1], err)
			}
			store, err := session.NewFileStore("")
			if err != nil {
				return err
			}
			entry, err := store.Save(cmd.Context(), args[0], snap, doc.Algorithm, note)
			if err != nil {
				return err
			}
			printSuccess("Saved entry %d to session %s", entry.Seq, args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "description of this save")
	return cmd
}

// sessionRestoreCommand creates the "session restore" subcommand.
func (c *CLI) sessionRestoreCommand() *cobra.Command {
	var (
		output string
		seqStr string
	)

	cmd := &cobra.Command{
		Use:   "restore [name]",
		Short: "Write a session entry back out as a diagram file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := session.NewFileStore("")
			if err != nil {
				return err
			}

			sess, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			entry := sess.Latest()
			if seqStr != "" {
				seq, convErr := strconv.Atoi(seqStr)
				if convErr != nil {
					return fmt.Errorf("invalid entry %q", seqStr)
				}
				if entry, err = sess.EntryAt(seq); err != nil {
					return err
				}
			}
			if entry == nil {
				return fmt.Errorf("session %s is empty", args[0])
			}

			out := output
			if out == "" {
				out = args[0] + ".json"
			}
			if err := diagram.Export(entry.Document, out); err != nil {
				return fmt.Errorf("write diagram %s: %w", out, err)
			}

			printSuccess("Restored entry %d from session %s", entry.Seq, args[0])
			printFile(out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <name>.json)")
	cmd.Flags().StringVar(&seqStr, "entry", "", "entry sequence number (default: latest)")
	return cmd
}

// sessionListCommand creates the "session list" subcommand.
func (c *CLI) sessionListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions and their history sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := session.NewFileStore("")
			if err != nil {
				return err
			}
			infos, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				printInfo("No sessions")
				return nil
			}
			for _, info := range infos {
				printDetail("%-20s %3d entries   updated %s",
					info.Name, info.Entries, info.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

// sessionDeleteCommand creates the "session delete" subcommand.
func (c *CLI) sessionDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a session and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := session.NewFileStore("")
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted session %s", args[0])
			return nil
		},
	}
}
