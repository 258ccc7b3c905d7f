package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <parent> <kind>",
	Short: "Insert a node after a parent",
	Long: `Inserts an action, branch or end node at the parent's next link, or on a branch
path when --path is given. The displaced continuation moves under the new node.`,
	Args: cobra.ExactArgs(2),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		kind, err := domain.ParseKind(args[1])
		if err != nil {
			return err
		}
		conn := domain.NextConnection()
		if path, _ := cmd.Flags().GetString("path"); path != "" {
			conn = domain.BranchConnection(path)
		}

		return edit(cmd, e, "add "+string(kind), func(s *session.Session) (bool, error) {
			return s.AddNode(args[0], conn, kind)
		})
	}),
}

var labelCmd = &cobra.Command{
	Use:   "label <node> <text...>",
	Short: "Relabel a node",
	Args:  cobra.MinimumNArgs(2),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		text := strings.Join(args[1:], " ")
		return edit(cmd, e, "label "+args[0], func(s *session.Session) (bool, error) {
			return s.UpdateLabel(args[0], text)
		})
	}),
}

var rmCmd = &cobra.Command{
	Use:   "rm <node>",
	Short: "Delete a node, splicing its continuation into the parent",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		return edit(cmd, e, "rm "+args[0], func(s *session.Session) (bool, error) {
			return s.DeleteNode(args[0])
		})
	}),
}

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Undo the last edit",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		return edit(cmd, e, "undo", func(s *session.Session) (bool, error) {
			return s.Undo(), nil
		})
	}),
}

var redoCmd = &cobra.Command{
	Use:   "redo",
	Short: "Redo the last undone edit",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		return edit(cmd, e, "redo", func(s *session.Session) (bool, error) {
			return s.Redo(), nil
		})
	}),
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Replace the document with a fresh one and clear the history",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		return edit(cmd, e, "reset", func(s *session.Session) (bool, error) {
			s.Reset()
			return true, nil
		})
	}),
}

// edit applies op to the current session, creating it if needed, and prints
// the outcome with the ids of added nodes.
func edit(cmd *cobra.Command, e *env, what string, op func(*session.Session) (bool, error)) error {
	ctx := cmd.Context()
	if _, err := e.editor.Manager.LoadOrCreate(ctx, e.session); err != nil {
		return err
	}

	var changed bool
	sess, err := e.editor.Manager.Update(ctx, e.session, func(s *session.Session) error {
		var err error
		changed, err = op(s)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}

	msg := what
	if diff := sess.LastChange(); changed && diff != nil && len(diff.Added) > 0 && strings.HasPrefix(what, "add") {
		msg += " -> " + strings.Join(diff.Added, ", ")
	}
	printf(cmd, "%s\n", tui.Status(changed, msg))
	return nil
}

func init() {
	addCmd.Flags().StringP("path", "p", "", "Branch path id on the parent (e.g. first, second)")

	rootCmd.AddCommand(addCmd, labelCmd, rmCmd, undoCmd, redoCmd, resetCmd)
}
