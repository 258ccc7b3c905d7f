package main

import (
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage stored sessions",
}

var sessionsLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List stored sessions",
	Args:    cobra.NoArgs,
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		ids, err := e.editor.Manager.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			printf(cmd, "%s\n", id)
		}
		return nil
	}),
}

var sessionsRmCmd = &cobra.Command{
	Use:   "rm <id...>",
	Short: "Delete stored sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		for _, id := range args {
			if err := e.editor.Manager.Delete(cmd.Context(), id); err != nil {
				return err
			}
			printf(cmd, "%s\n", tui.Status(true, "deleted "+id))
		}
		return nil
	}),
}

func init() {
	sessionsCmd.AddCommand(sessionsLsCmd, sessionsRmCmd)
	rootCmd.AddCommand(sessionsCmd)
}
