package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the document as canonical JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		sess, err := e.editor.Manager.Load(cmd.Context(), e.session)
		if err != nil {
			return fmt.Errorf("session %q: %w", e.session, err)
		}
		out, err := domain.Serialize(sess.Document())
		if err != nil {
			return err
		}

		if len(args) == 0 || args[0] == "-" {
			printf(cmd, "%s\n", out)
			return nil
		}
		if err := os.WriteFile(args[0], []byte(out+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		printf(cmd, "%s\n", tui.Status(true, "exported to "+args[0]))
		return nil
	}),
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the document with a canonical JSON export (\"-\" reads stdin)",
	Long:  `Replaces the session's document. The history is cleared, so an import cannot be undone.`,
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		var (
			data []byte
			err  error
		)
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to read import: %w", err)
		}

		doc, err := domain.Parse(string(data))
		if err != nil {
			return err
		}
		return edit(cmd, e, "import "+args[0], func(s *session.Session) (bool, error) {
			return true, s.Import(doc)
		})
	}),
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
}
