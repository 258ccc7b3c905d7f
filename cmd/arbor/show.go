package main

import (
	"fmt"

	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new session with a single Start node",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		ctx := cmd.Context()
		if force, _ := cmd.Flags().GetBool("force"); force {
			if err := e.editor.Manager.Delete(ctx, e.session); err != nil {
				return err
			}
		}
		sess, err := e.editor.Manager.Create(ctx, e.session)
		if err != nil {
			return err
		}
		printf(cmd, "%s\n", tui.Status(true, "created session "+sess.ID()))
		return nil
	}),
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current document",
	Long:  `Prints the session's document as canonical JSON, a Mermaid diagram (graph TD) or a markdown outline.`,
	Args:  cobra.NoArgs,
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		sess, err := e.editor.Manager.Load(cmd.Context(), e.session)
		if err != nil {
			return fmt.Errorf("session %q: %w", e.session, err)
		}
		doc := sess.Document()

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "json":
			out, err := domain.Serialize(doc)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", out)
		case "mermaid":
			var overlay *graph.GraphOverlay
			if highlight, _ := cmd.Flags().GetBool("highlight"); highlight {
				overlay = graph.OverlayFromDiff(sess.LastChange())
			}
			printf(cmd, "%s", graph.GenerateMermaid(doc, overlay))
		case "outline":
			md := tui.Outline(doc)
			if isTerminal(cmd.OutOrStdout()) {
				if rendered, err := tui.NewRenderer()(md); err == nil {
					md = rendered
				} else {
					e.logger.Debug("Markdown rendering failed, printing raw", "err", err)
				}
			}
			printf(cmd, "%s", md)
		default:
			return fmt.Errorf("unknown format %q (want json, mermaid or outline)", format)
		}
		return nil
	}),
}

func init() {
	newCmd.Flags().Bool("force", false, "Replace the session if it already exists")
	showCmd.Flags().StringP("format", "f", "outline", "Output format: json, mermaid, outline")
	showCmd.Flags().Bool("highlight", false, "Highlight nodes touched by the last edit (mermaid)")

	rootCmd.AddCommand(newCmd, showCmd)
}
