package main

import (
	"fmt"
	"os/signal"
	"syscall"

	mcpAdapter "github.com/aretw0/arbor/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for the current session",
	Long: `Exposes the session's editing operations as MCP tools and its document as the
arbor://document resource. Serves over stdio unless --sse is given.`,
	Args: cobra.NoArgs,
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		srv := mcpAdapter.NewServer(e.editor.Manager, e.session, mcpAdapter.WithLogger(e.logger))

		sseAddr, _ := cmd.Flags().GetString("sse")
		if sseAddr == "" {
			return srv.ServeStdio()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		baseURL, _ := cmd.Flags().GetString("base-url")
		if baseURL == "" {
			baseURL = fmt.Sprintf("http://localhost%s", sseAddr)
		}
		return srv.ServeSSE(ctx, sseAddr, baseURL)
	}),
}

func init() {
	mcpCmd.Flags().String("sse", "", "Serve over SSE on this address (e.g. :8081) instead of stdio")
	mcpCmd.Flags().String("base-url", "", "Public base URL for SSE clients (default http://localhost<addr>)")
	rootCmd.AddCommand(mcpCmd)
}
