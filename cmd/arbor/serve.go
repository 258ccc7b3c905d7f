package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/arbor/internal/presentation/tui"
	httpAdapter "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Serves the session editing API as JSON over HTTP, with Prometheus metrics on /metrics.`,
	Args:  cobra.NoArgs,
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		addr := e.cfg.HTTP.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		handler := httpAdapter.NewHandler(e.editor.Manager,
			httpAdapter.WithLogger(e.logger),
			httpAdapter.WithMetrics(e.editor.Metrics),
			httpAdapter.WithAllowedOrigins(e.cfg.HTTP.AllowedOrigins...),
		)

		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: e.cfg.HTTP.ReadTimeout,
		}

		if isTerminal(os.Stderr) {
			tui.PrintBanner(os.Stderr)
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			e.logger.Info("Starting Arbor Server", "addr", srv.Addr, "store", e.cfg.Store.Driver)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err

		case sig := <-shutdown:
			e.logger.Info("Start shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), e.cfg.HTTP.ShutdownTimeout)
			defer cancel()

			// Asking listener to shut down and shed load.
			if err := srv.Shutdown(ctx); err != nil {
				e.logger.Warn("Graceful shutdown did not complete", "timeout", e.cfg.HTTP.ShutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return err
				}
			}
			e.logger.Info("Arbor Server stopped gracefully")
			return nil
		}
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (default from config)")
}
