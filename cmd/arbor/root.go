package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/config"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	cfgFile   string
	sessionID string
	debug     bool
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor edits branching workflows with undo/redo",
	Long: `Arbor builds branching workflows from four step types (start, action, branch, end).
Edits are applied to a persisted session and can be undone and redone.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./arbor.yaml if present)")
	rootCmd.PersistentFlags().StringVarP(&sessionID, "session", "s", "", "Session id (default from config)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

// env is what every command needs: resolved config, logger and an open editor.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	editor  *arbor.Editor
	session string
}

func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	logger := logging.New(level)

	ed, err := arbor.Open(cmd.Context(), cfg, arbor.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	id := cfg.Session
	if sessionID != "" {
		id = sessionID
	}
	return &env{cfg: cfg, logger: logger, editor: ed, session: id}, nil
}

// withEnv adapts a command body that needs an env, closing the editor afterwards.
func withEnv(fn func(cmd *cobra.Command, args []string, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if cmd.Context() == nil {
			cmd.SetContext(context.Background())
		}
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if err := e.editor.Close(); err != nil {
				e.logger.Warn("Failed to close editor", "err", err)
			}
		}()
		return fn(cmd, args, e)
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
