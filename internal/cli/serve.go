package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vietddude/tikwatch/internal/control"
)

var serveCmd = &cobra.Command{
	Use:   "serve [user]",
	Short: "Poll a user's live stats and serve the status endpoints",
	Args:  cobra.MaximumNArgs(1),
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := setup()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if len(args) > 0 {
		cfg.User = args[0]
	}
	if cfg.User == "" {
		slog.Warn("No user configured, live polling disabled")
	}

	app, err := control.NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize tikwatch", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start tikwatch", "error", err)
		os.Exit(1)
	}

	slog.Info("tikwatch started", "config", cfgPath, "user", cfg.User)

	sig := <-sigChan
	slog.Info("Received signal, shutting down...", "signal", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
}
