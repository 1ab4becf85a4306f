package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vietddude/tikwatch/internal/control"
	"github.com/vietddude/tikwatch/internal/core/domain"
)

// LiveResolver is the controller surface the one-shot commands use.
type LiveResolver interface {
	ResolveProfile(ctx context.Context, handle string) (domain.ProfileRecord, error)
	ResolveLiveStats(ctx context.Context, handle string) (domain.LiveStatsRecord, error)
}

var profileCmd = &cobra.Command{
	Use:   "profile <user>",
	Short: "Resolve a profile once and print it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOnce(domain.KindProfile, args[0])
	},
}

var liveCmd = &cobra.Command{
	Use:   "live <user>",
	Short: "Resolve live stats once and print them",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOnce(domain.KindLiveStats, args[0])
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(liveCmd)
}

func runOnce(kind domain.RequestKind, user string) {
	cfg, err := setup()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	app, err := control.NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize tikwatch", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := resolveOnce(ctx, app.Controller(), kind, user, jsonOut, os.Stdout); err != nil {
		stop()
		app.Close()
		os.Exit(1)
	}
}

// resolveOnce runs one resolution and writes the result or the failure to w.
// The returned error is the resolution error.
func resolveOnce(
	ctx context.Context,
	r LiveResolver,
	kind domain.RequestKind,
	user string,
	asJSON bool,
	w io.Writer,
) error {
	var (
		out any
		err error
	)
	switch kind {
	case domain.KindLiveStats:
		var rec domain.LiveStatsRecord
		rec, err = r.ResolveLiveStats(ctx, user)
		out = rec
		if err == nil && !asJSON {
			renderLive(w, rec)
		}
	default:
		var rec domain.ProfileRecord
		rec, err = r.ResolveProfile(ctx, user)
		out = rec
		if err == nil && !asJSON {
			renderProfile(w, rec)
		}
	}

	if err != nil {
		if asJSON {
			writeJSON(w, errorJSON(err))
		} else {
			renderError(w, err)
		}
		return err
	}
	if asJSON {
		writeJSON(w, out)
	}
	return nil
}

func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(w, err)
	}
}
