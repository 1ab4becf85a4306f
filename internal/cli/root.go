package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"
	"github.com/vietddude/tikwatch/internal/core/config"
)

var (
	cfgPath  string
	isDebug  bool
	modeFlag string
	jsonOut  bool
)

var rootCmd = &cobra.Command{
	Use:   "tikwatch",
	Short: "TikTok profile and live stats watcher",
	Long: `tikwatch resolves TikTok profiles and live session stats through a chain of
sources (premium API, page scraping, public endpoints) and, depending on the
mode, substitutes generated data when every source fails.`,
	Run: runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (defaults are used when empty)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&modeFlag, "mode", "", "override mode: alternative, hybrid or strict")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print results as JSON")
}

// setup loads .env and the configuration, applies flag overrides and
// installs the log handler.
func setup() (*config.AppConfig, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		return nil, err
	}
	if modeFlag != "" {
		cfg.Mode = modeFlag
		if err := cfg.Validate(); err != nil {
			stylelog.InitDefault()
			return nil, err
		}
	}

	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}
	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})

	return cfg, nil
}
