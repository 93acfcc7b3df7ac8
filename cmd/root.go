// Package cmd implements the salescast CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/config"
	"github.com/theirongolddev/salescast/internal/logging"
	"github.com/theirongolddev/salescast/internal/pipeline"
	"github.com/theirongolddev/salescast/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagLogLevel string
	flagQuiet    bool
	flagNoCache  bool

	// cfg is the effective configuration, loaded before any command runs.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "salescast",
	Short: "Per-store sales forecasting pipeline",
	Long: "Preprocess daily store sales, fit one seasonal forecast per store, aggregate actuals,\n" +
		"and explore forecasts against actuals in an interactive dashboard.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runReport,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default $XDG_CONFIG_HOME/salescast/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip the SQLite cache, reparse every forecast file")
}

// setup loads config and initializes logging for every command.
func setup(cmd *cobra.Command, _ []string) error {
	if flagConfig != "" {
		config.SetPath(flagConfig)
	}
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	cfg = loaded

	lc := logging.DefaultConfig()
	lc.Level = cfg.Log.Level
	lc.Pretty = cfg.Log.Pretty
	if flagLogLevel != "" {
		lc.Level = flagLogLevel
	}
	if flagQuiet && flagLogLevel == "" {
		lc.Level = "warn"
	}
	// the dashboard owns the terminal; it sets up its own log output
	if cmd.Name() != "tui" {
		logging.Init(lc)
	}
	return nil
}

// progressLine returns a ProgressFunc that redraws a counter on stderr.
func progressLine(label string) pipeline.ProgressFunc {
	return func(current, total int) {
		if flagQuiet {
			return
		}
		if current%25 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  %s %s", label, cli.RenderProgressBar(current, total, 30))
		}
		if current == total {
			fmt.Fprintln(os.Stderr)
		}
	}
}

// openCache opens the sqlite cache unless --no-cache is set. A nil cache
// means callers run uncached.
func openCache() *store.Cache {
	if flagNoCache {
		return nil
	}
	cache, err := store.Open(config.CachePath(cfg))
	if err != nil {
		logging.Warn().Err(err).Msg("cache unavailable, running uncached")
		return nil
	}
	return cache
}

func closeCache(c *store.Cache) {
	if c != nil {
		_ = c.Close()
	}
}
