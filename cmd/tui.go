package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/theirongolddev/salescast/internal/config"
	"github.com/theirongolddev/salescast/internal/logging"
	"github.com/theirongolddev/salescast/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var (
	flagTUIStore string
	flagTUITheme string
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive forecast dashboard",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().StringVarP(&flagTUIStore, "store", "s", "", "Store selected on start (default from config)")
	tuiCmd.Flags().StringVar(&flagTUITheme, "theme", "", "Theme name (default from config)")
	rootCmd.AddCommand(tuiCmd)
}

// tuiLogOutput keeps log lines off the alternate screen: they go to the
// configured log file, or nowhere.
func tuiLogOutput() (io.Writer, func()) {
	if cfg.Log.File == "" {
		return io.Discard, func() {}
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return io.Discard, func() {}
	}
	return f, func() { _ = f.Close() }
}

func runTUI(_ *cobra.Command, _ []string) error {
	out, closeLog := tuiLogOutput()
	defer closeLog()
	lc := logging.DefaultConfig()
	lc.Level = orDefault(flagLogLevel, cfg.Log.Level)
	lc.Pretty = false
	lc.Output = out
	logging.Init(lc)

	// Force TrueColor so every background style produces ANSI codes.
	lipgloss.SetColorProfile(termenv.TrueColor)

	cachePath := config.CachePath(cfg)
	if flagNoCache {
		cachePath = ""
	}
	app := tui.NewApp(tui.Options{
		ExportDir:    cfg.Paths.ExportDir,
		ActualsPath:  cfg.Paths.Actuals,
		DownloadDir:  cfg.Paths.DownloadDir,
		CachePath:    cachePath,
		DefaultStore: orDefault(flagTUIStore, cfg.Dashboard.DefaultStore),
		Theme:        orDefault(flagTUITheme, cfg.Appearance.Theme),
		PersistTheme: flagTUITheme == "",
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
