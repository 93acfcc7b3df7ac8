package cmd

import (
	"fmt"
	"strconv"

	"github.com/theirongolddev/salescast/internal/config"
	"github.com/theirongolddev/salescast/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func validHorizon(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("enter a whole number of days")
	}
	return nil
}

func runSetup(_ *cobra.Command, _ []string) error {
	c := cfg
	horizon := strconv.Itoa(c.Forecast.HorizonDays)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to salescast").
				Description("Point salescast at your data and pick defaults.\nEvery value can be changed later in "+config.ConfigPath()),
		),
		huh.NewGroup(
			huh.NewInput().Title("Transactions CSV").Value(&c.Paths.Train),
			huh.NewInput().Title("Store metadata CSV").Value(&c.Paths.Stores),
			huh.NewInput().Title("Daily series CSV").Value(&c.Paths.DailySales),
			huh.NewInput().Title("Actuals CSV").Value(&c.Paths.Actuals),
			huh.NewInput().Title("Forecast directory").Value(&c.Paths.ExportDir),
			huh.NewInput().Title("Download directory").Value(&c.Paths.DownloadDir),
		).Title("Paths"),
		huh.NewGroup(
			huh.NewInput().Title("Horizon (days)").Validate(validHorizon).Value(&horizon),
			huh.NewConfirm().Title("Write PNG plots").Value(&c.Forecast.Plots),
			huh.NewConfirm().Title("Per-store actuals").
				Description("Needed for per-store error metrics in the dashboard").
				Value(&c.Actuals.ByStore),
			huh.NewSelect[string]().Title("Theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&c.Appearance.Theme),
		).Title("Defaults"),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	c.Forecast.HorizonDays, _ = strconv.Atoi(horizon)
	if err := c.Validate(); err != nil {
		return err
	}
	if err := config.Save(c); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `salescast setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
