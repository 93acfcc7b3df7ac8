package cmd

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagStoreIDs  []string
	flagHorizon   int
	flagNoPlots   bool
	flagWorkers   int
	flagExportDir string
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Fit one seasonal model per store and write forecast_store_<id>.csv",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().StringVar(&flagDailyPath, "input", "", "Daily series CSV (default from config)")
	forecastCmd.Flags().StringVar(&flagExportDir, "export-dir", "", "Forecast output directory (default from config)")
	forecastCmd.Flags().StringSliceVar(&flagStoreIDs, "stores", nil, "Only fit these store ids (comma separated)")
	forecastCmd.Flags().IntVar(&flagHorizon, "horizon", 0, "Days to forecast past the last observation (default from config)")
	forecastCmd.Flags().BoolVar(&flagNoPlots, "no-plots", false, "Skip PNG plots")
	forecastCmd.Flags().IntVarP(&flagWorkers, "workers", "w", 0, "Parallel store fits (default GOMAXPROCS)")
	rootCmd.AddCommand(forecastCmd)
}

func modelOptions() forecast.Options {
	f := cfg.Forecast
	return forecast.Options{
		Weekly:           f.Weekly,
		Yearly:           f.Yearly,
		WeeklyOrder:      f.WeeklyOrder,
		YearlyOrder:      f.YearlyOrder,
		Changepoints:     f.Changepoints,
		ChangepointRange: f.ChangepointRange,
		ChangepointPrior: f.ChangepointPrior,
		SeasonalityPrior: f.SeasonalityPrior,
		IntervalWidth:    f.IntervalWidth,
	}
}

func forecastConfig() pipeline.ForecastConfig {
	horizon := cfg.Forecast.HorizonDays
	if flagHorizon > 0 {
		horizon = flagHorizon
	}
	workers := cfg.Forecast.Workers
	if flagWorkers > 0 {
		workers = flagWorkers
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return pipeline.ForecastConfig{
		DailySalesPath: orDefault(flagDailyPath, cfg.Paths.DailySales),
		ExportDir:      orDefault(flagExportDir, cfg.Paths.ExportDir),
		VisualsDir:     cfg.Paths.VisualsDir,
		HorizonDays:    horizon,
		MinHistory:     cfg.Forecast.MinHistory,
		Model:          modelOptions(),
		Workers:        workers,
		Plots:          cfg.Forecast.Plots && !flagNoPlots,
		Stores:         flagStoreIDs,
		Progress:       progressLine("Fitting"),
	}
}

func runForecast(_ *cobra.Command, _ []string) error {
	fc := forecastConfig()
	cache := openCache()
	defer closeCache(cache)
	fc.Cache = cache

	start := time.Now()
	res, err := pipeline.ForecastStores(fc)
	if res != nil {
		printForecast(fc, res, time.Since(start))
	}
	if err != nil && !errors.Is(err, pipeline.ErrStoreFits) {
		return fmt.Errorf("forecast: %w", err)
	}
	return err
}

func printForecast(fc pipeline.ForecastConfig, res *pipeline.ForecastResult, elapsed time.Duration) {
	if flagQuiet {
		return
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FORECAST  %d day horizon", fc.HorizonDays)))
	fmt.Println()

	if len(res.Fitted) > 0 {
		rows := make([][]string, 0, len(res.Fitted))
		for _, f := range res.Fitted {
			rows = append(rows, []string{
				f.Store,
				cli.FormatNumber(int64(f.HistoryRows)),
				cli.FormatNumber(int64(f.Rows)),
				cli.FormatDate(f.FirstDS) + " .. " + cli.FormatDate(f.LastDS),
				cli.FormatCompact(f.Sigma),
				cli.FormatCompact(f.InSampleMAE),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Fitted Stores",
			Headers: []string{"Store", "History", "Rows", "Range", "Sigma", "Fit MAE"},
			Rows:    rows,
		}))
	}

	if len(res.Skipped) > 0 {
		ids := make([]string, len(res.Skipped))
		for i, s := range res.Skipped {
			ids[i] = fmt.Sprintf("%s (%d rows)", s.Store, s.Rows)
		}
		fmt.Printf("  %s\n", cli.WarnStyle.Render(fmt.Sprintf("Skipped %d stores with under %d rows: %s",
			len(res.Skipped), fc.MinHistory, strings.Join(ids, ", "))))
	}
	for _, f := range res.Failed {
		fmt.Printf("  %s\n", cli.WarnStyle.Render(fmt.Sprintf("Store %s failed: %v", f.Store, f.Err)))
	}

	fmt.Println()
	fmt.Printf("  %s %d stores in %s, run %s\n",
		cli.GoodStyle.Render("Wrote"), len(res.Fitted), cli.FormatElapsed(elapsed), res.RunID[:8])
	fmt.Printf("  Output: %s\n\n", fc.ExportDir)
}
