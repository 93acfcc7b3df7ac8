package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/pipeline"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run preprocess, forecast and actuals in order",
	RunE:  runAll,
}

func init() {
	runCmd.Flags().StringSliceVar(&flagStoreIDs, "stores", nil, "Only fit these store ids (comma separated)")
	runCmd.Flags().IntVar(&flagHorizon, "horizon", 0, "Days to forecast past the last observation (default from config)")
	runCmd.Flags().BoolVar(&flagNoPlots, "no-plots", false, "Skip PNG plots")
	runCmd.Flags().IntVarP(&flagWorkers, "workers", "w", 0, "Parallel store fits (default GOMAXPROCS)")
	runCmd.Flags().BoolVar(&flagByStore, "by-store", false, "Aggregate actuals per store and day")
	rootCmd.AddCommand(runCmd)
}

func runAll(cmd *cobra.Command, _ []string) error {
	start := time.Now()

	pc := preprocessConfig()
	pres, err := pipeline.Preprocess(pc)
	if err != nil {
		return fmt.Errorf("preprocess: %w", err)
	}
	printPreprocess(pc, pres)

	fc := forecastConfig()
	fc.DailySalesPath = pc.OutputPath
	cache := openCache()
	defer closeCache(cache)
	fc.Cache = cache

	fitStart := time.Now()
	fres, fitErr := pipeline.ForecastStores(fc)
	if fres != nil {
		printForecast(fc, fres, time.Since(fitStart))
	}
	// failed store fits do not block actuals
	if fitErr != nil && !errors.Is(fitErr, pipeline.ErrStoreFits) {
		return fmt.Errorf("forecast: %w", fitErr)
	}

	ac := actualsConfig(cmd)
	ares, err := pipeline.GenerateActuals(ac)
	if err != nil {
		return fmt.Errorf("actuals: %w", err)
	}
	printActuals(ac, ares)

	if !flagQuiet {
		fmt.Printf("  Pipeline finished in %s. Run `salescast tui` to explore.\n\n", cli.FormatElapsed(time.Since(start)))
	}
	return fitErr
}
