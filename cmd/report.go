package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/config"
	"github.com/theirongolddev/salescast/internal/dashboard"
	"github.com/theirongolddev/salescast/internal/pipeline"

	"github.com/spf13/cobra"
)

var flagReportStore string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize forecasts against actuals per store",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&flagReportStore, "store", "s", "", "Show detail for one store")
	rootCmd.AddCommand(reportCmd)
}

func loadDashboardData() (*dashboard.Data, error) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Scanning %s...\n", cfg.Paths.ExportDir)
	}
	cache := openCache()
	defer closeCache(cache)

	d, err := dashboard.Load(dashboard.LoadOptions{
		ExportDir:   cfg.Paths.ExportDir,
		ActualsPath: cfg.Paths.Actuals,
		Cache:       cache,
		Progress:    progressLine("Reading"),
	})
	if err != nil {
		return nil, err
	}

	if !flagQuiet {
		s := d.Stats
		if s.CacheHits > 0 {
			fmt.Fprintf(os.Stderr, "  %s cached + %d reparsed forecast files\n",
				cli.FormatNumber(int64(s.CacheHits)), s.Reparsed)
		}
		if s.FileErrors > 0 {
			fmt.Fprintf(os.Stderr, "  %s\n", cli.WarnStyle.Render(fmt.Sprintf("%d forecast files could not be read", s.FileErrors)))
		}
	}
	return d, nil
}

func runReport(_ *cobra.Command, _ []string) error {
	d, err := loadDashboardData()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("SALES FORECAST REPORT"))
	fmt.Println()

	if d.AggregateActuals() {
		fmt.Printf("  %s\n\n", cli.WarnStyle.Render("Actuals are chain totals; run `salescast actuals --by-store` for per-store error."))
	} else if d.Stats.ActualsMissing {
		fmt.Printf("  %s\n\n", cli.WarnStyle.Render("No actuals file; error columns are empty."))
	}

	if flagReportStore != "" {
		return reportStore(d, flagReportStore)
	}

	summaries := pipeline.Summarize(d.Rows())
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Store,
			cli.FormatDate(s.FirstDate) + " .. " + cli.FormatDate(s.LastDate),
			cli.FormatNumber(int64(s.ActualRows)),
			cli.FormatCompact(s.Metrics.MAE),
			cli.FormatCompact(s.Metrics.RMSE),
			cli.FormatCompact(s.NextTotal30),
			cli.FormatCompact(s.NextTotal365),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Stores (%d)", len(summaries)),
		Headers: []string{"Store", "Range", "Actuals", "MAE", "RMSE", "Next 30d", "Next 365d"},
		Rows:    rows,
	}))

	printFitRuns()
	return nil
}

func reportStore(d *dashboard.Data, id string) error {
	if !d.HasStore(id) {
		return fmt.Errorf("no forecast for store %q", id)
	}
	rows := d.StoreRows(id)
	ins := pipeline.ComputeInsights(rows)
	ol := pipeline.ComputeOutlook(rows)
	met := pipeline.ComputeMetrics(rows)

	fmt.Print(cli.RenderKeyValues([][2]string{
		{"Store", id},
		{"Insight window", cli.FormatDate(ins.WindowStart) + " .. " + cli.FormatDate(ins.WindowEnd)},
		{"Avg actual", cli.FormatSales(ins.AvgActual)},
		{"Avg forecast", cli.FormatSales(ins.AvgForecast)},
		{"Trend", ins.Trend.String()},
		{"Error", cli.FormatMetrics(met)},
		{"Next 30 days", cli.FormatSales(ol.Next30)},
		{"Next 90 days", cli.FormatSales(ol.Next90)},
		{"Next 365 days", cli.FormatSales(ol.Next365)},
	}))
	fmt.Println()

	months := pipeline.AggregateMonths(rows)
	if len(months) > 0 {
		vals := make([]float64, len(months))
		for i, m := range months {
			vals[i] = m.Forecast
		}
		fmt.Printf("  Monthly forecast %s .. %s\n  %s\n\n",
			months[0].Period, months[len(months)-1].Period, cli.RenderSparkline(vals))
	}

	years := pipeline.AggregateYears(rows)
	yrows := make([][]string, 0, len(years))
	for i, y := range years {
		delta := ""
		if i > 0 {
			delta = cli.FormatDelta(y.Forecast, years[i-1].Forecast)
		}
		yrows = append(yrows, []string{y.Period, cli.FormatCompact(y.Actual), cli.FormatCompact(y.Forecast), delta})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Yearly",
		Headers: []string{"Year", "Actual", "Forecast", "vs prev"},
		Rows:    yrows,
	}))
	return nil
}

// printFitRuns lists the most recent forecast run recorded in the cache.
func printFitRuns() {
	cache := openCache()
	if cache == nil {
		return
	}
	defer closeCache(cache)

	runs, err := cache.LatestFitRuns()
	if err != nil || len(runs) == 0 {
		return
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.Store,
			cli.FormatNumber(int64(r.HistoryRows)),
			fmt.Sprintf("%d", r.HorizonDays),
			cli.FormatCompact(r.ResidualSigma),
			cli.FormatCompact(r.InSampleMAE),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Last Fit Run %s (%s)", runs[0].RunID[:8], runs[0].StartedAt.Local().Format("Jan 2 15:04")),
		Headers: []string{"Store", "History", "Horizon", "Sigma", "Fit MAE"},
		Rows:    rows,
	}))
	if n, err := cache.ForecastFileCount(); err == nil {
		fmt.Printf("  %s forecast files cached in %s\n\n", cli.FormatNumber(int64(n)), config.CachePath(cfg))
	}
}
