package pipeline

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/source"
	"github.com/theirongolddev/salescast/internal/store"
)

// writeDaily writes a daily_sales.csv with n days for each store, in the
// newest-first order of the raw Rossmann export.
func writeDaily(t *testing.T, dir string, rows map[string]int, order []string) string {
	t.Helper()
	var points []model.SeriesPoint
	start := day("2014-01-01")
	for _, s := range order {
		n := rows[s]
		for i := n - 1; i >= 0; i-- {
			d := start.AddDate(0, 0, i)
			points = append(points, model.SeriesPoint{Store: s, DS: d, Y: 4000 + float64(int(d.Weekday())*150) + float64(i)})
		}
	}
	path := filepath.Join(dir, "daily_sales.csv")
	if err := source.WriteDailySales(path, points); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestForecastStores_HorizonAndSkip(t *testing.T) {
	dir := t.TempDir()
	daily := writeDaily(t, dir, map[string]int{"1": 150, "2": 50, "3": 100}, []string{"3", "2", "1"})
	cache, err := store.Open(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = cache.Close() }()

	cfg := ForecastConfig{
		DailySalesPath: daily,
		ExportDir:      filepath.Join(dir, "export"),
		VisualsDir:     filepath.Join(dir, "visuals"),
		HorizonDays:    730,
		MinHistory:     100,
		Model:          forecast.DefaultOptions(),
		Plots:          true,
		Cache:          cache,
	}
	res, err := ForecastStores(cfg)
	if err != nil {
		t.Fatalf("ForecastStores: %v", err)
	}

	if len(res.Skipped) != 1 || res.Skipped[0].Store != "2" || res.Skipped[0].Rows != 50 {
		t.Errorf("Skipped = %+v, want store 2 with 50 rows", res.Skipped)
	}
	if len(res.Fitted) != 2 || res.Fitted[0].Store != "3" || res.Fitted[1].Store != "1" {
		t.Fatalf("Fitted = %+v, want stores 3 then 1", res.Fitted)
	}

	for _, f := range res.Fitted {
		pr := source.ParseFile(source.DiscoveredFile{Path: f.Path, Store: f.Store})
		if pr.Err != nil {
			t.Fatalf("store %s: %v", f.Store, pr.Err)
		}
		want := f.HistoryRows + 730
		if len(pr.Points) != want {
			t.Errorf("store %s: %d rows, want %d", f.Store, len(pr.Points), want)
		}
		for i, p := range pr.Points {
			if p.YhatLower > p.Yhat || p.Yhat > p.YhatUpper {
				t.Fatalf("store %s row %d: bounds out of order %+v", f.Store, i, p)
			}
			if p.Store != f.Store {
				t.Fatalf("store %s row %d: Store column = %q", f.Store, i, p.Store)
			}
		}
		if _, err := os.Stat(f.PlotPath); err != nil {
			t.Errorf("store %s: plot missing: %v", f.Store, err)
		}
	}

	if _, err := os.Stat(filepath.Join(cfg.ExportDir, source.ForecastFileName("2"))); !os.IsNotExist(err) {
		t.Error("skipped store should not get a forecast file")
	}

	runs, err := cache.LatestFitRuns()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].RunID != res.RunID {
		t.Errorf("fit runs = %+v, want 2 for run %s", runs, res.RunID)
	}
	for _, r := range runs {
		if r.InSampleMAE < 0 || math.IsNaN(r.InSampleMAE) {
			t.Errorf("store %s: in-sample MAE = %g", r.Store, r.InSampleMAE)
		}
	}
}

func TestForecastStores_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	daily := writeFile(t, dir, "daily.csv", "ds,y", "2015-01-01,1")
	_, err := ForecastStores(ForecastConfig{DailySalesPath: daily, ExportDir: dir, MinHistory: 1})
	if !errors.Is(err, source.ErrMissingColumn) {
		t.Errorf("err = %v, want ErrMissingColumn", err)
	}
}

func TestForecastStores_StoreFilter(t *testing.T) {
	dir := t.TempDir()
	daily := writeDaily(t, dir, map[string]int{"1": 120, "2": 120}, []string{"1", "2"})

	res, err := ForecastStores(ForecastConfig{
		DailySalesPath: daily,
		ExportDir:      filepath.Join(dir, "export"),
		HorizonDays:    10,
		MinHistory:     100,
		Model:          forecast.DefaultOptions(),
		Stores:         []string{"2"},
		Workers:        1,
	})
	if err != nil {
		t.Fatalf("ForecastStores: %v", err)
	}
	if len(res.Fitted) != 1 || res.Fitted[0].Store != "2" || res.Fitted[0].Rows != 130 {
		t.Errorf("Fitted = %+v, want store 2 with 130 rows", res.Fitted)
	}
}

func TestForecastStores_SkipsBelowSolverMinimum(t *testing.T) {
	dir := t.TempDir()
	daily := writeDaily(t, dir, map[string]int{"1": 2}, []string{"1"})

	res, err := ForecastStores(ForecastConfig{
		DailySalesPath: daily,
		ExportDir:      filepath.Join(dir, "export"),
		HorizonDays:    5,
		MinHistory:     1,
		Model:          forecast.DefaultOptions(),
		Workers:        1,
	})
	if err != nil {
		t.Fatalf("ForecastStores: %v", err)
	}
	if len(res.Fitted) != 0 || len(res.Skipped) != 1 || res.Skipped[0].Rows != 2 {
		t.Errorf("Fitted = %+v Skipped = %+v, want store 1 skipped", res.Fitted, res.Skipped)
	}
}

func TestGroupByStore_FirstAppearance(t *testing.T) {
	pts := []model.SeriesPoint{{Store: "5"}, {Store: "1"}, {Store: "5"}, {Store: "3"}}
	order, by := GroupByStore(pts)
	if fmt.Sprint(order) != "[5 1 3]" {
		t.Errorf("order = %v, want [5 1 3]", order)
	}
	if len(by["5"]) != 2 {
		t.Errorf("store 5 rows = %d, want 2", len(by["5"]))
	}
}
