package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/salescast/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache", "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func points(store string, n int) []model.ForecastPoint {
	base := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.ForecastPoint, n)
	for i := range out {
		out[i] = model.ForecastPoint{
			Store:     store,
			DS:        base.AddDate(0, 0, i),
			Yhat:      float64(100 + i),
			YhatLower: float64(90 + i),
			YhatUpper: float64(110 + i),
		}
	}
	return out
}

func TestSaveForecastFile_ReplacesRows(t *testing.T) {
	c := openTestCache(t)

	if err := c.SaveForecastFile("/x/forecast_store_1.csv", "1", points("1", 5), 0, 1, 10); err != nil {
		t.Fatalf("SaveForecastFile: %v", err)
	}
	if err := c.SaveForecastFile("/x/forecast_store_1.csv", "1", points("1", 3), 1, 2, 20); err != nil {
		t.Fatalf("SaveForecastFile (replace): %v", err)
	}

	all, err := c.LoadAllForecasts()
	if err != nil {
		t.Fatalf("LoadAllForecasts: %v", err)
	}
	got := all["/x/forecast_store_1.csv"]
	if len(got) != 3 {
		t.Fatalf("rows = %d, want 3 after replace", len(got))
	}
	if got[2].Yhat != 102 || !got[2].DS.Equal(time.Date(2015, 1, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("row order lost: %+v", got[2])
	}

	tracked, err := c.GetTrackedFiles()
	if err != nil {
		t.Fatalf("GetTrackedFiles: %v", err)
	}
	if fi := tracked["/x/forecast_store_1.csv"]; fi.MtimeNs != 2 || fi.SizeBytes != 20 {
		t.Errorf("tracker = %+v, want mtime 2 size 20", fi)
	}
}

func TestDeleteForecastFile_Cascades(t *testing.T) {
	c := openTestCache(t)
	if err := c.SaveForecastFile("/x/a.csv", "1", points("1", 4), 0, 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteForecastFile("/x/a.csv"); err != nil {
		t.Fatalf("DeleteForecastFile: %v", err)
	}

	n, err := c.ForecastFileCount()
	if err != nil || n != 0 {
		t.Errorf("count = %d, %v; want 0", n, err)
	}
	all, err := c.LoadAllForecasts()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("points survived delete: %d files", len(all))
	}
	tracked, _ := c.GetTrackedFiles()
	if _, ok := tracked["/x/a.csv"]; ok {
		t.Error("tracker entry survived delete")
	}
}

func TestLatestFitRuns(t *testing.T) {
	c := openTestCache(t)
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := old.Add(time.Hour)

	if err := c.SaveFitRuns([]FitRun{{RunID: "a", Store: "1", StartedAt: old, HistoryRows: 10}}); err != nil {
		t.Fatal(err)
	}
	err := c.SaveFitRuns([]FitRun{
		{RunID: "b", Store: "10", StartedAt: recent, HistoryRows: 200, ResidualSigma: 1.5, InSampleMAE: 0.75},
		{RunID: "b", Store: "2", StartedAt: recent, HistoryRows: 150},
	})
	if err != nil {
		t.Fatal(err)
	}

	runs, err := c.LatestFitRuns()
	if err != nil {
		t.Fatalf("LatestFitRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].Store != "2" || runs[1].Store != "10" {
		t.Errorf("order = %s,%s; want 2,10", runs[0].Store, runs[1].Store)
	}
	if runs[1].ResidualSigma != 1.5 {
		t.Errorf("sigma = %g, want 1.5", runs[1].ResidualSigma)
	}
	if runs[1].InSampleMAE != 0.75 {
		t.Errorf("in-sample MAE = %g, want 0.75", runs[1].InSampleMAE)
	}
}

func TestLatestFitRuns_Empty(t *testing.T) {
	c := openTestCache(t)
	runs, err := c.LatestFitRuns()
	if err != nil || runs != nil {
		t.Errorf("got %v, %v; want nil, nil", runs, err)
	}
}
