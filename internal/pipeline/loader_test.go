package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/salescast/internal/source"
	"github.com/theirongolddev/salescast/internal/store"
)

func writeForecastFixtures(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, dir, source.ForecastFileName("2"),
		"ds,yhat,yhat_lower,yhat_upper,Store",
		"2015-07-01,20,18,22,2",
		"2015-07-02,21,19,23,2",
	)
	writeFile(t, dir, source.ForecastFileName("1"),
		"ds,yhat,yhat_lower,yhat_upper,Store",
		"2015-07-01,10,8,12,1",
	)
	writeFile(t, dir, source.ForecastFileName("broken"), "ds,yhat", "2015-07-01,1")
}

func TestLoadForecasts(t *testing.T) {
	dir := t.TempDir()
	writeForecastFixtures(t, dir)

	var calls int
	res, err := LoadForecasts(dir, func(current, total int) {
		calls++
		if total != 3 {
			t.Errorf("progress total = %d, want 3", total)
		}
	})
	if err != nil {
		t.Fatalf("LoadForecasts: %v", err)
	}
	if res.TotalFiles != 3 || res.ParsedFiles != 2 || res.FileErrors != 1 {
		t.Errorf("files total=%d parsed=%d errors=%d, want 3/2/1", res.TotalFiles, res.ParsedFiles, res.FileErrors)
	}
	if len(res.Forecasts) != 3 {
		t.Fatalf("rows = %d, want 3", len(res.Forecasts))
	}
	if res.Forecasts[0].Store != "1" || res.Forecasts[1].Store != "2" {
		t.Errorf("rows not in store order: %+v", res.Forecasts)
	}
	if calls != 3 {
		t.Errorf("progress called %d times, want 3", calls)
	}
}

func TestLoadForecastsWithCache(t *testing.T) {
	dir := t.TempDir()
	writeForecastFixtures(t, dir)
	cache, err := store.Open(filepath.Join(t.TempDir(), "c.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = cache.Close() }()

	first, err := LoadForecastsWithCache(dir, cache, nil)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if first.CacheHits != 0 || first.Reparsed != 3 {
		t.Errorf("first load hits=%d reparsed=%d, want 0/3", first.CacheHits, first.Reparsed)
	}

	second, err := LoadForecastsWithCache(dir, cache, nil)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	// the broken file is never cached, so it is reparsed every time
	if second.CacheHits != 2 || second.Reparsed != 1 {
		t.Errorf("second load hits=%d reparsed=%d, want 2/1", second.CacheHits, second.Reparsed)
	}
	if len(second.Forecasts) != len(first.Forecasts) {
		t.Fatalf("cached rows = %d, want %d", len(second.Forecasts), len(first.Forecasts))
	}
	for i := range first.Forecasts {
		a, b := first.Forecasts[i], second.Forecasts[i]
		if a.Store != b.Store || !a.DS.Equal(b.DS) || a.Yhat != b.Yhat || a.YhatLower != b.YhatLower || a.YhatUpper != b.YhatUpper {
			t.Errorf("row %d differs: %+v vs %+v", i, first.Forecasts[i], second.Forecasts[i])
		}
	}

	// Rewrite store 1 and remove store 2.
	p1 := filepath.Join(dir, source.ForecastFileName("1"))
	writeFile(t, dir, source.ForecastFileName("1"),
		"ds,yhat,yhat_lower,yhat_upper,Store",
		"2015-07-01,10,8,12,1",
		"2015-07-02,11,9,13,1",
	)
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(p1, future, future); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, source.ForecastFileName("2"))); err != nil {
		t.Fatal(err)
	}

	third, err := LoadForecastsWithCache(dir, cache, nil)
	if err != nil {
		t.Fatalf("third load: %v", err)
	}
	if third.Pruned != 1 {
		t.Errorf("Pruned = %d, want 1", third.Pruned)
	}
	if len(third.Forecasts) != 2 || third.Forecasts[1].Yhat != 11 {
		t.Errorf("rows after rewrite = %+v", third.Forecasts)
	}
	if n, _ := cache.ForecastFileCount(); n != 1 {
		t.Errorf("cached files = %d, want 1", n)
	}
}
