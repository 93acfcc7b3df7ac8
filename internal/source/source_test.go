package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/salescast/internal/model"
)

func writeCSV(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadTrain_MissingStoreColumn(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "train.csv",
		"Date,Sales,Open",
		"2015-07-31,100,1",
	)

	_, err := ReadTrain(path, ColStore)
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("err = %v, want ErrMissingColumn", err)
	}
	if !strings.Contains(err.Error(), `"Store"`) {
		t.Errorf("error should name the column: %v", err)
	}
}

func TestReadTrain_OpenOptional(t *testing.T) {
	dir := t.TempDir()
	withOpen := writeCSV(t, dir, "a.csv",
		"Store,DayOfWeek,Date,Sales,Open",
		"1,5,2015-07-31,5263,1",
		"1,4,2015-07-30,0,0",
	)
	noOpen := writeCSV(t, dir, "b.csv",
		"Store,Date,Sales",
		"1,2015-07-31,5263",
	)

	data, err := ReadTrain(withOpen)
	if err != nil {
		t.Fatalf("ReadTrain: %v", err)
	}
	if !data.HasOpen || len(data.Transactions) != 2 {
		t.Fatalf("HasOpen=%v rows=%d, want true/2", data.HasOpen, len(data.Transactions))
	}
	if o := data.Transactions[1].Open; o == nil || *o != 0 {
		t.Errorf("second row Open = %v, want 0", o)
	}

	data, err = ReadTrain(noOpen)
	if err != nil {
		t.Fatalf("ReadTrain: %v", err)
	}
	if data.HasOpen {
		t.Error("HasOpen = true for file without Open")
	}
	if data.Transactions[0].Open != nil {
		t.Error("Open should be nil when the column is absent")
	}
}

func TestReadStores_Attributes(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "store.csv",
		"Store,StoreType,Assortment",
		"1,c,a",
		"2,a,a",
	)
	stores, err := ReadStores(path)
	if err != nil {
		t.Fatalf("ReadStores: %v", err)
	}
	if len(stores) != 2 {
		t.Fatalf("len = %d, want 2", len(stores))
	}
	if stores[0].Attrs["StoreType"] != "c" {
		t.Errorf("StoreType = %q, want c", stores[0].Attrs["StoreType"])
	}
	if _, ok := stores[0].Attrs["Store"]; ok {
		t.Error("Store should not be copied into Attrs")
	}
}

func TestDailySales_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "daily_sales.csv")
	day := time.Date(2015, 7, 1, 0, 0, 0, 0, time.UTC)
	in := []model.SeriesPoint{
		{Store: "1", DS: day, Y: 100},
		{Store: "1", DS: day.AddDate(0, 0, 1), Y: 120.5},
	}
	if err := WriteDailySales(path, in); err != nil {
		t.Fatalf("WriteDailySales: %v", err)
	}

	got, dropped, err := ReadDailySales(path)
	if err != nil {
		t.Fatalf("ReadDailySales: %v", err)
	}
	if dropped != 0 || len(got) != 2 {
		t.Fatalf("dropped=%d len=%d, want 0/2", dropped, len(got))
	}
	if !got[1].DS.Equal(in[1].DS) || got[1].Y != 120.5 {
		t.Errorf("row 1 = %+v, want %+v", got[1], in[1])
	}
}

func TestReadDailySales_DropsMissingY(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "daily.csv",
		"Store,ds,y",
		"1,2015-07-01,10",
		"1,2015-07-02,",
		"1,2015-07-03,NaN",
	)
	got, dropped, err := ReadDailySales(path)
	if err != nil {
		t.Fatalf("ReadDailySales: %v", err)
	}
	if len(got) != 1 || dropped != 2 {
		t.Errorf("len=%d dropped=%d, want 1/2", len(got), dropped)
	}
}

func TestParseFile_StoreColumnAndErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, ForecastFileName("3"),
		"ds,yhat,yhat_lower,yhat_upper,Store",
		"2015-07-01,10,8,12,3",
		"not-a-date,10,8,12,3",
		"2015-07-02,oops,8,12,3",
		"2015-07-03 00:00:00,11,9,13,3",
	)

	res := ParseFile(DiscoveredFile{Path: path, Store: "3"})
	if res.Err != nil {
		t.Fatalf("ParseFile: %v", res.Err)
	}
	if len(res.Points) != 2 {
		t.Fatalf("points = %d, want 2", len(res.Points))
	}
	if res.ParseErrors != 2 {
		t.Errorf("ParseErrors = %d, want 2", res.ParseErrors)
	}
	if res.Points[1].DS.Day() != 3 {
		t.Errorf("timestamp-form date parsed as %v", res.Points[1].DS)
	}
}

func TestParseFile_FallsBackToFileNameStore(t *testing.T) {
	path := writeCSV(t, t.TempDir(), ForecastFileName("9"),
		"ds,yhat,yhat_lower,yhat_upper",
		"2015-07-01,10,8,12",
	)
	res := ParseFile(DiscoveredFile{Path: path, Store: "9"})
	if res.Err != nil {
		t.Fatalf("ParseFile: %v", res.Err)
	}
	if res.Points[0].Store != "9" {
		t.Errorf("Store = %q, want 9", res.Points[0].Store)
	}
}

func TestParseFile_MissingColumn(t *testing.T) {
	path := writeCSV(t, t.TempDir(), ForecastFileName("1"),
		"ds,yhat",
		"2015-07-01,10",
	)
	res := ParseFile(DiscoveredFile{Path: path, Store: "1"})
	if !errors.Is(res.Err, ErrMissingColumn) {
		t.Fatalf("Err = %v, want ErrMissingColumn", res.Err)
	}
}

func TestScanForecasts_NaturalOrder(t *testing.T) {
	dir := t.TempDir()
	for _, s := range []string{"10", "2", "1"} {
		writeCSV(t, dir, ForecastFileName(s), "ds,yhat,yhat_lower,yhat_upper")
	}
	writeCSV(t, dir, "notes.csv", "x")
	writeCSV(t, dir, PlotFileName("1"), "x")

	files, err := ScanForecasts(dir)
	if err != nil {
		t.Fatalf("ScanForecasts: %v", err)
	}
	var got []string
	for _, f := range files {
		got = append(got, f.Store)
	}
	if strings.Join(got, ",") != "1,2,10" {
		t.Errorf("stores = %v, want [1 2 10]", got)
	}
}

func TestScanForecasts_MissingDir(t *testing.T) {
	files, err := ScanForecasts(filepath.Join(t.TempDir(), "missing"))
	if err != nil || files != nil {
		t.Errorf("got %v, %v; want nil, nil", files, err)
	}
}

func TestActuals_ByStoreHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actuals.csv")
	day := time.Date(2015, 7, 1, 0, 0, 0, 0, time.UTC)
	if err := WriteActuals(path, []model.ActualPoint{{DS: day, Store: "1", Y: 5}}, true); err != nil {
		t.Fatalf("WriteActuals: %v", err)
	}
	got, hasStore, err := ReadActuals(path)
	if err != nil {
		t.Fatalf("ReadActuals: %v", err)
	}
	if !hasStore || got[0].Store != "1" || got[0].Y != 5 {
		t.Errorf("got %+v hasStore=%v", got, hasStore)
	}
}
