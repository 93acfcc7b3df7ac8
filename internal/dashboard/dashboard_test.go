package dashboard

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/source"
)

func day(s string) time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// series builds n daily forecast rows for store starting at from.
func series(store, from string, n int, yhat float64) []model.ForecastPoint {
	start := day(from)
	out := make([]model.ForecastPoint, n)
	for i := range out {
		v := yhat + float64(i%7)*10
		out[i] = model.ForecastPoint{
			Store:     store,
			DS:        start.AddDate(0, 0, i),
			Yhat:      v,
			YhatLower: v - 50,
			YhatUpper: v + 50,
		}
	}
	return out
}

func actualsFor(store, from string, n int, y float64) []model.ActualPoint {
	start := day(from)
	out := make([]model.ActualPoint, n)
	for i := range out {
		out[i] = model.ActualPoint{Store: store, DS: start.AddDate(0, 0, i), Y: y}
	}
	return out
}

func testData(t *testing.T) *Data {
	t.Helper()
	var fc []model.ForecastPoint
	fc = append(fc, series("10", "2015-01-01", 90, 5000)...)
	fc = append(fc, series("2", "2015-01-01", 90, 3000)...)

	var act []model.ActualPoint
	act = append(act, actualsFor("10", "2015-01-01", 59, 5100)...)
	act = append(act, actualsFor("2", "2015-01-01", 59, 2900)...)
	return New(fc, act, true)
}

func TestNew_IndexesStores(t *testing.T) {
	d := testData(t)

	if got := d.Stores(); len(got) != 2 || got[0] != "2" || got[1] != "10" {
		t.Errorf("Stores() = %v, want [2 10]", got)
	}
	if len(d.Rows()) != 180 {
		t.Errorf("Rows() = %d, want 180", len(d.Rows()))
	}
	if d.AggregateActuals() {
		t.Error("per-store actuals flagged as aggregate")
	}
	if d.Stats.MatchedRows != 118 {
		t.Errorf("MatchedRows = %d, want 118", d.Stats.MatchedRows)
	}
	first, last := d.Bounds()
	if !first.Equal(day("2015-01-01")) || !last.Equal(day("2015-03-31")) {
		t.Errorf("Bounds() = %s..%s", first, last)
	}
}

func TestNew_AggregateActualsFlag(t *testing.T) {
	fc := series("1", "2015-01-01", 10, 100)
	act := []model.ActualPoint{{DS: day("2015-01-01"), Y: 900}}

	d := New(fc, act, false)
	if !d.AggregateActuals() {
		t.Fatal("ds-only actuals should set AggregateActuals")
	}
	if len(d.Rows()) != len(fc) {
		t.Errorf("merged rows = %d, want %d", len(d.Rows()), len(fc))
	}
}

func TestDefaultInputs(t *testing.T) {
	d := testData(t)

	in := DefaultInputs(d, "10", ModeDark)
	if in.Store != "10" || in.Theme != ModeDark {
		t.Errorf("preferred store/theme not kept: %+v", in)
	}

	in = DefaultInputs(d, "999", "")
	if in.Store != "2" {
		t.Errorf("unknown preferred store should fall back to first, got %q", in.Store)
	}
	if in.Theme != ModeLight {
		t.Errorf("Theme = %q, want light", in.Theme)
	}
	if !in.Start.Equal(day("2015-01-01")) || !in.End.Equal(day("2015-03-31")) {
		t.Errorf("range = %s", in.RangeLabel())
	}
}

func TestInputsValidate(t *testing.T) {
	d := testData(t)

	if err := (Inputs{Store: "nope"}).Validate(d); err == nil {
		t.Error("unknown store accepted")
	}
	bad := Inputs{Store: "2", Start: day("2015-02-01"), End: day("2015-01-01")}
	if err := bad.Validate(d); err == nil {
		t.Error("reversed range accepted")
	}
	if err := (Inputs{Store: "2"}).Validate(d); err != nil {
		t.Errorf("open range rejected: %v", err)
	}
}

func TestRenderForecast_RangeIsInclusive(t *testing.T) {
	d := testData(t)
	in := Inputs{Store: "10", Start: day("2015-01-10"), End: day("2015-01-19")}

	v := RenderForecast(d, in)
	if len(v.Rows) != 10 {
		t.Fatalf("rows = %d, want 10", len(v.Rows))
	}
	if !v.Rows[0].DS.Equal(in.Start) || !v.Rows[9].DS.Equal(in.End) {
		t.Errorf("range ends not included: %s..%s", v.Rows[0].DS, v.Rows[9].DS)
	}
	for _, r := range v.Rows {
		if r.Store != "10" {
			t.Fatalf("row for store %s leaked into selection", r.Store)
		}
	}
	if v.Metrics.Matched != 10 {
		t.Errorf("Matched = %d, want 10", v.Metrics.Matched)
	}
	if !strings.HasPrefix(v.MetricsLine, "MAE: ") || !strings.Contains(v.MetricsLine, "| RMSE: ") {
		t.Errorf("MetricsLine = %q", v.MetricsLine)
	}
}

func TestRenderForecast_NoActualsGivesZeroMetrics(t *testing.T) {
	d := testData(t)
	v := RenderForecast(d, Inputs{Store: "2", Start: day("2015-03-10"), End: day("2015-03-31")})

	if v.Metrics.Matched != 0 || v.Metrics.MAE != 0 || v.Metrics.RMSE != 0 {
		t.Errorf("metrics over future-only rows = %+v, want zero", v.Metrics)
	}
	if v.MetricsLine != "MAE: 0.00 | RMSE: 0.00" {
		t.Errorf("MetricsLine = %q", v.MetricsLine)
	}
}

func TestRenderInsights_IgnoresRange(t *testing.T) {
	d := testData(t)

	full := RenderInsights(d, Inputs{Store: "10"})
	narrow := RenderInsights(d, Inputs{Store: "10", Start: day("2015-01-01"), End: day("2015-01-05")})
	if full.Insight != narrow.Insight {
		t.Errorf("insights changed with the date range: %+v vs %+v", full.Insight, narrow.Insight)
	}
	if full.Rows != 90 {
		t.Errorf("Rows = %d, want 90", full.Rows)
	}
	// last 30 days are all forecast-only, so the actual average is zero
	if full.Insight.AvgActual != 0 || full.Insight.Trend != model.TrendUpward {
		t.Errorf("insight = %+v", full.Insight)
	}
}

func TestRenderComparisons(t *testing.T) {
	d := testData(t)
	v := RenderComparisons(d, Inputs{Store: "2", Start: day("2015-01-01"), End: day("2015-02-28")})

	if len(v.Monthly) != 2 || v.Monthly[0].Period != "2015-01" || v.Monthly[1].Period != "2015-02" {
		t.Fatalf("Monthly = %+v", v.Monthly)
	}
	if v.Monthly[0].Actual != 31*2900 {
		t.Errorf("January actual = %g, want %d", v.Monthly[0].Actual, 31*2900)
	}
	if len(v.Yearly) != 1 || v.Yearly[0].Period != "2015" || v.Yearly[0].Days != 59 {
		t.Errorf("Yearly = %+v", v.Yearly)
	}
}

func TestBindings_CoverEveryInput(t *testing.T) {
	for _, in := range []Input{InputStore, InputStart, InputEnd, InputTheme, InputDownload} {
		if len(Bindings[in]) == 0 {
			t.Errorf("input %s drives no outputs", in)
		}
	}
	if outs := Affected(InputStart); outs[OutputInsights] {
		t.Error("date range must not refresh the insight cards")
	}
	if outs := Affected(InputStore); !outs[OutputInsights] || !outs[OutputYearly] {
		t.Error("store must refresh insights and charts")
	}
}

func TestRefresh_OnlyTouchesBoundOutputs(t *testing.T) {
	d := testData(t)
	in := DefaultInputs(d, "2", ModeLight)
	v := Refresh(d, in, View{})
	if v.Insights.Store != "2" || len(v.Forecast.Rows) != 90 || len(v.Comparisons.Monthly) != 3 {
		t.Fatalf("initial refresh incomplete: %+v", v.Insights)
	}

	// a range change leaves the insights computed for the old store alone
	sentinel := v
	sentinel.Insights.Store = "sentinel"
	next := in
	next.Start = day("2015-02-01")
	v = Refresh(d, next, sentinel, Diff(in, next)...)
	if v.Insights.Store != "sentinel" {
		t.Error("range change recomputed the insights")
	}
	if len(v.Forecast.Rows) != 59 {
		t.Errorf("forecast rows after range change = %d, want 59", len(v.Forecast.Rows))
	}
}

func TestDiff(t *testing.T) {
	a := Inputs{Store: "1", Start: day("2015-01-01"), End: day("2015-02-01"), Theme: ModeLight}
	if got := Diff(a, a); len(got) != 0 {
		t.Errorf("Diff(a, a) = %v", got)
	}
	b := a
	b.Theme = ModeDark
	b.End = day("2015-03-01")
	got := Diff(a, b)
	if len(got) != 2 || got[0] != InputEnd || got[1] != InputTheme {
		t.Errorf("Diff = %v, want [end theme]", got)
	}
}

func TestExport_WritesSelection(t *testing.T) {
	d := testData(t)
	dir := t.TempDir()
	in := Inputs{Store: "10", Start: day("2015-02-01"), End: day("2015-02-28"), Theme: ModeDark}

	res, err := Export(d, in, dir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Rows != 28 {
		t.Errorf("Rows = %d, want 28", res.Rows)
	}
	if filepath.Base(res.CSVPath) != "selection_store_10_20150201_20150228.csv" {
		t.Errorf("CSVPath = %s", res.CSVPath)
	}

	tbl, err := source.ReadTable(res.CSVPath)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if len(tbl.Rows) != 28 {
		t.Errorf("exported %d rows, want 28", len(tbl.Rows))
	}
	if err := tbl.Require(source.ColDS, source.ColStore, source.ColY, source.ColYhat); err != nil {
		t.Errorf("export header: %v", err)
	}

	files, err := source.ScanForecasts(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Errorf("export picked up as forecast files: %v", files)
	}

	if res.PNGPath == "" {
		t.Fatal("no plot written")
	}
	if fi, err := os.Stat(res.PNGPath); err != nil || fi.Size() == 0 {
		t.Errorf("plot missing or empty: %v", err)
	}
}

func TestExport_EmptySelection(t *testing.T) {
	d := testData(t)
	in := Inputs{Store: "10", Start: day("2016-01-01"), End: day("2016-02-01")}

	_, err := Export(d, in, t.TempDir())
	if !errors.Is(err, ErrEmptySelection) {
		t.Errorf("err = %v, want ErrEmptySelection", err)
	}
}

func TestLoad_FromFiles(t *testing.T) {
	dir := t.TempDir()
	exportDir := filepath.Join(dir, "export")
	actualsPath := filepath.Join(dir, "actuals.csv")

	for _, s := range []string{"1", "3"} {
		path := filepath.Join(exportDir, source.ForecastFileName(s))
		if err := source.WriteForecast(path, series(s, "2015-01-01", 20, 1000)); err != nil {
			t.Fatal(err)
		}
	}

	d, err := Load(LoadOptions{ExportDir: exportDir, ActualsPath: actualsPath})
	if err != nil {
		t.Fatalf("Load without actuals: %v", err)
	}
	if !d.Stats.ActualsMissing || d.Stats.Files != 2 || len(d.Rows()) != 40 {
		t.Errorf("stats = %+v rows = %d", d.Stats, len(d.Rows()))
	}

	if err := source.WriteActuals(actualsPath, actualsFor("", "2015-01-01", 5, 7000), false); err != nil {
		t.Fatal(err)
	}
	d, err = Load(LoadOptions{ExportDir: exportDir, ActualsPath: actualsPath})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !d.AggregateActuals() {
		t.Error("ds-only actuals file should load as aggregate")
	}
	if d.Stats.MatchedRows != 10 {
		t.Errorf("MatchedRows = %d, want 10 (5 days x 2 stores)", d.Stats.MatchedRows)
	}
}

func TestLoad_EmptyExportDir(t *testing.T) {
	_, err := Load(LoadOptions{ExportDir: t.TempDir(), ActualsPath: "missing.csv"})
	if !errors.Is(err, ErrNoForecasts) {
		t.Errorf("err = %v, want ErrNoForecasts", err)
	}
}
