package pipeline

import (
	"math"
	"testing"

	"github.com/theirongolddev/salescast/internal/model"
)

func fc(store, ds string, yhat float64) model.ForecastPoint {
	return model.ForecastPoint{Store: store, DS: day(ds), Yhat: yhat, YhatLower: yhat - 1, YhatUpper: yhat + 1}
}

func TestMerge_RowCountMatchesForecast(t *testing.T) {
	forecasts := []model.ForecastPoint{
		fc("1", "2015-07-01", 10), fc("1", "2015-07-02", 11), fc("1", "2015-07-03", 12),
		fc("2", "2015-07-01", 20), fc("2", "2015-07-02", 21),
	}
	actuals := []model.ActualPoint{
		{DS: day("2015-07-01"), Store: "1", Y: 9},
		{DS: day("2015-07-01"), Store: "1", Y: 1}, // duplicate key, summed
		{DS: day("2015-07-02"), Store: "2", Y: 22},
		{DS: day("2015-06-30"), Store: "1", Y: 100}, // no forecast row
	}

	res := Merge(forecasts, actuals, true)
	if len(res.Rows) != len(forecasts) {
		t.Fatalf("rows = %d, want %d", len(res.Rows), len(forecasts))
	}
	if res.Matched != 2 || res.DuplicateKeys != 1 {
		t.Errorf("Matched=%d DuplicateKeys=%d, want 2/1", res.Matched, res.DuplicateKeys)
	}
	if res.AggregateActuals {
		t.Error("per-store actuals flagged as aggregate")
	}
	if a := res.Rows[0].Actual; a == nil || *a != 10 {
		t.Errorf("row 0 actual = %v, want 10", a)
	}
	if res.Rows[1].Actual != nil {
		t.Errorf("row 1 actual = %v, want nil", *res.Rows[1].Actual)
	}
	if res.Rows[2].Month != "2015-07" || res.Rows[2].Year != 2015 {
		t.Errorf("derived fields = %q/%d", res.Rows[2].Month, res.Rows[2].Year)
	}
}

func TestMerge_AggregateActualsFlagged(t *testing.T) {
	forecasts := []model.ForecastPoint{fc("1", "2015-07-01", 10), fc("2", "2015-07-01", 20)}
	actuals := []model.ActualPoint{{DS: day("2015-07-01"), Y: 300}}

	res := Merge(forecasts, actuals, false)
	if !res.AggregateActuals {
		t.Error("AggregateActuals = false for date-only actuals")
	}
	if len(res.Rows) != 2 || *res.Rows[0].Actual != 300 || *res.Rows[1].Actual != 300 {
		t.Errorf("each store should see the chain total: %+v", res.Rows)
	}
}

func TestComputeMetrics(t *testing.T) {
	rows := []model.MergedRow{
		merged("1", "2015-07-01", 10, fptr(12)),
		merged("1", "2015-07-02", 10, fptr(6)),
		merged("1", "2015-07-03", 10, nil),
	}
	m := ComputeMetrics(rows)
	if m.Matched != 2 {
		t.Errorf("Matched = %d, want 2", m.Matched)
	}
	if m.MAE != 3 {
		t.Errorf("MAE = %g, want 3", m.MAE)
	}
	if want := math.Sqrt((4.0 + 16.0) / 2); math.Abs(m.RMSE-want) > 1e-9 {
		t.Errorf("RMSE = %g, want %g", m.RMSE, want)
	}

	if z := ComputeMetrics(rows[2:]); z.MAE != 0 || z.RMSE != 0 || z.Matched != 0 {
		t.Errorf("no actuals should give zero metrics, got %+v", z)
	}
}

func TestComputeInsights_TrailingWindow(t *testing.T) {
	rows := []model.MergedRow{
		merged("1", "2015-05-01", 1000, fptr(1)), // outside the window
		merged("1", "2015-06-15", 100, fptr(80)),
		merged("1", "2015-07-01", 120, fptr(100)),
		merged("1", "2015-07-10", 140, nil),
	}
	ins := ComputeInsights(rows)
	if ins.AvgActual != 90 {
		t.Errorf("AvgActual = %g, want 90", ins.AvgActual)
	}
	if ins.AvgForecast != 120 {
		t.Errorf("AvgForecast = %g, want 120", ins.AvgForecast)
	}
	if ins.Trend != model.TrendUpward || ins.Trend.String() != "Upward" {
		t.Errorf("Trend = %v, want Upward", ins.Trend)
	}
	if !ins.WindowEnd.Equal(day("2015-07-10")) || !ins.WindowStart.Equal(day("2015-06-10")) {
		t.Errorf("window = %v..%v", ins.WindowStart, ins.WindowEnd)
	}
}

func TestComputeInsights_NoActuals(t *testing.T) {
	rows := []model.MergedRow{merged("1", "2015-07-01", 5, nil)}
	ins := ComputeInsights(rows)
	if ins.AvgActual != 0 || ins.Trend != model.TrendUpward {
		t.Errorf("got %+v, want zero actual and Upward", ins)
	}
	if ComputeInsights(nil).Trend != model.TrendDownward {
		t.Error("empty input should default to Downward")
	}
}

func TestAggregatePeriods(t *testing.T) {
	rows := []model.MergedRow{
		merged("1", "2015-12-31", 10, fptr(8)),
		merged("1", "2015-01-15", 5, nil),
		merged("1", "2016-01-01", 7, fptr(7)),
		merged("1", "2015-12-01", 1, fptr(2)),
	}

	months := AggregateMonths(rows)
	if len(months) != 3 || months[0].Period != "2015-01" || months[2].Period != "2016-01" {
		t.Fatalf("months = %+v", months)
	}
	if months[1].Actual != 10 || months[1].Forecast != 11 || months[1].Days != 2 {
		t.Errorf("2015-12 = %+v, want actual 10 forecast 11 days 2", months[1])
	}
	if months[0].Actual != 0 {
		t.Errorf("missing actual should count as 0, got %g", months[0].Actual)
	}

	years := AggregateYears(rows)
	if len(years) != 2 || years[0].Period != "2015" || years[0].Forecast != 16 || years[1].Actual != 7 {
		t.Errorf("years = %+v", years)
	}
}

func TestFilterRange_Inclusive(t *testing.T) {
	rows := []model.MergedRow{
		merged("1", "2015-07-01", 1, nil),
		merged("1", "2015-07-02", 1, nil),
		merged("1", "2015-07-03", 1, nil),
	}
	got := FilterRange(rows, day("2015-07-02"), day("2015-07-03"))
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	if all := FilterRange(rows, day("2015-07-01").AddDate(0, 0, 0), day("2015-07-01").AddDate(0, 0, -1)); len(all) != 0 {
		t.Errorf("inverted range returned %d rows", len(all))
	}
	if open := FilterRange(rows, day("2015-07-02"), day("0001-01-01")); len(open) != 2 {
		t.Errorf("open end returned %d rows, want 2", len(open))
	}
}

func TestStoresAndSummaries(t *testing.T) {
	rows := []model.MergedRow{
		merged("10", "2015-07-01", 1, fptr(1)),
		merged("2", "2015-07-01", 1, nil),
		merged("2", "2015-07-02", 3, nil),
	}
	if got := Stores(rows); len(got) != 2 || got[0] != "2" || got[1] != "10" {
		t.Errorf("Stores = %v, want [2 10]", got)
	}

	sums := Summarize(rows)
	if len(sums) != 2 || sums[0].Store != "2" || sums[0].Rows != 2 || sums[1].ActualRows != 1 {
		t.Errorf("Summarize = %+v", sums)
	}
	if sums[0].NextTotal30 != 4 {
		t.Errorf("store 2 next-30 total = %g, want 4", sums[0].NextTotal30)
	}
}

func TestComputeOutlook_AfterLastActual(t *testing.T) {
	rows := []model.MergedRow{
		merged("1", "2015-07-01", 100, fptr(90)),
		merged("1", "2015-07-02", 10, nil),
		merged("1", "2015-07-31", 20, nil),
		merged("1", "2015-08-01", 40, nil),
	}
	ol := ComputeOutlook(rows)
	if !ol.From.Equal(day("2015-07-02")) {
		t.Errorf("From = %v, want 2015-07-02", ol.From)
	}
	if ol.Next30 != 30 || ol.Next90 != 70 {
		t.Errorf("Next30=%g Next90=%g, want 30/70", ol.Next30, ol.Next90)
	}
}
