package dashboard

import (
	"fmt"
	"time"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/pipeline"
)

// Mode is the light/dark theme selection.
type Mode string

const (
	ModeLight Mode = "light"
	ModeDark  Mode = "dark"
)

// Inputs is the user's current selection.
type Inputs struct {
	Store string
	Start time.Time // inclusive; zero means the first date
	End   time.Time // inclusive; zero means the last date
	Theme Mode
}

// DefaultInputs selects preferred when it exists, else the first store, over
// the full date range.
func DefaultInputs(d *Data, preferred string, mode Mode) Inputs {
	in := Inputs{Store: preferred, Theme: mode}
	if !d.HasStore(in.Store) && len(d.stores) > 0 {
		in.Store = d.stores[0]
	}
	in.Start, in.End = d.Bounds()
	if in.Theme == "" {
		in.Theme = ModeLight
	}
	return in
}

// Validate rejects a selection no render function can satisfy.
func (in Inputs) Validate(d *Data) error {
	if !d.HasStore(in.Store) {
		return fmt.Errorf("unknown store %q", in.Store)
	}
	if !in.Start.IsZero() && !in.End.IsZero() && in.End.Before(in.Start) {
		return fmt.Errorf("end date %s is before start date %s",
			in.End.Format(model.DateLayout), in.Start.Format(model.DateLayout))
	}
	return nil
}

// RangeLabel formats the selected range for status lines and file names.
func (in Inputs) RangeLabel() string {
	return fmt.Sprintf("%s..%s", dateOrOpen(in.Start), dateOrOpen(in.End))
}

func dateOrOpen(t time.Time) string {
	if t.IsZero() {
		return "*"
	}
	return t.Format(model.DateLayout)
}

// InsightsView feeds the insight cards.
type InsightsView struct {
	Store   string
	Insight model.Insight
	Outlook model.Outlook
	Rows    int
	// AggregateActuals marks the actual average as a chain-wide figure.
	AggregateActuals bool
}

// ForecastView feeds the forecast line chart and the metrics line beneath it.
type ForecastView struct {
	Store       string
	Rows        []model.MergedRow
	Metrics     model.ErrorMetrics
	MetricsLine string
	Start       time.Time
	End         time.Time
	Theme       Mode
}

// ComparisonsView feeds the monthly and yearly grouped bar charts.
type ComparisonsView struct {
	Store   string
	Monthly []model.PeriodStats
	Yearly  []model.PeriodStats
	Theme   Mode
}

// selection returns the selected store's rows inside the selected range.
func selection(d *Data, in Inputs) []model.MergedRow {
	return pipeline.FilterRange(d.StoreRows(in.Store), in.Start, in.End)
}

// RenderInsights summarizes the trailing window of the selected store. It
// depends on the store only; the date range does not narrow it.
func RenderInsights(d *Data, in Inputs) InsightsView {
	rows := d.StoreRows(in.Store)
	return InsightsView{
		Store:            in.Store,
		Insight:          pipeline.ComputeInsights(rows),
		Outlook:          pipeline.ComputeOutlook(rows),
		Rows:             len(rows),
		AggregateActuals: d.aggregate,
	}
}

// RenderForecast selects the rows plotted in the forecast chart and computes
// error metrics over those that have an actual.
func RenderForecast(d *Data, in Inputs) ForecastView {
	rows := selection(d, in)
	met := pipeline.ComputeMetrics(rows)
	return ForecastView{
		Store:       in.Store,
		Rows:        rows,
		Metrics:     met,
		MetricsLine: cli.FormatMetrics(met),
		Start:       in.Start,
		End:         in.End,
		Theme:       in.Theme,
	}
}

// RenderComparisons totals actuals and forecasts per month and per year for
// the selection. Missing actuals count as zero.
func RenderComparisons(d *Data, in Inputs) ComparisonsView {
	rows := selection(d, in)
	return ComparisonsView{
		Store:   in.Store,
		Monthly: pipeline.AggregateMonths(rows),
		Yearly:  pipeline.AggregateYears(rows),
		Theme:   in.Theme,
	}
}
