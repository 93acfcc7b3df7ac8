// Package pipeline runs the preprocess, forecast and actuals stages and
// builds the merged tables the dashboard reads.
package pipeline

import (
	"math"
	"sort"
	"time"

	"github.com/theirongolddev/salescast/internal/model"
)

// InsightWindowDays is the trailing window summarized by ComputeInsights.
const InsightWindowDays = 30

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FilterStore returns the rows for one store.
func FilterStore(rows []model.MergedRow, store string) []model.MergedRow {
	var out []model.MergedRow
	for _, r := range rows {
		if r.Store == store {
			out = append(out, r)
		}
	}
	return out
}

// FilterRange keeps rows with start <= ds <= end. A zero bound is open.
func FilterRange(rows []model.MergedRow, start, end time.Time) []model.MergedRow {
	var out []model.MergedRow
	for _, r := range rows {
		d := dayOf(r.DS)
		if !start.IsZero() && d.Before(dayOf(start)) {
			continue
		}
		if !end.IsZero() && d.After(dayOf(end)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Stores returns the distinct stores in rows, in natural order.
func Stores(rows []model.MergedRow) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		if _, ok := seen[r.Store]; ok {
			continue
		}
		seen[r.Store] = struct{}{}
		out = append(out, r.Store)
	}
	sort.Slice(out, func(i, j int) bool { return model.LessStore(out[i], out[j]) })
	return out
}

// DateBounds returns the earliest and latest ds in rows.
func DateBounds(rows []model.MergedRow) (first, last time.Time) {
	for i, r := range rows {
		if i == 0 || r.DS.Before(first) {
			first = r.DS
		}
		if i == 0 || r.DS.After(last) {
			last = r.DS
		}
	}
	return first, last
}

// AggregateMonths sums actuals and forecasts per calendar month, ordered by month.
// Missing actuals count as zero.
func AggregateMonths(rows []model.MergedRow) []model.PeriodStats {
	return aggregatePeriods(rows, func(r model.MergedRow) string { return r.Month })
}

// AggregateYears sums actuals and forecasts per calendar year, ordered by year.
func AggregateYears(rows []model.MergedRow) []model.PeriodStats {
	return aggregatePeriods(rows, func(r model.MergedRow) string { return r.DS.Format("2006") })
}

func aggregatePeriods(rows []model.MergedRow, key func(model.MergedRow) string) []model.PeriodStats {
	m := make(map[string]*model.PeriodStats)
	for _, r := range rows {
		k := key(r)
		ps, ok := m[k]
		if !ok {
			ps = &model.PeriodStats{Period: k}
			m[k] = ps
		}
		ps.Actual += r.ActualOrZero()
		ps.Forecast += r.Yhat
		ps.Days++
	}

	out := make([]model.PeriodStats, 0, len(m))
	for _, ps := range m {
		out = append(out, *ps)
	}
	// Period keys are zero-padded dates, so lexical order is chronological.
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// ComputeInsights summarizes the last InsightWindowDays days of one store's rows,
// anchored at the store's latest date.
func ComputeInsights(rows []model.MergedRow) model.Insight {
	var ins model.Insight
	if len(rows) == 0 {
		return ins
	}
	_, last := DateBounds(rows)
	cutoff := dayOf(last).AddDate(0, 0, -InsightWindowDays)

	var actuals, forecasts []float64
	for _, r := range rows {
		if dayOf(r.DS).Before(cutoff) {
			continue
		}
		forecasts = append(forecasts, r.Yhat)
		if r.Actual != nil {
			actuals = append(actuals, *r.Actual)
		}
	}

	ins.Store = rows[0].Store
	ins.WindowStart = cutoff
	ins.WindowEnd = dayOf(last)
	ins.AvgActual = mean(actuals)
	ins.AvgForecast = mean(forecasts)
	if ins.AvgForecast > ins.AvgActual {
		ins.Trend = model.TrendUpward
	} else {
		ins.Trend = model.TrendDownward
	}
	return ins
}

// ComputeOutlook totals the forecast over the days following the last actual.
// With no actuals at all the outlook starts at the first row.
func ComputeOutlook(rows []model.MergedRow) model.Outlook {
	if len(rows) == 0 {
		return model.Outlook{}
	}

	var anchor time.Time
	for _, r := range rows {
		if r.Actual != nil && r.DS.After(anchor) {
			anchor = r.DS
		}
	}
	if anchor.IsZero() {
		first, _ := DateBounds(rows)
		anchor = first.AddDate(0, 0, -1)
	}
	anchor = dayOf(anchor)

	out := model.Outlook{From: anchor.AddDate(0, 0, 1)}
	var days int
	for _, r := range rows {
		ahead := int(math.Round(dayOf(r.DS).Sub(anchor).Hours() / 24))
		if ahead <= 0 {
			continue
		}
		if ahead <= 30 {
			out.Next30 += r.Yhat
		}
		if ahead <= 90 {
			out.Next90 += r.Yhat
		}
		if ahead <= 365 {
			out.Next365 += r.Yhat
			days++
		}
	}
	if days > 0 {
		out.DailyAvg = out.Next365 / float64(days)
	}
	return out
}

// Summarize builds per-store headline numbers, in natural store order.
func Summarize(rows []model.MergedRow) []model.StoreSummary {
	byStore := make(map[string][]model.MergedRow)
	for _, r := range rows {
		byStore[r.Store] = append(byStore[r.Store], r)
	}

	out := make([]model.StoreSummary, 0, len(byStore))
	for _, s := range Stores(rows) {
		sr := byStore[s]
		first, last := DateBounds(sr)
		met := ComputeMetrics(sr)
		ol := ComputeOutlook(sr)
		out = append(out, model.StoreSummary{
			Store:        s,
			Rows:         len(sr),
			FirstDate:    first,
			LastDate:     last,
			ActualRows:   met.Matched,
			Metrics:      met,
			NextTotal30:  ol.Next30,
			NextTotal365: ol.Next365,
		})
	}
	return out
}
