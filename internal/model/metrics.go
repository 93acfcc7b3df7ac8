package model

import "time"

// PeriodStats holds actual and forecast totals for one calendar bucket.
type PeriodStats struct {
	Period   string // "2015-07" for months, "2015" for years
	Actual   float64
	Forecast float64
	Days     int
}

// ErrorMetrics holds forecast error over the rows that have an actual.
type ErrorMetrics struct {
	MAE     float64
	RMSE    float64
	MAPE    float64
	Matched int
}

// Trend is the direction of the forecast relative to recent actuals.
type Trend int

const (
	TrendDownward Trend = iota
	TrendUpward
)

func (t Trend) String() string {
	if t == TrendUpward {
		return "Upward"
	}
	return "Downward"
}

// Insight summarizes the trailing window of a store's merged series.
type Insight struct {
	Store       string
	WindowStart time.Time
	WindowEnd   time.Time
	AvgActual   float64
	AvgForecast float64
	Trend       Trend
}

// StoreSummary holds per-store headline numbers for tables and the selector.
type StoreSummary struct {
	Store        string
	Rows         int
	FirstDate    time.Time
	LastDate     time.Time
	ActualRows   int
	Metrics      ErrorMetrics
	NextTotal30  float64
	NextTotal365 float64
}

// Outlook holds projected totals for the days after the last actual.
type Outlook struct {
	From     time.Time
	Next30   float64
	Next90   float64
	Next365  float64
	DailyAvg float64
}
