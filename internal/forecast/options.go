// Package forecast fits an additive trend + seasonality model to a daily series
// and projects it forward with uncertainty bounds.
//
// The model is
//
//	y(t) = trend(t) + weekly(t) + yearly(t) + e
//
// where trend is piecewise linear with hinge terms at evenly spaced
// changepoints, and each seasonality is a truncated Fourier series. All
// coefficients come from a single ridge-regularized least squares solve; the
// per-group penalties play the role of priors.
package forecast

import "errors"

var (
	ErrNotFitted      = errors.New("model is not fitted")
	ErrTooFewPoints   = errors.New("not enough observations to fit")
	ErrLengthMismatch = errors.New("dates and values differ in length")
)

const (
	weeklyPeriod = 7.0
	yearlyPeriod = 365.25
)

// Options configures a Model.
type Options struct {
	Weekly      bool
	Yearly      bool
	WeeklyOrder int
	YearlyOrder int

	Changepoints     int
	ChangepointRange float64 // share of history eligible for changepoints
	ChangepointPrior float64 // smaller values give a stiffer trend
	SeasonalityPrior float64 // smaller values damp the seasonal terms

	IntervalWidth float64
}

// DefaultOptions mirrors the usual daily-retail configuration.
func DefaultOptions() Options {
	return Options{
		Weekly:           true,
		Yearly:           true,
		WeeklyOrder:      3,
		YearlyOrder:      10,
		Changepoints:     25,
		ChangepointRange: 0.8,
		ChangepointPrior: 0.05,
		SeasonalityPrior: 10,
		IntervalWidth:    0.8,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.WeeklyOrder <= 0 {
		o.WeeklyOrder = d.WeeklyOrder
	}
	if o.YearlyOrder <= 0 {
		o.YearlyOrder = d.YearlyOrder
	}
	if o.Changepoints < 0 {
		o.Changepoints = 0
	}
	if o.ChangepointRange <= 0 || o.ChangepointRange > 1 {
		o.ChangepointRange = d.ChangepointRange
	}
	if o.ChangepointPrior <= 0 {
		o.ChangepointPrior = d.ChangepointPrior
	}
	if o.SeasonalityPrior <= 0 {
		o.SeasonalityPrior = d.SeasonalityPrior
	}
	if o.IntervalWidth <= 0 || o.IntervalWidth >= 1 {
		o.IntervalWidth = d.IntervalWidth
	}
	return o
}
