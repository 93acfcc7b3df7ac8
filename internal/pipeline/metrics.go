package pipeline

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/theirongolddev/salescast/internal/model"
)

// ComputeMetrics returns MAE, RMSE and MAPE over rows that have an actual.
// All metrics are zero when no row has one. MAPE skips zero actuals.
func ComputeMetrics(rows []model.MergedRow) model.ErrorMetrics {
	var absErr, sqErr, pctErr stats.Float64Data
	for _, r := range rows {
		if r.Actual == nil {
			continue
		}
		e := *r.Actual - r.Yhat
		absErr = append(absErr, math.Abs(e))
		sqErr = append(sqErr, e*e)
		if *r.Actual != 0 {
			pctErr = append(pctErr, math.Abs(e / *r.Actual)*100)
		}
	}

	m := model.ErrorMetrics{Matched: len(absErr)}
	if m.Matched == 0 {
		return m
	}
	m.MAE = mean(absErr)
	m.RMSE = math.Sqrt(mean(sqErr))
	m.MAPE = mean(pctErr)
	return m
}

// mean is stats.Mean with an empty input mapped to zero.
func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	m, err := stats.Mean(v)
	if err != nil {
		return 0
	}
	return m
}
