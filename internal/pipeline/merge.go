package pipeline

import (
	"github.com/theirongolddev/salescast/internal/model"
)

// MergeResult is the forecast table with actuals joined on.
type MergeResult struct {
	Rows []model.MergedRow
	// AggregateActuals is set when the actuals carry no Store key, so every
	// store's rows received the same chain-wide total.
	AggregateActuals bool
	Matched          int
	// DuplicateKeys counts actual rows folded into an existing key.
	DuplicateKeys int
}

// Merge left-joins actuals onto forecasts on (ds, Store), or on ds alone when
// byStore is false. Actuals sharing a key are summed first, so the output has
// exactly one row per forecast row, in forecast order.
func Merge(forecasts []model.ForecastPoint, actuals []model.ActualPoint, byStore bool) MergeResult {
	res := MergeResult{
		Rows:             make([]model.MergedRow, len(forecasts)),
		AggregateActuals: !byStore && len(actuals) > 0,
	}

	index := make(map[actualKey]float64, len(actuals))
	for _, a := range actuals {
		k := actualKey{ds: dayOf(a.DS)}
		if byStore {
			k.store = a.Store
		}
		if _, dup := index[k]; dup {
			res.DuplicateKeys++
		}
		index[k] += a.Y
	}

	for i, f := range forecasts {
		k := actualKey{ds: dayOf(f.DS)}
		if byStore {
			k.store = f.Store
		}
		row := model.MergedRow{
			ForecastPoint: f,
			Month:         f.DS.Format("2006-01"),
			Year:          f.DS.Year(),
		}
		if y, ok := index[k]; ok {
			v := y
			row.Actual = &v
			res.Matched++
		}
		res.Rows[i] = row
	}
	return res
}
