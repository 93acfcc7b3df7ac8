package pipeline

import (
	"sort"
	"time"

	"github.com/theirongolddev/salescast/internal/logging"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/source"
)

// ActualsConfig names the files the actuals stage reads and writes.
type ActualsConfig struct {
	TrainPath  string
	OutputPath string
	ByStore    bool
}

// ActualsResult reports what the actuals stage did.
type ActualsResult struct {
	RowsRead int
	Rows     int
	ByStore  bool
}

// GenerateActuals sums transaction sales per day (or per day and store) and
// writes actuals.csv.
func GenerateActuals(cfg ActualsConfig) (*ActualsResult, error) {
	var required []string
	if cfg.ByStore {
		required = append(required, source.ColStore)
	}
	train, err := source.ReadTrain(cfg.TrainPath, required...)
	if err != nil {
		return nil, err
	}

	points := AggregateActuals(train.Transactions, cfg.ByStore)
	if err := source.WriteActuals(cfg.OutputPath, points, cfg.ByStore); err != nil {
		return nil, err
	}

	logging.Info().
		Int("read", len(train.Transactions)).
		Int("rows", len(points)).
		Bool("by_store", cfg.ByStore).
		Str("output", cfg.OutputPath).
		Msg("actuals written")
	return &ActualsResult{RowsRead: len(train.Transactions), Rows: len(points), ByStore: cfg.ByStore}, nil
}

type actualKey struct {
	ds    time.Time
	store string
}

// AggregateActuals groups transactions by date, or by date and store when
// byStore is set, and sums Sales. Output is ordered by date, then store.
// Without byStore the Store field of every output row is empty.
func AggregateActuals(txns []model.Transaction, byStore bool) []model.ActualPoint {
	sums := make(map[actualKey]float64)
	for _, t := range txns {
		k := actualKey{ds: t.Date}
		if byStore {
			k.store = t.Store
		}
		sums[k] += t.Sales
	}

	out := make([]model.ActualPoint, 0, len(sums))
	for k, y := range sums {
		out = append(out, model.ActualPoint{DS: k.ds, Store: k.store, Y: y})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DS.Equal(out[j].DS) {
			return out[i].DS.Before(out[j].DS)
		}
		return model.LessStore(out[i].Store, out[j].Store)
	})
	return out
}
