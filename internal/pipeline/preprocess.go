package pipeline

import (
	"github.com/theirongolddev/salescast/internal/logging"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/source"
)

// PreprocessConfig names the files the preprocess stage reads and writes.
type PreprocessConfig struct {
	TrainPath  string
	StoresPath string
	OutputPath string
}

// PreprocessResult reports what the preprocess stage did.
type PreprocessResult struct {
	RowsRead      int
	SkippedRows   int // unparseable Sales
	DroppedClosed int
	UnknownStores int // transaction rows with no store metadata
	RowsWritten   int
	OpenFiltered  bool
	Columns       []string
}

// Preprocess joins transactions with store metadata, keeps open-store days,
// and writes the Store,ds,y series the forecast stage consumes.
func Preprocess(cfg PreprocessConfig) (*PreprocessResult, error) {
	train, err := source.ReadTrain(cfg.TrainPath, source.ColStore)
	if err != nil {
		return nil, err
	}
	stores, err := source.ReadStores(cfg.StoresPath)
	if err != nil {
		return nil, err
	}

	points, res := BuildDailySeries(train.Transactions, train.HasOpen, stores)
	res.SkippedRows = train.Skipped

	if err := source.WriteDailySales(cfg.OutputPath, points); err != nil {
		return nil, err
	}

	logging.Info().
		Int("read", res.RowsRead).
		Int("dropped_closed", res.DroppedClosed).
		Int("written", res.RowsWritten).
		Str("output", cfg.OutputPath).
		Msg("preprocess complete")
	return res, nil
}

// BuildDailySeries left-joins store attributes onto txns, drops rows whose
// Open is not 1 when hasOpen is set, and projects to Store,ds,y in source order.
func BuildDailySeries(txns []model.Transaction, hasOpen bool, stores []model.StoreInfo) ([]model.SeriesPoint, *PreprocessResult) {
	res := &PreprocessResult{
		RowsRead:     len(txns),
		OpenFiltered: hasOpen,
		Columns:      []string{source.ColStore, source.ColDS, source.ColY},
	}

	attrs := make(map[string]map[string]string, len(stores))
	for _, s := range stores {
		if _, dup := attrs[s.Store]; dup {
			logging.Warn().Str("store", s.Store).Msg("duplicate store metadata row, keeping the first")
			continue
		}
		attrs[s.Store] = s.Attrs
	}

	if !hasOpen {
		logging.Warn().Msg("no Open column in transactions, keeping every row")
	}

	points := make([]model.SeriesPoint, 0, len(txns))
	for i := range txns {
		t := &txns[i]
		if a, ok := attrs[t.Store]; ok {
			t.Attrs = a
		} else {
			res.UnknownStores++
		}

		if hasOpen && (t.Open == nil || *t.Open != 1) {
			res.DroppedClosed++
			continue
		}
		points = append(points, model.SeriesPoint{Store: t.Store, DS: t.Date, Y: t.Sales})
	}

	if res.UnknownStores > 0 {
		logging.Warn().Int("rows", res.UnknownStores).Msg("transactions reference stores missing from store metadata")
	}
	res.RowsWritten = len(points)
	return points, res
}
