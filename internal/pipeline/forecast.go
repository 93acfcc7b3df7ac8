package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/logging"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/plot"
	"github.com/theirongolddev/salescast/internal/source"
	"github.com/theirongolddev/salescast/internal/store"
)

// ForecastConfig drives the forecast stage.
type ForecastConfig struct {
	DailySalesPath string
	ExportDir      string
	VisualsDir     string
	HorizonDays    int
	MinHistory     int
	Model          forecast.Options
	Workers        int
	Plots          bool
	// Stores restricts fitting to these ids when non-empty.
	Stores   []string
	Cache    *store.Cache
	Progress ProgressFunc
}

// StoreForecast describes one fitted store.
type StoreForecast struct {
	Store       string
	HistoryRows int
	Rows        int
	Sigma       float64
	InSampleMAE float64
	FirstDS     time.Time
	LastDS      time.Time
	Path        string
	PlotPath    string
	Err         error
}

// SkippedStore is a store left out for having too little history.
type SkippedStore struct {
	Store string
	Rows  int
}

// ForecastResult reports the forecast stage outcome in store appearance order.
type ForecastResult struct {
	RunID     string
	StartedAt time.Time
	Fitted    []StoreForecast
	Skipped   []SkippedStore
	Failed    []StoreForecast
}

// ErrStoreFits wraps failures of individual store fits.
var ErrStoreFits = errors.New("store fits failed")

// GroupByStore splits a series by store, keeping first-appearance order.
func GroupByStore(points []model.SeriesPoint) (order []string, byStore map[string][]model.SeriesPoint) {
	byStore = make(map[string][]model.SeriesPoint)
	for _, p := range points {
		if _, ok := byStore[p.Store]; !ok {
			order = append(order, p.Store)
		}
		byStore[p.Store] = append(byStore[p.Store], p)
	}
	return order, byStore
}

// ForecastStores fits one model per store with enough history and writes
// forecast_store_<id>.csv (and a PNG when enabled) for each.
func ForecastStores(cfg ForecastConfig) (*ForecastResult, error) {
	points, dropped, err := source.ReadDailySales(cfg.DailySalesPath)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		logging.Warn().Int("rows", dropped).Msg("dropped daily rows with missing y")
	}

	order, byStore := GroupByStore(points)
	if len(cfg.Stores) > 0 {
		order = keepStores(order, cfg.Stores)
	}

	res := &ForecastResult{RunID: uuid.NewString(), StartedAt: time.Now()}

	minRows := max(cfg.MinHistory, forecast.MinPoints)
	var eligible []string
	for _, s := range order {
		n := len(byStore[s])
		if n < minRows {
			logging.Info().Str("store", s).Int("rows", n).Int("min", minRows).
				Msg("skipping store with too little history")
			res.Skipped = append(res.Skipped, SkippedStore{Store: s, Rows: n})
			continue
		}
		eligible = append(eligible, s)
	}

	outcomes := make([]StoreForecast, len(eligible))
	runPool(len(eligible), cfg.Workers, func(idx int) {
		s := eligible[idx]
		outcomes[idx] = forecastOne(s, byStore[s], cfg)
	}, func(n int) {
		if cfg.Progress != nil {
			cfg.Progress(n, len(eligible))
		}
	})

	var runs []store.FitRun
	for _, o := range outcomes {
		if o.Err != nil {
			logging.Error().Err(o.Err).Str("store", o.Store).Msg("forecast failed")
			res.Failed = append(res.Failed, o)
			continue
		}
		logging.Debug().Str("store", o.Store).Int("rows", o.Rows).Float64("sigma", o.Sigma).Msg("forecast written")
		res.Fitted = append(res.Fitted, o)
		runs = append(runs, store.FitRun{
			RunID:         res.RunID,
			Store:         o.Store,
			StartedAt:     res.StartedAt,
			HistoryRows:   o.HistoryRows,
			HorizonDays:   cfg.HorizonDays,
			ForecastRows:  o.Rows,
			ResidualSigma: o.Sigma,
			InSampleMAE:   o.InSampleMAE,
			FirstDS:       o.FirstDS,
			LastDS:        o.LastDS,
			OutputPath:    o.Path,
		})
	}

	if cfg.Cache != nil && len(runs) > 0 {
		if err := cfg.Cache.SaveFitRuns(runs); err != nil {
			logging.Warn().Err(err).Msg("recording fit runs")
		}
	}

	logging.Info().Str("run", res.RunID).Int("fitted", len(res.Fitted)).
		Int("skipped", len(res.Skipped)).Int("failed", len(res.Failed)).Msg("forecast complete")

	if len(res.Failed) > 0 {
		return res, fmt.Errorf("%w: %d of %d (first: store %s: %v)",
			ErrStoreFits, len(res.Failed), len(eligible), res.Failed[0].Store, res.Failed[0].Err)
	}
	return res, nil
}

func forecastOne(s string, history []model.SeriesPoint, cfg ForecastConfig) StoreForecast {
	out := StoreForecast{Store: s, HistoryRows: len(history)}

	fc, m, err := FitStore(s, history, cfg.HorizonDays, cfg.Model)
	if err != nil {
		out.Err = err
		return out
	}
	out.Rows = len(fc)
	out.Sigma = m.Sigma()
	if mae, err := inSampleMAE(m, history); err == nil {
		out.InSampleMAE = mae
	}
	out.FirstDS = fc[0].DS
	out.LastDS = fc[len(fc)-1].DS
	out.Path = filepath.Join(cfg.ExportDir, source.ForecastFileName(s))

	if err := source.WriteForecast(out.Path, fc); err != nil {
		out.Err = err
		return out
	}

	if cfg.Plots {
		out.PlotPath = filepath.Join(cfg.VisualsDir, source.PlotFileName(s))
		if err := plot.SaveForecast(out.PlotPath, history, fc, plot.DefaultOptions("Forecast for Store "+s)); err != nil {
			// A missing chart doesn't invalidate the CSV.
			logging.Warn().Err(err).Str("store", s).Msg("plot failed")
			out.PlotPath = ""
		}
	}
	return out
}

// FitStore fits a model to one store's history and predicts over the history
// dates plus horizon future days.
func FitStore(s string, history []model.SeriesPoint, horizon int, opts forecast.Options) ([]model.ForecastPoint, *forecast.Model, error) {
	ds := make([]time.Time, len(history))
	y := make([]float64, len(history))
	for i, p := range history {
		ds[i] = p.DS
		y[i] = p.Y
	}

	m := forecast.New(opts)
	if err := m.Fit(ds, y); err != nil {
		return nil, nil, fmt.Errorf("fitting store %s: %w", s, err)
	}
	preds, err := m.Predict(m.MakeFuture(horizon))
	if err != nil {
		return nil, nil, fmt.Errorf("predicting store %s: %w", s, err)
	}

	fc := make([]model.ForecastPoint, len(preds))
	for i, p := range preds {
		fc[i] = model.ForecastPoint{
			Store:     s,
			DS:        p.DS,
			Yhat:      p.Yhat,
			YhatLower: p.Lower,
			YhatUpper: p.Upper,
		}
	}
	return fc, m, nil
}

func inSampleMAE(m *forecast.Model, history []model.SeriesPoint) (float64, error) {
	ds := make([]time.Time, len(history))
	y := make([]float64, len(history))
	for i, p := range history {
		ds[i] = p.DS
		y[i] = p.Y
	}
	return m.InSampleMAE(ds, y)
}

func keepStores(order, want []string) []string {
	set := make(map[string]struct{}, len(want))
	for _, w := range want {
		set[w] = struct{}{}
	}
	var out []string
	for _, s := range order {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return out
}
