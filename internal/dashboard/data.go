// Package dashboard holds the read-only data behind the interactive dashboard
// and the pure functions that turn a selection into chart and card contents.
// Nothing here draws to a terminal; internal/tui renders the views.
package dashboard

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/theirongolddev/salescast/internal/logging"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/pipeline"
	"github.com/theirongolddev/salescast/internal/source"
	"github.com/theirongolddev/salescast/internal/store"
)

// ErrNoForecasts is returned when the export directory holds no forecast rows.
var ErrNoForecasts = errors.New("no forecast files found")

// LoadStats describes how the data was assembled.
type LoadStats struct {
	Files          int
	ParsedFiles    int
	FileErrors     int
	ParseErrors    int
	CacheHits      int
	Reparsed       int
	ActualRows     int
	MatchedRows    int
	DuplicateKeys  int
	ActualsMissing bool
	Duration       time.Duration
	Errors         []error
}

// Data is the merged forecast and actuals table, built once and never
// mutated afterwards. Every render function reads from it.
type Data struct {
	rows      []model.MergedRow
	byStore   map[string][]model.MergedRow
	stores    []string
	aggregate bool
	first     time.Time
	last      time.Time

	Stats LoadStats
}

// New merges forecasts with actuals and indexes the result by store.
// actualsByStore selects the (ds, Store) join; otherwise actuals are chain
// totals joined on ds alone.
func New(forecasts []model.ForecastPoint, actuals []model.ActualPoint, actualsByStore bool) *Data {
	mr := pipeline.Merge(forecasts, actuals, actualsByStore)

	d := &Data{
		rows:      mr.Rows,
		byStore:   make(map[string][]model.MergedRow),
		stores:    pipeline.Stores(mr.Rows),
		aggregate: mr.AggregateActuals,
	}
	for _, r := range mr.Rows {
		d.byStore[r.Store] = append(d.byStore[r.Store], r)
	}
	d.first, d.last = pipeline.DateBounds(mr.Rows)
	d.Stats.ActualRows = len(actuals)
	d.Stats.MatchedRows = mr.Matched
	d.Stats.DuplicateKeys = mr.DuplicateKeys
	return d
}

// LoadOptions locates the dashboard inputs.
type LoadOptions struct {
	ExportDir   string
	ActualsPath string
	Cache       *store.Cache // optional; nil parses every forecast file
	Progress    pipeline.ProgressFunc
}

// Load reads every forecast file and the actuals file and merges them.
// A missing actuals file is not an error: the dashboard shows forecasts only.
func Load(opts LoadOptions) (*Data, error) {
	start := time.Now()
	var stats LoadStats

	var lr *pipeline.LoadResult
	if opts.Cache != nil {
		cr, err := pipeline.LoadForecastsWithCache(opts.ExportDir, opts.Cache, opts.Progress)
		if err != nil {
			logging.Warn().Err(err).Msg("cached load failed, parsing all files")
		} else {
			lr = &cr.LoadResult
			stats.CacheHits = cr.CacheHits
			stats.Reparsed = cr.Reparsed
		}
	}
	if lr == nil {
		var err error
		lr, err = pipeline.LoadForecasts(opts.ExportDir, opts.Progress)
		if err != nil {
			return nil, err
		}
	}
	if len(lr.Forecasts) == 0 {
		return nil, fmt.Errorf("%s: %w", opts.ExportDir, ErrNoForecasts)
	}

	actuals, byStore, err := source.ReadActuals(opts.ActualsPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logging.Warn().Str("path", opts.ActualsPath).Msg("actuals file not found, showing forecasts only")
		stats.ActualsMissing = true
	case err != nil:
		return nil, fmt.Errorf("loading actuals: %w", err)
	}

	d := New(lr.Forecasts, actuals, byStore)
	stats.Files = lr.TotalFiles
	stats.ParsedFiles = lr.ParsedFiles
	stats.FileErrors = lr.FileErrors
	stats.ParseErrors = lr.ParseErrors
	stats.Errors = lr.Errors
	stats.ActualRows = d.Stats.ActualRows
	stats.MatchedRows = d.Stats.MatchedRows
	stats.DuplicateKeys = d.Stats.DuplicateKeys
	stats.Duration = time.Since(start)
	d.Stats = stats

	logging.Info().
		Int("files", stats.Files).
		Int("rows", len(d.rows)).
		Int("stores", len(d.stores)).
		Int("matched", stats.MatchedRows).
		Bool("aggregate_actuals", d.aggregate).
		Dur("took", stats.Duration).
		Msg("dashboard data loaded")
	return d, nil
}

// Stores returns the store ids in natural order.
func (d *Data) Stores() []string { return d.stores }

// Rows returns every merged row.
func (d *Data) Rows() []model.MergedRow { return d.rows }

// StoreRows returns one store's rows in forecast order.
func (d *Data) StoreRows(store string) []model.MergedRow { return d.byStore[store] }

// HasStore reports whether store has any rows.
func (d *Data) HasStore(store string) bool {
	_, ok := d.byStore[store]
	return ok
}

// AggregateActuals reports that actuals are chain totals joined on date only,
// so per-store comparisons mix every store's sales into each store's rows.
func (d *Data) AggregateActuals() bool { return d.aggregate }

// Bounds returns the earliest and latest forecast date across all stores.
func (d *Data) Bounds() (first, last time.Time) { return d.first, d.last }
