package store

import (
	"database/sql"
	"sort"
	"time"

	"github.com/theirongolddev/salescast/internal/model"
)

// FitRun records one store fit within a forecast run.
type FitRun struct {
	RunID         string
	Store         string
	StartedAt     time.Time
	HistoryRows   int
	HorizonDays   int
	ForecastRows  int
	ResidualSigma float64
	InSampleMAE   float64
	FirstDS       time.Time
	LastDS        time.Time
	OutputPath    string
}

// SaveFitRuns stores every fit of a run in one transaction.
func (c *Cache) SaveFitRuns(runs []FitRun) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO fit_runs
		(run_id, store, started_at, history_rows, horizon_days, forecast_rows,
		 residual_sigma, in_sample_mae, first_ds, last_ds, output_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range runs {
		_, err := stmt.Exec(
			r.RunID, r.Store, r.StartedAt.UTC().Format(time.RFC3339), r.HistoryRows, r.HorizonDays,
			r.ForecastRows, r.ResidualSigma, r.InSampleMAE, r.FirstDS.Format(model.DateLayout),
			r.LastDS.Format(model.DateLayout), r.OutputPath,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LatestFitRuns returns the fits of the most recent run, ordered by store.
func (c *Cache) LatestFitRuns() ([]FitRun, error) {
	var runID string
	err := c.db.QueryRow("SELECT run_id FROM fit_runs ORDER BY started_at DESC LIMIT 1").Scan(&runID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := c.db.Query(`SELECT run_id, store, started_at, history_rows, horizon_days,
		forecast_rows, residual_sigma, in_sample_mae, first_ds, last_ds, output_path
		FROM fit_runs WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []FitRun
	for rows.Next() {
		var r FitRun
		var started, first, last string
		var sigma, mae sql.NullFloat64
		var out sql.NullString
		if err := rows.Scan(&r.RunID, &r.Store, &started, &r.HistoryRows, &r.HorizonDays,
			&r.ForecastRows, &sigma, &mae, &first, &last, &out); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.FirstDS, _ = time.Parse(model.DateLayout, first)
		r.LastDS, _ = time.Parse(model.DateLayout, last)
		r.ResidualSigma = sigma.Float64
		r.InSampleMAE = mae.Float64
		r.OutputPath = out.String
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(runs, func(i, j int) bool {
		return model.LessStore(runs[i].Store, runs[j].Store)
	})
	return runs, nil
}
