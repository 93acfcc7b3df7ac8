package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS forecast_files (
    file_path            TEXT PRIMARY KEY,
    store                TEXT NOT NULL,
    row_count            INTEGER NOT NULL,
    parse_errors         INTEGER NOT NULL DEFAULT 0,
    first_ds             TEXT,
    last_ds              TEXT,
    file_mtime_ns        INTEGER NOT NULL,
    file_size            INTEGER NOT NULL,
    parsed_at            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS forecast_points (
    file_path            TEXT NOT NULL REFERENCES forecast_files(file_path) ON DELETE CASCADE,
    seq                  INTEGER NOT NULL,
    store                TEXT NOT NULL,
    ds                   TEXT NOT NULL,
    yhat                 REAL NOT NULL,
    yhat_lower           REAL NOT NULL,
    yhat_upper           REAL NOT NULL,
    PRIMARY KEY (file_path, seq)
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS fit_runs (
    run_id               TEXT NOT NULL,
    store                TEXT NOT NULL,
    started_at           TEXT NOT NULL,
    history_rows         INTEGER NOT NULL,
    horizon_days         INTEGER NOT NULL,
    forecast_rows        INTEGER NOT NULL,
    residual_sigma       REAL,
    in_sample_mae        REAL,
    first_ds             TEXT,
    last_ds              TEXT,
    output_path          TEXT,
    PRIMARY KEY (run_id, store)
);

CREATE INDEX IF NOT EXISTS idx_points_store_ds ON forecast_points(store, ds);
CREATE INDEX IF NOT EXISTS idx_fit_runs_started ON fit_runs(started_at);
`
