// Package store provides a SQLite-backed cache for parsed forecast files and fit history.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/salescast/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache provides SQLite-backed forecast caching.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked mtime and size for a file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (c *Cache) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveForecastFile replaces the cached rows for one forecast file and updates its tracker entry.
func (c *Cache) SaveForecastFile(path, store string, points []model.ForecastPoint, parseErrors int, mtimeNs, sizeBytes int64) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	var firstDS, lastDS string
	if len(points) > 0 {
		firstDS = points[0].DS.Format(model.DateLayout)
		lastDS = points[len(points)-1].DS.Format(model.DateLayout)
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO forecast_files
		(file_path, store, row_count, parse_errors, first_ds, last_ds, file_mtime_ns, file_size, parsed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		path, store, len(points), parseErrors, firstDS, lastDS, mtimeNs, sizeBytes, now,
	)
	if err != nil {
		return err
	}

	// INSERT OR REPLACE on the parent does not cascade, so clear old points explicitly.
	if _, err := tx.Exec("DELETE FROM forecast_points WHERE file_path = ?", path); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO forecast_points
		(file_path, seq, store, ds, yhat, yhat_lower, yhat_upper)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, p := range points {
		if _, err := stmt.Exec(path, i, p.Store, p.DS.Format(model.DateLayout), p.Yhat, p.YhatLower, p.YhatUpper); err != nil {
			return err
		}
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes)
		VALUES (?, ?, ?)`, path, mtimeNs, sizeBytes)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// LoadAllForecasts returns cached points grouped by file path, in file row order.
func (c *Cache) LoadAllForecasts() (map[string][]model.ForecastPoint, error) {
	rows, err := c.db.Query(`SELECT file_path, store, ds, yhat, yhat_lower, yhat_upper
		FROM forecast_points ORDER BY file_path, seq`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string][]model.ForecastPoint)
	for rows.Next() {
		var path, ds string
		var p model.ForecastPoint
		if err := rows.Scan(&path, &p.Store, &ds, &p.Yhat, &p.YhatLower, &p.YhatUpper); err != nil {
			return nil, err
		}
		p.DS, err = time.Parse(model.DateLayout, ds)
		if err != nil {
			return nil, fmt.Errorf("cached row for %s: %w", path, err)
		}
		result[path] = append(result[path], p)
	}
	return result, rows.Err()
}

// DeleteForecastFile removes a cached file, its points and its tracker entry.
func (c *Cache) DeleteForecastFile(path string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM forecast_files WHERE file_path = ?", path); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM file_tracker WHERE file_path = ?", path); err != nil {
		return err
	}
	return tx.Commit()
}

// ForecastFileCount returns the number of cached forecast files.
func (c *Cache) ForecastFileCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM forecast_files").Scan(&count)
	return count, err
}
