package pipeline

import (
	"fmt"

	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/source"
)

// LoadResult holds every forecast row found in an export directory.
type LoadResult struct {
	Forecasts   []model.ForecastPoint
	Stores      []string
	TotalFiles  int
	ParsedFiles int
	ParseErrors int
	FileErrors  int
	Errors      []error
}

// LoadForecasts discovers and parses all forecast files in exportDir.
// It uses a bounded worker pool for parallel parsing. Rows come back grouped
// by store in store order, each store's rows in file order.
func LoadForecasts(exportDir string, progressFn ProgressFunc) (*LoadResult, error) {
	files, err := source.ScanForecasts(exportDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", exportDir, err)
	}

	result := &LoadResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	results := make([]source.ParseResult, len(files))
	runPool(len(files), 0, func(idx int) {
		results[idx] = source.ParseFile(files[idx])
	}, func(n int) {
		if progressFn != nil {
			progressFn(n, len(files))
		}
	})

	for _, pr := range results {
		result.add(pr)
	}
	return result, nil
}

func (r *LoadResult) add(pr source.ParseResult) {
	if pr.Err != nil {
		r.FileErrors++
		r.Errors = append(r.Errors, pr.Err)
		return
	}
	r.ParsedFiles++
	r.ParseErrors += pr.ParseErrors
	r.addPoints(pr.File.Store, pr.Points)
}

func (r *LoadResult) addPoints(store string, points []model.ForecastPoint) {
	if len(points) == 0 {
		return
	}
	r.Forecasts = append(r.Forecasts, points...)
	r.Stores = append(r.Stores, store)
}
