package pipeline

import (
	"fmt"
	"os"

	"github.com/theirongolddev/salescast/internal/logging"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/source"
	"github.com/theirongolddev/salescast/internal/store"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	CacheHits int
	Reparsed  int
	Pruned    int
}

// LoadForecastsWithCache discovers forecast files, diffs them against the
// cache, parses only changed files, and returns the combined result set.
func LoadForecastsWithCache(exportDir string, cache *store.Cache, progressFn ProgressFunc) (*CachedLoadResult, error) {
	files, err := source.ScanForecasts(exportDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", exportDir, err)
	}

	tracked, err := cache.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	result := &CachedLoadResult{LoadResult: LoadResult{TotalFiles: len(files)}}

	// Drop entries for files that no longer exist.
	present := make(map[string]struct{}, len(files))
	for _, f := range files {
		present[f.Path] = struct{}{}
	}
	for path := range tracked {
		if _, ok := present[path]; ok {
			continue
		}
		if err := cache.DeleteForecastFile(path); err != nil {
			logging.Warn().Err(err).Str("file", path).Msg("pruning stale cache entry")
			continue
		}
		result.Pruned++
	}

	if len(files) == 0 {
		return result, nil
	}

	type fileStat struct {
		mtimeNs int64
		size    int64
	}
	stats := make([]fileStat, len(files))
	unchanged := make([]bool, len(files))
	var toReparse []int

	for i, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			toReparse = append(toReparse, i)
			continue
		}
		stats[i] = fileStat{info.ModTime().UnixNano(), info.Size()}

		cached, ok := tracked[f.Path]
		if ok && cached.MtimeNs == stats[i].mtimeNs && cached.SizeBytes == stats[i].size {
			unchanged[i] = true
			result.CacheHits++
		} else {
			toReparse = append(toReparse, i)
		}
	}
	result.Reparsed = len(toReparse)

	var cachedPoints map[string][]model.ForecastPoint
	if result.CacheHits > 0 {
		cachedPoints, err = cache.LoadAllForecasts()
		if err != nil {
			return nil, fmt.Errorf("loading cached forecasts: %w", err)
		}
	}

	parsed := make([]source.ParseResult, len(files))
	runPool(len(toReparse), 0, func(j int) {
		i := toReparse[j]
		parsed[i] = source.ParseFile(files[i])
	}, func(n int) {
		if progressFn != nil {
			progressFn(n+result.CacheHits, result.TotalFiles)
		}
	})

	// Combine in file order so the output matches an uncached load.
	for i, f := range files {
		if unchanged[i] {
			result.ParsedFiles++
			result.addPoints(f.Store, cachedPoints[f.Path])
			continue
		}

		pr := parsed[i]
		result.add(pr)
		if pr.Err != nil || stats[i].mtimeNs == 0 {
			continue
		}
		if err := cache.SaveForecastFile(f.Path, f.Store, pr.Points, pr.ParseErrors, stats[i].mtimeNs, stats[i].size); err != nil {
			logging.Warn().Err(err).Str("file", f.Path).Msg("caching parsed forecast")
		}
	}

	return result, nil
}
