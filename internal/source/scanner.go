package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/salescast/internal/model"
)

const (
	forecastPrefix  = "forecast_store_"
	selectionPrefix = "selection_store_"
	forecastExt     = ".csv"
)

// ForecastFileName returns the export file name for a store.
func ForecastFileName(store string) string {
	return forecastPrefix + store + forecastExt
}

// PlotFileName returns the visuals file name for a store.
func PlotFileName(store string) string {
	return forecastPrefix + store + ".png"
}

// SelectionFileBase returns the extensionless name of a dashboard download.
// Its prefix differs from forecast files so a download dir shared with the
// export dir is never rescanned as forecasts.
func SelectionFileBase(store string, first, last time.Time) string {
	return selectionPrefix + store + "_" + first.Format("20060102") + "_" + last.Format("20060102")
}

// StoreFromFileName extracts the store id from forecast_store_<id>.csv.
func StoreFromFileName(name string) (string, bool) {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, forecastPrefix) || !strings.HasSuffix(base, forecastExt) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(base, forecastPrefix), forecastExt)
	return id, id != ""
}

// ScanForecasts lists forecast files in exportDir, ordered by store.
// A missing directory yields no files and no error.
func ScanForecasts(exportDir string) ([]DiscoveredFile, error) {
	entries, err := os.ReadDir(exportDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []DiscoveredFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		store, ok := StoreFromFileName(e.Name())
		if !ok {
			continue
		}
		files = append(files, DiscoveredFile{
			Path:  filepath.Join(exportDir, e.Name()),
			Store: store,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return model.LessStore(files[i].Store, files[j].Store)
	})
	return files, nil
}
