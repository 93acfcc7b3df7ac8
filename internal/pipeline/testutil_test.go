package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/salescast/internal/model"
)

func writeFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func day(s string) time.Time {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func fptr(v float64) *float64 { return &v }

func merged(store, ds string, yhat float64, actual *float64) model.MergedRow {
	d := day(ds)
	return model.MergedRow{
		ForecastPoint: model.ForecastPoint{Store: store, DS: d, Yhat: yhat, YhatLower: yhat - 1, YhatUpper: yhat + 1},
		Actual:        actual,
		Month:         d.Format("2006-01"),
		Year:          d.Year(),
	}
}
