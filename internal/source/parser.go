package source

import (
	"fmt"

	"github.com/theirongolddev/salescast/internal/model"
)

// ParseResult holds the output of parsing a single forecast file.
type ParseResult struct {
	File        DiscoveredFile
	Points      []model.ForecastPoint
	ParseErrors int
	Err         error
}

// ParseFile reads a forecast CSV. Rows with unparseable dates or numbers are
// counted in ParseErrors and skipped; a missing required column fails the file.
func ParseFile(df DiscoveredFile) ParseResult {
	t, err := ReadTable(df.Path)
	if err != nil {
		return ParseResult{File: df, Err: err}
	}
	if err := t.Require(ColDS, ColYhat, ColYhatLower, ColYhatUpper); err != nil {
		return ParseResult{File: df, Err: err}
	}

	res := ParseResult{File: df, Points: make([]model.ForecastPoint, 0, len(t.Rows))}
	hasStore := t.Has(ColStore)

	for _, row := range t.Rows {
		ds, err := ParseDate(t.Get(row, ColDS))
		if err != nil {
			res.ParseErrors++
			continue
		}
		var vals [3]float64
		bad := false
		for i, col := range [3]string{ColYhat, ColYhatLower, ColYhatUpper} {
			v, ok, err := ParseFloat(t.Get(row, col))
			if err != nil || !ok {
				bad = true
				break
			}
			vals[i] = v
		}
		if bad {
			res.ParseErrors++
			continue
		}

		store := df.Store
		if hasStore {
			if s := t.Get(row, ColStore); s != "" {
				store = s
			}
		}
		res.Points = append(res.Points, model.ForecastPoint{
			Store:     store,
			DS:        ds,
			Yhat:      vals[0],
			YhatLower: vals[1],
			YhatUpper: vals[2],
		})
	}
	return res
}

// WriteForecast writes ds,yhat,yhat_lower,yhat_upper,Store rows.
func WriteForecast(path string, points []model.ForecastPoint) error {
	f, w, err := createCSV(path)
	if err != nil {
		return err
	}
	_ = w.Write([]string{ColDS, ColYhat, ColYhatLower, ColYhatUpper, ColStore})
	for _, p := range points {
		_ = w.Write([]string{
			p.DS.Format(model.DateLayout),
			FormatFloat(p.Yhat),
			FormatFloat(p.YhatLower),
			FormatFloat(p.YhatUpper),
			p.Store,
		})
	}
	if err := finishCSV(f, w); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// WriteMerged writes merged rows with an empty y where no actual matched.
func WriteMerged(path string, rows []model.MergedRow) error {
	f, w, err := createCSV(path)
	if err != nil {
		return err
	}
	_ = w.Write([]string{ColDS, ColStore, ColY, ColYhat, ColYhatLower, ColYhatUpper, "Month", "Year"})
	for _, r := range rows {
		y := ""
		if r.Actual != nil {
			y = FormatFloat(*r.Actual)
		}
		_ = w.Write([]string{
			r.DS.Format(model.DateLayout),
			r.Store,
			y,
			FormatFloat(r.Yhat),
			FormatFloat(r.YhatLower),
			FormatFloat(r.YhatUpper),
			r.Month,
			fmt.Sprint(r.Year),
		})
	}
	if err := finishCSV(f, w); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
