// Package model defines domain types for store sales, forecasts and actuals.
package model

import (
	"strconv"
	"time"
)

// DateLayout is the calendar date format used in every CSV the pipeline touches.
const DateLayout = "2006-01-02"

// Transaction is one row of the raw sales table, joined with its store metadata.
type Transaction struct {
	Store string
	Date  time.Time
	Sales float64
	// Open is nil when the source has no Open column.
	Open  *int
	Attrs map[string]string
}

// StoreInfo is one row of the store metadata table.
type StoreInfo struct {
	Store string
	Attrs map[string]string
}

// SeriesPoint is one daily observation for a store.
type SeriesPoint struct {
	Store string
	DS    time.Time
	Y     float64
}

// ForecastPoint is one predicted day for a store.
type ForecastPoint struct {
	Store     string
	DS        time.Time
	Yhat      float64
	YhatLower float64
	YhatUpper float64
}

// ActualPoint is one observed total. Store is empty when the total spans all stores.
type ActualPoint struct {
	DS    time.Time
	Store string
	Y     float64
}

// MergedRow is a forecast row with its matching actual, if any.
type MergedRow struct {
	ForecastPoint
	Actual *float64
	Month  string // "YYYY-MM"
	Year   int
}

// HasActual reports whether an actual value was joined onto the row.
func (r MergedRow) HasActual() bool {
	return r.Actual != nil
}

// ActualOrZero returns the joined actual, or 0 when missing.
func (r MergedRow) ActualOrZero() float64 {
	if r.Actual == nil {
		return 0
	}
	return *r.Actual
}

// LessStore orders store ids numerically when both parse as integers,
// lexically otherwise. Numeric ids sort before non-numeric ones.
func LessStore(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return ai < bi
	case aerr == nil:
		return true
	case berr == nil:
		return false
	}
	return a < b
}
