// Package source reads and writes the flat CSV files the pipeline stages exchange.
package source

import "errors"

// ErrMissingColumn is returned when a required column is absent from a CSV header.
var ErrMissingColumn = errors.New("missing required column")

// Column names shared by the pipeline's CSV contracts.
const (
	ColStore     = "Store"
	ColDate      = "Date"
	ColSales     = "Sales"
	ColOpen      = "Open"
	ColDS        = "ds"
	ColY         = "y"
	ColYhat      = "yhat"
	ColYhatLower = "yhat_lower"
	ColYhatUpper = "yhat_upper"
)

// DiscoveredFile is a forecast CSV found in the export directory.
type DiscoveredFile struct {
	Path  string
	Store string // parsed from the file name; the Store column wins when present
}
