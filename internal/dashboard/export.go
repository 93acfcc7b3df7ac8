package dashboard

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/theirongolddev/salescast/internal/logging"
	"github.com/theirongolddev/salescast/internal/plot"
	"github.com/theirongolddev/salescast/internal/source"
)

// ErrEmptySelection is returned when the selection has no rows to export.
var ErrEmptySelection = errors.New("selection has no rows")

// ExportResult names the files written by Export.
type ExportResult struct {
	CSVPath string
	PNGPath string
	Rows    int
}

// Export writes the selected store's merged rows in range to a CSV in dir,
// plus a PNG of the same selection in the selected theme. A failed PNG is
// logged and leaves PNGPath empty; the CSV is the download.
func Export(d *Data, in Inputs, dir string) (*ExportResult, error) {
	if err := in.Validate(d); err != nil {
		return nil, err
	}
	rows := selection(d, in)
	if len(rows) == 0 {
		return nil, fmt.Errorf("store %s %s: %w", in.Store, in.RangeLabel(), ErrEmptySelection)
	}

	first, last := rows[0].DS, rows[len(rows)-1].DS
	base := source.SelectionFileBase(in.Store, first, last)

	res := &ExportResult{
		CSVPath: filepath.Join(dir, base+".csv"),
		Rows:    len(rows),
	}
	if err := source.WriteMerged(res.CSVPath, rows); err != nil {
		return nil, fmt.Errorf("exporting store %s: %w", in.Store, err)
	}

	opts := plot.DefaultOptions(fmt.Sprintf("Store %s: forecast vs actual", in.Store))
	if in.Theme == ModeDark {
		opts.Palette = plot.Dark
	}
	pngPath := filepath.Join(dir, base+".png")
	if err := plot.SaveMerged(pngPath, rows, opts); err != nil {
		logging.Warn().Err(err).Str("store", in.Store).Msg("export plot skipped")
	} else {
		res.PNGPath = pngPath
	}

	logging.Info().Str("store", in.Store).Int("rows", res.Rows).Str("csv", res.CSVPath).Msg("selection exported")
	return res, nil
}
