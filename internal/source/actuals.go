package source

import (
	"fmt"

	"github.com/theirongolddev/salescast/internal/model"
)

// ReadActuals loads actuals.csv. hasStore reports whether the file is keyed per store.
func ReadActuals(path string) (points []model.ActualPoint, hasStore bool, err error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, false, err
	}
	if err := t.Require(ColDS, ColY); err != nil {
		return nil, false, err
	}
	hasStore = t.Has(ColStore)

	points = make([]model.ActualPoint, 0, len(t.Rows))
	for i, row := range t.Rows {
		ds, err := ParseDate(t.Get(row, ColDS))
		if err != nil {
			return nil, false, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		y, ok, err := ParseFloat(t.Get(row, ColY))
		if err != nil {
			return nil, false, fmt.Errorf("%s row %d: parsing y: %w", path, i+2, err)
		}
		if !ok {
			continue
		}
		points = append(points, model.ActualPoint{DS: ds, Store: t.Get(row, ColStore), Y: y})
	}
	return points, hasStore, nil
}

// WriteActuals writes ds,y or, when byStore is set, ds,Store,y.
func WriteActuals(path string, points []model.ActualPoint, byStore bool) error {
	f, w, err := createCSV(path)
	if err != nil {
		return err
	}
	if byStore {
		_ = w.Write([]string{ColDS, ColStore, ColY})
	} else {
		_ = w.Write([]string{ColDS, ColY})
	}
	for _, p := range points {
		ds := p.DS.Format(model.DateLayout)
		if byStore {
			_ = w.Write([]string{ds, p.Store, FormatFloat(p.Y)})
		} else {
			_ = w.Write([]string{ds, FormatFloat(p.Y)})
		}
	}
	if err := finishCSV(f, w); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
