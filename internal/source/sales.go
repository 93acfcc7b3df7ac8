package source

import (
	"fmt"
	"math"

	"github.com/theirongolddev/salescast/internal/model"
)

// TrainData is the parsed transaction table.
type TrainData struct {
	Transactions []model.Transaction
	HasStore     bool
	HasOpen      bool
	Skipped      int // rows with an unparseable Sales value
}

// ReadTrain loads train.csv. Date and Sales are always required; extra
// columns in required are checked first, in order.
func ReadTrain(path string, required ...string) (*TrainData, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.Require(append(required, ColDate, ColSales)...); err != nil {
		return nil, err
	}

	data := &TrainData{
		Transactions: make([]model.Transaction, 0, len(t.Rows)),
		HasStore:     t.Has(ColStore),
		HasOpen:      t.Has(ColOpen),
	}

	for i, row := range t.Rows {
		date, err := ParseDate(t.Get(row, ColDate))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		sales, ok, err := ParseFloat(t.Get(row, ColSales))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: parsing Sales: %w", path, i+2, err)
		}
		if !ok {
			data.Skipped++
			continue
		}

		txn := model.Transaction{
			Store: t.Get(row, ColStore),
			Date:  date,
			Sales: sales,
		}
		if data.HasOpen {
			if v, ok, err := ParseFloat(t.Get(row, ColOpen)); err == nil && ok {
				open := int(math.Round(v))
				txn.Open = &open
			}
		}
		data.Transactions = append(data.Transactions, txn)
	}
	return data, nil
}

// ReadStores loads store.csv. Every column other than Store becomes an attribute.
func ReadStores(path string) ([]model.StoreInfo, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.Require(ColStore); err != nil {
		return nil, err
	}

	stores := make([]model.StoreInfo, 0, len(t.Rows))
	for _, row := range t.Rows {
		info := model.StoreInfo{
			Store: t.Get(row, ColStore),
			Attrs: make(map[string]string, len(t.Header)-1),
		}
		for _, h := range t.Header {
			if h != ColStore {
				info.Attrs[h] = t.Get(row, h)
			}
		}
		stores = append(stores, info)
	}
	return stores, nil
}

// ReadDailySales loads daily_sales.csv. Rows with a missing y are dropped and counted.
func ReadDailySales(path string) (points []model.SeriesPoint, dropped int, err error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, 0, err
	}
	if err := t.Require(ColStore, ColDS, ColY); err != nil {
		return nil, 0, err
	}

	points = make([]model.SeriesPoint, 0, len(t.Rows))
	for i, row := range t.Rows {
		ds, err := ParseDate(t.Get(row, ColDS))
		if err != nil {
			return nil, 0, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		y, ok, err := ParseFloat(t.Get(row, ColY))
		if err != nil {
			return nil, 0, fmt.Errorf("%s row %d: parsing y: %w", path, i+2, err)
		}
		if !ok {
			dropped++
			continue
		}
		points = append(points, model.SeriesPoint{Store: t.Get(row, ColStore), DS: ds, Y: y})
	}
	return points, dropped, nil
}

// WriteDailySales writes Store,ds,y rows in the given order.
func WriteDailySales(path string, points []model.SeriesPoint) error {
	f, w, err := createCSV(path)
	if err != nil {
		return err
	}
	_ = w.Write([]string{ColStore, ColDS, ColY})
	for _, p := range points {
		_ = w.Write([]string{p.Store, p.DS.Format(model.DateLayout), FormatFloat(p.Y)})
	}
	if err := finishCSV(f, w); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
