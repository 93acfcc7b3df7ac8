package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/source"
)

func TestAggregateActuals_SumsAcrossStores(t *testing.T) {
	txns := []model.Transaction{
		{Store: "1", Date: day("2015-07-01"), Sales: 100},
		{Store: "2", Date: day("2015-07-01"), Sales: 250},
	}

	got := AggregateActuals(txns, false)
	if len(got) != 1 {
		t.Fatalf("rows = %d, want 1", len(got))
	}
	if got[0].Y != 350 || got[0].Store != "" || !got[0].DS.Equal(day("2015-07-01")) {
		t.Errorf("row = %+v, want 2015-07-01 total 350 without store", got[0])
	}
}

func TestAggregateActuals_ByStore(t *testing.T) {
	txns := []model.Transaction{
		{Store: "2", Date: day("2015-07-02"), Sales: 5},
		{Store: "10", Date: day("2015-07-01"), Sales: 1},
		{Store: "2", Date: day("2015-07-01"), Sales: 2},
	}

	got := AggregateActuals(txns, true)
	if len(got) != 3 {
		t.Fatalf("rows = %d, want 3", len(got))
	}
	if got[0].Store != "2" || got[1].Store != "10" || !got[2].DS.Equal(day("2015-07-02")) {
		t.Errorf("order = %+v", got)
	}
}

func TestGenerateActuals_WritesFile(t *testing.T) {
	dir := t.TempDir()
	train := writeFile(t, dir, "train.csv",
		"Store,Date,Sales,Open",
		"1,2015-07-02,10,1",
		"2,2015-07-02,20,1",
		"1,2015-07-01,5,1",
	)
	out := filepath.Join(dir, "data", "actuals.csv")

	res, err := GenerateActuals(ActualsConfig{TrainPath: train, OutputPath: out})
	if err != nil {
		t.Fatalf("GenerateActuals: %v", err)
	}
	if res.Rows != 2 {
		t.Errorf("Rows = %d, want 2", res.Rows)
	}

	got, hasStore, err := source.ReadActuals(out)
	if err != nil {
		t.Fatalf("ReadActuals: %v", err)
	}
	if hasStore {
		t.Error("default actuals should not carry a Store column")
	}
	if got[0].Y != 5 || got[1].Y != 30 {
		t.Errorf("got %+v, want 5 then 30", got)
	}
}
