package forest

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/delay.report/internal/fsutil"
	"github.com/banshee-data/delay.report/internal/store"
	"github.com/banshee-data/delay.report/internal/timeutil"
)

func TestModelGobRoundTrip(t *testing.T) {
	x, y := makeLinear(60, 5)
	f, err := Fit(x, y, []string{"signal", "noise"}, Options{Estimators: 5, Seed: 42})
	if err != nil {
		t.Fatal(err)
	}

	s := store.New(fsutil.NewMemoryFileSystem(), timeutil.NewMockClock(time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)))

	path, err := SaveModel(s, "models", f)
	if err != nil {
		t.Fatalf("SaveModel: %v", err)
	}

	loaded, err := LoadModel(s, path)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}

	// A round-tripped model must predict identically.
	if diff := cmp.Diff(f.Predict(x[:5]), loaded.Predict(x[:5])); diff != "" {
		t.Errorf("predictions changed across round trip (-orig +loaded):\n%s", diff)
	}
	if diff := cmp.Diff(f.FeatureNames, loaded.FeatureNames); diff != "" {
		t.Errorf("feature names changed (-orig +loaded):\n%s", diff)
	}
}

func TestLoadModelMissing(t *testing.T) {
	s := store.New(fsutil.NewMemoryFileSystem(), timeutil.NewMockClock(time.Now()))
	if _, err := LoadModel(s, "models/none.gob"); err == nil {
		t.Error("expected error for missing model")
	}
}

func TestSaveMetricsLayout(t *testing.T) {
	s := store.New(fsutil.NewMemoryFileSystem(), timeutil.NewMockClock(time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)))

	path, err := SaveMetrics(s, "models", Metrics{MAE: 1.5, RMSE: 2, R2: 0.75})
	if err != nil {
		t.Fatalf("SaveMetrics: %v", err)
	}

	tbl, err := s.LoadTable(path)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.NumRows() != 3 {
		t.Fatalf("got %d metric rows, want 3", tbl.NumRows())
	}
	if tbl.Cell(0, "metric") != "MAE" || tbl.Cell(0, "value") != "1.5" {
		t.Errorf("first row = %q/%q", tbl.Cell(0, "metric"), tbl.Cell(0, "value"))
	}
	if tbl.Cell(2, "metric") != "R2" || tbl.Cell(2, "value") != "0.75" {
		t.Errorf("third row = %q/%q", tbl.Cell(2, "metric"), tbl.Cell(2, "value"))
	}
}
