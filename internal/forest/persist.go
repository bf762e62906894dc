package forest

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"strconv"

	"github.com/banshee-data/delay.report/internal/store"
	"github.com/banshee-data/delay.report/internal/table"
)

// Artifact filename prefixes in the model store.
const (
	ModelPrefix   = "delay_predictor"
	MetricsPrefix = "model_metrics"
)

// SaveModel gob-encodes a fitted forest into a fresh timestamped artifact
// and returns its path.
func SaveModel(s *store.Store, dir string, f *Forest) (string, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(f); err != nil {
		return "", fmt.Errorf("encode model: %w", err)
	}
	return s.SaveBytes(dir, ModelPrefix, ".gob", buf.Bytes())
}

// LoadModel decodes a forest artifact.
func LoadModel(s *store.Store, path string) (*Forest, error) {
	data, err := s.ReadBytes(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	var f Forest
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	return &f, nil
}

// MetricsTable renders metrics as the two-column CSV layout persisted next
// to each model.
func MetricsTable(m Metrics) *table.Table {
	t := table.New("metric", "value")
	for _, row := range [][2]string{
		{"MAE", strconv.FormatFloat(m.MAE, 'f', -1, 64)},
		{"RMSE", strconv.FormatFloat(m.RMSE, 'f', -1, 64)},
		{"R2", strconv.FormatFloat(m.R2, 'f', -1, 64)},
	} {
		_ = t.AppendRow([]string{row[0], row[1]})
	}
	return t
}

// SaveMetrics writes the companion metrics CSV for a model.
func SaveMetrics(s *store.Store, dir string, m Metrics) (string, error) {
	return s.SaveTable(dir, MetricsPrefix, MetricsTable(m))
}
