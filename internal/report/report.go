// Package report renders static PNG figures summarizing a trained model:
// predicted-versus-actual scatter and top feature importances.
package report

import (
	"bytes"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/delay.report/internal/forest"
	"github.com/banshee-data/delay.report/internal/store"
)

// Artifact name prefixes for the rendered figures.
const (
	ScatterPrefix     = "actual_vs_predicted"
	ImportancesPrefix = "feature_importances"
)

// TopFeatureCount bounds the importance chart.
const TopFeatureCount = 10

// SavePredictionScatter renders actual versus predicted delays with a
// perfect-prediction reference line and writes the PNG into dir.
func SavePredictionScatter(s *store.Store, dir string, yTrue, yPred []float64) (string, error) {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return "", fmt.Errorf("scatter needs matching non-empty series, got %d/%d", len(yTrue), len(yPred))
	}

	p := plot.New()
	p.Title.Text = "Actual vs Predicted Delay"
	p.X.Label.Text = "Actual delay (minutes)"
	p.Y.Label.Text = "Predicted delay (minutes)"

	pts := make(plotter.XYs, len(yTrue))
	lo, hi := yTrue[0], yTrue[0]
	for i := range yTrue {
		pts[i].X = yTrue[i]
		pts[i].Y = yPred[i]
		lo = min(lo, min(yTrue[i], yPred[i]))
		hi = max(hi, max(yTrue[i], yPred[i]))
	}

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return "", fmt.Errorf("build scatter: %w", err)
	}
	p.Add(sc)

	ref, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return "", fmt.Errorf("build reference line: %w", err)
	}
	ref.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(ref)
	p.Legend.Add("perfect prediction", ref)

	return savePNG(s, dir, ScatterPrefix, p, 8*vg.Inch, 6*vg.Inch)
}

// SaveFeatureImportances renders a horizontal bar chart of the model's top
// features and writes the PNG into dir. Forests without importances yield an
// error the caller may treat as a skip.
func SaveFeatureImportances(s *store.Store, dir string, f *forest.Forest) (string, error) {
	if !f.HasImportances() {
		return "", fmt.Errorf("model carries no feature importances")
	}

	names, scores := f.TopFeatures(TopFeatureCount)

	p := plot.New()
	p.Title.Text = "Feature Importances"
	p.X.Label.Text = "Importance"

	// Reverse so the strongest feature lands at the top of the chart.
	vals := make(plotter.Values, len(scores))
	labels := make([]string, len(names))
	for i := range scores {
		j := len(scores) - 1 - i
		vals[i] = scores[j]
		labels[i] = names[j]
	}

	bars, err := plotter.NewBarChart(vals, vg.Points(18))
	if err != nil {
		return "", fmt.Errorf("build bar chart: %w", err)
	}
	bars.Horizontal = true
	p.Add(bars)
	p.NominalY(labels...)

	return savePNG(s, dir, ImportancesPrefix, p, 8*vg.Inch, 6*vg.Inch)
}

// savePNG renders the plot to memory and stores it as a timestamped PNG, so
// figure artifacts follow the same naming and filesystem rules as the rest.
func savePNG(s *store.Store, dir, prefix string, p *plot.Plot, w, h vg.Length) (string, error) {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return "", fmt.Errorf("render %s: %w", prefix, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("encode %s: %w", prefix, err)
	}
	return s.SaveBytes(dir, prefix, ".png", buf.Bytes())
}
