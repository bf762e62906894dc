package dashboard

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// handlePredictionsChart renders predicted versus actual delay as a scatter
// with a perfect-prediction reference line.
func (s *Server) handlePredictionsChart(w http.ResponseWriter, r *http.Request) {
	yTrue, yPred, err := s.predictionSeries()
	if err != nil {
		writeChartError(w, http.StatusNotFound, fmt.Sprintf("no prediction data: %v", err))
		return
	}

	pts := make([]opts.ScatterData, 0, len(yTrue))
	lo, hi := yTrue[0], yTrue[0]
	for i := range yTrue {
		pts = append(pts, opts.ScatterData{Value: []interface{}{yTrue[i], yPred[i]}})
		lo = min(lo, min(yTrue[i], yPred[i]))
		hi = max(hi, max(yTrue[i], yPred[i]))
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Actual vs Predicted", Width: "700px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Actual vs Predicted Delay", Subtitle: fmt.Sprintf("%d samples", len(pts))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: lo, Max: hi, Name: "Actual (min)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: lo, Max: hi, Name: "Predicted (min)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("predictions", pts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	line := charts.NewLine()
	line.SetXAxis([]float64{lo, hi}).AddSeries("perfect prediction", []opts.LineData{{Value: lo}, {Value: hi}})
	scatter.Overlap(line)

	renderChart(w, scatter)
}

// handleImportancesChart renders the model's top features as a horizontal
// bar chart.
func (s *Server) handleImportancesChart(w http.ResponseWriter, r *http.Request) {
	f, _, err := s.latestModel()
	if err != nil {
		writeChartError(w, http.StatusNotFound, fmt.Sprintf("no trained model: %v", err))
		return
	}
	if !f.HasImportances() {
		writeChartError(w, http.StatusNotFound, "model carries no feature importances")
		return
	}

	names, scores := f.TopFeatures(10)

	// Reverse so the strongest feature renders at the top.
	labels := make([]string, len(names))
	vals := make([]opts.BarData, len(scores))
	for i := range names {
		j := len(names) - 1 - i
		labels[i] = names[j]
		vals[i] = opts.BarData{Value: scores[j]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Feature Importances", Width: "700px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Feature Importances", Subtitle: fmt.Sprintf("top %d features", len(labels))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).AddSeries("importance", vals)
	bar.XYReversal()

	renderChart(w, bar)
}

type renderable interface {
	Render(w io.Writer) error
}

func renderChart(w http.ResponseWriter, c renderable) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		writeChartError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
