// Package dashboard serves the analytics UI: pipeline overview, model
// performance, and a processed-data preview. Every page degrades to an
// explanatory message when the stage that feeds it has not run yet.
package dashboard

import (
	"fmt"
	"html"
	"math"
	"math/rand"
	"net/http"
	"strconv"

	"github.com/banshee-data/delay.report/internal/forest"
	"github.com/banshee-data/delay.report/internal/monitoring"
	"github.com/banshee-data/delay.report/internal/pipeline"
	"github.com/banshee-data/delay.report/internal/store"
	"github.com/banshee-data/delay.report/internal/table"
)

// PreviewRows bounds the data preview page.
const PreviewRows = 50

// maxScatterPoints bounds the prediction chart payload.
const maxScatterPoints = 500

// Server holds the artifact stores the dashboard reads from. Manifest may be
// nil; resolution then falls back to directory scans.
type Server struct {
	Store        *store.Store
	Manifest     *store.Manifest
	ProcessedDir string
	ModelsDir    string
	Seed         int64
}

// New builds a dashboard server.
func New(s *store.Store, m *store.Manifest, processedDir, modelsDir string, seed int64) *Server {
	return &Server{Store: s, Manifest: m, ProcessedDir: processedDir, ModelsDir: modelsDir, Seed: seed}
}

// Handler returns the dashboard route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleOverview)
	mux.HandleFunc("/performance", s.handlePerformance)
	mux.HandleFunc("/data", s.handleData)
	mux.HandleFunc("/charts/predictions", s.handlePredictionsChart)
	mux.HandleFunc("/charts/importances", s.handleImportancesChart)
	mux.HandleFunc("/api/status", s.handleAPIStatus)
	mux.HandleFunc("/api/metrics", s.handleAPIMetrics)
	mux.HandleFunc("/api/runs", s.handleAPIRuns)
	return mux
}

func (s *Server) latestProcessed() (*table.Table, string, error) {
	path, err := store.LatestArtifact(s.Store, s.Manifest, store.StageMerge, s.ProcessedDir, pipeline.MergedPrefix, ".csv")
	if err != nil {
		return nil, "", err
	}
	t, err := s.Store.LoadTable(path)
	if err != nil {
		return nil, "", err
	}
	return t, path, nil
}

func (s *Server) latestModel() (*forest.Forest, string, error) {
	path, err := store.LatestArtifact(s.Store, s.Manifest, store.StageTrain, s.ModelsDir, forest.ModelPrefix, ".gob")
	if err != nil {
		return nil, "", err
	}
	f, err := forest.LoadModel(s.Store, path)
	if err != nil {
		return nil, "", err
	}
	return f, path, nil
}

func (s *Server) latestMetrics() (forest.Metrics, error) {
	path, err := s.Store.LatestFile(s.ModelsDir, forest.MetricsPrefix, ".csv")
	if err != nil {
		return forest.Metrics{}, err
	}
	t, err := s.Store.LoadTable(path)
	if err != nil {
		return forest.Metrics{}, err
	}

	var m forest.Metrics
	for i := 0; i < t.NumRows(); i++ {
		v, err := strconv.ParseFloat(t.Cell(i, "value"), 64)
		if err != nil {
			continue
		}
		switch t.Cell(i, "metric") {
		case "MAE":
			m.MAE = v
		case "RMSE":
			m.RMSE = v
		case "R2":
			m.R2 = v
		}
	}
	return m, nil
}

// handleOverview reports which pipeline stages have produced artifacts.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	dataStatus := "no processed data yet; run the merge stage"
	if t, path, err := s.latestProcessed(); err == nil {
		dataStatus = fmt.Sprintf("%d rows in %s", t.NumRows(), path)
	}

	modelStatus := "no trained model yet; run the train stage"
	if _, path, err := s.latestModel(); err == nil {
		modelStatus = fmt.Sprintf("model at %s", path)
	}

	writeHTML(w, fmt.Sprintf(overviewHTML, html.EscapeString(dataStatus), html.EscapeString(modelStatus)))
}

// handlePerformance shows the metric cards with the charts inlined below.
func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	m, err := s.latestMetrics()
	if err != nil {
		writeHTML(w, fmt.Sprintf(messageHTML, "Model Performance",
			"No evaluation metrics yet. Run the train stage first."))
		return
	}

	r2 := strconv.FormatFloat(m.R2, 'f', 3, 64)
	if math.IsNaN(m.R2) {
		r2 = "n/a (constant target)"
	}

	importancesNote := ""
	if f, _, err := s.latestModel(); err != nil || !f.HasImportances() {
		importancesNote = "<p>The current model carries no feature importances; that chart is skipped.</p>"
	}

	writeHTML(w, fmt.Sprintf(performanceHTML,
		strconv.FormatFloat(m.MAE, 'f', 3, 64),
		strconv.FormatFloat(m.RMSE, 'f', 3, 64),
		r2,
		importancesNote,
	))
}

// handleData previews the head of the latest processed table.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	t, path, err := s.latestProcessed()
	if err != nil {
		writeHTML(w, fmt.Sprintf(messageHTML, "Data Preview",
			"No processed data yet. Run the collect and merge stages first."))
		return
	}

	head := t.Head(PreviewRows)

	var rows string
	cells := func(tag string, vals []string) string {
		out := "<tr>"
		for _, v := range vals {
			out += "<" + tag + ">" + html.EscapeString(v) + "</" + tag + ">"
		}
		return out + "</tr>\n"
	}
	rows += cells("th", head.Cols)
	for _, row := range head.Rows {
		rows += cells("td", row)
	}

	caption := fmt.Sprintf("first %d of %d rows from %s", head.NumRows(), t.NumRows(), path)
	writeHTML(w, fmt.Sprintf(dataHTML, html.EscapeString(caption), rows))
}

// predictionSeries recomputes predictions for the latest processed table
// using the latest model.
func (s *Server) predictionSeries() (yTrue, yPred []float64, err error) {
	f, _, err := s.latestModel()
	if err != nil {
		return nil, nil, err
	}
	t, _, err := s.latestProcessed()
	if err != nil {
		return nil, nil, err
	}

	ds, err := forest.Prepare(t, rand.New(rand.NewSource(s.Seed)))
	if err != nil {
		return nil, nil, err
	}

	x := forest.FeatureMatrix(t, f.FeatureNames)
	yPred = f.Predict(x)
	yTrue = ds.Y

	if len(yTrue) > maxScatterPoints {
		yTrue = yTrue[:maxScatterPoints]
		yPred = yPred[:maxScatterPoints]
	}
	return yTrue, yPred, nil
}

func writeHTML(w http.ResponseWriter, doc string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(doc)); err != nil {
		monitoring.Warnf("write dashboard response: %v", err)
	}
}

func writeChartError(w http.ResponseWriter, status int, msg string) {
	http.Error(w, msg, status)
}
