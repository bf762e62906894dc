package dashboard

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/banshee-data/delay.report/internal/forest"
	"github.com/banshee-data/delay.report/internal/httputil"
	"github.com/banshee-data/delay.report/internal/store"
)

// statusResponse summarizes the pipeline's latest artifacts.
type statusResponse struct {
	ProcessedPath string `json:"processed_path,omitempty"`
	ProcessedRows int    `json:"processed_rows"`
	ModelPath     string `json:"model_path,omitempty"`
	HasModel      bool   `json:"has_model"`
}

// metricsResponse is the JSON rendering of the latest evaluation. R2 is a
// string because it may be NaN for constant targets.
type metricsResponse struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	R2   string  `json:"r2"`
}

// runResponse is one manifest entry.
type runResponse struct {
	ID          string    `json:"id"`
	Stage       string    `json:"stage"`
	InputPath   string    `json:"input_path"`
	InputSHA256 string    `json:"input_sha256"`
	OutputPath  string    `json:"output_path"`
	CreatedAt   time.Time `json:"created_at"`
}

var validStages = map[string]bool{
	store.StageCollectTransit: true,
	store.StageCollectWeather: true,
	store.StageMerge:          true,
	store.StageTrain:          true,
}

// handleAPIStatus reports which artifacts exist without failing when the
// pipeline has not run.
func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	var resp statusResponse
	if t, path, err := s.latestProcessed(); err == nil {
		resp.ProcessedPath = path
		resp.ProcessedRows = t.NumRows()
	}
	if _, path, err := s.latestModel(); err == nil {
		resp.ModelPath = path
		resp.HasModel = true
	}
	httputil.WriteJSONOK(w, resp)
}

// handleAPIMetrics serves the latest evaluation metrics.
func (s *Server) handleAPIMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	m, err := s.latestMetrics()
	if err != nil {
		httputil.NotFound(w, "no evaluation metrics recorded yet")
		return
	}

	resp := metricsResponse{MAE: m.MAE, RMSE: m.RMSE, R2: formatR2(m)}
	httputil.WriteJSONOK(w, resp)
}

// handleAPIRuns lists the manifest history for one stage.
func (s *Server) handleAPIRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.Manifest == nil {
		httputil.NotFound(w, "no run manifest configured")
		return
	}

	stage := r.URL.Query().Get("stage")
	if !validStages[stage] {
		httputil.WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("unknown stage %q", stage))
		return
	}

	runs, err := s.Manifest.Runs(stage)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, runResponse{
			ID:          run.ID,
			Stage:       run.Stage,
			InputPath:   run.InputPath,
			InputSHA256: run.InputSHA256,
			OutputPath:  run.OutputPath,
			CreatedAt:   run.CreatedAt,
		})
	}
	httputil.WriteJSONOK(w, resp)
}

func formatR2(m forest.Metrics) string {
	if math.IsNaN(m.R2) {
		return "NaN"
	}
	return fmt.Sprintf("%g", m.R2)
}
