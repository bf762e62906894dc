package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.json")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := EmptyPipelineConfig()

	if got := cfg.GetEstimators(); got != 100 {
		t.Errorf("GetEstimators() = %d, want 100", got)
	}
	if got := cfg.GetSeed(); got != 42 {
		t.Errorf("GetSeed() = %d, want 42", got)
	}
	if got := cfg.GetTestFraction(); got != 0.2 {
		t.Errorf("GetTestFraction() = %v, want 0.2", got)
	}
	if got := cfg.GetFetchTimeout(); got != 10*time.Second {
		t.Errorf("GetFetchTimeout() = %v, want 10s", got)
	}
	if got := cfg.GetPollInterval(); got != 0 {
		t.Errorf("GetPollInterval() = %v, want 0", got)
	}
	if got := cfg.GetRawDir(); got != "data/raw" {
		t.Errorf("GetRawDir() = %q", got)
	}
	if got := cfg.GetProcessedDir(); got != "data/processed" {
		t.Errorf("GetProcessedDir() = %q", got)
	}
	if got := cfg.GetModelsDir(); got != "models" {
		t.Errorf("GetModelsDir() = %q", got)
	}
	if got := cfg.GetReportsDir(); got != "reports/figures" {
		t.Errorf("GetReportsDir() = %q", got)
	}
	if got := cfg.GetTransitAgency(); got != "SCVTA" {
		t.Errorf("GetTransitAgency() = %q", got)
	}
}

func TestLoadPartialConfig(t *testing.T) {
	path := writeConfig(t, `{"estimators": 10, "poll_interval": "5m", "weather_city": "Santa Clara"}`)

	cfg, err := LoadPipelineConfig(path)
	if err != nil {
		t.Fatalf("LoadPipelineConfig: %v", err)
	}

	if got := cfg.GetEstimators(); got != 10 {
		t.Errorf("GetEstimators() = %d, want 10", got)
	}
	if got := cfg.GetPollInterval(); got != 5*time.Minute {
		t.Errorf("GetPollInterval() = %v, want 5m", got)
	}
	if got := cfg.GetWeatherCity(); got != "Santa Clara" {
		t.Errorf("GetWeatherCity() = %q", got)
	}
	// Untouched fields keep defaults.
	if got := cfg.GetSeed(); got != 42 {
		t.Errorf("GetSeed() = %d, want 42", got)
	}
}

func TestLoadRejectsBadExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPipelineConfig(path); err == nil {
		t.Error("expected error for non-json extension")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad timeout":    `{"fetch_timeout": "soon"}`,
		"bad interval":   `{"poll_interval": "whenever"}`,
		"zero trees":     `{"estimators": 0}`,
		"fraction high":  `{"test_fraction": 1.0}`,
		"fraction low":   `{"test_fraction": 0}`,
		"malformed json": `{"estimators": `,
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, contents)
			if _, err := LoadPipelineConfig(path); err == nil {
				t.Errorf("expected error for %s", name)
			}
		})
	}
}

func TestAPIKeysFromEnvironment(t *testing.T) {
	t.Setenv(TransitAPIKeyEnv, "transit-key")
	t.Setenv(WeatherAPIKeyEnv, "weather-key")

	if got := TransitAPIKey(); got != "transit-key" {
		t.Errorf("TransitAPIKey() = %q", got)
	}
	if got := WeatherAPIKey(); got != "weather-key" {
		t.Errorf("WeatherAPIKey() = %q", got)
	}
}
