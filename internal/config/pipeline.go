// Package config loads pipeline settings from a JSON file. Fields omitted
// from the file keep their defaults via the Get* accessors, so partial
// configs are safe. API keys never live in the file; they come from the
// process environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Environment variables holding the upstream API keys.
const (
	TransitAPIKeyEnv = "TRANSIT_API_KEY"
	WeatherAPIKeyEnv = "WEATHER_API_KEY"
)

// PipelineConfig represents the root configuration for the collection,
// merge, training and reporting stages.
type PipelineConfig struct {
	// Upstream endpoints
	TransitFeedURL *string `json:"transit_feed_url,omitempty"`
	TransitAgency  *string `json:"transit_agency,omitempty"`
	WeatherURL     *string `json:"weather_url,omitempty"`
	WeatherCity    *string `json:"weather_city,omitempty"`
	FetchTimeout   *string `json:"fetch_timeout,omitempty"` // duration string like "10s"
	PollInterval   *string `json:"poll_interval,omitempty"` // empty means one-shot

	// Artifact directories
	RawDir       *string `json:"raw_dir,omitempty"`
	ProcessedDir *string `json:"processed_dir,omitempty"`
	ModelsDir    *string `json:"models_dir,omitempty"`
	ReportsDir   *string `json:"reports_dir,omitempty"`
	ManifestPath *string `json:"manifest_path,omitempty"`

	// Training params
	Estimators   *int     `json:"estimators,omitempty"`
	Seed         *int64   `json:"seed,omitempty"`
	TestFraction *float64 `json:"test_fraction,omitempty"`
}

// EmptyPipelineConfig returns a PipelineConfig with all fields set to nil.
func EmptyPipelineConfig() *PipelineConfig {
	return &PipelineConfig{}
}

// LoadPipelineConfig loads a PipelineConfig from a JSON file. The file must
// have a .json extension and stay under the max file size.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPipelineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *PipelineConfig) Validate() error {
	if c.FetchTimeout != nil && *c.FetchTimeout != "" {
		if _, err := time.ParseDuration(*c.FetchTimeout); err != nil {
			return fmt.Errorf("invalid fetch_timeout '%s': %w", *c.FetchTimeout, err)
		}
	}

	if c.PollInterval != nil && *c.PollInterval != "" {
		if _, err := time.ParseDuration(*c.PollInterval); err != nil {
			return fmt.Errorf("invalid poll_interval '%s': %w", *c.PollInterval, err)
		}
	}

	if c.Estimators != nil && *c.Estimators <= 0 {
		return fmt.Errorf("estimators must be positive, got %d", *c.Estimators)
	}

	if c.TestFraction != nil {
		if *c.TestFraction <= 0 || *c.TestFraction >= 1 {
			return fmt.Errorf("test_fraction must be in (0, 1), got %f", *c.TestFraction)
		}
	}

	return nil
}

// GetTransitFeedURL returns the vehicle-positions endpoint or the default.
func (c *PipelineConfig) GetTransitFeedURL() string {
	if c.TransitFeedURL == nil || *c.TransitFeedURL == "" {
		return "https://api.511.org/transit/vehiclepositions"
	}
	return *c.TransitFeedURL
}

// GetTransitAgency returns the transit agency code or the default.
func (c *PipelineConfig) GetTransitAgency() string {
	if c.TransitAgency == nil || *c.TransitAgency == "" {
		return "SCVTA"
	}
	return *c.TransitAgency
}

// GetWeatherURL returns the current-conditions endpoint or the default.
func (c *PipelineConfig) GetWeatherURL() string {
	if c.WeatherURL == nil || *c.WeatherURL == "" {
		return "https://api.openweathermap.org/data/2.5/weather"
	}
	return *c.WeatherURL
}

// GetWeatherCity returns the city queried for conditions or the default.
func (c *PipelineConfig) GetWeatherCity() string {
	if c.WeatherCity == nil || *c.WeatherCity == "" {
		return "San Jose"
	}
	return *c.WeatherCity
}

// GetFetchTimeout parses and returns the FetchTimeout as a time.Duration.
func (c *PipelineConfig) GetFetchTimeout() time.Duration {
	if c.FetchTimeout == nil || *c.FetchTimeout == "" {
		return 10 * time.Second // default
	}
	d, err := time.ParseDuration(*c.FetchTimeout)
	if err != nil {
		return 10 * time.Second // default on parse error
	}
	return d
}

// GetPollInterval parses and returns the PollInterval. Zero means one-shot.
func (c *PipelineConfig) GetPollInterval() time.Duration {
	if c.PollInterval == nil || *c.PollInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(*c.PollInterval)
	if err != nil {
		return 0
	}
	return d
}

// GetRawDir returns the raw store directory or the default.
func (c *PipelineConfig) GetRawDir() string {
	if c.RawDir == nil || *c.RawDir == "" {
		return "data/raw"
	}
	return *c.RawDir
}

// GetProcessedDir returns the processed store directory or the default.
func (c *PipelineConfig) GetProcessedDir() string {
	if c.ProcessedDir == nil || *c.ProcessedDir == "" {
		return "data/processed"
	}
	return *c.ProcessedDir
}

// GetModelsDir returns the model store directory or the default.
func (c *PipelineConfig) GetModelsDir() string {
	if c.ModelsDir == nil || *c.ModelsDir == "" {
		return "models"
	}
	return *c.ModelsDir
}

// GetReportsDir returns the chart report directory or the default.
func (c *PipelineConfig) GetReportsDir() string {
	if c.ReportsDir == nil || *c.ReportsDir == "" {
		return "reports/figures"
	}
	return *c.ReportsDir
}

// GetManifestPath returns the run manifest database path or the default.
func (c *PipelineConfig) GetManifestPath() string {
	if c.ManifestPath == nil || *c.ManifestPath == "" {
		return "data/manifest.db"
	}
	return *c.ManifestPath
}

// GetEstimators returns the forest size or the default.
func (c *PipelineConfig) GetEstimators() int {
	if c.Estimators == nil {
		return 100 // default
	}
	return *c.Estimators
}

// GetSeed returns the random seed or the default.
func (c *PipelineConfig) GetSeed() int64 {
	if c.Seed == nil {
		return 42 // default
	}
	return *c.Seed
}

// GetTestFraction returns the held-out fraction or the default.
func (c *PipelineConfig) GetTestFraction() float64 {
	if c.TestFraction == nil {
		return 0.2 // default
	}
	return *c.TestFraction
}

// TransitAPIKey reads the transit API key from the environment.
func TransitAPIKey() string {
	return os.Getenv(TransitAPIKeyEnv)
}

// WeatherAPIKey reads the weather API key from the environment.
func WeatherAPIKey() string {
	return os.Getenv(WeatherAPIKeyEnv)
}
