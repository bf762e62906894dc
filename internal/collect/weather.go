package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/banshee-data/delay.report/internal/monitoring"
	"github.com/banshee-data/delay.report/internal/store"
	"github.com/banshee-data/delay.report/internal/table"
)

// WeatherPrefix names raw weather artifacts.
const WeatherPrefix = "weather_raw"

// weatherCols is the single-row layout of a conditions snapshot. dt is the
// upstream observation time in unix seconds.
var weatherCols = []string{"city", "dt", "temp", "humidity", "pressure", "wind_speed", "weather_main", "weather_description"}

// openWeatherResponse mirrors the fields we keep from the current-conditions
// endpoint.
type openWeatherResponse struct {
	Name string `json:"name"`
	Dt   int64  `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
		Pressure float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

// WeatherCollector fetches current conditions for one city and writes raw
// snapshots into the artifact store.
type WeatherCollector struct {
	Client *http.Client
	URL    string
	City   string
	APIKey string
	Store  *store.Store
	RawDir string
}

// NewWeatherCollector builds a conditions collector.
func NewWeatherCollector(client *http.Client, url, city, apiKey string, s *store.Store, rawDir string) *WeatherCollector {
	return &WeatherCollector{Client: client, URL: url, City: city, APIKey: apiKey, Store: s, RawDir: rawDir}
}

// Fetch retrieves one conditions snapshot as a single-row table. Transport
// and upstream failures are logged and reported as a nil table.
func (c *WeatherCollector) Fetch(ctx context.Context) (*table.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request: %w", err)
	}
	q := req.URL.Query()
	q.Set("q", c.City)
	if c.APIKey != "" {
		q.Set("appid", c.APIKey)
	}
	q.Set("units", "metric")
	req.URL.RawQuery = q.Encode()

	resp, err := c.Client.Do(req)
	if err != nil {
		monitoring.Warnf("weather fetch failed: %v", err)
		return nil, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		monitoring.Warnf("weather read failed: %v", err)
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		monitoring.Warnf("weather fetch returned %s", resp.Status)
		return nil, nil
	}

	var w openWeatherResponse
	if err := json.Unmarshal(body, &w); err != nil {
		monitoring.Warnf("weather decode failed: %v", err)
		return nil, nil
	}

	t := table.New(weatherCols...)
	row := []string{
		w.Name,
		strconv.FormatInt(w.Dt, 10),
		strconv.FormatFloat(w.Main.Temp, 'f', -1, 64),
		strconv.FormatFloat(w.Main.Humidity, 'f', -1, 64),
		strconv.FormatFloat(w.Main.Pressure, 'f', -1, 64),
		strconv.FormatFloat(w.Wind.Speed, 'f', -1, 64),
		"", "",
	}
	if len(w.Weather) > 0 {
		row[6] = w.Weather[0].Main
		row[7] = w.Weather[0].Description
	}
	if err := t.AppendRow(row); err != nil {
		return nil, err
	}
	return t, nil
}

// Collect runs one fetch-and-save cycle. It returns the saved artifact path,
// or "" when the cycle produced nothing to save.
func (c *WeatherCollector) Collect(ctx context.Context) (string, error) {
	t, err := c.Fetch(ctx)
	if err != nil {
		return "", err
	}
	if t == nil || t.NumRows() == 0 {
		monitoring.Logf("weather cycle produced no rows")
		return "", nil
	}

	path, err := c.Store.SaveTable(c.RawDir, WeatherPrefix, t)
	if err != nil {
		return "", fmt.Errorf("save weather snapshot: %w", err)
	}
	monitoring.Logf("saved conditions for %q to %s", c.City, path)
	return path, nil
}
