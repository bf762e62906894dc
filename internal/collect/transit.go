package collect

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/banshee-data/delay.report/internal/monitoring"
	"github.com/banshee-data/delay.report/internal/store"
	"github.com/banshee-data/delay.report/internal/table"
)

// TransitPrefix names raw transit artifacts.
const TransitPrefix = "transit_raw"

// TransitCollector fetches the vehicle-positions feed and writes raw
// snapshots into the artifact store.
type TransitCollector struct {
	Client   *http.Client
	URL      string
	Agency   string
	APIKey   string
	Store    *store.Store
	RawDir   string
	Decoders []Decoder
}

// NewTransitCollector builds a collector with the standard decoder chain,
// JSON first and GTFS-realtime protobuf for everything else.
func NewTransitCollector(client *http.Client, url, agency, apiKey string, s *store.Store, rawDir string) *TransitCollector {
	return &TransitCollector{
		Client:   client,
		URL:      url,
		Agency:   agency,
		APIKey:   apiKey,
		Store:    s,
		RawDir:   rawDir,
		Decoders: []Decoder{JSONEntityDecoder{}, GTFSRealtimeDecoder{}},
	}
}

// Fetch retrieves one feed snapshot and decodes it into the unified table.
// Transport and upstream failures are logged and reported as a nil table so
// a scheduled run skips the cycle instead of dying.
func (c *TransitCollector) Fetch(ctx context.Context) (*table.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build transit request: %w", err)
	}
	q := req.URL.Query()
	if c.APIKey != "" {
		q.Set("api_key", c.APIKey)
	}
	if c.Agency != "" {
		q.Set("agency", c.Agency)
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.Client.Do(req)
	if err != nil {
		monitoring.Warnf("transit fetch failed: %v", err)
		return nil, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		monitoring.Warnf("transit read failed: %v", err)
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		monitoring.Warnf("transit fetch returned %s", resp.Status)
		return nil, nil
	}

	contentType := resp.Header.Get("Content-Type")
	for _, d := range c.Decoders {
		if !d.CanDecode(contentType) {
			continue
		}
		t, err := d.Decode(body)
		if err == nil {
			return t, nil
		}
		monitoring.Warnf("transit decode (%T, content type %q) failed: %v", d, contentType, err)
		break
	}

	// Undecodable payloads are kept verbatim so nothing is lost; a later
	// decoder fix can replay them.
	ext := ".pb"
	if strings.Contains(contentType, "json") {
		ext = ".json"
	}
	path, saveErr := c.Store.SaveBytes(c.RawDir, TransitPrefix, ext, body)
	if saveErr != nil {
		return nil, fmt.Errorf("save undecoded transit payload: %w", saveErr)
	}
	monitoring.Logf("saved undecoded transit payload to %s", path)
	return nil, nil
}

// Collect runs one fetch-and-save cycle. It returns the saved artifact path,
// or "" when the cycle produced nothing to save.
func (c *TransitCollector) Collect(ctx context.Context) (string, error) {
	t, err := c.Fetch(ctx)
	if err != nil {
		return "", err
	}
	if t == nil || t.NumRows() == 0 {
		monitoring.Logf("transit cycle produced no vehicle rows")
		return "", nil
	}

	path, err := c.Store.SaveTable(c.RawDir, TransitPrefix, t)
	if err != nil {
		return "", fmt.Errorf("save transit snapshot: %w", err)
	}
	monitoring.Logf("saved %d vehicle rows to %s", t.NumRows(), path)
	return path, nil
}
