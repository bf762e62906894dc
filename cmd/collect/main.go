// Command collect fetches one transit and one weather snapshot into the raw
// artifact store, or keeps polling when an interval is set.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/delay.report/internal/collect"
	"github.com/banshee-data/delay.report/internal/config"
	"github.com/banshee-data/delay.report/internal/store"
	"github.com/banshee-data/delay.report/internal/timeutil"
)

var (
	configPath = flag.String("config", "", "path to pipeline config JSON")
	interval   = flag.Duration("interval", 0, "poll interval (0 runs one cycle and exits; overrides config)")
)

func main() {
	flag.Parse()

	cfg := config.EmptyPipelineConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadPipelineConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	pollEvery := cfg.GetPollInterval()
	if *interval > 0 {
		pollEvery = *interval
	}

	s := store.NewOS()
	manifest, err := store.OpenManifest(cfg.GetManifestPath())
	if err != nil {
		log.Fatalf("open manifest: %v", err)
	}
	defer manifest.Close()

	client := &http.Client{Timeout: cfg.GetFetchTimeout()}
	transit := collect.NewTransitCollector(client, cfg.GetTransitFeedURL(), cfg.GetTransitAgency(), config.TransitAPIKey(), s, cfg.GetRawDir())
	weather := collect.NewWeatherCollector(client, cfg.GetWeatherURL(), cfg.GetWeatherCity(), config.WeatherAPIKey(), s, cfg.GetRawDir())

	cycle := func(ctx context.Context) error {
		if path, err := transit.Collect(ctx); err != nil {
			log.Printf("transit collection failed: %v", err)
		} else if path != "" {
			recordCollect(manifest, s, store.StageCollectTransit, cfg.GetTransitFeedURL(), path)
		}

		if path, err := weather.Collect(ctx); err != nil {
			log.Printf("weather collection failed: %v", err)
		} else if path != "" {
			recordCollect(manifest, s, store.StageCollectWeather, cfg.GetWeatherURL(), path)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := &collect.Poller{Clock: timeutil.RealClock{}, Interval: pollEvery, Cycle: cycle}
	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("poll loop: %v", err)
	}
	log.Print("collector stopped")
}

// recordCollect writes the manifest entry for one saved snapshot. Manifest
// failures are logged rather than fatal so a collection cycle's artifact is
// never lost to bookkeeping.
func recordCollect(m *store.Manifest, s *store.Store, stage, sourceURL, path string) {
	data, err := s.ReadBytes(path)
	if err != nil {
		log.Printf("hash %s artifact: %v", stage, err)
		return
	}
	_, err = m.RecordRun(store.Run{
		Stage:       stage,
		InputPath:   sourceURL,
		InputSHA256: store.HashBytes(data),
		OutputPath:  path,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		log.Printf("record %s run: %v", stage, err)
	}
}
