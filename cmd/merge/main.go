// Command merge cleans the newest raw transit and weather snapshots and
// joins them into a processed table ready for training.
package main

import (
	"errors"
	"flag"
	"log"
	"time"

	"github.com/banshee-data/delay.report/internal/collect"
	"github.com/banshee-data/delay.report/internal/config"
	"github.com/banshee-data/delay.report/internal/pipeline"
	"github.com/banshee-data/delay.report/internal/store"
)

var configPath = flag.String("config", "", "path to pipeline config JSON")

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

	s := store.NewOS()
	manifest, err := store.OpenManifest(cfg.GetManifestPath())
	if err != nil {
		log.Fatalf("open manifest: %v", err)
	}
	defer manifest.Close()

	transitPath, err := store.LatestArtifact(s, manifest, store.StageCollectTransit, cfg.GetRawDir(), collect.TransitPrefix, ".csv")
	if err != nil {
		if errors.Is(err, store.ErrNoArtifacts) {
			log.Fatalf("no transit snapshots in %s; run the collect stage first", cfg.GetRawDir())
		}
		log.Fatalf("resolve transit snapshot: %v", err)
	}
	weatherPath, err := store.LatestArtifact(s, manifest, store.StageCollectWeather, cfg.GetRawDir(), collect.WeatherPrefix, ".csv")
	if err != nil {
		if errors.Is(err, store.ErrNoArtifacts) {
			log.Fatalf("no weather snapshots in %s; run the collect stage first", cfg.GetRawDir())
		}
		log.Fatalf("resolve weather snapshot: %v", err)
	}

	transitBytes, err := s.ReadBytes(transitPath)
	if err != nil {
		log.Fatalf("read %s: %v", transitPath, err)
	}
	transit, err := s.LoadTable(transitPath)
	if err != nil {
		log.Fatalf("load %s: %v", transitPath, err)
	}
	weather, err := s.LoadTable(weatherPath)
	if err != nil {
		log.Fatalf("load %s: %v", weatherPath, err)
	}

	merged := pipeline.Merge(pipeline.CleanTransit(transit), pipeline.CleanWeather(weather))
	if merged.NumRows() == 0 {
		log.Fatalf("merge of %s and %s produced no rows", transitPath, weatherPath)
	}

	outPath, err := s.SaveTable(cfg.GetProcessedDir(), pipeline.MergedPrefix, merged)
	if err != nil {
		log.Fatalf("save merged table: %v", err)
	}

	_, err = manifest.RecordRun(store.Run{
		Stage:       store.StageMerge,
		InputPath:   transitPath + ";" + weatherPath,
		InputSHA256: store.HashBytes(transitBytes),
		OutputPath:  outPath,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		log.Printf("record merge run: %v", err)
	}

	log.Printf("merged %d rows into %s", merged.NumRows(), outPath)
}
