// Command evaluate re-scores the newest model against the newest processed
// table and renders the report figures.
package main

import (
	"errors"
	"flag"
	"log"
	"math/rand"

	"github.com/banshee-data/delay.report/internal/config"
	"github.com/banshee-data/delay.report/internal/forest"
	"github.com/banshee-data/delay.report/internal/pipeline"
	"github.com/banshee-data/delay.report/internal/report"
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

	modelPath, err := store.LatestArtifact(s, manifest, store.StageTrain, cfg.GetModelsDir(), forest.ModelPrefix, ".gob")
	if err != nil {
		if errors.Is(err, store.ErrNoArtifacts) {
			log.Fatalf("no models in %s; run the train stage first", cfg.GetModelsDir())
		}
		log.Fatalf("resolve model: %v", err)
	}
	model, err := forest.LoadModel(s, modelPath)
	if err != nil {
		log.Fatalf("load model: %v", err)
	}

	dataPath, err := store.LatestArtifact(s, manifest, store.StageMerge, cfg.GetProcessedDir(), pipeline.MergedPrefix, ".csv")
	if err != nil {
		if errors.Is(err, store.ErrNoArtifacts) {
			log.Fatalf("no processed tables in %s; run the merge stage first", cfg.GetProcessedDir())
		}
		log.Fatalf("resolve processed table: %v", err)
	}
	tbl, err := s.LoadTable(dataPath)
	if err != nil {
		log.Fatalf("load %s: %v", dataPath, err)
	}

	// Scores the whole table, not the training stage's held-out split. The
	// model and table are resolved independently and may not correspond to
	// the same run; the manifest closes that gap when both stages recorded.
	ds, err := forest.Prepare(tbl, rand.New(rand.NewSource(cfg.GetSeed())))
	if err != nil {
		log.Fatalf("prepare data from %s: %v", dataPath, err)
	}

	preds := model.Predict(forest.FeatureMatrix(tbl, model.FeatureNames))
	metrics, err := forest.Evaluate(ds.Y, preds)
	if err != nil {
		log.Fatalf("evaluate model: %v", err)
	}
	log.Printf("model %s on %s (%d rows): %s", modelPath, dataPath, tbl.NumRows(), metrics)

	scatterPath, err := report.SavePredictionScatter(s, cfg.GetReportsDir(), ds.Y, preds)
	if err != nil {
		log.Fatalf("render prediction scatter: %v", err)
	}
	log.Printf("wrote %s", scatterPath)

	importancesPath, err := report.SaveFeatureImportances(s, cfg.GetReportsDir(), model)
	if err != nil {
		log.Printf("skipping importance chart: %v", err)
	} else {
		log.Printf("wrote %s", importancesPath)
	}
}
