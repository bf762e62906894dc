// Command train fits the delay model on the newest processed table, holds
// out a test fraction, and persists the model with its evaluation metrics.
package main

import (
	"errors"
	"flag"
	"log"
	"math/rand"
	"time"

	"github.com/banshee-data/delay.report/internal/config"
	"github.com/banshee-data/delay.report/internal/forest"
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

	dataPath, err := store.LatestArtifact(s, manifest, store.StageMerge, cfg.GetProcessedDir(), pipeline.MergedPrefix, ".csv")
	if err != nil {
		if errors.Is(err, store.ErrNoArtifacts) {
			log.Fatalf("no processed tables in %s; run the merge stage first", cfg.GetProcessedDir())
		}
		log.Fatalf("resolve processed table: %v", err)
	}

	dataBytes, err := s.ReadBytes(dataPath)
	if err != nil {
		log.Fatalf("read %s: %v", dataPath, err)
	}
	tbl, err := s.LoadTable(dataPath)
	if err != nil {
		log.Fatalf("load %s: %v", dataPath, err)
	}

	seed := cfg.GetSeed()
	rng := rand.New(rand.NewSource(seed))

	ds, err := forest.Prepare(tbl, rng)
	if err != nil {
		log.Fatalf("prepare training data from %s: %v", dataPath, err)
	}
	if ds.SynthesizedTarget {
		log.Printf("no %s column in %s; training on a synthesized placeholder target", forest.TargetColumn, dataPath)
	}

	trainX, testX, trainY, testY, err := forest.Split(ds, cfg.GetTestFraction(), rng)
	if err != nil {
		log.Fatalf("split dataset: %v", err)
	}

	started := time.Now()
	model, err := forest.Fit(trainX, trainY, ds.FeatureNames, forest.Options{
		Estimators: cfg.GetEstimators(),
		Seed:       seed,
	})
	if err != nil {
		log.Fatalf("fit model: %v", err)
	}
	log.Printf("fitted %d trees on %d rows (%d features) in %s",
		cfg.GetEstimators(), len(trainX), len(ds.FeatureNames), time.Since(started).Round(time.Millisecond))

	metrics, err := forest.Evaluate(testY, model.Predict(testX))
	if err != nil {
		log.Fatalf("evaluate model: %v", err)
	}
	log.Printf("held-out metrics: %s", metrics)

	modelPath, err := forest.SaveModel(s, cfg.GetModelsDir(), model)
	if err != nil {
		log.Fatalf("save model: %v", err)
	}
	if _, err := forest.SaveMetrics(s, cfg.GetModelsDir(), metrics); err != nil {
		log.Fatalf("save metrics: %v", err)
	}

	_, err = manifest.RecordRun(store.Run{
		Stage:       store.StageTrain,
		InputPath:   dataPath,
		InputSHA256: store.HashBytes(dataBytes),
		OutputPath:  modelPath,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		log.Printf("record train run: %v", err)
	}

	log.Printf("saved model to %s", modelPath)
}
