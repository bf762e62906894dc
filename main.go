// The delay.report server hosts the transit delay analytics dashboard over
// the artifact stores the pipeline stages write into.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/delay.report/internal/config"
	"github.com/banshee-data/delay.report/internal/dashboard"
	"github.com/banshee-data/delay.report/internal/store"
	"github.com/banshee-data/delay.report/internal/version"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address")
	configPath = flag.String("config", "", "path to pipeline config JSON")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.EmptyPipelineConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadPipelineConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	s := store.NewOS()

	// The dashboard works without a manifest; resolution falls back to
	// directory scans.
	var manifest *store.Manifest
	m, err := store.OpenManifest(cfg.GetManifestPath())
	if err != nil {
		log.Printf("manifest unavailable, using directory scans: %v", err)
	} else {
		manifest = m
		defer manifest.Close()
	}

	ds := dashboard.New(s, manifest, cfg.GetProcessedDir(), cfg.GetModelsDir(), cfg.GetSeed())

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("got request %q", r.URL.Path)
		ds.Handler().ServeHTTP(w, r)
	})

	server := &http.Server{
		Addr:    *listen,
		Handler: h,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("delay.report %s (%s) listening on %s", version.Version, version.GitSHA, *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
}
