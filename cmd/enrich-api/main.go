// Package main provides the enrichment API server entrypoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/partly/enrichment-engine/internal/config"
	"github.com/partly/enrichment-engine/internal/crawl"
	"github.com/partly/enrichment-engine/internal/datasheet"
	"github.com/partly/enrichment-engine/internal/discovery"
	"github.com/partly/enrichment-engine/internal/extract"
	"github.com/partly/enrichment-engine/internal/llm"
	"github.com/partly/enrichment-engine/internal/normalize"
	"github.com/partly/enrichment-engine/internal/observability"
	"github.com/partly/enrichment-engine/internal/pipeline"
	"github.com/partly/enrichment-engine/internal/search"
	"github.com/partly/enrichment-engine/internal/storage"
	"github.com/partly/enrichment-engine/internal/synthesize"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "enrich-api",
	})

	store := storage.NewStore(cfg.Storage, logger)
	searcher := search.NewClient(cfg.Search, logger)
	generator := llm.NewClient(cfg.LLM, logger)
	crawler := crawl.NewService(cfg.Crawler, logger)
	defer crawler.Close()

	svc := pipeline.NewService(pipeline.Deps{
		Discoverer:  discovery.NewService(searcher, logger),
		Crawler:     crawler,
		Extractor:   extract.New(logger),
		Datasheets:  datasheet.NewService(generator, cfg.Crawler.UserAgent, logger),
		Normalizer:  normalize.NewService(store, logger),
		Synthesizer: synthesize.NewService(generator, logger),
		Cache:       store,
	}, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      NewRouter(logger, svc, cfg.Server),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}
