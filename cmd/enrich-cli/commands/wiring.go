package commands

import (
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

// app bundles the wired services behind one teardown.
type app struct {
	cfg      *config.Config
	log      *observability.Logger
	store    *storage.Store
	pipeline *pipeline.Service
	crawler  *crawl.Service
}

// buildApp loads configuration and wires the full pipeline. Call Close
// when done to release the headless browser.
func buildApp() (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	level := cfg.Observability.LogLevel
	if verbose {
		level = "debug"
	}
	log := observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "enrich-cli",
	})

	store := storage.NewStore(cfg.Storage, log)
	searcher := search.NewClient(cfg.Search, log)
	generator := llm.NewClient(cfg.LLM, log)
	crawler := crawl.NewService(cfg.Crawler, log)

	deps := pipeline.Deps{
		Discoverer:  discovery.NewService(searcher, log),
		Crawler:     crawler,
		Extractor:   extract.New(log),
		Datasheets:  datasheet.NewService(generator, cfg.Crawler.UserAgent, log),
		Normalizer:  normalize.NewService(store, log),
		Synthesizer: synthesize.NewService(generator, log),
		Cache:       store,
	}

	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		pipeline: pipeline.NewService(deps, log),
		crawler:  crawler,
	}, nil
}

func (a *app) Close() {
	a.crawler.Close()
}
