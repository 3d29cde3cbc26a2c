package batch

import (
	"context"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/partly/enrichment-engine/internal/domain"
	"github.com/partly/enrichment-engine/internal/observability"
	"github.com/partly/enrichment-engine/internal/storage"
)

// Enricher runs the full pipeline for one MPN.
type Enricher interface {
	Enrich(ctx context.Context, mpn, manufacturer string) (*domain.FinalResult, error)
}

// AssetCache persists datasheets and images for enriched results. Nil
// disables asset caching.
type AssetCache interface {
	CachePDF(ctx context.Context, mpn, pdfURL string) (string, error)
	CacheImage(ctx context.Context, mpn, imageURL string) (string, error)
	UpdateManifest(mpn string, entry storage.ManifestEntry) error
}

// Runner enriches worksheet items one at a time.
type Runner struct {
	enricher Enricher
	assets   AssetCache
	log      *observability.Logger

	// Progress draws a terminal progress bar. Leave false in tests.
	Progress bool
}

// NewRunner creates a serial batch runner. assets may be nil.
func NewRunner(enricher Enricher, assets AssetCache, log *observability.Logger) *Runner {
	return &Runner{enricher: enricher, assets: assets, log: log.WithStage("batch")}
}

// Run enriches every item in order. A failed item is logged and skipped;
// the batch always continues. Results keep the input order, minus the
// items that errored.
func (r *Runner) Run(ctx context.Context, items []Item) []*domain.FinalResult {
	jobID := uuid.NewString()
	r.log.Info().Str("job_id", jobID).Int("items", len(items)).Msg("batch started")

	var bar *progressbar.ProgressBar
	if r.Progress {
		bar = progressbar.Default(int64(len(items)), "enriching")
	}

	results := make([]*domain.FinalResult, 0, len(items))
	for _, item := range items {
		final, err := r.enricher.Enrich(ctx, item.MPN, item.Manufacturer)
		if err != nil {
			r.log.WithMPN(item.MPN).Warn().Err(err).Msg("enrichment failed, skipping")
			if bar != nil {
				_ = bar.Add(1)
			}
			continue
		}
		if r.assets != nil && final.Usable {
			r.cacheAssets(ctx, final)
		}
		results = append(results, final)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	r.log.Info().
		Str("job_id", jobID).
		Int("enriched", len(results)).
		Int("failed", len(items)-len(results)).
		Msg("batch finished")
	return results
}

// cacheAssets downloads the first datasheet and image for a result and
// records both in the manifest. Download failures are logged and do not
// affect the result.
func (r *Runner) cacheAssets(ctx context.Context, final *domain.FinalResult) {
	log := r.log.WithMPN(final.MPN)
	entry := storage.ManifestEntry{}

	if len(final.Datasheets) > 0 {
		url := final.Datasheets[0].URL
		path, err := r.assets.CachePDF(ctx, final.MPN, url)
		if err != nil {
			log.Warn().Str("url", url).Err(err).Msg("datasheet cache failed")
		} else {
			entry.DatasheetURL = url
			entry.PDFPath = path
		}
	}

	if len(final.Images) > 0 {
		url := final.Images[0]
		path, err := r.assets.CacheImage(ctx, final.MPN, url)
		if err != nil {
			log.Warn().Str("url", url).Err(err).Msg("image cache failed")
		} else {
			entry.ImageURL = url
			entry.ImagePath = path
		}
	}

	if entry == (storage.ManifestEntry{}) {
		return
	}
	if err := r.assets.UpdateManifest(final.MPN, entry); err != nil {
		log.Warn().Err(err).Msg("manifest update failed")
	}
}
