// Package pipeline drives the five enrichment stages for one MPN and
// accumulates the final result: discover, crawl, extract, normalize,
// synthesize.
package pipeline

import (
	"context"
	"strings"

	"github.com/partly/enrichment-engine/internal/datasheet"
	"github.com/partly/enrichment-engine/internal/domain"
	"github.com/partly/enrichment-engine/internal/extract"
	"github.com/partly/enrichment-engine/internal/observability"
)

// maxCrawlURLs caps how many discovered URLs one enrichment will crawl
// before giving up on HTML evidence.
const maxCrawlURLs = 3

// pdfConfidence is the per-source confidence for evidence extracted from a
// discovered datasheet PDF during this run.
const pdfConfidence = 0.9

// Extractor turns crawled HTML into product evidence.
type Extractor interface {
	Extract(in extract.Input) extract.Result
}

// DatasheetExtractor parses a datasheet PDF for one target model.
type DatasheetExtractor interface {
	Extract(ctx context.Context, pdfURL, targetModel string) (*datasheet.Extraction, error)
}

// Normalizer merges per-source evidence.
type Normalizer interface {
	Normalize(products []domain.ExtractedProduct, canonicalMPN string) (*domain.NormalizedProduct, error)
}

// Synthesizer generates catalog content.
type Synthesizer interface {
	Synthesize(ctx context.Context, np *domain.NormalizedProduct) (*domain.SynthesisOutput, error)
}

// ProductCache persists extracted datasheet JSON for later runs.
type ProductCache interface {
	SaveProductJSON(mpn string, v any) error
}

// Deps collects the stage implementations. Datasheets and Cache may be nil.
type Deps struct {
	Discoverer  domain.Discoverer
	Crawler     domain.Crawler
	Extractor   Extractor
	Datasheets  DatasheetExtractor
	Normalizer  Normalizer
	Synthesizer Synthesizer
	Cache       ProductCache
}

// Service runs the pipeline.
type Service struct {
	deps Deps
	log  *observability.Logger
}

// NewService creates a pipeline driver.
func NewService(deps Deps, log *observability.Logger) *Service {
	return &Service{deps: deps, log: log.WithStage("pipeline")}
}

// Enrich runs all stages for one MPN. Stage-level weaknesses degrade the
// result rather than erroring: a FinalResult with Usable false and a
// FailureReason is still a result. Hard errors (search or LLM transport)
// propagate.
func (s *Service) Enrich(ctx context.Context, mpn, manufacturer string) (*domain.FinalResult, error) {
	mpn = strings.TrimSpace(mpn)
	manufacturer = strings.TrimSpace(manufacturer)
	if mpn == "" {
		return nil, domain.ValidationError("mpn must not be empty", nil)
	}

	// RA variants discover and extract as the base part; the variant is
	// patched back in after synthesis.
	baseMPN := domain.BaseMPN(mpn)
	isVariant := domain.IsRemoteAlarmVariant(mpn)
	log := s.log.WithMPN(mpn)

	disc, err := s.deps.Discoverer.Discover(ctx, baseMPN, manufacturer)
	if err != nil {
		return nil, err
	}
	breakdown := domain.ConfidenceBreakdown{Discovery: disc.Confidence.Score()}

	urls := candidateURLs(disc)

	var crawlRes domain.CrawlResult
	for _, u := range urls {
		crawlRes = s.deps.Crawler.Crawl(ctx, u)
		if crawlRes.HasHTML() {
			break
		}
	}

	var evidence []domain.ExtractedProduct
	extractRefused := false
	if crawlRes.HasHTML() {
		if crawlRes.UsedHeadlessBrowser {
			breakdown.Crawl = 0.6
		} else {
			breakdown.Crawl = 0.85
		}
		res := s.deps.Extractor.Extract(extract.Input{
			HTML:         crawlRes.HTML,
			SourceURL:    crawlRes.FinalURL,
			MPN:          baseMPN,
			Manufacturer: manufacturer,
		})
		breakdown.Extraction = res.Quality
		if res.OK {
			evidence = append(evidence, res.Product)
		} else {
			extractRefused = true
			log.Warn().Str("reason", string(res.Reason)).Float64("quality", res.Quality).Msg("extraction refused")
		}
	}

	if pdf := s.datasheetEvidence(ctx, disc, baseMPN, manufacturer, log); pdf != nil {
		evidence = append(evidence, *pdf)
	}

	if len(evidence) == 0 {
		reason := domain.FailureNoProductURLs
		switch {
		case extractRefused:
			reason = domain.FailureLowExtractionQuality
		case len(urls) > 0:
			reason = domain.FailureCrawlFailed
		}
		log.Warn().Str("failure", string(reason)).Msg("enrichment produced no evidence")
		return failureResult(mpn, manufacturer, reason, breakdown), nil
	}

	np, err := s.deps.Normalizer.Normalize(evidence, mpn)
	if err != nil {
		return nil, err
	}

	synth, err := s.deps.Synthesizer.Synthesize(ctx, np)
	if err != nil {
		return nil, err
	}
	breakdown.Synthesis = synth.Confidence

	final := assembleResult(mpn, manufacturer, np, synth, breakdown)
	final.SourceURL = crawlRes.FinalURL
	if final.SourceURL == "" && len(np.SourceURLs) > 0 {
		final.SourceURL = np.SourceURLs[0]
	}

	if isVariant && final.Usable {
		applyVariantPatch(final, mpn)
	}

	log.Info().
		Bool("usable", final.Usable).
		Float64("confidence", final.Confidence).
		Int("specs", len(final.SpecTable)).
		Msg("enrichment complete")

	return final, nil
}

// datasheetEvidence parses the first discovered PDF into evidence and
// caches its JSON for future runs. Failures degrade silently: the HTML
// evidence decides whether the MPN proceeds.
func (s *Service) datasheetEvidence(ctx context.Context, disc *domain.DiscoveryResult, mpn, manufacturer string, log *observability.Logger) *domain.ExtractedProduct {
	if s.deps.Datasheets == nil || len(disc.PDFURLs) == 0 {
		return nil
	}
	pdfURL := disc.PDFURLs[0]

	ext, err := s.deps.Datasheets.Extract(ctx, pdfURL, mpn)
	if err != nil {
		log.Warn().Str("url", pdfURL).Err(err).Msg("datasheet extraction failed")
		return nil
	}

	specs := make(map[string]string, len(ext.Specs))
	for _, e := range ext.Specs {
		specs[e.Key] = e.Value
	}

	p := &domain.ExtractedProduct{
		MPN:          mpn,
		Manufacturer: manufacturer,
		SourceURL:    pdfURL,
		SourceType:   domain.SourcePDF,
		Confidence:   pdfConfidence,
		Specs:        specs,
	}
	if ext.OverviewText != "" {
		p.VerbatimSections = append(p.VerbatimSections, domain.VerbatimSection{
			Heading: "Overview", Text: ext.OverviewText, Source: pdfURL,
		})
	}
	for _, f := range ext.Features {
		p.VerbatimSections = append(p.VerbatimSections, domain.VerbatimSection{
			Heading: "Key Feature", Text: f, Source: pdfURL,
		})
	}
	p.Datasheets = []domain.DatasheetRef{{URL: pdfURL, Label: "Datasheet"}}

	if s.deps.Cache != nil {
		doc := map[string]any{
			"specs":        specs,
			"overview":     ext.OverviewText,
			"key_features": ext.Features,
		}
		if err := s.deps.Cache.SaveProductJSON(mpn, doc); err != nil {
			log.Warn().Err(err).Msg("datasheet cache write failed")
		}
	}
	return p
}

// candidateURLs orders the crawlable URLs: primary first, then backups.
func candidateURLs(disc *domain.DiscoveryResult) []string {
	var urls []string
	if disc.PrimaryProductURL != "" {
		urls = append(urls, disc.PrimaryProductURL)
	}
	urls = append(urls, disc.BackupURLs...)
	if len(urls) > maxCrawlURLs {
		urls = urls[:maxCrawlURLs]
	}
	return urls
}
