// Package crawl retrieves product-page HTML. A cheap HTTP fetch runs first;
// when the result fails the product-page heuristics the crawler escalates
// to a headless browser. Crawl never returns an error: every failure mode
// is tagged on the CrawlResult.
package crawl

import (
	"context"

	"github.com/partly/enrichment-engine/internal/config"
	"github.com/partly/enrichment-engine/internal/domain"
	"github.com/partly/enrichment-engine/internal/observability"
)

// renderer is the headless tier. Satisfied by browserRenderer; swapped for
// a stub in tests.
type renderer interface {
	render(ctx context.Context, url string) (string, error)
	close()
}

// Service is the two-tier crawler.
type Service struct {
	fetcher       *fetcher
	renderer      renderer
	fetchAttempts int
	log           *observability.Logger
}

// NewService creates a crawler from config. When the headless tier is
// disabled the crawler reports tier-1 failures directly.
func NewService(cfg config.CrawlerConfig, log *observability.Logger) *Service {
	var r renderer
	if cfg.HeadlessEnabled {
		r = newBrowserRenderer(cfg.BrowserTimeout, cfg.UserAgent)
	}
	return &Service{
		fetcher:       newFetcher(cfg.FetchTimeout, cfg.UserAgent),
		renderer:      r,
		fetchAttempts: cfg.FetchAttempts,
		log:           log.WithStage("crawl"),
	}
}

// Close releases the headless browser if one was started.
func (s *Service) Close() {
	if s.renderer != nil {
		s.renderer.close()
	}
}

// Crawl fetches one URL through both tiers.
func (s *Service) Crawl(ctx context.Context, url string) domain.CrawlResult {
	result := s.tier1(ctx, url)
	if result.Confidence == domain.ConfidenceHigh {
		return result
	}

	if s.renderer == nil {
		return result
	}

	s.log.Debug().Str("url", url).Str("reason", string(result.FallbackReason)).Msg("escalating to headless browser")
	return s.tier2(ctx, url)
}

// tier1 attempts the cheap fetch. A high-confidence result means all three
// heuristic gates passed.
func (s *Service) tier1(ctx context.Context, url string) domain.CrawlResult {
	failure := domain.CrawlResult{
		FinalURL:       url,
		Confidence:     domain.ConfidenceLow,
		FallbackReason: domain.FallbackFetchFailed,
	}

	for attempt := 0; attempt < s.fetchAttempts; attempt++ {
		out, err := s.fetcher.fetch(ctx, url)
		if err != nil {
			s.log.Debug().Str("url", url).Int("attempt", attempt+1).Err(err).Msg("fetch failed")
			continue
		}

		switch {
		case !isValidHTML(out.html):
			failure = domain.CrawlResult{
				FinalURL:       out.finalURL,
				ContentType:    out.contentType,
				Confidence:     domain.ConfidenceLow,
				FallbackReason: domain.FallbackInvalidHTML,
			}
		case !isProductPage(out.html) || !hasUsableSignal(out.html):
			failure = domain.CrawlResult{
				FinalURL:       out.finalURL,
				ContentType:    out.contentType,
				Confidence:     domain.ConfidenceLow,
				FallbackReason: domain.FallbackNonProduct,
			}
		default:
			s.log.Info().Str("url", out.finalURL).Int("bytes", len(out.html)).Msg("tier-1 fetch succeeded")
			return domain.CrawlResult{
				FinalURL:    out.finalURL,
				HTML:        out.html,
				ContentType: out.contentType,
				Confidence:  domain.ConfidenceHigh,
			}
		}
	}

	return failure
}

// tier2 renders the page in the headless browser. Rendered HTML that still
// fails the usable-signal bar is returned at low confidence so the caller
// can decide whether partial extraction is worth it.
func (s *Service) tier2(ctx context.Context, url string) domain.CrawlResult {
	html, err := s.renderer.render(ctx, url)
	if err != nil {
		s.log.Warn().Str("url", url).Err(err).Msg("headless render failed")
		return domain.CrawlResult{
			FinalURL:            url,
			UsedHeadlessBrowser: true,
			Confidence:          domain.ConfidenceLow,
			FallbackReason:      domain.FallbackCaptchaOrJS,
		}
	}

	if hasUsableSignal(html) {
		s.log.Info().Str("url", url).Int("bytes", len(html)).Msg("headless render succeeded")
		return domain.CrawlResult{
			FinalURL:            url,
			HTML:                html,
			UsedHeadlessBrowser: true,
			Confidence:          domain.ConfidenceMedium,
		}
	}

	return domain.CrawlResult{
		FinalURL:            url,
		HTML:                html,
		UsedHeadlessBrowser: true,
		Confidence:          domain.ConfidenceLow,
		FallbackReason:      domain.FallbackNonProduct,
	}
}
