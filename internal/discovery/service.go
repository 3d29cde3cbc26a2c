// Package discovery turns (mpn, manufacturer) into a ranked URL triad. A
// small linear model over interpretable features picks a primary product
// URL without hard whitelists.
package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/partly/enrichment-engine/internal/domain"
	"github.com/partly/enrichment-engine/internal/observability"
	"github.com/partly/enrichment-engine/internal/search"
)

const (
	maxBackupURLs = 3
	maxPDFURLs    = 3
)

// Searcher is the slice of the search client discovery needs.
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

// Service ranks search output into a DiscoveryResult.
type Service struct {
	searcher Searcher
	log      *observability.Logger
}

// NewService creates a discovery service.
func NewService(searcher Searcher, log *observability.Logger) *Service {
	return &Service{searcher: searcher, log: log.WithStage("discovery")}
}

// Discover queries the search backend and ranks the results. It errors only
// when the search backend itself fails; ranking ambiguity degrades the
// confidence tier instead.
func (s *Service) Discover(ctx context.Context, mpn, manufacturer string) (*domain.DiscoveryResult, error) {
	query := fmt.Sprintf("%q %q", mpn, manufacturer)
	results, err := s.searcher.Search(ctx, query)
	if err != nil {
		return nil, domain.DiscoveryError("search backend failed", err)
	}

	candidates := rankCandidates(toInputs(results), mpn, manufacturer)
	if len(candidates) == 0 {
		return s.pdfFallback(ctx, mpn)
	}

	out := &domain.DiscoveryResult{
		Confidence: separationConfidence(candidates),
		BackupURLs: []string{},
		PDFURLs:    []string{},
	}

	for _, c := range candidates {
		if isPDFURL(c.URL) {
			if len(out.PDFURLs) < maxPDFURLs {
				out.PDFURLs = append(out.PDFURLs, c.URL)
			}
			continue
		}
		if out.PrimaryProductURL == "" {
			out.PrimaryProductURL = c.URL
		} else if len(out.BackupURLs) < maxBackupURLs {
			out.BackupURLs = append(out.BackupURLs, c.URL)
		}
	}

	if out.PrimaryProductURL == "" && len(out.PDFURLs) == 0 {
		return s.pdfFallback(ctx, mpn)
	}

	s.log.Info().
		Str("mpn", mpn).
		Str("primary", out.PrimaryProductURL).
		Int("backups", len(out.BackupURLs)).
		Int("pdfs", len(out.PDFURLs)).
		Str("confidence", string(out.Confidence)).
		Msg("discovery completed")

	return out, nil
}

// pdfFallback reissues a datasheet-focused query and emits only PDF URLs.
func (s *Service) pdfFallback(ctx context.Context, mpn string) (*domain.DiscoveryResult, error) {
	query := fmt.Sprintf("%q datasheet pdf", mpn)
	results, err := s.searcher.Search(ctx, query)
	if err != nil {
		return nil, domain.DiscoveryError("pdf fallback search failed", err)
	}

	out := &domain.DiscoveryResult{
		Confidence: domain.ConfidenceLow,
		BackupURLs: []string{},
		PDFURLs:    []string{},
	}
	for _, r := range results {
		if isPDFURL(r.Link) && len(out.PDFURLs) < maxPDFURLs {
			out.PDFURLs = append(out.PDFURLs, r.Link)
		}
	}
	if len(out.PDFURLs) > 0 {
		out.Confidence = domain.ConfidenceMedium
	}

	s.log.Info().
		Str("mpn", mpn).
		Int("pdfs", len(out.PDFURLs)).
		Str("confidence", string(out.Confidence)).
		Msg("pdf fallback completed")

	return out, nil
}

func toInputs(results []search.Result) []candidateInput {
	inputs := make([]candidateInput, 0, len(results))
	for _, r := range results {
		if strings.TrimSpace(r.Link) == "" {
			continue
		}
		inputs = append(inputs, candidateInput{URL: r.Link, Title: r.Title, Snippet: r.Snippet})
	}
	return inputs
}

func isPDFURL(u string) bool {
	trimmed := strings.ToLower(u)
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return strings.HasSuffix(trimmed, ".pdf")
}
