// Package datasheet turns a manufacturer PDF into structured spec rows.
// The deterministic half downloads, repairs and reassembles the fractured
// table; an LLM isolates one model's column at the end.
package datasheet

import (
	"context"
	"net/http"
	"time"

	"github.com/partly/enrichment-engine/internal/domain"
	"github.com/partly/enrichment-engine/internal/observability"
)

// Extraction is the full output for one datasheet and target model.
type Extraction struct {
	DetectedModels []string    `json:"detectedModels"`
	Specs          []SpecEntry `json:"specs"`
	RawRows        []RawRow    `json:"rawRows"`
	Features       []string    `json:"features"`
	RawText        string      `json:"-"`
	OverviewText   string      `json:"overviewText,omitempty"`
	SidebarBullets []string    `json:"sidebarBullets,omitempty"`
}

// Service orchestrates datasheet extraction.
type Service struct {
	httpClient *http.Client
	generator  domain.StructuredGenerator
	userAgent  string
	log        *observability.Logger
}

// NewService creates a datasheet extractor.
func NewService(generator domain.StructuredGenerator, userAgent string, log *observability.Logger) *Service {
	return &Service{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		generator:  generator,
		userAgent:  userAgent,
		log:        log.WithStage("datasheet"),
	}
}

// Extract downloads the PDF, parses the spec table, and maps the target
// model's column. An empty targetModel selects the first detected model.
// Parse underflow and download failures return errors; the caller decides
// whether the MPN can proceed without datasheet evidence.
func (s *Service) Extract(ctx context.Context, pdfURL, targetModel string) (*Extraction, error) {
	data, err := s.download(ctx, pdfURL)
	if err != nil {
		return nil, err
	}

	path, cleanup, err := writeTemp(data)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	text, err := extractText(path)
	if err != nil {
		return nil, err
	}

	parsed, err := parseText(text)
	if err != nil {
		return nil, err
	}

	if targetModel == "" {
		if len(parsed.DetectedModels) == 0 {
			return nil, domain.ExtractionError("no model numbers detected in datasheet", nil)
		}
		targetModel = parsed.DetectedModels[0]
	}

	specs, err := s.mapColumn(ctx, parsed, canonicalizeModel(targetModel))
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("url", pdfURL).
		Str("model", targetModel).
		Int("models", len(parsed.DetectedModels)).
		Int("rows", len(parsed.RawRows)).
		Int("specs", len(specs)).
		Msg("datasheet extracted")

	return &Extraction{
		DetectedModels: parsed.DetectedModels,
		Specs:          specs,
		RawRows:        parsed.RawRows,
		Features:       parsed.Features,
		RawText:        parsed.RawText,
		OverviewText:   parsed.OverviewText,
		SidebarBullets: parsed.SidebarBullets,
	}, nil
}
