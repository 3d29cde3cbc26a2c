// Package normalize merges per-source extraction evidence into one
// confidence-weighted product view. Higher-confidence sources win spec
// conflicts; every contributing source URL is retained.
package normalize

import (
	"strings"

	"github.com/partly/enrichment-engine/internal/domain"
	"github.com/partly/enrichment-engine/internal/observability"
)

const (
	variantConfidence = 0.95
	variantSourceTag  = "variant:RA"
	variantSpecKey    = "Remote Alarm"
	variantSpecValue  = "Yes"
	variantHeading    = "Variant"
	variantText       = "Includes remote alarm for system monitoring."
)

// Service merges extracted products.
type Service struct {
	cache DatasheetCache
	log   *observability.Logger
}

// NewService creates a normalizer. A nil cache disables datasheet injection.
func NewService(cache DatasheetCache, log *observability.Logger) *Service {
	return &Service{cache: cache, log: log.WithStage("normalize")}
}

// Normalize merges evidence from all sources into one product. A non-empty
// canonicalMPN overrides the MPN recorded on the sources; the remote-alarm
// overlay keys off it. Empty input is an error.
func (s *Service) Normalize(products []domain.ExtractedProduct, canonicalMPN string) (*domain.NormalizedProduct, error) {
	if len(products) == 0 {
		return nil, domain.ValidationError("normalize requires at least one extracted product", nil)
	}

	mpn := strings.TrimSpace(canonicalMPN)
	if mpn == "" {
		mpn = products[0].MPN
	}
	manufacturer := firstManufacturer(products)

	products = s.injectDatasheet(products, mpn, manufacturer)

	merged := &domain.NormalizedProduct{
		MPN:          mpn,
		Manufacturer: manufacturer,
		Specs:        map[string]domain.SpecValue{},
	}

	var confidenceSum float64
	seenURLs := map[string]bool{}
	seenImages := map[string]bool{}
	seenDatasheets := map[string]bool{}

	for _, raw := range products {
		p := prepared(raw)
		confidenceSum += p.Confidence
		source := sourceLabel(p)

		if p.SourceURL != "" && !seenURLs[p.SourceURL] {
			seenURLs[p.SourceURL] = true
			merged.SourceURLs = append(merged.SourceURLs, p.SourceURL)
		}

		for key, value := range p.Specs {
			mergeSpec(merged.Specs, canonicalSpecKey(key), value, source, p.Confidence)
		}

		for _, section := range p.VerbatimSections {
			if section.Source == "" {
				section.Source = source
			}
			merged.VerbatimSections = append(merged.VerbatimSections, section)
		}

		for _, img := range p.Images {
			if img != "" && !seenImages[img] {
				seenImages[img] = true
				merged.Images = append(merged.Images, img)
			}
		}
		for _, ds := range p.Datasheets {
			if ds.URL != "" && !seenDatasheets[ds.URL] {
				seenDatasheets[ds.URL] = true
				merged.Datasheets = append(merged.Datasheets, ds)
			}
		}
	}

	merged.CanonicalTitle = resolveTitle(products, func(p domain.ExtractedProduct) string { return p.CanonicalTitle })
	if merged.CanonicalTitle == "" {
		merged.CanonicalTitle = strings.TrimSpace(manufacturer + " " + mpn)
	}
	merged.DisplayTitle = resolveTitle(products, func(p domain.ExtractedProduct) string { return p.DisplayTitle })
	if merged.DisplayTitle == "" {
		merged.DisplayTitle = merged.CanonicalTitle
	}

	merged.OverallConfidence = confidenceSum / float64(len(products))

	if domain.IsRemoteAlarmVariant(mpn) {
		applyVariantOverlay(merged)
	}

	s.log.Info().
		Str("mpn", mpn).
		Int("sources", len(products)).
		Int("specs", len(merged.Specs)).
		Float64("confidence", merged.OverallConfidence).
		Msg("sources merged")

	return merged, nil
}

// injectDatasheet prepends cached datasheet evidence when no input source
// already carries it.
func (s *Service) injectDatasheet(products []domain.ExtractedProduct, mpn, manufacturer string) []domain.ExtractedProduct {
	if s.cache == nil {
		return products
	}
	for _, p := range products {
		if p.SourceType == domain.SourceDatasheet {
			return products
		}
	}
	blob, ok := s.cache.LoadDatasheetJSON(mpn)
	if !ok {
		return products
	}
	return append([]domain.ExtractedProduct{datasheetProduct(mpn, manufacturer, blob)}, products...)
}

// prepared returns a copy of the product with any raw datasheet blob
// flattened into its specs and verbatim sections. The input is not mutated.
func prepared(p domain.ExtractedProduct) domain.ExtractedProduct {
	if p.SourceType != domain.SourceDatasheet || len(p.RawDatasheet) == 0 {
		return p
	}
	local := p
	local.Specs = make(map[string]string, len(p.Specs))
	for k, v := range p.Specs {
		local.Specs[k] = v
	}
	local.VerbatimSections = append([]domain.VerbatimSection(nil), p.VerbatimSections...)
	flattenRawDatasheet(&local)
	return local
}

// mergeSpec applies the precedence rule: first writer holds the key until a
// strictly higher-confidence source replaces the value. Sources always union.
func mergeSpec(specs map[string]domain.SpecValue, key, value, source string, confidence float64) {
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return
	}
	existing, ok := specs[key]
	if !ok {
		specs[key] = domain.SpecValue{Value: value, Sources: []string{source}, Confidence: confidence}
		return
	}
	if confidence > existing.Confidence {
		existing.Value = value
		existing.Confidence = confidence
	}
	existing.Sources = unionSource(existing.Sources, source)
	specs[key] = existing
}

func unionSource(sources []string, source string) []string {
	for _, s := range sources {
		if s == source {
			return sources
		}
	}
	return append(sources, source)
}

func sourceLabel(p domain.ExtractedProduct) string {
	if p.SourceURL != "" {
		return p.SourceURL
	}
	return string(p.SourceType)
}

// resolveTitle prefers the OEM source's title, then the first source that
// carries one.
func resolveTitle(products []domain.ExtractedProduct, pick func(domain.ExtractedProduct) string) string {
	for _, p := range products {
		if p.SourceType == domain.SourceOEM {
			if t := strings.TrimSpace(pick(p)); t != "" {
				return t
			}
		}
	}
	for _, p := range products {
		if t := strings.TrimSpace(pick(p)); t != "" {
			return t
		}
	}
	return ""
}

func firstManufacturer(products []domain.ExtractedProduct) string {
	for _, p := range products {
		if m := strings.TrimSpace(p.Manufacturer); m != "" {
			return m
		}
	}
	return ""
}

// applyVariantOverlay records the remote-alarm fact for RA-suffixed parts.
// Applying it twice changes nothing.
func applyVariantOverlay(merged *domain.NormalizedProduct) {
	existing := merged.Specs[variantSpecKey]
	existing.Value = variantSpecValue
	if variantConfidence > existing.Confidence {
		existing.Confidence = variantConfidence
	}
	existing.Sources = unionSource(existing.Sources, variantSourceTag)
	merged.Specs[variantSpecKey] = existing

	if !hasVerbatim(merged.VerbatimSections, variantHeading, variantText) {
		merged.VerbatimSections = append(merged.VerbatimSections, domain.VerbatimSection{
			Heading: variantHeading,
			Text:    variantText,
			Source:  variantSourceTag,
		})
	}
}
