// Package extract parses crawled HTML into structured product evidence.
// The extractor never invents a value it did not see on the page, and it
// scores its own output so downstream stages can weigh the evidence.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/partly/enrichment-engine/internal/domain"
	"github.com/partly/enrichment-engine/internal/observability"
)

// FailReason tags a refused extraction.
type FailReason string

const (
	ReasonNoHTML     FailReason = "no_html"
	ReasonBlocked    FailReason = "blocked"
	ReasonNonProduct FailReason = "non_product"
	ReasonParseError FailReason = "parse_error"
	ReasonLowQuality FailReason = "low_quality"
)

// Input is one page to extract from.
type Input struct {
	HTML         string
	SourceURL    string
	MPN          string
	Manufacturer string
}

// Result is the extraction outcome. A refused extraction still carries
// whatever partial evidence was found so the pipeline can report it.
type Result struct {
	OK      bool
	Reason  FailReason
	Quality float64
	Product domain.ExtractedProduct
}

// Extractor turns HTML into an ExtractedProduct.
type Extractor struct {
	log *observability.Logger
}

// New creates an extractor.
func New(log *observability.Logger) *Extractor {
	return &Extractor{log: log.WithStage("extract")}
}

const (
	blockedLengthCeiling = 12000
	qualityFloor         = 0.30
)

var blockMarkers = []string{"__cf_chl", "cf-challenge", "attention required", "verify you are human"}

var productURLMarkers = []string{"/product", "digikey", "mouser", "newark", "grainger", "galco"}

// Extract runs the guardrail ladder and then the field extractors.
func (e *Extractor) Extract(in Input) Result {
	if strings.TrimSpace(in.HTML) == "" {
		return Result{Reason: ReasonNoHTML}
	}

	lower := strings.ToLower(in.HTML)
	if len(in.HTML) < blockedLengthCeiling {
		for _, m := range blockMarkers {
			if strings.Contains(lower, m) {
				return Result{Reason: ReasonBlocked}
			}
		}
	}

	if !pageMentionsMPN(in.HTML, in.MPN) && !urlLooksProduct(in.SourceURL) {
		return Result{Reason: ReasonNonProduct}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(in.HTML))
	if err != nil {
		return Result{Reason: ReasonParseError}
	}

	product := domain.ExtractedProduct{
		MPN:          in.MPN,
		Manufacturer: in.Manufacturer,
		SourceURL:    in.SourceURL,
		SourceType:   classifySource(in.SourceURL, in.Manufacturer),
		Specs:        map[string]string{},
	}

	ld := parseJSONLD(doc)
	if product.Manufacturer == "" && ld.brandName != "" {
		product.Manufacturer = ld.brandName
	}

	product.DisplayTitle, product.CanonicalTitle = resolveTitles(doc, in.MPN, product.Manufacturer)
	product.Specs = extractSpecs(doc)
	promoteBCData(in.HTML, product.Specs)

	overview := metaDescription(doc)
	if overview == "" {
		overview = ld.description
	}
	if overview != "" {
		product.VerbatimSections = append(product.VerbatimSections, domain.VerbatimSection{
			Heading: "Overview",
			Text:    overview,
			Source:  in.SourceURL,
		})
	}

	promoteDescriptionSpecs(overview+" "+ogDescription(doc), product.Specs)

	product.Datasheets = extractDatasheets(doc, in.SourceURL)
	product.Images = extractImages(doc, in.SourceURL)

	quality := qualityScore(product, overview)
	product.Confidence = quality

	e.log.Debug().
		Str("url", in.SourceURL).
		Int("specs", len(product.Specs)).
		Int("images", len(product.Images)).
		Int("datasheets", len(product.Datasheets)).
		Float64("quality", quality).
		Msg("extraction scored")

	// The floor is exclusive: a score of exactly 0.30 is still refused.
	if quality <= qualityFloor {
		return Result{Reason: ReasonLowQuality, Quality: quality, Product: product}
	}

	return Result{OK: true, Quality: quality, Product: product}
}

// pageMentionsMPN checks containment after stripping hyphens and spaces
// from both sides.
func pageMentionsMPN(html, mpn string) bool {
	norm := domain.NormalizeMPN(mpn)
	if norm == "" {
		return false
	}
	page := strings.ToLower(html)
	page = strings.ReplaceAll(page, "-", "")
	page = strings.ReplaceAll(page, " ", "")
	return strings.Contains(page, norm)
}

func urlLooksProduct(url string) bool {
	lower := strings.ToLower(url)
	for _, m := range productURLMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// classifySource guesses where the evidence came from. A URL that carries
// the manufacturer name (hyphens ignored) is treated as the OEM.
func classifySource(url, manufacturer string) domain.SourceType {
	lower := strings.ToLower(url)
	if strings.Contains(lower, ".pdf") {
		return domain.SourcePDF
	}
	mfg := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(manufacturer), " ", ""))
	if mfg != "" && strings.Contains(strings.ReplaceAll(lower, "-", ""), mfg) {
		return domain.SourceOEM
	}
	for _, d := range []string{"digikey", "mouser", "newark", "arrow", "grainger", "galco", "rexel"} {
		if strings.Contains(lower, d) {
			return domain.SourceDistributor
		}
	}
	return domain.SourceUnknown
}
