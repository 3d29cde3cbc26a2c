package extract

import "github.com/partly/enrichment-engine/internal/domain"

const (
	minTitleLength    = 15
	minOverviewLength = 40
)

// Quality weights sum to 1.0. Specs and datasheets dominate because they
// are what normalization and synthesis actually consume.
const (
	weightTitle      = 0.15
	weightSpecs      = 0.30
	weightImages     = 0.20
	weightDatasheets = 0.25
	weightOverview   = 0.10
)

// qualityScore combines five binary evidence features into [0,1].
func qualityScore(p domain.ExtractedProduct, overview string) float64 {
	score := 0.0
	if len(p.CanonicalTitle) > minTitleLength {
		score += weightTitle
	}
	if len(p.Specs) > 0 {
		score += weightSpecs
	}
	if len(p.Images) > 0 {
		score += weightImages
	}
	if len(p.Datasheets) > 0 {
		score += weightDatasheets
	}
	if len(overview) > minOverviewLength {
		score += weightOverview
	}
	return score
}
