package extract

import (
	"regexp"
)

// descriptionPromoter derives a spec from marketing copy when the pattern
// is unambiguous. Scoped to surge-protection description text; widening it
// means adding rows here, not loosening the patterns.
type descriptionPromoter struct {
	pattern *regexp.Regexp
	key     string
	value   string
}

var descriptionPromoters = []descriptionPromoter{
	{regexp.MustCompile(`(?i)\b120/240\s*V`), "System Voltage", "120/240 V"},
	{regexp.MustCompile(`(?i)\bsingle[\s-]?phase\b`), "Phase", "Single Phase"},
	{regexp.MustCompile(`(?i)\b200\s*A\b`), "Max Service Size", "200 A"},
	{regexp.MustCompile(`(?i)\b(downline|sub[\s-]?panel)\b`), "Application", "Downline / Sub-panel Protection"},
	{regexp.MustCompile(`(?i)\bsurge\s+protection\b`), "Product Type", "Surge Protection Device"},
}

// promoteDescriptionSpecs fills absent spec keys from description text.
func promoteDescriptionSpecs(text string, specs map[string]string) {
	if text == "" {
		return
	}
	for _, p := range descriptionPromoters {
		if _, exists := specs[p.key]; exists {
			continue
		}
		if p.pattern.MatchString(text) {
			specs[p.key] = p.value
		}
	}
}
