package crawl

import (
	"regexp"
	"strings"
)

const (
	minValidLength  = 1000
	minUsableLength = 8000
	minMPNTokens    = 5
	minNavElements  = 2
	minProductCards = 3
)

var challengeMarkers = []string{"enable javascript", "captcha"}

var gridPhrases = []string{"featured products", "categories", "shop by"}

var productCardClasses = []string{"product-card", "product-item", "product-tile", "product-grid"}

var mpnTokenPattern = regexp.MustCompile(`\b[A-Za-z]{1,4}\d*-\d{2,5}(?:-\d+)?\b`)

// isValidHTML rejects short bodies and bot-challenge interstitials.
func isValidHTML(html string) bool {
	if len(html) < minValidLength {
		return false
	}
	lower := strings.ToLower(html)
	for _, m := range challengeMarkers {
		if strings.Contains(lower, m) {
			return false
		}
	}
	return true
}

// isHomepageLike detects landing pages. Storefront homepages carry heavy
// navigation plus either product-grid marketing copy or repeated
// product-card markup.
func isHomepageLike(html string) bool {
	lower := strings.ToLower(html)
	if strings.Count(lower, "<nav") < minNavElements {
		return false
	}
	for _, p := range gridPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	cards := 0
	for _, c := range productCardClasses {
		cards += strings.Count(lower, c)
	}
	return cards >= minProductCards
}

// isProductPage requires a non-homepage with a heading and either spec
// markup or a datasheet link.
func isProductPage(html string) bool {
	if isHomepageLike(html) {
		return false
	}
	lower := strings.ToLower(html)
	if !strings.Contains(lower, "<h1") && !strings.Contains(lower, "<title") {
		return false
	}
	return hasSpecMarkup(lower) || hasDatasheetLink(lower)
}

// hasUsableSignal is the bar a crawl must clear before extraction is worth
// running.
func hasUsableSignal(html string) bool {
	if len(html) <= minUsableLength {
		return false
	}
	lower := strings.ToLower(html)
	if strings.Contains(lower, "<table") || strings.Contains(lower, "<dl") {
		return true
	}
	if strings.Contains(lower, ".pdf") && (strings.Contains(lower, "datasheet") || strings.Contains(lower, "manual")) {
		return true
	}
	return len(mpnTokenPattern.FindAllString(html, minMPNTokens)) >= minMPNTokens
}

func hasSpecMarkup(lower string) bool {
	return strings.Contains(lower, "specification") ||
		strings.Contains(lower, "technical data") ||
		strings.Contains(lower, "<table") ||
		strings.Contains(lower, "<dl")
}

func hasDatasheetLink(lower string) bool {
	return strings.Contains(lower, ".pdf") &&
		(strings.Contains(lower, "datasheet") || strings.Contains(lower, "download"))
}
