package discovery

import (
	"net/url"
	"strings"

	"github.com/partly/enrichment-engine/internal/domain"
)

// junkMarkers flag search pages, blogs and forum threads that never carry
// canonical product data.
var junkMarkers = []string{
	"/search", "?q=", "?query=", "&q=",
	"blog", "forum", "reddit.com", "stackexchange",
}

// distributorHosts are the major electronics distributors whose product
// pages are reliably canonical.
var distributorHosts = []string{
	"digikey.", "mouser.", "newark.", "arrow.", "avnet.",
	"grainger.", "alliedelec.", "galco.", "rexel.",
}

// extractFeatures computes the six ranking features for one search result.
func extractFeatures(r candidateInput, mpn, manufacturer string) domain.FeatureVector {
	var f domain.FeatureVector

	normMPN := domain.NormalizeMPN(mpn)
	lowerURL := strings.ToLower(r.URL)
	lowerTitle := strings.ToLower(r.Title)
	normTitle := domain.NormalizeMPN(r.Title)

	urlPath := lowerURL
	if u, err := url.Parse(r.URL); err == nil {
		urlPath = strings.ToLower(u.Path)
	}
	normPath := strings.ReplaceAll(strings.ReplaceAll(urlPath, "-", ""), "_", "")

	if normMPN != "" && strings.Contains(normPath, normMPN) {
		f.MPNInURL = 1
	}
	if normMPN != "" && strings.Contains(normTitle, normMPN) {
		f.MPNInTitle = 1
	}

	mfg := strings.ToLower(strings.TrimSpace(manufacturer))
	if mfg != "" && (strings.Contains(lowerTitle, mfg) || strings.Contains(strings.ToLower(r.Snippet), mfg)) {
		f.MfgInText = 1
	}

	if strings.Contains(urlPath, "/product") {
		f.ProductPath = 1
	}

	f.DomainTrust = domainTrust(r.URL)

	for _, marker := range junkMarkers {
		if strings.Contains(lowerURL, marker) {
			f.JunkPath = 1
			break
		}
	}

	return f
}

// domainTrust is a pattern-based prior on the host. No whitelist of exact
// domains beyond the distributor set; manufacturer-shaped hosts get a mild
// boost so unseen OEM sites still rank.
func domainTrust(rawURL string) float64 {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return 0
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))

	switch {
	case strings.Contains(host, "forum"), strings.Contains(host, "reddit"):
		return -0.7
	case strings.Contains(host, "blog"):
		return -0.6
	case strings.Contains(host, "viewer"):
		return -0.4
	case strings.Contains(host, "datasheet"):
		return -0.3
	}

	for _, d := range distributorHosts {
		if strings.HasPrefix(host, d) || strings.Contains(host, "."+d) {
			return 0.9
		}
	}

	// Hosts shaped like manufacturer.tld are usually the OEM itself.
	if strings.Count(host, ".") == 1 {
		return 0.4
	}

	return 0
}
