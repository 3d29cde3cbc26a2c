package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/partly/enrichment-engine/internal/domain"
)

// resolveTitles picks the display and canonical titles. The display title
// is the first non-empty of OG title, Twitter title, h1, document title.
// The canonical title must mention the MPN; a site name or bare domain is
// never acceptable, so the fallback is "<manufacturer> <mpn>".
func resolveTitles(doc *goquery.Document, mpn, manufacturer string) (display, canonical string) {
	og := metaContent(doc, `meta[property="og:title"]`)
	tw := metaContent(doc, `meta[name="twitter:title"]`)
	h1 := strings.TrimSpace(doc.Find("h1").First().Text())
	docTitle := strings.TrimSpace(doc.Find("title").First().Text())

	for _, t := range []string{og, tw, h1, docTitle} {
		if t != "" {
			display = t
			break
		}
	}

	norm := domain.NormalizeMPN(mpn)
	for _, t := range []string{h1, og, docTitle} {
		if t == "" || looksLikeSiteName(t) {
			continue
		}
		if strings.Contains(domain.NormalizeMPN(t), norm) {
			canonical = t
			break
		}
	}
	if canonical == "" {
		canonical = strings.TrimSpace(fmt.Sprintf("%s %s", manufacturer, mpn))
	}

	if display == "" {
		display = canonical
	}
	return display, canonical
}

// looksLikeSiteName rejects bare domains and one-word site titles.
func looksLikeSiteName(t string) bool {
	trimmed := strings.TrimSpace(t)
	if strings.Count(trimmed, " ") == 0 && strings.Contains(trimmed, ".") {
		return true
	}
	lower := strings.ToLower(trimmed)
	return strings.HasSuffix(lower, ".com") || strings.HasSuffix(lower, ".net")
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}

func metaDescription(doc *goquery.Document) string {
	return metaContent(doc, `meta[name="description"]`)
}

func ogDescription(doc *goquery.Document) string {
	return metaContent(doc, `meta[property="og:description"]`)
}
