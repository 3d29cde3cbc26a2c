package extract

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/partly/enrichment-engine/internal/domain"
)

const (
	maxDatasheets = 5
	maxImages     = 3
	ogImageScore  = 5
)

type scoredLink struct {
	url   string
	label string
	score int
	order int
}

// extractDatasheets scans every anchor, scores it for datasheet-ness, and
// keeps the top positive-scoring links.
func extractDatasheets(doc *goquery.Document, pageURL string) []domain.DatasheetRef {
	best := map[string]scoredLink{}
	order := 0

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}

		text := strings.ToLower(strings.TrimSpace(sel.Text()))
		lowerHref := strings.ToLower(href)

		score := 0
		if strings.HasSuffix(strings.SplitN(lowerHref, "?", 2)[0], ".pdf") {
			score += 3
		}
		if strings.Contains(text, "datasheet") || strings.Contains(text, "data sheet") {
			score += 2
		}
		if strings.Contains(text, "spec") {
			score += 2
		}
		if strings.Contains(text, "manual") {
			score++
		}
		if strings.Contains(text, "privacy") || strings.Contains(text, "terms") || strings.Contains(text, "catalog") {
			score -= 3
		}
		if score <= 0 {
			return
		}

		abs := absolutize(pageURL, href)
		label := strings.TrimSpace(sel.Text())
		if existing, ok := best[abs]; ok {
			if score > existing.score {
				existing.score = score
				existing.label = label
				best[abs] = existing
			}
			return
		}
		order++
		best[abs] = scoredLink{url: abs, label: label, score: score, order: order}
	})

	links := make([]scoredLink, 0, len(best))
	for _, l := range best {
		links = append(links, l)
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].score != links[j].score {
			return links[i].score > links[j].score
		}
		return links[i].order < links[j].order
	})
	if len(links) > maxDatasheets {
		links = links[:maxDatasheets]
	}

	refs := make([]domain.DatasheetRef, 0, len(links))
	for _, l := range links {
		refs = append(refs, domain.DatasheetRef{URL: l.url, Label: l.label})
	}
	return refs
}

var rejectedImageMarkers = []string{"logo", "icon", "sprite", "placeholder", "spinner"}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif"}

// extractImages prefers the OpenGraph image, then scores inline <img> tags.
func extractImages(doc *goquery.Document, pageURL string) []string {
	best := map[string]scoredLink{}
	order := 0

	if og := metaContent(doc, `meta[property="og:image"]`); og != "" {
		abs := absolutize(pageURL, og)
		order++
		best[abs] = scoredLink{url: abs, score: ogImageScore, order: order}
	}

	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		src = strings.TrimSpace(src)
		if src == "" {
			return
		}
		lower := strings.ToLower(src)
		for _, m := range rejectedImageMarkers {
			if strings.Contains(lower, m) {
				return
			}
		}

		score := 1
		if strings.Contains(lower, "product") || strings.Contains(lower, "media") {
			score += 2
		}
		for _, ext := range imageExtensions {
			if strings.Contains(lower, ext) {
				score++
				break
			}
		}

		abs := absolutize(pageURL, src)
		if existing, ok := best[abs]; ok {
			if score > existing.score {
				existing.score = score
				best[abs] = existing
			}
			return
		}
		order++
		best[abs] = scoredLink{url: abs, score: score, order: order}
	})

	links := make([]scoredLink, 0, len(best))
	for _, l := range best {
		links = append(links, l)
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].score != links[j].score {
			return links[i].score > links[j].score
		}
		return links[i].order < links[j].order
	})
	if len(links) > maxImages {
		links = links[:maxImages]
	}

	urls := make([]string, 0, len(links))
	for _, l := range links {
		urls = append(urls, l.url)
	}
	return urls
}

// absolutize resolves href against the page URL. Unparseable inputs pass
// through untouched.
func absolutize(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
