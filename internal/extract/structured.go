package extract

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// jsonLDProduct is the slice of schema.org Product data the extractor
// cares about.
type jsonLDProduct struct {
	description string
	brandName   string
}

// parseJSONLD scans ld+json script blocks for a Product node. The
// description is URI-decoded when it looks percent-encoded.
func parseJSONLD(doc *goquery.Document) jsonLDProduct {
	var out jsonLDProduct

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var node map[string]any
		if err := json.Unmarshal([]byte(sel.Text()), &node); err != nil {
			return true
		}
		if t, _ := node["@type"].(string); !strings.EqualFold(t, "Product") {
			return true
		}

		if desc, _ := node["description"].(string); desc != "" {
			if decoded, err := url.PathUnescape(desc); err == nil {
				desc = decoded
			}
			out.description = strings.TrimSpace(desc)
		}

		switch brand := node["brand"].(type) {
		case string:
			out.brandName = strings.TrimSpace(brand)
		case map[string]any:
			if name, _ := brand["name"].(string); name != "" {
				out.brandName = strings.TrimSpace(name)
			}
		}
		return false
	})

	return out
}

// bcDataPattern captures the inline object literal storefront themes assign
// to BCData.
var bcDataPattern = regexp.MustCompile(`(?s)var\s+BCData\s*=\s*(\{.*?\});`)

// bcData mirrors the fragment of the storefront blob that carries spec
// signal.
type bcData struct {
	ProductAttributes struct {
		SKU    string `json:"sku"`
		Weight struct {
			Formatted string `json:"formatted"`
		} `json:"weight"`
	} `json:"product_attributes"`
}

// promoteBCData lifts weight and SKU out of an embedded BCData blob into
// the specs map. Existing keys win.
func promoteBCData(html string, specs map[string]string) {
	m := bcDataPattern.FindStringSubmatch(html)
	if m == nil {
		return
	}

	var data bcData
	if err := json.Unmarshal([]byte(m[1]), &data); err != nil {
		return
	}

	if w := strings.TrimSpace(data.ProductAttributes.Weight.Formatted); w != "" {
		putSpec(specs, "Weight", w)
	}
	if sku := strings.TrimSpace(data.ProductAttributes.SKU); sku != "" {
		putSpec(specs, "SKU", sku)
	}
}
