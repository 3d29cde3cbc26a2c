package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	minTableRows = 3
	maxSpecValue = 180
)

// extractSpecs harvests key/value pairs from spec tables and definition
// lists. Tables shorter than three rows are usually layout scaffolding and
// are skipped.
func extractSpecs(doc *goquery.Document) map[string]string {
	specs := map[string]string{}

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() < minTableRows {
			return
		}
		rows.Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("th, td")
			if cells.Length() < 2 {
				return
			}
			key := cleanSpecKey(cells.Eq(0).Text())
			value := strings.TrimSpace(cells.Eq(1).Text())
			putSpec(specs, key, value)
		})
	})

	doc.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		var pendingKey string
		dl.Children().Each(func(_ int, child *goquery.Selection) {
			switch goquery.NodeName(child) {
			case "dt":
				pendingKey = cleanSpecKey(child.Text())
			case "dd":
				if pendingKey != "" {
					putSpec(specs, pendingKey, strings.TrimSpace(child.Text()))
					pendingKey = ""
				}
			}
		})
	})

	return specs
}

func cleanSpecKey(raw string) string {
	key := strings.TrimSpace(raw)
	key = strings.TrimSuffix(key, ":")
	return strings.TrimSpace(key)
}

// putSpec inserts a pair if both sides survive the filters. Overlong values
// are usually prose that leaked into a table cell.
func putSpec(specs map[string]string, key, value string) {
	if key == "" || value == "" || len(value) > maxSpecValue {
		return
	}
	if _, exists := specs[key]; exists {
		return
	}
	specs[key] = value
}
