package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/partly/enrichment-engine/internal/domain"
)

// DatasheetCache loads a previously extracted datasheet JSON for an MPN.
// The storage layer keeps these under data/<tenant>/products/<mpn>.json.
type DatasheetCache interface {
	LoadDatasheetJSON(mpn string) (json.RawMessage, bool)
}

// datasheetConfidence is the per-source confidence assigned to evidence
// read from an extracted datasheet. Datasheets outrank scraped pages.
const datasheetConfidence = 0.95

// specGroups are the nested datasheet JSON groups flattened into specs.
var specGroups = []string{"electrical_specs", "mechanical_specs", "safety_and_compliance"}

// verbatimFields map datasheet prose fields onto section headings.
var verbatimFields = []struct {
	field   string
	heading string
}{
	{"overview", "Overview"},
	{"system_description", "System Description"},
	{"key_features", "Key Feature"},
}

// bulletFields are the nested shapes a bullet list may hide under. Older
// datasheet extractions wrote raw_bullets; later ones bullets or items.
var bulletFields = []string{"raw_bullets", "bullets", "items", "raw"}

// datasheetProduct wraps a cached datasheet JSON blob as one more evidence
// source, with its nested groups already flattened.
func datasheetProduct(mpn, manufacturer string, blob json.RawMessage) domain.ExtractedProduct {
	p := domain.ExtractedProduct{
		MPN:          mpn,
		Manufacturer: manufacturer,
		SourceType:   domain.SourceDatasheet,
		Confidence:   datasheetConfidence,
		Specs:        map[string]string{},
		RawDatasheet: blob,
	}
	flattenRawDatasheet(&p)
	return p
}

// flattenRawDatasheet folds the nested datasheet JSON into the product's
// specs map and verbatim sections. Keys lose a trailing _raw marker and
// snake_case becomes title case. Existing spec keys are not overwritten.
func flattenRawDatasheet(p *domain.ExtractedProduct) {
	if len(p.RawDatasheet) == 0 {
		return
	}
	var doc map[string]any
	if err := json.Unmarshal(p.RawDatasheet, &doc); err != nil {
		return
	}
	if p.Specs == nil {
		p.Specs = map[string]string{}
	}

	for _, group := range specGroups {
		entries, ok := doc[group].(map[string]any)
		if !ok {
			continue
		}
		for key, value := range entries {
			text := scalarText(value)
			if text == "" {
				continue
			}
			label := humanizeKey(key)
			if _, exists := p.Specs[label]; !exists {
				p.Specs[label] = text
			}
		}
	}

	// Newer extractions write a flat specs object whose keys are already
	// display labels.
	if entries, ok := doc["specs"].(map[string]any); ok {
		for key, value := range entries {
			text := scalarText(value)
			label := strings.TrimSpace(key)
			if text == "" || label == "" {
				continue
			}
			if _, exists := p.Specs[label]; !exists {
				p.Specs[label] = text
			}
		}
	}

	for _, vf := range verbatimFields {
		for _, text := range textList(doc[vf.field]) {
			if hasVerbatim(p.VerbatimSections, vf.heading, text) {
				continue
			}
			p.VerbatimSections = append(p.VerbatimSections, domain.VerbatimSection{
				Heading: vf.heading,
				Text:    text,
				Source:  "datasheet",
			})
		}
	}
}

func hasVerbatim(sections []domain.VerbatimSection, heading, text string) bool {
	for _, s := range sections {
		if s.Heading == heading && s.Text == text {
			return true
		}
	}
	return false
}

// humanizeKey turns a snake_case datasheet key into a display label:
// nominal_ac_line_voltage_vrms_raw becomes Nominal Ac Line Voltage Vrms.
func humanizeKey(key string) string {
	key = strings.TrimSuffix(key, "_raw")
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

func scalarText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	}
	return ""
}

// textList collects prose strings from a datasheet field regardless of
// shape: a flat string, a list, or a nested object keyed by one of the
// bullet field names.
func textList(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, textList(item)...)
		}
		return out
	case map[string]any:
		for _, field := range bulletFields {
			if inner, ok := t[field]; ok {
				return textList(inner)
			}
		}
		return textList(t["text"])
	}
	return nil
}
