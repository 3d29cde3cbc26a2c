package synthesize

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/partly/enrichment-engine/internal/domain"
)

// DatasheetFact is a datasheet reference stripped to URL and label.
type DatasheetFact struct {
	URL   string `json:"url"`
	Label string `json:"label,omitempty"`
}

// FactPayload is the fact-only view handed to the LLM: spec values, media
// references and verbatim descriptor strings. Confidences and source
// provenance never reach the prompt.
type FactPayload struct {
	MPN          string            `json:"mpn"`
	Manufacturer string            `json:"manufacturer"`
	Title        string            `json:"title,omitempty"`
	Specs        map[string]string `json:"specs"`
	Images       []string          `json:"images,omitempty"`
	Datasheets   []DatasheetFact   `json:"datasheets,omitempty"`
	Descriptors  []string          `json:"descriptors,omitempty"`
}

// buildPayload strips a normalized product down to facts.
func buildPayload(np *domain.NormalizedProduct) FactPayload {
	payload := FactPayload{
		MPN:          np.MPN,
		Manufacturer: np.Manufacturer,
		Title:        np.CanonicalTitle,
		Specs:        make(map[string]string, len(np.Specs)),
		Images:       append([]string(nil), np.Images...),
	}
	for key, value := range np.Specs {
		payload.Specs[key] = value.Value
	}
	for _, ds := range np.Datasheets {
		payload.Datasheets = append(payload.Datasheets, DatasheetFact{URL: ds.URL, Label: ds.Label})
	}
	for _, section := range np.VerbatimSections {
		text := strings.TrimSpace(section.Text)
		if text == "" {
			continue
		}
		if section.Heading != "" {
			text = section.Heading + ": " + text
		}
		payload.Descriptors = append(payload.Descriptors, text)
	}
	return payload
}

// factsJSON renders the payload for the prompt with stable key order.
func factsJSON(payload FactPayload) string {
	var b strings.Builder
	b.WriteString("{\n")
	writeField := func(name string, v any) {
		raw, _ := json.Marshal(v)
		b.WriteString("  ")
		b.WriteString(`"` + name + `": `)
		b.Write(raw)
		b.WriteString(",\n")
	}
	writeField("mpn", payload.MPN)
	writeField("manufacturer", payload.Manufacturer)
	writeField("title", payload.Title)

	keys := make([]string, 0, len(payload.Specs))
	for k := range payload.Specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString("  \"specs\": {\n")
	for i, k := range keys {
		kj, _ := json.Marshal(k)
		vj, _ := json.Marshal(payload.Specs[k])
		b.WriteString("    ")
		b.Write(kj)
		b.WriteString(": ")
		b.Write(vj)
		if i < len(keys)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("  },\n")

	writeField("images", payload.Images)
	writeField("datasheets", payload.Datasheets)

	raw, _ := json.Marshal(payload.Descriptors)
	b.WriteString("  \"descriptors\": ")
	b.Write(raw)
	b.WriteString("\n}")
	return b.String()
}
