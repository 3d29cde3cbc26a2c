package datasheet

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/partly/enrichment-engine/internal/domain"
)

// SpecEntry is one mapped spec value for one model.
type SpecEntry struct {
	Model  string `json:"model"`
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// mappedColumn is the JSON contract the model must return.
type mappedColumn struct {
	Model string             `json:"model"`
	Specs map[string]*string `json:"specs"`
}

// mapColumn asks the LLM to isolate one model's column from the raw rows.
// Values keep their units; a null means the cell read N/A.
func (s *Service) mapColumn(ctx context.Context, parsed *ParseResult, targetModel string) ([]SpecEntry, error) {
	prompt := buildMappingPrompt(parsed, targetModel)

	raw, err := s.generator.GenerateStructured(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var col mappedColumn
	if err := json.Unmarshal(raw, &col); err != nil {
		return nil, domain.ParseError("model mapping returned malformed JSON", err)
	}
	if col.Model == "" {
		col.Model = targetModel
	}

	entries := make([]SpecEntry, 0, len(col.Specs))
	for key, value := range col.Specs {
		if value == nil || strings.TrimSpace(*value) == "" {
			continue
		}
		entries = append(entries, SpecEntry{
			Model:  col.Model,
			Key:    strings.TrimSpace(key),
			Value:  strings.TrimSpace(*value),
			Source: "datasheet",
		})
	}
	return entries, nil
}

// buildMappingPrompt carries the strict column-isolation contract.
func buildMappingPrompt(parsed *ParseResult, targetModel string) string {
	var b strings.Builder

	b.WriteString("You are mapping a product datasheet specification table.\n")
	b.WriteString("The table covers these models:\n")
	b.WriteString(strings.Join(parsed.DetectedModels, ", "))
	b.WriteString("\n\nTarget model: ")
	b.WriteString(targetModel)
	b.WriteString("\n\nRaw table rows (label followed by every model's column values):\n")
	for _, row := range parsed.RawRows {
		fmt.Fprintf(&b, "%s | %s\n", row.Key, row.Raw)
	}

	b.WriteString(`
Rules:
- Extract ONLY the target model's column.
- Normalize spec names to clean human-readable labels.
- Preserve units exactly as printed.
- Use null when the target model's cell is N/A or absent.
- Do not invent values.

Respond with a single JSON object and nothing else:
{"model": "` + targetModel + `", "specs": {"<spec name>": "<value>" | null}}
`)

	return b.String()
}
