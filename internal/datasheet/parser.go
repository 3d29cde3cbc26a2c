package datasheet

import (
	"fmt"
	"strings"

	"github.com/partly/enrichment-engine/internal/domain"
)

// minSpecRows is the parse-failure gate. A datasheet whose table yields
// fewer rows than this was fractured beyond repair.
const minSpecRows = 18

// RawRow is one reconstructed spec-table row. Raw keeps the full
// right-hand-side column string for the LLM to split per model.
type RawRow struct {
	Key string `json:"key"`
	Raw string `json:"raw"`
}

// ParseResult is the deterministic half of datasheet extraction.
type ParseResult struct {
	DetectedModels []string
	RawRows        []RawRow
	Features       []string
	RawText        string
	OverviewText   string
	SidebarBullets []string
}

// Section sentinels that close the spec table.
var tableSentinels = []string{
	"KEY FEATURES",
	"FEATURES",
	"STANDARDS",
	"COMPLIANCE",
	"AGENCY",
	"PAGE ",
}

var overviewTerms = []string{"surge", "spd", "isolates", "downline", "equipment", "panels"}

var bulletCalloutTerms = []string{"spd", "sccr", "kaic", "type 1", "type 2"}

// parseText reconstructs the spec table, overview prose, sidebar callouts
// and feature list from normalized datasheet text.
func parseText(text string) (*ParseResult, error) {
	result := &ParseResult{
		RawText:        text,
		DetectedModels: detectModels(text),
	}

	lines := strings.Split(text, "\n")
	inTable := false
	inFeatures := false
	var overview []string
	var currentFeature string

	flushFeature := func() {
		f := strings.TrimSpace(currentFeature)
		if f != "" {
			result.Features = append(result.Features, f)
		}
		currentFeature = ""
	}

	for _, rawLine := range lines {
		line := repairColumns(rawLine)
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		upper := strings.ToUpper(trimmed)

		if strings.HasPrefix(upper, "KEY FEATURES") {
			inTable = false
			inFeatures = true
			continue
		}
		if inFeatures {
			if isSentinel(upper) {
				flushFeature()
				inFeatures = false
			} else if strings.HasPrefix(trimmed, "•") || strings.HasPrefix(trimmed, "-") {
				flushFeature()
				currentFeature = strings.TrimSpace(strings.TrimLeft(trimmed, "•- "))
				continue
			} else if currentFeature != "" && isContinuation(trimmed) {
				currentFeature += " " + trimmed
				continue
			} else {
				flushFeature()
				continue
			}
		}

		// A Model Number header row with multiple model tokens opens the
		// spec table; everything below is rows until a sentinel.
		if strings.HasPrefix(upper, "MODEL NUMBER") {
			if len(modelHyphenated.FindAllString(line, -1)) > 1 {
				inTable = true
			}
			continue
		}

		if inTable {
			// Dictionary rows win over sentinels so a row such as
			// "Agency Appro..." is not mistaken for an AGENCY heading.
			if label, rest, ok := repairLabel(trimmed); ok {
				result.RawRows = append(result.RawRows, RawRow{Key: label, Raw: rest})
				continue
			}
			if isSentinel(upper) {
				inTable = false
				continue
			}
			if key, rest, ok := splitGenericRow(trimmed); ok {
				result.RawRows = append(result.RawRows, RawRow{Key: key, Raw: rest})
			}
			continue
		}

		if isSidebarBullet(trimmed) {
			result.SidebarBullets = append(result.SidebarBullets, trimmed)
			continue
		}
		if isOverviewLine(trimmed) {
			overview = append(overview, trimmed)
		}
	}
	flushFeature()

	result.OverviewText = strings.Join(overview, " ")
	result.Features = dedupe(result.Features)

	if len(result.RawRows) < minSpecRows {
		return nil, domain.ParseError(
			fmt.Sprintf("spec table underflow: %d rows parsed, need %d", len(result.RawRows), minSpecRows), nil)
	}

	return result, nil
}

func isSentinel(upper string) bool {
	for _, s := range tableSentinels {
		if strings.HasPrefix(upper, s) {
			return true
		}
	}
	return false
}

// splitGenericRow handles rows whose label is not in the repair dictionary:
// the label is the leading run of words before the first value-shaped
// token (a digit or a model token).
func splitGenericRow(line string) (key, rest string, ok bool) {
	words := strings.Fields(line)
	split := -1
	for i, w := range words {
		if i > 0 && (startsWithDigit(w) || modelHyphenated.MatchString(w)) {
			split = i
			break
		}
	}
	if split <= 0 || split == len(words) {
		return "", "", false
	}
	return strings.Join(words[:split], " "), strings.Join(words[split:], " "), true
}

func startsWithDigit(w string) bool {
	return len(w) > 0 && w[0] >= '0' && w[0] <= '9'
}

// isOverviewLine keeps long prose lines that talk about the domain.
func isOverviewLine(line string) bool {
	if len(line) <= 50 {
		return false
	}
	lower := strings.ToLower(line)
	for _, t := range overviewTerms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// isSidebarBullet matches safety callouts ("Protects downline panels!")
// that reference ratings or device classes.
func isSidebarBullet(line string) bool {
	if !strings.HasSuffix(line, "!") {
		return false
	}
	lower := strings.ToLower(line)
	for _, t := range bulletCalloutTerms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// isContinuation accepts wrapped feature lines that start lowercase. Lines
// arrive already trimmed, so original indentation is not considered.
func isContinuation(trimmed string) bool {
	r := rune(trimmed[0])
	return r >= 'a' && r <= 'z'
}

func dedupe(items []string) []string {
	seen := map[string]bool{}
	out := items[:0]
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}
