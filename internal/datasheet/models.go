package datasheet

import (
	"regexp"
	"strings"
)

// Model-token detection. Datasheets print model numbers three ways: the
// standard hyphenated form, a space-separated form the column repair did
// not catch, and bare tokens on the line after a MODEL NUMBER header.
var (
	modelHyphenated = regexp.MustCompile(`\b[A-Z]{1,3}\d?-\d{3,4}-\d\b`)
	modelSpaced     = regexp.MustCompile(`\b([A-Z]{1,3}\d?) (\d{3,4}) (\d)\b`)
	modelHeader     = regexp.MustCompile(`(?i)MODEL\s+NUMBER[S]?[:\s]*((?:[A-Z]{1,3}\d?-\d{3,4}-\d[,\s]*)+)`)
)

// detectModels finds every model token in the text and canonicalizes to the
// hyphenated form.
func detectModels(text string) []string {
	seen := map[string]bool{}
	var models []string
	add := func(m string) {
		m = canonicalizeModel(m)
		if m != "" && !seen[m] {
			seen[m] = true
			models = append(models, m)
		}
	}

	for _, m := range modelHyphenated.FindAllString(text, -1) {
		add(m)
	}
	for _, groups := range modelSpaced.FindAllStringSubmatch(text, -1) {
		add(groups[1] + "-" + groups[2] + "-" + groups[3])
	}
	for _, groups := range modelHeader.FindAllStringSubmatch(text, -1) {
		for _, m := range modelHyphenated.FindAllString(groups[1], -1) {
			add(m)
		}
	}

	return models
}

// canonicalizeModel normalizes separators to hyphens and uppercases.
func canonicalizeModel(m string) string {
	m = strings.ToUpper(strings.TrimSpace(m))
	m = strings.Join(strings.Fields(m), "-")
	return m
}
