package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/partly/enrichment-engine/internal/domain"
)

// ExtractJSONObject locates the first complete JSON object inside model
// output. Models wrap objects in prose, code fences, or a BOM; the scanner
// tolerates all three. On a parse failure the extractor quotes bare-word
// tokens inside arrays and tries once more.
func ExtractJSONObject(text string) ([]byte, error) {
	cleaned := strings.TrimPrefix(text, "\xef\xbb\xbf")
	cleaned = stripCodeFences(cleaned)

	candidate, ok := scanBalancedObject(cleaned)
	if !ok {
		return nil, domain.ParseError("no JSON object found in model output", nil)
	}

	if json.Valid([]byte(candidate)) {
		return []byte(candidate), nil
	}

	sanitized := quoteBareWords(candidate)
	if json.Valid([]byte(sanitized)) {
		return []byte(sanitized), nil
	}

	return nil, domain.ParseError("model output is not valid JSON", nil)
}

// stripCodeFences unwraps ```json ... ``` blocks, keeping the inner text.
func stripCodeFences(s string) string {
	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}
	rest := s[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Drop the language tag line (e.g. "json").
		firstLine := strings.TrimSpace(rest[:nl])
		if len(firstLine) <= 10 && !strings.ContainsAny(firstLine, "{}") {
			rest = rest[nl+1:]
		}
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		return rest[:end]
	}
	return rest
}

// scanBalancedObject walks the text from the first '{' and returns the
// substring where the brace depth returns to zero. String literals and
// escapes are respected so braces inside values do not confuse the scan.
func scanBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// bareWordInArray matches unquoted word tokens in array positions, e.g.
// [Surge Protection, 120/240V]. true/false/null and numbers are left alone.
var bareWordInArray = regexp.MustCompile(`([\[,]\s*)([A-Za-z0-9][A-Za-z0-9 _/\-\.]*[A-Za-z0-9])(\s*[,\]])`)

func quoteBareWords(s string) string {
	// Repeated application handles adjacent tokens sharing a comma.
	prev := ""
	for prev != s {
		prev = s
		s = bareWordInArray.ReplaceAllStringFunc(s, func(m string) string {
			sub := bareWordInArray.FindStringSubmatch(m)
			word := sub[2]
			// Literals and numbers are already valid JSON values.
			if json.Valid([]byte(word)) {
				return m
			}
			return sub[1] + `"` + word + `"` + sub[3]
		})
	}
	return s
}
