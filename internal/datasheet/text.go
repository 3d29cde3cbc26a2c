package datasheet

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/partly/enrichment-engine/internal/domain"
)

// extractText pulls plain text from every page and normalizes the unicode
// noise PDF generators leave behind. Line boundaries are preserved; runs of
// spaces inside a line are collapsed.
func extractText(pdfPath string) (string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return "", domain.ParseError("failed to open pdf", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return "", domain.ValidationError("pdf has no pages", nil)
	}

	var b strings.Builder
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		text, err := doc.Text(pageNum)
		if err != nil {
			return "", domain.ParseError(fmt.Sprintf("failed to read page %d", pageNum+1), err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	return normalizeText(b.String()), nil
}

// unicodeNoise maps typographic dashes and non-breaking spaces to their
// ASCII equivalents.
var unicodeNoise = strings.NewReplacer(
	"‐", "-", "‑", "-", "‒", "-",
	"–", "-", "—", "-", "−", "-",
	" ", " ",
)

var spaceRuns = regexp.MustCompile(`[ \t]+`)

func normalizeText(text string) string {
	text = unicodeNoise.Replace(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRuns.ReplaceAllString(line, " "))
	}
	return strings.Join(lines, "\n")
}
