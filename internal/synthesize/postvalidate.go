package synthesize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/partly/enrichment-engine/internal/domain"
)

const (
	maxSEOLength = 160

	installationDisclaimer = "Installation should follow local electrical codes and be performed by qualified personnel."
	notSpecifiedDisclaimer = "Some specifications were not provided and are listed as Not specified."

	// minFeaturesForOverview gates the deterministic overview fallback.
	minFeaturesForOverview = 4
)

var tldFragments = []string{".com", ".net"}

// postValidate repairs the LLM output in place: titles, key-feature
// grounding, disclaimers, deterministic fallbacks and the SEO length cap.
func postValidate(out *domain.SynthesisOutput, payload FactPayload) {
	fallbackTitle := strings.TrimSpace(payload.Manufacturer + " " + payload.MPN)

	if out.CanonicalTitle == "" || containsTLD(out.CanonicalTitle) {
		out.CanonicalTitle = fallbackTitle
	}
	if out.DisplayTitle == "" || containsTLD(out.DisplayTitle) {
		out.DisplayTitle = out.CanonicalTitle
	}

	out.KeyFeatures = groundedFeatures(out.KeyFeatures, payload.Specs)

	if hasUnspecifiedSpec(payload.Specs) {
		out.Disclaimers = appendUnique(out.Disclaimers, notSpecifiedDisclaimer)
	}
	out.Disclaimers = appendUnique(out.Disclaimers, installationDisclaimer)

	if strings.TrimSpace(out.Overview) == "" && len(out.KeyFeatures) >= minFeaturesForOverview {
		out.Overview = fallbackOverview(out.CanonicalTitle, out.KeyFeatures)
	}
	if strings.TrimSpace(out.ShortDescription) == "" && len(out.KeyFeatures) >= 1 {
		out.ShortDescription = fmt.Sprintf("%s with %s.", out.CanonicalTitle, out.KeyFeatures[0])
	}

	if runes := []rune(out.SEODescription); len(runes) > maxSEOLength {
		out.SEODescription = string(runes[:maxSEOLength])
	}
}

// groundedFeatures drops key features whose label does not name an input
// spec. The label is everything before the first colon.
func groundedFeatures(features []string, specs map[string]string) []string {
	kept := features[:0]
	for _, f := range features {
		label, _, found := strings.Cut(f, ":")
		if !found {
			continue
		}
		if _, ok := specs[strings.TrimSpace(label)]; ok {
			kept = append(kept, f)
		}
	}
	return kept
}

func hasUnspecifiedSpec(specs map[string]string) bool {
	for _, v := range specs {
		if strings.TrimSpace(v) == "" || strings.EqualFold(strings.TrimSpace(v), "Not specified") {
			return true
		}
	}
	return false
}

func appendUnique(items []string, item string) []string {
	for _, it := range items {
		if it == item {
			return items
		}
	}
	return append(items, item)
}

func containsTLD(title string) bool {
	lower := strings.ToLower(title)
	for _, frag := range tldFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// fallbackOverview builds a deterministic overview from the grounded key
// features when the LLM left the field empty.
func fallbackOverview(title string, features []string) string {
	listed := features
	if len(listed) > minFeaturesForOverview {
		listed = listed[:minFeaturesForOverview]
	}
	return fmt.Sprintf("%s. Key specifications: %s.", title, strings.Join(listed, "; "))
}

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ungroundedNumbers returns numeric tokens in the generated prose that do
// not occur anywhere in the input facts. The prompt forbids them; this
// check surfaces violations for logging.
func ungroundedNumbers(out *domain.SynthesisOutput, payload FactPayload) []string {
	known := map[string]bool{}
	addNumbers := func(text string) {
		for _, n := range numberPattern.FindAllString(text, -1) {
			known[n] = true
		}
	}
	addNumbers(payload.MPN)
	addNumbers(payload.Title)
	for key, value := range payload.Specs {
		addNumbers(key)
		addNumbers(value)
	}
	for _, d := range payload.Descriptors {
		addNumbers(d)
	}

	generated := []string{
		out.CanonicalTitle, out.DisplayTitle, out.Overview,
		out.ShortDescription, out.LongDescription, out.SEODescription,
	}
	generated = append(generated, out.KeyFeatures...)
	generated = append(generated, out.BulletHighlights...)

	seen := map[string]bool{}
	var invented []string
	for _, text := range generated {
		for _, n := range numberPattern.FindAllString(text, -1) {
			if !known[n] && !seen[n] {
				seen[n] = true
				invented = append(invented, n)
			}
		}
	}
	return invented
}
