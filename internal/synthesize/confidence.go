package synthesize

import (
	"strings"

	"github.com/partly/enrichment-engine/internal/domain"
)

// contentConfidenceCeiling caps the synthesis score: generated prose is
// never trusted more than 0.85 regardless of spec coverage.
const contentConfidenceCeiling = 0.85

// contentConfidence scores how much of the input evidence the generated
// content actually uses: the fraction of input specs referenced by key
// features, plus 0.1 each for images and datasheets.
func contentConfidence(out *domain.SynthesisOutput, payload FactPayload) float64 {
	var coverage float64
	if len(payload.Specs) > 0 {
		referencing := 0
		for _, f := range out.KeyFeatures {
			label, _, found := strings.Cut(f, ":")
			if !found {
				continue
			}
			if _, ok := payload.Specs[strings.TrimSpace(label)]; ok {
				referencing++
			}
		}
		coverage = float64(referencing) / float64(len(payload.Specs))
	}

	score := coverage
	if len(payload.Images) > 0 {
		score += 0.1
	}
	if len(payload.Datasheets) > 0 {
		score += 0.1
	}
	if score > contentConfidenceCeiling {
		score = contentConfidenceCeiling
	}
	return score
}
