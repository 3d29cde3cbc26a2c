package pipeline

import (
	"strings"

	"github.com/partly/enrichment-engine/internal/domain"
)

// Blend weights over the four stage confidences.
const (
	weightDiscovery  = 0.25
	weightCrawl      = 0.20
	weightExtraction = 0.30
	weightSynthesis  = 0.25
)

const remoteAlarmFeature = "Remote Alarm: Yes"
const remoteAlarmSentence = "Includes remote alarm for system monitoring."

// blendScore folds the per-stage confidences into one number.
func blendScore(b domain.ConfidenceBreakdown) float64 {
	return weightDiscovery*b.Discovery +
		weightCrawl*b.Crawl +
		weightExtraction*b.Extraction +
		weightSynthesis*b.Synthesis
}

// assembleResult builds the FinalResult from the merged product and the
// synthesized content.
func assembleResult(mpn, manufacturer string, np *domain.NormalizedProduct, synth *domain.SynthesisOutput, breakdown domain.ConfidenceBreakdown) *domain.FinalResult {
	confidence := blendScore(breakdown)

	final := &domain.FinalResult{
		MPN:                 mpn,
		Manufacturer:        manufacturer,
		SynthesisOutput:     *synth,
		ConfidenceBreakdown: breakdown,
		Confidence:          confidence,
		Usable:              confidence >= domain.UsableThreshold,
		Images:              np.Images,
		Datasheets:          np.Datasheets,
		SpecTable:           specTable(synth.KeyFeatures),
	}
	if pt, ok := np.Specs["Product Type"]; ok {
		final.ProductType = pt.Value
	}
	return final
}

// failureResult reports an MPN that produced no evidence.
func failureResult(mpn, manufacturer string, reason domain.FailureReason, breakdown domain.ConfidenceBreakdown) *domain.FinalResult {
	return &domain.FinalResult{
		MPN:                 mpn,
		Manufacturer:        manufacturer,
		ConfidenceBreakdown: breakdown,
		Confidence:          blendScore(breakdown),
		Usable:              false,
		FailureReason:       reason,
		SpecTable:           []domain.SpecRow{},
	}
}

// specTable splits each key feature on its first colon.
func specTable(keyFeatures []string) []domain.SpecRow {
	rows := make([]domain.SpecRow, 0, len(keyFeatures))
	for _, f := range keyFeatures {
		label, value, found := strings.Cut(f, ":")
		if !found {
			rows = append(rows, domain.SpecRow{Label: strings.TrimSpace(f)})
			continue
		}
		rows = append(rows, domain.SpecRow{
			Label: strings.TrimSpace(label),
			Value: strings.TrimSpace(value),
		})
	}
	return rows
}

// applyVariantPatch rewrites a usable result for the remote-alarm variant.
func applyVariantPatch(final *domain.FinalResult, variantMPN string) {
	final.DisplayTitle = variantMPN

	hasFeature := false
	for _, f := range final.KeyFeatures {
		if f == remoteAlarmFeature {
			hasFeature = true
			break
		}
	}
	if !hasFeature {
		final.KeyFeatures = append(final.KeyFeatures, remoteAlarmFeature)
	}

	hasRow := false
	for _, row := range final.SpecTable {
		if row.Label == "Remote Alarm" {
			hasRow = true
			break
		}
	}
	if !hasRow {
		final.SpecTable = append(final.SpecTable, domain.SpecRow{Label: "Remote Alarm", Value: "Yes"})
	}

	final.Overview = appendSentence(final.Overview, remoteAlarmSentence)
	final.ShortDescription = appendSentence(final.ShortDescription, remoteAlarmSentence)
	final.LongDescription = appendSentence(final.LongDescription, remoteAlarmSentence)
}

func appendSentence(text, sentence string) string {
	if strings.Contains(text, sentence) {
		return text
	}
	if strings.TrimSpace(text) == "" {
		return sentence
	}
	return strings.TrimSpace(text) + " " + sentence
}
