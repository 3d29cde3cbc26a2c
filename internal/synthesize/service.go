// Package synthesize turns a merged product into catalog content via a
// fact-grounded LLM call, then validates and repairs the output.
package synthesize

import (
	"context"
	"encoding/json"

	"github.com/partly/enrichment-engine/internal/domain"
	"github.com/partly/enrichment-engine/internal/llm"
	"github.com/partly/enrichment-engine/internal/observability"
)

// Service generates catalog content.
type Service struct {
	generator domain.StructuredGenerator
	log       *observability.Logger
}

// NewService creates a synthesizer.
func NewService(generator domain.StructuredGenerator, log *observability.Logger) *Service {
	return &Service{generator: generator, log: log.WithStage("synthesize")}
}

// Synthesize produces catalog content for a normalized product. The hard
// failures are a generator error and malformed LLM JSON; everything else
// is repaired in post-validation.
func (s *Service) Synthesize(ctx context.Context, np *domain.NormalizedProduct) (*domain.SynthesisOutput, error) {
	payload := buildPayload(np)

	raw, err := s.generator.GenerateStructured(ctx, buildSynthesisPrompt(payload))
	if err != nil {
		return nil, err
	}

	out, err := parseSynthesis(raw)
	if err != nil {
		return nil, err
	}

	postValidate(out, payload)
	out.Confidence = contentConfidence(out, payload)

	if invented := ungroundedNumbers(out, payload); len(invented) > 0 {
		s.log.Warn().
			Str("mpn", np.MPN).
			Strs("numbers", invented).
			Msg("synthesis emitted numbers absent from input facts")
	}

	s.log.Info().
		Str("mpn", np.MPN).
		Int("keyFeatures", len(out.KeyFeatures)).
		Float64("contentConfidence", out.Confidence).
		Msg("content synthesized")

	return out, nil
}

// parseSynthesis unmarshals the LLM reply, retrying through the tolerant
// JSON extractor when the raw bytes do not decode cleanly.
func parseSynthesis(raw []byte) (*domain.SynthesisOutput, error) {
	var out domain.SynthesisOutput
	if err := json.Unmarshal(raw, &out); err == nil {
		return &out, nil
	}

	extracted, err := llm.ExtractJSONObject(string(raw))
	if err != nil {
		return nil, domain.ParseError("synthesis returned malformed JSON", err)
	}
	if err := json.Unmarshal(extracted, &out); err != nil {
		return nil, domain.ParseError("synthesis returned malformed JSON", err)
	}
	return &out, nil
}
