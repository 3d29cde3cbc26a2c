package synthesize

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partly/enrichment-engine/internal/domain"
	"github.com/partly/enrichment-engine/internal/observability"
)

type fakeGenerator struct {
	response string
	prompt   string
	err      error
}

func (f *fakeGenerator) GenerateStructured(_ context.Context, prompt string) ([]byte, error) {
	f.prompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.response), nil
}

func normalizedFixture() *domain.NormalizedProduct {
	return &domain.NormalizedProduct{
		MPN:            "M1-1120-3",
		Manufacturer:   "SurgePure",
		CanonicalTitle: "SurgePure M1-1120-3 Surge Protective Device",
		Specs: map[string]domain.SpecValue{
			"Nominal AC Line Voltage (VRMS)": {Value: "120/240 V", Confidence: 0.95},
			"SCCR":                           {Value: "200 kA", Confidence: 0.95},
			"Warranty":                       {Value: "10 years", Confidence: 0.80},
			"MCOV":                           {Value: "150 V", Confidence: 0.95},
		},
		VerbatimSections: []domain.VerbatimSection{
			{Heading: "Overview", Text: "Isolates downline equipment from surge events."},
		},
		Images:     []string{"https://surgepure.com/img/m1.jpg"},
		Datasheets: []domain.DatasheetRef{{URL: "https://surgepure.com/m1.pdf", Label: "Datasheet"}},
	}
}

func TestBuildPayloadStripsProvenance(t *testing.T) {
	payload := buildPayload(normalizedFixture())

	assert.Equal(t, "120/240 V", payload.Specs["Nominal AC Line Voltage (VRMS)"])
	assert.Equal(t, []string{"Overview: Isolates downline equipment from surge events."}, payload.Descriptors)
	assert.NotContains(t, factsJSON(payload), "confidence")
	assert.NotContains(t, factsJSON(payload), "0.95")
}

func TestSynthesizeGroundsKeyFeatures(t *testing.T) {
	gen := &fakeGenerator{response: `{
		"canonicalTitle": "SurgePure M1-1120-3 Surge Protective Device",
		"displayTitle": "M1-1120-3",
		"keyFeatures": ["SCCR: 200 kA", "Warranty: 10 years", "Imaginary Spec: 5 things", "no colon here"],
		"overview": "Whole-panel surge protection rated 200 kA.",
		"shortDescription": "Surge protective device.",
		"longDescription": "Protects panels from surge events.",
		"bulletHighlights": ["200 kA SCCR"],
		"seoDescription": "SurgePure M1-1120-3 surge protective device.",
		"disclaimers": []
	}`}
	s := NewService(gen, observability.Nop())

	out, err := s.Synthesize(context.Background(), normalizedFixture())
	require.NoError(t, err)

	assert.Equal(t, []string{"SCCR: 200 kA", "Warranty: 10 years"}, out.KeyFeatures,
		"features without a matching input spec are dropped")
	assert.Contains(t, out.Disclaimers, installationDisclaimer)
	assert.NotContains(t, out.Disclaimers, notSpecifiedDisclaimer)

	// 2 grounded features over 4 input specs = 0.5, +0.1 images +0.1 datasheets.
	assert.InDelta(t, 0.7, out.Confidence, 1e-9)

	assert.Contains(t, gen.prompt, "Never invent facts")
	assert.Contains(t, gen.prompt, `"SCCR": "200 kA"`)
}

func TestContentConfidenceCeiling(t *testing.T) {
	gen := &fakeGenerator{response: `{
		"canonicalTitle": "SurgePure M1-1120-3 Surge Protective Device",
		"keyFeatures": ["SCCR: 200 kA", "Warranty: 10 years", "MCOV: 150 V", "Nominal AC Line Voltage (VRMS): 120/240 V"],
		"overview": "Full coverage.",
		"shortDescription": "SPD.",
		"seoDescription": "x"
	}`}
	s := NewService(gen, observability.Nop())

	out, err := s.Synthesize(context.Background(), normalizedFixture())
	require.NoError(t, err)

	// Coverage 4/4 plus media bonuses would be 1.2; capped at 0.85.
	assert.InDelta(t, contentConfidenceCeiling, out.Confidence, 1e-9)
}

func TestTLDTitleReplaced(t *testing.T) {
	gen := &fakeGenerator{response: `{
		"canonicalTitle": "galco.com M1-1120-3 listing",
		"displayTitle": "www.galco.com product",
		"keyFeatures": ["SCCR: 200 kA"],
		"overview": "o", "shortDescription": "s", "seoDescription": "x"
	}`}
	s := NewService(gen, observability.Nop())

	out, err := s.Synthesize(context.Background(), normalizedFixture())
	require.NoError(t, err)

	assert.Equal(t, "SurgePure M1-1120-3", out.CanonicalTitle)
	assert.Equal(t, "SurgePure M1-1120-3", out.DisplayTitle)
}

func TestSEODescriptionHardTruncated(t *testing.T) {
	long := strings.Repeat("surge protection ", 20) // 340 chars
	gen := &fakeGenerator{response: `{
		"canonicalTitle": "SurgePure M1-1120-3",
		"keyFeatures": [],
		"seoDescription": "` + long + `"
	}`}
	s := NewService(gen, observability.Nop())

	out, err := s.Synthesize(context.Background(), normalizedFixture())
	require.NoError(t, err)
	assert.Len(t, []rune(out.SEODescription), maxSEOLength)
}

func TestNotSpecifiedDisclaimer(t *testing.T) {
	np := normalizedFixture()
	np.Specs["Response Time"] = domain.SpecValue{Value: "Not specified"}

	gen := &fakeGenerator{response: `{
		"canonicalTitle": "SurgePure M1-1120-3",
		"keyFeatures": [],
		"disclaimers": ["` + installationDisclaimer + `"]
	}`}
	s := NewService(gen, observability.Nop())

	out, err := s.Synthesize(context.Background(), np)
	require.NoError(t, err)

	assert.Contains(t, out.Disclaimers, notSpecifiedDisclaimer)
	count := 0
	for _, d := range out.Disclaimers {
		if d == installationDisclaimer {
			count++
		}
	}
	assert.Equal(t, 1, count, "installation disclaimer never duplicated")
}

func TestDeterministicFallbacks(t *testing.T) {
	gen := &fakeGenerator{response: `{
		"canonicalTitle": "SurgePure M1-1120-3 Surge Protective Device",
		"keyFeatures": ["SCCR: 200 kA", "Warranty: 10 years", "MCOV: 150 V", "Nominal AC Line Voltage (VRMS): 120/240 V"],
		"overview": "",
		"shortDescription": "",
		"seoDescription": "x"
	}`}
	s := NewService(gen, observability.Nop())

	out, err := s.Synthesize(context.Background(), normalizedFixture())
	require.NoError(t, err)

	assert.Equal(t,
		"SurgePure M1-1120-3 Surge Protective Device. Key specifications: "+
			"SCCR: 200 kA; Warranty: 10 years; MCOV: 150 V; Nominal AC Line Voltage (VRMS): 120/240 V.",
		out.Overview)
	assert.Equal(t,
		"SurgePure M1-1120-3 Surge Protective Device with SCCR: 200 kA.",
		out.ShortDescription)
}

func TestShortDescriptionFallbackNeedsAFeature(t *testing.T) {
	gen := &fakeGenerator{response: `{
		"canonicalTitle": "SurgePure M1-1120-3",
		"keyFeatures": [],
		"overview": "",
		"shortDescription": "",
		"seoDescription": "x"
	}`}
	s := NewService(gen, observability.Nop())

	out, err := s.Synthesize(context.Background(), normalizedFixture())
	require.NoError(t, err)
	assert.Empty(t, out.Overview, "overview fallback needs four features")
	assert.Empty(t, out.ShortDescription)
}

func TestParseSynthesisTolerantOfFences(t *testing.T) {
	gen := &fakeGenerator{response: "Here is the content:\n```json\n" + `{
		"canonicalTitle": "SurgePure M1-1120-3",
		"keyFeatures": ["SCCR: 200 kA"],
		"seoDescription": "x"
	}` + "\n```"}
	s := NewService(gen, observability.Nop())

	out, err := s.Synthesize(context.Background(), normalizedFixture())
	require.NoError(t, err)
	assert.Equal(t, []string{"SCCR: 200 kA"}, out.KeyFeatures)
}

func TestSynthesizeMalformedJSONErrors(t *testing.T) {
	gen := &fakeGenerator{response: "no json at all"}
	s := NewService(gen, observability.Nop())

	_, err := s.Synthesize(context.Background(), normalizedFixture())
	assert.Error(t, err)
}

func TestUngroundedNumbers(t *testing.T) {
	payload := buildPayload(normalizedFixture())

	out := &domain.SynthesisOutput{
		Overview:    "Rated 200 kA with a 500 kA headroom claim.",
		KeyFeatures: []string{"SCCR: 200 kA"},
	}
	invented := ungroundedNumbers(out, payload)
	assert.Equal(t, []string{"500"}, invented, "200 grounded in facts, 500 invented")

	out.Overview = "Rated 200 kA across 120/240 V services."
	assert.Empty(t, ungroundedNumbers(out, payload))
}
