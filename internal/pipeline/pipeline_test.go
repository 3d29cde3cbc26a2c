package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partly/enrichment-engine/internal/datasheet"
	"github.com/partly/enrichment-engine/internal/domain"
	"github.com/partly/enrichment-engine/internal/extract"
	"github.com/partly/enrichment-engine/internal/normalize"
	"github.com/partly/enrichment-engine/internal/observability"
)

type fakeDiscoverer struct {
	result *domain.DiscoveryResult
	err    error
	gotMPN string
}

func (f *fakeDiscoverer) Discover(_ context.Context, mpn, _ string) (*domain.DiscoveryResult, error) {
	f.gotMPN = mpn
	return f.result, f.err
}

type fakeCrawler struct {
	results map[string]domain.CrawlResult
	calls   []string
}

func (f *fakeCrawler) Crawl(_ context.Context, url string) domain.CrawlResult {
	f.calls = append(f.calls, url)
	if r, ok := f.results[url]; ok {
		return r
	}
	return domain.CrawlResult{Confidence: domain.ConfidenceLow, FallbackReason: domain.FallbackFetchFailed}
}

type fakeExtractor struct {
	result extract.Result
	got    extract.Input
}

func (f *fakeExtractor) Extract(in extract.Input) extract.Result {
	f.got = in
	return f.result
}

type fakeDatasheets struct {
	ext    *datasheet.Extraction
	err    error
	gotURL string
}

func (f *fakeDatasheets) Extract(_ context.Context, pdfURL, _ string) (*datasheet.Extraction, error) {
	f.gotURL = pdfURL
	return f.ext, f.err
}

type fakeSynthesizer struct {
	out *domain.SynthesisOutput
	got *domain.NormalizedProduct
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, np *domain.NormalizedProduct) (*domain.SynthesisOutput, error) {
	f.got = np
	return f.out, nil
}

type fakeCache struct {
	saved map[string]any
}

func (f *fakeCache) SaveProductJSON(mpn string, v any) error {
	if f.saved == nil {
		f.saved = map[string]any{}
	}
	f.saved[mpn] = v
	return nil
}

func goodCrawl(url string) domain.CrawlResult {
	return domain.CrawlResult{
		FinalURL:   url,
		HTML:       "<html>product page</html>",
		Confidence: domain.ConfidenceHigh,
	}
}

func goodExtraction() extract.Result {
	return extract.Result{
		OK:      true,
		Quality: 0.80,
		Product: domain.ExtractedProduct{
			MPN:            "M1-1120-3",
			Manufacturer:   "SurgePure",
			SourceURL:      "https://surgepure.com/products/m1-1120-3",
			SourceType:     domain.SourceOEM,
			Confidence:     0.80,
			CanonicalTitle: "SurgePure M1-1120-3 Surge Protective Device",
			Specs:          map[string]string{"SCCR": "200 kA", "Product Type": "Surge Protection Device"},
		},
	}
}

func goodSynthesis() *domain.SynthesisOutput {
	return &domain.SynthesisOutput{
		CanonicalTitle:   "SurgePure M1-1120-3 Surge Protective Device",
		DisplayTitle:     "SurgePure M1-1120-3",
		KeyFeatures:      []string{"SCCR: 200 kA"},
		Overview:         "Whole-panel surge protection.",
		ShortDescription: "Surge protective device.",
		LongDescription:  "Protects panels from surge events.",
		Confidence:       0.7,
	}
}

func newTestService(disc *fakeDiscoverer, crawler *fakeCrawler, ext *fakeExtractor, synth *fakeSynthesizer, opts ...func(*Deps)) *Service {
	deps := Deps{
		Discoverer:  disc,
		Crawler:     crawler,
		Extractor:   ext,
		Normalizer:  normalize.NewService(nil, observability.Nop()),
		Synthesizer: synth,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return NewService(deps, observability.Nop())
}

func TestEnrichHappyPath(t *testing.T) {
	disc := &fakeDiscoverer{result: &domain.DiscoveryResult{
		PrimaryProductURL: "https://surgepure.com/products/m1-1120-3",
		Confidence:        domain.ConfidenceHigh,
	}}
	crawler := &fakeCrawler{results: map[string]domain.CrawlResult{
		"https://surgepure.com/products/m1-1120-3": goodCrawl("https://surgepure.com/products/m1-1120-3"),
	}}
	extractor := &fakeExtractor{result: goodExtraction()}
	synth := &fakeSynthesizer{out: goodSynthesis()}

	s := newTestService(disc, crawler, extractor, synth)
	final, err := s.Enrich(context.Background(), "M1-1120-3", "SurgePure")
	require.NoError(t, err)

	// 0.25*0.9 + 0.20*0.85 + 0.30*0.80 + 0.25*0.7 = 0.81
	assert.InDelta(t, 0.81, final.Confidence, 1e-9)
	assert.True(t, final.Usable)
	assert.Empty(t, final.FailureReason)

	assert.Equal(t, []domain.SpecRow{{Label: "SCCR", Value: "200 kA"}}, final.SpecTable)
	assert.Equal(t, "Surge Protection Device", final.ProductType)
	assert.Equal(t, "https://surgepure.com/products/m1-1120-3", final.SourceURL)
	assert.Equal(t, "M1-1120-3", extractor.got.MPN)
}

func TestEnrichNoProductURLs(t *testing.T) {
	disc := &fakeDiscoverer{result: &domain.DiscoveryResult{Confidence: domain.ConfidenceLow}}
	s := newTestService(disc, &fakeCrawler{}, &fakeExtractor{}, &fakeSynthesizer{})

	final, err := s.Enrich(context.Background(), "M1-1120-3", "SurgePure")
	require.NoError(t, err)

	assert.Equal(t, domain.FailureNoProductURLs, final.FailureReason)
	assert.False(t, final.Usable)
	// Only the discovery term contributes: 0.25 * 0.3.
	assert.InDelta(t, 0.075, final.Confidence, 1e-9)
}

func TestEnrichCrawlFailedCapsAtThreeURLs(t *testing.T) {
	disc := &fakeDiscoverer{result: &domain.DiscoveryResult{
		PrimaryProductURL: "https://a.example.com/p",
		BackupURLs:        []string{"https://b.example.com/p", "https://c.example.com/p", "https://d.example.com/p"},
		Confidence:        domain.ConfidenceMedium,
	}}
	crawler := &fakeCrawler{}
	s := newTestService(disc, crawler, &fakeExtractor{}, &fakeSynthesizer{})

	final, err := s.Enrich(context.Background(), "M1-1120-3", "SurgePure")
	require.NoError(t, err)

	assert.Equal(t, domain.FailureCrawlFailed, final.FailureReason)
	assert.Len(t, crawler.calls, 3, "crawl loop stops after three URLs")
	assert.NotContains(t, crawler.calls, "https://d.example.com/p")
}

func TestEnrichStopsAtFirstHTML(t *testing.T) {
	disc := &fakeDiscoverer{result: &domain.DiscoveryResult{
		PrimaryProductURL: "https://a.example.com/p",
		BackupURLs:        []string{"https://b.example.com/p", "https://c.example.com/p"},
		Confidence:        domain.ConfidenceHigh,
	}}
	crawler := &fakeCrawler{results: map[string]domain.CrawlResult{
		"https://b.example.com/p": goodCrawl("https://b.example.com/p"),
	}}
	extractor := &fakeExtractor{result: goodExtraction()}
	s := newTestService(disc, crawler, extractor, &fakeSynthesizer{out: goodSynthesis()})

	final, err := s.Enrich(context.Background(), "M1-1120-3", "SurgePure")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example.com/p", "https://b.example.com/p"}, crawler.calls)
	assert.Equal(t, "https://b.example.com/p", final.SourceURL)
}

func TestEnrichLowExtractionQuality(t *testing.T) {
	disc := &fakeDiscoverer{result: &domain.DiscoveryResult{
		PrimaryProductURL: "https://a.example.com/p",
		Confidence:        domain.ConfidenceHigh,
	}}
	crawler := &fakeCrawler{results: map[string]domain.CrawlResult{
		"https://a.example.com/p": goodCrawl("https://a.example.com/p"),
	}}
	extractor := &fakeExtractor{result: extract.Result{OK: false, Reason: extract.ReasonLowQuality, Quality: 0.25}}
	s := newTestService(disc, crawler, extractor, &fakeSynthesizer{})

	final, err := s.Enrich(context.Background(), "M1-1120-3", "SurgePure")
	require.NoError(t, err)

	assert.Equal(t, domain.FailureLowExtractionQuality, final.FailureReason)
	assert.Equal(t, 0.25, final.ConfidenceBreakdown.Extraction)
}

func TestEnrichRAVariant(t *testing.T) {
	disc := &fakeDiscoverer{result: &domain.DiscoveryResult{
		PrimaryProductURL: "https://surgepure.com/products/m1-1120-3",
		Confidence:        domain.ConfidenceHigh,
	}}
	crawler := &fakeCrawler{results: map[string]domain.CrawlResult{
		"https://surgepure.com/products/m1-1120-3": goodCrawl("https://surgepure.com/products/m1-1120-3"),
	}}
	extractor := &fakeExtractor{result: goodExtraction()}
	synth := &fakeSynthesizer{out: goodSynthesis()}
	s := newTestService(disc, crawler, extractor, synth)

	final, err := s.Enrich(context.Background(), "M1-1120-3RA", "SurgePure")
	require.NoError(t, err)

	assert.Equal(t, "M1-1120-3", disc.gotMPN, "discovery runs against the base part")
	assert.Equal(t, "M1-1120-3", extractor.got.MPN)

	require.True(t, final.Usable)
	assert.Equal(t, "M1-1120-3RA", final.DisplayTitle)
	assert.Contains(t, final.KeyFeatures, "Remote Alarm: Yes")
	assert.Contains(t, final.SpecTable, domain.SpecRow{Label: "Remote Alarm", Value: "Yes"})
	assert.Contains(t, final.Overview, "Includes remote alarm for system monitoring.")
	assert.Contains(t, final.ShortDescription, "Includes remote alarm for system monitoring.")

	// The normalizer saw the variant overlay too.
	alarm, ok := synth.got.Specs["Remote Alarm"]
	require.True(t, ok)
	assert.Equal(t, "Yes", alarm.Value)
}

func TestEnrichDatasheetEvidenceKeepsMPNAlive(t *testing.T) {
	disc := &fakeDiscoverer{result: &domain.DiscoveryResult{
		PrimaryProductURL: "https://a.example.com/p",
		PDFURLs:           []string{"https://surgepure.com/m1.pdf"},
		Confidence:        domain.ConfidenceHigh,
	}}
	crawler := &fakeCrawler{results: map[string]domain.CrawlResult{
		"https://a.example.com/p": goodCrawl("https://a.example.com/p"),
	}}
	// HTML extraction refuses; the datasheet is the only evidence.
	extractor := &fakeExtractor{result: extract.Result{OK: false, Reason: extract.ReasonLowQuality, Quality: 0.25}}
	sheets := &fakeDatasheets{ext: &datasheet.Extraction{
		Specs: []datasheet.SpecEntry{
			{Model: "M1-1120-3", Key: "MCOV", Value: "150 V", Source: "datasheet"},
		},
		OverviewText: "Isolates downline equipment.",
		Features:     []string{"Field-replaceable modules"},
	}}
	cache := &fakeCache{}
	synth := &fakeSynthesizer{out: goodSynthesis()}

	s := newTestService(disc, crawler, extractor, synth, func(d *Deps) {
		d.Datasheets = sheets
		d.Cache = cache
	})

	final, err := s.Enrich(context.Background(), "M1-1120-3", "SurgePure")
	require.NoError(t, err)

	assert.Empty(t, final.FailureReason, "datasheet evidence rescues a refused extraction")
	assert.Equal(t, "https://surgepure.com/m1.pdf", sheets.gotURL)
	assert.Contains(t, cache.saved, "M1-1120-3")

	assert.Equal(t, "150 V", synth.got.Specs["MCOV"].Value)
	assert.Equal(t, []domain.DatasheetRef{{URL: "https://surgepure.com/m1.pdf", Label: "Datasheet"}}, final.Datasheets)

	// 0.25*0.9 + 0.20*0.85 + 0.30*0.25 + 0.25*0.7 = 0.645, just under the gate.
	assert.InDelta(t, 0.645, final.Confidence, 1e-9)
	assert.False(t, final.Usable)
}
