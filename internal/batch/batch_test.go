package batch

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/partly/enrichment-engine/internal/domain"
	"github.com/partly/enrichment-engine/internal/observability"
	"github.com/partly/enrichment-engine/internal/storage"
)

func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		for j, v := range row {
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", name, v))
		}
	}
	path := filepath.Join(t.TempDir(), "input.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadInputHeaderAliases(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"Part Number", "Brand", "Notes"},
		{"M1-1120-3", "SurgePure", "ignored"},
		{" M2-2240-1 ", " Eaton "},
		{"", "Orphan"},
	})

	items, err := ReadInput(path)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, Item{MPN: "M1-1120-3", Manufacturer: "SurgePure"}, items[0])
	assert.Equal(t, Item{MPN: "M2-2240-1", Manufacturer: "Eaton"}, items[1])
}

func TestReadInputReorderedColumns(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"Manufacturer", "SKU"},
		{"SurgePure", "M1-1120-3"},
	})

	items, err := ReadInput(path)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "M1-1120-3", items[0].MPN)
	assert.Equal(t, "SurgePure", items[0].Manufacturer)
}

func TestReadInputNoHeaderFallsBackToFirstColumns(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"M1-1120-3", "SurgePure"},
		{"M2-2240-1", "Eaton"},
	})

	items, err := ReadInput(path)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "M1-1120-3", items[0].MPN)
	assert.Equal(t, "Eaton", items[1].Manufacturer)
}

func TestReadInputMissingFile(t *testing.T) {
	_, err := ReadInput(filepath.Join(t.TempDir(), "absent.xlsx"))
	require.Error(t, err)
}

type fakeEnricher struct {
	failMPN string
	calls   []string
}

func (f *fakeEnricher) Enrich(_ context.Context, mpn, manufacturer string) (*domain.FinalResult, error) {
	f.calls = append(f.calls, mpn)
	if mpn == f.failMPN {
		return nil, errors.New("search quota exhausted")
	}
	return &domain.FinalResult{
		MPN:          mpn,
		Manufacturer: manufacturer,
		Usable:       true,
		Images:       []string{"https://example.com/" + mpn + ".jpg"},
		Datasheets:   []domain.DatasheetRef{{URL: "https://example.com/" + mpn + ".pdf"}},
	}, nil
}

type fakeAssets struct {
	pdfs     []string
	images   []string
	manifest map[string]storage.ManifestEntry
}

func (f *fakeAssets) CachePDF(_ context.Context, mpn, _ string) (string, error) {
	f.pdfs = append(f.pdfs, mpn)
	return "/data/pdfs/" + mpn + ".pdf", nil
}

func (f *fakeAssets) CacheImage(_ context.Context, mpn, _ string) (string, error) {
	f.images = append(f.images, mpn)
	return "/data/images/" + mpn + ".jpg", nil
}

func (f *fakeAssets) UpdateManifest(mpn string, entry storage.ManifestEntry) error {
	if f.manifest == nil {
		f.manifest = map[string]storage.ManifestEntry{}
	}
	f.manifest[mpn] = entry
	return nil
}

func TestRunSkipsFailedItems(t *testing.T) {
	enricher := &fakeEnricher{failMPN: "M2-2240-1"}
	runner := NewRunner(enricher, nil, observability.Nop())

	results := runner.Run(context.Background(), []Item{
		{MPN: "M1-1120-3", Manufacturer: "SurgePure"},
		{MPN: "M2-2240-1", Manufacturer: "Eaton"},
		{MPN: "M3-3360-2", Manufacturer: "SurgePure"},
	})

	// The failing MPN is attempted, logged, and dropped from the output.
	assert.Equal(t, []string{"M1-1120-3", "M2-2240-1", "M3-3360-2"}, enricher.calls)
	require.Len(t, results, 2)
	assert.Equal(t, "M1-1120-3", results[0].MPN)
	assert.Equal(t, "M3-3360-2", results[1].MPN)
}

func TestRunCachesAssetsForUsableResults(t *testing.T) {
	enricher := &fakeEnricher{}
	assets := &fakeAssets{}
	runner := NewRunner(enricher, assets, observability.Nop())

	results := runner.Run(context.Background(), []Item{
		{MPN: "M1-1120-3", Manufacturer: "SurgePure"},
	})

	require.Len(t, results, 1)
	assert.Equal(t, []string{"M1-1120-3"}, assets.pdfs)
	assert.Equal(t, []string{"M1-1120-3"}, assets.images)
	entry, ok := assets.manifest["M1-1120-3"]
	require.True(t, ok)
	assert.Equal(t, "https://example.com/M1-1120-3.pdf", entry.DatasheetURL)
	assert.Equal(t, "/data/pdfs/M1-1120-3.pdf", entry.PDFPath)
	assert.Equal(t, "/data/images/M1-1120-3.jpg", entry.ImagePath)
}

type unusableEnricher struct{}

func (unusableEnricher) Enrich(_ context.Context, mpn, manufacturer string) (*domain.FinalResult, error) {
	return &domain.FinalResult{
		MPN:           mpn,
		Manufacturer:  manufacturer,
		Usable:        false,
		FailureReason: domain.FailureCrawlFailed,
		Datasheets:    []domain.DatasheetRef{{URL: "https://example.com/x.pdf"}},
	}, nil
}

func TestRunSkipsAssetsForUnusableResults(t *testing.T) {
	assets := &fakeAssets{}
	runner := NewRunner(unusableEnricher{}, assets, observability.Nop())

	results := runner.Run(context.Background(), []Item{{MPN: "M9-0000-0"}})

	require.Len(t, results, 1)
	assert.False(t, results[0].Usable)
	assert.Empty(t, assets.pdfs)
	assert.Empty(t, assets.manifest)
}

func TestWriteOutputRoundTrip(t *testing.T) {
	results := []*domain.FinalResult{
		{
			MPN:          "M1-1120-3",
			Manufacturer: "SurgePure",
			SynthesisOutput: domain.SynthesisOutput{
				KeyFeatures:     []string{"SCCR: 200 kA", "Warranty: 10 years"},
				Overview:        "Surge protective device for 120/240 V service entrances.",
				LongDescription: "Designed for panel mounting.\n\nIncludes status indication.",
			},
			SpecTable: []domain.SpecRow{
				{Label: "SCCR", Value: "200 kA"},
				{Label: "Warranty", Value: "10 years"},
			},
			Images:     []string{"https://example.com/m1.jpg"},
			Datasheets: []domain.DatasheetRef{{URL: "https://example.com/m1.pdf", Label: "Datasheet"}},
		},
	}

	path := filepath.Join(t.TempDir(), "output.xlsx")
	require.NoError(t, WriteOutput(path, results))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, exportHeaders, rows[0][:len(exportHeaders)])

	row := rows[1]
	assert.Equal(t, "M1-1120-3", row[0])
	assert.Equal(t, "SurgePure", row[1])
	assert.Equal(t, "• SCCR: 200 kA\n• Warranty: 10 years", row[2])
	assert.Equal(t, "Surge protective device for 120/240 V service entrances.", row[3])
	assert.Equal(t, "SCCR: 200 kA; Warranty: 10 years", row[4])
	assert.Equal(t,
		"<p>Surge protective device for 120/240 V service entrances.</p>"+
			"<p>Designed for panel mounting.</p><p>Includes status indication.</p>",
		row[5])
	assert.Equal(t, "https://example.com/m1.jpg", row[6])
	assert.Equal(t, "https://example.com/m1.pdf", row[7])
}

func TestWriteOutputEmptyResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteOutput(path, nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
