package batch

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/partly/enrichment-engine/internal/domain"
)

const exportSheet = "Enriched Catalog"

var exportHeaders = []string{
	"MPN",
	"Manufacturer",
	"Features",
	"Overview",
	"Technical Specs",
	"Description",
	"Image Link",
	"Datasheet Link",
}

// WriteOutput writes the enriched results to an xlsx workbook, one row
// per result in batch order.
func WriteOutput(path string, results []*domain.FinalResult) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(exportSheet)
	if err != nil {
		return domain.IOError("create sheet", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return domain.IOError("delete default sheet", err)
	}

	for col, h := range exportHeaders {
		if err := setCell(f, 1, col, h); err != nil {
			return err
		}
	}

	for i, res := range results {
		row := i + 2
		values := []string{
			res.MPN,
			res.Manufacturer,
			featureBullets(res.KeyFeatures),
			res.Overview,
			specSummary(res.SpecTable),
			descriptionHTML(res),
			first(res.Images),
			datasheetLink(res.Datasheets),
		}
		for col, v := range values {
			if err := setCell(f, row, col, v); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return domain.IOError("save workbook "+path, err)
	}
	return nil
}

func setCell(f *excelize.File, row, col int, value string) error {
	name, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return domain.IOError("cell coordinates", err)
	}
	if err := f.SetCellValue(exportSheet, name, value); err != nil {
		return domain.IOError("set cell "+name, err)
	}
	return nil
}

// featureBullets renders the key features as newline-separated bullets.
func featureBullets(features []string) string {
	if len(features) == 0 {
		return ""
	}
	bullets := make([]string, 0, len(features))
	for _, f := range features {
		bullets = append(bullets, "• "+f)
	}
	return strings.Join(bullets, "\n")
}

// specSummary joins the spec table into a single "key: value; ..." cell.
func specSummary(rows []domain.SpecRow) string {
	parts := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Value == "" {
			parts = append(parts, r.Label)
			continue
		}
		parts = append(parts, r.Label+": "+r.Value)
	}
	return strings.Join(parts, "; ")
}

// descriptionHTML wraps the overview and long description in paragraph
// tags for catalog platforms that accept HTML.
func descriptionHTML(res *domain.FinalResult) string {
	var b strings.Builder
	for _, text := range []string{res.Overview, res.LongDescription} {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		for _, para := range strings.Split(text, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			fmt.Fprintf(&b, "<p>%s</p>", para)
		}
	}
	return b.String()
}

func datasheetLink(refs []domain.DatasheetRef) string {
	if len(refs) == 0 {
		return ""
	}
	return refs[0].URL
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
