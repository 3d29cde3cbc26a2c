// Package batch reads MPN worksheets, runs the pipeline over every row,
// and writes the enriched catalog back out as a workbook.
package batch

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/partly/enrichment-engine/internal/domain"
)

// Item is one worksheet row to enrich.
type Item struct {
	MPN          string
	Manufacturer string
}

// Column header aliases, matched case-insensitively after trimming.
var (
	mpnHeaders          = []string{"mpn", "part number", "sku", "mfg part number"}
	manufacturerHeaders = []string{"manufacturer", "mfg", "brand"}
)

// ReadInput loads (MPN, manufacturer) rows from the first sheet of a
// workbook. Header columns are located by alias; when no header matches,
// column 0 is the MPN and column 1 the manufacturer. Rows with an empty
// MPN are dropped.
func ReadInput(path string) ([]Item, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, domain.IOError("open workbook "+path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.ValidationError("workbook has no sheets", nil)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, domain.IOError("read sheet "+sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	mpnCol, mfgCol, hasHeader := locateColumns(rows[0])

	dataRows := rows
	if hasHeader {
		dataRows = rows[1:]
	}

	var items []Item
	for _, row := range dataRows {
		item := Item{
			MPN:          cell(row, mpnCol),
			Manufacturer: cell(row, mfgCol),
		}
		if item.MPN == "" {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// locateColumns matches the header row against the alias lists. A header
// row that matches neither list is treated as data.
func locateColumns(header []string) (mpnCol, mfgCol int, hasHeader bool) {
	mpnCol, mfgCol = 0, 1
	for i, h := range header {
		normalized := strings.ToLower(strings.TrimSpace(h))
		if matchesAny(normalized, mpnHeaders) {
			mpnCol = i
			hasHeader = true
		}
		if matchesAny(normalized, manufacturerHeaders) {
			mfgCol = i
			hasHeader = true
		}
	}
	return mpnCol, mfgCol, hasHeader
}

func matchesAny(value string, aliases []string) bool {
	for _, a := range aliases {
		if value == a {
			return true
		}
	}
	return false
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
