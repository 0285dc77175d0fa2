// Package export writes tabular exports as Excel workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of an .xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteXLSX writes rows to a single-sheet workbook. The first row is treated
// as the header and rendered bold.
func WriteXLSX(w io.Writer, sheet string, rows [][]string) error {
	f, err := Workbook(sheet, rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Workbook builds the workbook WriteXLSX serializes.
func Workbook(sheet string, rows [][]string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	widths := make([]int, 0)
	for i, row := range rows {
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				f.Close()
				return nil, err
			}
			// SetCellStr keeps values like "301" as text.
			if err := f.SetCellStr(sheet, cell, val); err != nil {
				f.Close()
				return nil, fmt.Errorf("set %s: %w", cell, err)
			}
			if j >= len(widths) {
				widths = append(widths, 0)
			}
			widths[j] = max(widths[j], len(val))
		}
	}

	if len(rows) > 0 {
		headerStyle, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		})
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("header style: %w", err)
		}
		if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("style header row: %w", err)
		}
	}

	for j, width := range widths {
		col, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetColWidth(sheet, col, col, float64(min(max(width, 10), 80)+2)); err != nil {
			f.Close()
			return nil, fmt.Errorf("width of column %s: %w", col, err)
		}
	}

	return f, nil
}
