// Package export writes an ordered roster as a spreadsheet, for offices that
// paste the list into their own form instead of using the generated .docx.
package export

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/panda279/leave-note/internal/roster"
)

const (
	defaultSheet = "名单"
	maxColWidth  = 60
)

// WriteXLSX writes ds to w as a single-sheet workbook. The header row is
// bold and frozen; every value is written as text so student numbers keep
// their leading zeros.
func WriteXLSX(w io.Writer, sheet string, ds *roster.Dataset) error {
	if sheet == "" {
		sheet = defaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	fields := ds.Fields()
	widths := make([]int, len(fields))

	header := make([]any, len(fields))
	for i, name := range fields {
		header[i] = name
		widths[i] = displayWidth(name)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for r, rec := range ds.Records() {
		values := rec.Values()
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = v
			if dw := displayWidth(v); dw > widths[i] {
				widths[i] = dw
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if width > maxColWidth {
			width = maxColWidth
		}
		if err := f.SetColWidth(sheet, col, col, float64(width+2)); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// displayWidth approximates column width: CJK characters take two cells.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if utf8.RuneLen(r) > 1 {
			w += 2
		} else {
			w++
		}
	}
	return w
}

// Filename is the download name of an exported roster.
func Filename(base string) string {
	if base == "" {
		base = "名单"
	}
	return base + ".xlsx"
}
