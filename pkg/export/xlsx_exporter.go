package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const (
	dataSheet  = "Analysis"
	notesSheet = "Notes"
)

// XLSXExporter renders datasets into a spreadsheet workbook. Numeric cells are
// written as numbers so they stay sortable in spreadsheet tools.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render builds a workbook with the table on the first sheet and notes on a second.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("xlsx"); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for col, header := range data.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(dataSheet, cell, header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for i, row := range data.Rows {
		for col, value := range data.record(row) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("row cell: %w", err)
			}
			if err := f.SetCellValue(dataSheet, cell, cellValue(value)); err != nil {
				return nil, fmt.Errorf("write row: %w", err)
			}
		}
	}

	if len(data.Notes) > 0 {
		if _, err := f.NewSheet(notesSheet); err != nil {
			return nil, fmt.Errorf("create notes sheet: %w", err)
		}
		for i, note := range data.Notes {
			if err := f.SetCellValue(notesSheet, fmt.Sprintf("A%d", i+1), note); err != nil {
				return nil, fmt.Errorf("write note: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// cellValue keeps values such as student numbers with leading zeros as text.
func cellValue(raw string) interface{} {
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || strconv.FormatFloat(n, 'f', -1, 64) != raw {
		return raw
	}
	return n
}
