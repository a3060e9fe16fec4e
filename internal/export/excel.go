// Package export renders record views as spreadsheet and PDF files.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"detection-dashboard/internal/models"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Data Kamera"

// RecordsHeader is the column order of the spreadsheet export.
var RecordsHeader = []string{
	"ID",
	"Nama",
	"GUID Device",
	"Tanggal",
	"Unit",
	"Keletihan",
	"Suasana Hati",
	"Gambar",
	"Status",
}

var columnWidths = []float64{26, 20, 24, 22, 15, 12, 16, 40, 12}

// RecordsXLSX writes records into a single-sheet workbook.
func RecordsXLSX(records []models.DetectionRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(RecordsHeader))
	for i, h := range RecordsHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(RecordsHeader))
	if err != nil {
		return nil, fmt.Errorf("failed to convert column number: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		row := []interface{}{
			r.ID,
			r.Name,
			r.GUIDDevice,
			r.Datetime,
			r.Unit,
			fatigueCell(r.Fatigue),
			r.Mood,
			r.ImageURL,
			r.Status,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// fatigueCell writes clean numbers as numbers and anything else verbatim.
func fatigueCell(s models.Score) interface{} {
	raw := strings.TrimSpace(string(s))
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	return raw
}
