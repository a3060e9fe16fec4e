package export

import (
	"bytes"
	"fmt"

	"detection-dashboard/internal/models"

	"github.com/go-pdf/fpdf"
)

// PDFHeader is the fixed column set of the PDF table.
var PDFHeader = []string{"Nama", "GUID Device", "Tanggal", "Unit", "Keletihan", "Suasana Hati"}

var pdfWidths = []float64{35, 40, 35, 25, 20, 35}

const pdfRowHeight = 7

// RecordsPDF renders records as a paginated table. The header row repeats
// on every page and missing values print as "-".
func RecordsPDF(records []models.DetectionRecord) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 243, 255)
		for i, h := range PDFHeader {
			pdf.CellFormat(pdfWidths[i], pdfRowHeight, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	})
	pdf.AddPage()

	for _, r := range records {
		cells := []string{
			dash(r.Name),
			r.GUIDDevice,
			r.Datetime,
			dash(r.Unit),
			dash(string(r.Fatigue)),
			dash(r.Mood),
		}
		for i, c := range cells {
			pdf.CellFormat(pdfWidths[i], pdfRowHeight, fit(pdf, tr, c, pdfWidths[i]-2), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// fit shortens the UTF-8 text s rune by rune until its translated form fits
// into width, marking the cut with "..".
func fit(pdf *fpdf.Fpdf, tr func(string) string, s string, width float64) string {
	if pdf.GetStringWidth(tr(s)) <= width {
		return tr(s)
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(tr(string(runes)+"..")) > width {
		runes = runes[:len(runes)-1]
	}
	return tr(string(runes) + "..")
}
