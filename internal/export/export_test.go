package export

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"detection-dashboard/internal/models"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func exportRecords() []models.DetectionRecord {
	return []models.DetectionRecord{
		{ID: "1", GUIDDevice: "CAM-01", Name: "Budi", Datetime: "15-06-2025", Unit: "Produksi", Fatigue: "20", Mood: "senang", ImageURL: "https://files.example/a.jpg"},
		{ID: "2", GUIDDevice: "CAM-02", Datetime: "2025-06-15T00:00:00Z", Fatigue: "n/a"},
	}
}

func TestRecordsXLSX(t *testing.T) {
	data, err := RecordsXLSX(exportRecords())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, RecordsHeader, rows[0])
	assert.Equal(t, "Budi", rows[1][1])
	assert.Equal(t, "20", rows[1][5])
	assert.Equal(t, "n/a", rows[2][5])
}

func TestRecordsXLSX_Empty(t *testing.T) {
	data, err := RecordsXLSX(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRecordsPDF(t *testing.T) {
	records := exportRecords()
	for i := 0; i < 80; i++ {
		records = append(records, models.DetectionRecord{
			ID:         fmt.Sprintf("bulk-%d", i),
			GUIDDevice: "CAM-03-with-a-rather-long-device-identifier",
			Name:       "Ñoño Pérez",
			Datetime:   "2025-06-16T08:00:00Z",
		})
	}

	data, err := RecordsPDF(records)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Greater(t, len(data), 1000)
}

func TestDash(t *testing.T) {
	assert.Equal(t, "-", dash(""))
	assert.Equal(t, "x", dash("x"))
}

func TestFit_NonASCII(t *testing.T) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 8)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	long := strings.Repeat("Ñoño Pérez ", 10)
	out := fit(pdf, tr, long, 30)

	assert.True(t, strings.HasSuffix(out, ".."))
	assert.NotContains(t, out, "\uFFFD")
	assert.True(t, strings.HasPrefix(out, tr("Ñoño")))
	assert.LessOrEqual(t, pdf.GetStringWidth(out), 30.0)

	assert.Equal(t, tr("Pérez"), fit(pdf, tr, "Pérez", 30))
}
