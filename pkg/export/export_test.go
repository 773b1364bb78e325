package export

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func rankingDataset() Dataset {
	return Dataset{
		Headers: []string{"rank", "student", "total"},
		Rows: []map[string]string{
			{"rank": "1", "student": "Bima", "total": "190"},
			{"rank": "2", "student": "Citra", "total": "188.5"},
		},
		Notes: []string{"scores are stable"},
	}
}

func TestCSVExporterRender(t *testing.T) {
	payload, err := NewCSVExporter().Render(rankingDataset())
	require.NoError(t, err)
	assert.Equal(t, "rank,student,total\n1,Bima,190\n2,Citra,188.5\n", string(payload))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "title")
	assert.Error(t, err)
	_, err = NewXLSXExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	payload, err := NewPDFExporter().Render(rankingDataset(), "Class ranking")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}

func TestXLSXExporterRender(t *testing.T) {
	payload, err := NewXLSXExporter().Render(rankingDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer f.Close()

	student, err := f.GetCellValue(dataSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Bima", student)

	total, err := f.GetCellValue(dataSheet, "C3")
	require.NoError(t, err)
	assert.Equal(t, "188.5", total)

	note, err := f.GetCellValue(notesSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "scores are stable", note)
}

func TestPDFExporterPaginatesLongTables(t *testing.T) {
	data := Dataset{Headers: []string{"rank", "student"}}
	for i := 0; i < 120; i++ {
		data.Rows = append(data.Rows, map[string]string{"rank": "1", "student": "Ayu"})
	}
	payload, err := NewPDFExporter().Render(data, "")
	require.NoError(t, err)
	// one "/Type /Pages" tree plus at least two "/Type /Page" objects
	assert.Greater(t, bytes.Count(payload, []byte("/Type /Page")), 2)
	assert.Equal(t, "R", alignFor("88.5"))
	assert.Equal(t, "L", alignFor("Ayu"))
}

func TestCSVExporterWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVExporter().Write(&buf, Dataset{Headers: []string{"note"}, Rows: []map[string]string{{"note": "a,b"}}}))
	assert.Equal(t, "note\n\"a,b\"\n", buf.String())
}

func TestPDFExporterMissingUTF8Font(t *testing.T) {
	exporter := NewPDFExporter(WithUTF8Font(filepath.Join(t.TempDir(), "missing.ttf")))

	_, err := exporter.Render(rankingDataset(), "Class ranking")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load pdf font")
}

func TestPDFExporterEmptyFontPathKeepsCoreFont(t *testing.T) {
	payload, err := NewPDFExporter(WithUTF8Font("")).Render(rankingDataset(), "")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}
