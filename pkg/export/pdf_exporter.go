package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfFont       = "Arial"
	pdfPageWidth  = 190.0
	pdfHeaderRowH = 8.0
	pdfBodyRowH   = 7.0
)

// utf8Family is the family name registered for a configured TrueType font.
const utf8Family = "body"

// PDFExporter renders a dataset as a titled table followed by bullet notes.
// Without a font file the core Arial font is used, which only covers cp1252;
// names in CJK or other scripts need a TrueType font via WithUTF8Font.
type PDFExporter struct {
	fontPath string
}

// PDFOption configures a PDFExporter.
type PDFOption func(*PDFExporter)

// WithUTF8Font embeds the TrueType font at path for all text. An empty path keeps the core font.
func WithUTF8Font(path string) PDFOption {
	return func(e *PDFExporter) {
		e.fontPath = path
	}
}

func NewPDFExporter(opts ...PDFOption) *PDFExporter {
	e := &PDFExporter{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// setupFont registers the configured font and returns its family with the text
// translator matching it.
func (e *PDFExporter) setupFont(doc *gofpdf.Fpdf) (string, func(string) string, error) {
	if e.fontPath == "" {
		return pdfFont, doc.UnicodeTranslatorFromDescriptor(""), nil
	}
	for _, style := range []string{"", "B", "I"} {
		doc.AddUTF8Font(utf8Family, style, e.fontPath)
	}
	if err := doc.Error(); err != nil {
		return "", nil, fmt.Errorf("load pdf font %s: %w", e.fontPath, err)
	}
	return utf8Family, func(s string) string { return s }, nil
}

// Render lays out the table on A4 portrait pages. Numeric cells are right aligned
// and every page carries a page number footer.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if err := data.validate("pdf"); err != nil {
		return nil, err
	}
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(10, 15, 10)
	doc.SetAutoPageBreak(true, 15)
	font, tr, err := e.setupFont(doc)
	if err != nil {
		return nil, err
	}
	doc.SetFooterFunc(func() {
		doc.SetY(-12)
		doc.SetFont(font, "I", 8)
		doc.CellFormat(0, 8, fmt.Sprintf("Page %d", doc.PageNo()), "", 0, "R", false, 0, "")
	})
	doc.AddPage()

	if title != "" {
		doc.SetFont(font, "B", 14)
		doc.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
		doc.Ln(4)
	}

	width := pdfPageWidth / float64(len(data.Headers))
	header := func() {
		doc.SetFont(font, "B", 10)
		doc.SetFillColor(230, 230, 230)
		for _, h := range data.Headers {
			doc.CellFormat(width, pdfHeaderRowH, tr(h), "1", 0, "C", true, 0, "")
		}
		doc.Ln(-1)
		doc.SetFont(font, "", 9)
	}
	header()

	_, pageHeight := doc.GetPageSize()
	_, _, _, bottom := doc.GetMargins()
	for _, row := range data.Rows {
		if doc.GetY()+pdfBodyRowH > pageHeight-bottom {
			doc.AddPage()
			header()
		}
		for _, value := range data.record(row) {
			doc.CellFormat(width, pdfBodyRowH, tr(value), "1", 0, alignFor(value), false, 0, "")
		}
		doc.Ln(-1)
	}

	if len(data.Notes) > 0 {
		doc.Ln(6)
		doc.SetFont(font, "", 10)
		for _, note := range data.Notes {
			doc.MultiCell(0, 6, tr("- "+note), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func alignFor(value string) string {
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return "R"
	}
	return "L"
}
