// Package export renders accepted flashcards into a printable PDF sheet, for
// reviewing a batch away from Anki.
package export

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Card is one front/back pair on the sheet.
type Card struct {
	Front string
	Back  string
}

// WriteCardSheet renders cards one block at a time: numbered bold question,
// plain answer. The layout is intentionally simple; gofpdf handles page
// breaks as blocks overflow.
func WriteCardSheet(title string, sourceURL string, cards []Card, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(title), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
	if sourceURL != "" {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 5, tr(sourceURL), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	for i, c := range cards {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("%d. %s", i+1, c.Front)), "", "L", false)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 5, tr(c.Back), "", "L", false)
		pdf.Ln(4)
	}

	return pdf.OutputFileAndClose(outPath)
}
