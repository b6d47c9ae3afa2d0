package rendering

import (
	"bytes"
	"context"
	"strings"

	documentapp "github.com/autodealer/backend/internal/application/document"
	"github.com/autodealer/backend/internal/domain/document"
	"github.com/jung-kurt/gofpdf"
)

var _ documentapp.Renderer = (*GofpdfRenderer)(nil)

// cp1252 has no narrow no-break space, which French number formatting emits
var spaceFolder = strings.NewReplacer("\u202f", " ", "\u00a0", " ")

// GofpdfRenderer draws documents directly with gofpdf core fonts.
// No external process or font file is needed.
type GofpdfRenderer struct {
	font string
}

// NewGofpdfRenderer creates a renderer using Helvetica
func NewGofpdfRenderer() *GofpdfRenderer {
	return &GofpdfRenderer{font: "Helvetica"}
}

// Render produces an A4 portrait PDF
func (r *GofpdfRenderer) Render(ctx context.Context, doc *document.Document) ([]byte, error) {
	v, err := buildView(doc)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeRenderTimeout, "rendering cancelled", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle(v.Title+" "+v.Number, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string {
		return tr(spaceFolder.Replace(s))
	}

	pdf.SetFont(r.font, "B", 11)
	for i, l := range v.Company {
		if i == 1 {
			pdf.SetFont(r.font, "", 9)
		}
		pdf.CellFormat(0, 5, text(l), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont(r.font, "B", 16)
	pdf.CellFormat(0, 9, text(v.Title), "", 1, "C", false, 0, "")
	pdf.SetFont(r.font, "", 11)
	pdf.CellFormat(0, 6, text("N° "+v.Number+" du "+v.IssuedOn), "", 1, "C", false, 0, "")
	if v.Cancelled {
		pdf.SetTextColor(200, 0, 0)
		pdf.SetFont(r.font, "B", 12)
		pdf.CellFormat(0, 8, text(v.CancelMsg), "", 1, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(4)

	r.section(pdf, text("Client"))
	pdf.SetFont(r.font, "", 10)
	for _, l := range v.Client {
		pdf.MultiCell(0, 5, text(l), "", "L", false)
	}
	pdf.Ln(3)

	r.section(pdf, text("Véhicule"))
	r.table(pdf, v.Vehicle, text)
	pdf.Ln(3)

	if len(v.Amounts) > 0 {
		r.section(pdf, text("Montants"))
		r.table(pdf, v.Amounts, text)
		pdf.Ln(3)
	}

	pdf.SetFont(r.font, "I", 8)
	for _, m := range v.Mentions {
		pdf.MultiCell(0, 4, text(m), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "gofpdf output failed", err)
	}
	if buf.Len() == 0 {
		return nil, NewRenderError(ErrCodeEmptyOutput, "generated PDF is empty", nil)
	}
	return buf.Bytes(), nil
}

func (r *GofpdfRenderer) section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont(r.font, "B", 12)
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func (r *GofpdfRenderer) table(pdf *gofpdf.Fpdf, rows []line, text func(string) string) {
	for _, row := range rows {
		style := ""
		if row.Strong {
			style = "B"
		}
		pdf.SetFont(r.font, style, 10)
		pdf.CellFormat(110, 7, text(row.Label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(70, 7, text(row.Value), "1", 1, "R", false, 0, "")
	}
}
