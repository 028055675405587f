// Package documents renders delivery slips and collaborator history reports as PDF.
package documents

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin   = 10.0
	bottomMargin = 18.0
	contentWidth = 190.0
	rowHeight    = 7.0
	minSlipRows  = 15
	creator      = "Gestao de EPI"
)

type Document struct {
	Filename string
	Content  []byte
	Pages    int
}

// Encoded returns the content as standard base64.
func (d *Document) Encoded() string {
	return base64.StdEncoding.EncodeToString(d.Content)
}

// Generator renders documents with dates shown in loc. Rendering does no I/O
// and the same input always yields the same bytes.
type Generator struct {
	loc *time.Location
	now func() time.Time
}

func NewGenerator(loc *time.Location) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{loc: loc, now: time.Now}
}

type page struct {
	*fpdf.Fpdf
	tr func(string) string
}

func (g *Generator) newPage(title string, stamp time.Time) *page {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, bottomMargin)
	pdf.SetCreationDate(stamp)
	pdf.SetModificationDate(stamp)
	pdf.SetCatalogSort(true)
	pdf.AliasNbPages("")

	p := &page{Fpdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetTitle(p.tr(title), false)
	pdf.SetCreator(creator, false)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(contentWidth/2, 5, p.tr(stamp.In(g.loc).Format("02/01/2006 15:04")), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentWidth/2, 5, p.tr(fmt.Sprintf("Página %d/{nb}", pdf.PageNo())), "", 0, "R", false, 0, "")
	})
	return p
}

// fits reports whether h more millimetres fit above the bottom margin.
func (p *page) fits(h float64) bool {
	_, pageHeight := p.GetPageSize()
	return p.GetY()+h <= pageHeight-bottomMargin
}

func (p *page) letterhead(lh Letterhead) {
	c := lh.Color
	p.SetFillColor(c.r, c.g, c.b)
	p.Rect(pageMargin, pageMargin, contentWidth, 18, "F")

	p.SetXY(pageMargin+4, pageMargin+3)
	p.SetTextColor(255, 255, 255)
	p.SetFont("Helvetica", "B", 14)
	p.CellFormat(contentWidth-8, 7, p.tr(lh.Title), "", 2, "L", false, 0, "")
	p.SetFont("Helvetica", "", 9)
	p.CellFormat(contentWidth-8, 5, p.tr(lh.LegalName+"  |  "+lh.TaxID), "", 2, "L", false, 0, "")

	p.SetXY(pageMargin, pageMargin+21)
	p.SetTextColor(40, 40, 40)
	p.SetFont("Helvetica", "", 8.5)
	p.MultiCell(contentWidth, 4, p.tr(lh.Declaration), "", "J", false)
	p.Ln(3)
}

func (p *page) field(label, value string, w float64) {
	p.SetFont("Helvetica", "B", 9)
	p.CellFormat(28, 6, p.tr(label), "", 0, "L", false, 0, "")
	p.SetFont("Helvetica", "", 9)
	if strings.TrimSpace(value) == "" {
		value = "-"
	}
	p.CellFormat(w-28, 6, p.tr(value), "", 2, "L", false, 0, "")
	p.SetX(pageMargin)
}

type column struct {
	title string
	width float64
	align string
}

func (p *page) tableHeader(columns []column, c rgb) {
	p.SetFillColor(c.r, c.g, c.b)
	p.SetTextColor(255, 255, 255)
	p.SetDrawColor(160, 160, 160)
	p.SetFont("Helvetica", "B", 9)
	for _, col := range columns {
		p.CellFormat(col.width, rowHeight, p.tr(col.title), "1", 0, "C", true, 0, "")
	}
	p.Ln(-1)
	p.SetTextColor(30, 30, 30)
	p.SetFont("Helvetica", "", 8.5)
}

func (p *page) tableRow(columns []column, values []string, shade bool) {
	p.SetFillColor(244, 244, 244)
	for i, col := range columns {
		value := ""
		if i < len(values) {
			value = values[i]
		}
		p.CellFormat(col.width, rowHeight, p.tr(truncate(p, value, col.width-2)), "1", 0, col.align, shade, 0, "")
	}
	p.Ln(-1)
}

func (p *page) output(filename string) (*Document, error) {
	if err := p.Error(); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", filename, err)
	}
	pages := p.PageNo()

	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", filename, err)
	}
	return &Document{Filename: filename, Content: buf.Bytes(), Pages: pages}, nil
}

// truncate shortens value with an ellipsis so it fits in width millimetres.
func truncate(p *page, value string, width float64) string {
	if p.GetStringWidth(p.tr(value)) <= width {
		return value
	}
	runes := []rune(value)
	for len(runes) > 0 && p.GetStringWidth(p.tr(string(runes)+"...")) > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
