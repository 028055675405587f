package documents

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/edy93762/gesto-de-epi-sub000/pkg/metadata"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

var slipColumns = []column{
	{title: "#", width: 10, align: "C"},
	{title: "Código", width: 25, align: "C"},
	{title: "Descrição", width: 75, align: "L"},
	{title: "CA", width: 20, align: "C"},
	{title: "Data", width: 25, align: "C"},
	{title: "Visto", width: 35, align: "C"},
}

const (
	photoWidth      = 32.0
	photoHeight     = 40.0
	signatureHeight = 34.0
)

// RenderDeliverySlip renders the signed delivery slip of rec. The item table
// is padded with blank rows for manual annotation and continues on new pages
// with its header repeated.
func (g *Generator) RenderDeliverySlip(rec models.DeliveryRecord) (*Document, error) {
	lh := LetterheadFor(rec.Company)
	date := rec.Date.In(g.loc)

	p := g.newPage("Entrega de EPI - "+rec.EmployeeName, rec.Date)
	p.AddPage()
	p.letterhead(lh)

	top := p.GetY()
	p.SetX(pageMargin)
	infoWidth := contentWidth - photoWidth - 4
	p.field("Colaborador:", rec.EmployeeName, infoWidth)
	p.field("CPF:", formatCPF(rec.CPF), infoWidth)
	p.field("Empresa:", strings.ToUpper(companyLabel(rec.Company)), infoWidth)
	p.field("Admissão:", rec.AdmissionDate, infoWidth)
	p.field("Turno:", rec.Shift, infoWidth)
	p.field("Entrega:", date.Format("02/01/2006 15:04"), infoWidth)
	p.photo(rec.Photo, pageMargin+contentWidth-photoWidth, top)
	p.SetY(max(p.GetY(), top+photoHeight) + 4)

	p.tableHeader(slipColumns, lh.Color)
	rows := max(len(rec.Items), minSlipRows)
	for i := 0; i < rows; i++ {
		if !p.fits(rowHeight) {
			p.AddPage()
			p.SetY(pageMargin)
			p.tableHeader(slipColumns, lh.Color)
		}
		values := []string{strconv.Itoa(i + 1)}
		if i < len(rec.Items) {
			item := rec.Items[i]
			values = append(values, item.Code, item.Name, item.Certification, date.Format("02/01/2006"), "")
		}
		p.tableRow(slipColumns, values, i%2 == 1)
	}

	if !p.fits(signatureHeight) {
		p.AddPage()
		p.SetY(pageMargin)
	}
	p.signature(rec, lh)

	return p.output(SlipFilename(rec.Company, rec.EmployeeName, date))
}

func (p *page) photo(dataURL string, x, y float64) {
	p.SetDrawColor(160, 160, 160)
	content, imageType, ok := decodeDataURL(dataURL)
	if !ok {
		p.Rect(x, y, photoWidth, photoHeight, "D")
		p.SetXY(x, y+photoHeight/2-3)
		p.SetFont("Helvetica", "I", 7)
		p.CellFormat(photoWidth, 6, p.tr("Foto indisponível"), "", 0, "C", false, 0, "")
		return
	}

	opts := fpdf.ImageOptions{ImageType: imageType}
	p.RegisterImageOptionsReader("photo", opts, bytes.NewReader(content))
	p.ImageOptions("photo", x, y, photoWidth, photoHeight, false, opts, 0, "")
	p.Rect(x, y, photoWidth, photoHeight, "D")
}

func (p *page) signature(rec models.DeliveryRecord, lh Letterhead) {
	p.Ln(10)
	y := p.GetY() + 12
	p.SetDrawColor(60, 60, 60)
	p.Line(pageMargin+10, y, pageMargin+90, y)
	p.Line(pageMargin+100, y, pageMargin+180, y)

	p.SetY(y + 1)
	p.SetFont("Helvetica", "", 8.5)
	p.CellFormat(100, 5, p.tr("Assinatura do colaborador"), "", 0, "C", false, 0, "")
	p.CellFormat(80, 5, p.tr("Responsável pela entrega"), "", 1, "C", false, 0, "")

	if rec.Signed {
		p.SetFont("Helvetica", "I", 7.5)
		p.SetTextColor(lh.Color.r, lh.Color.g, lh.Color.b)
		p.CellFormat(contentWidth, 5, p.tr("Entrega confirmada por registro fotográfico biométrico. Registro "+rec.ID), "", 1, "C", false, 0, "")
		p.SetTextColor(30, 30, 30)
	}
}

// decodeDataURL accepts data:image/jpeg and data:image/png base64 URLs.
func decodeDataURL(value string) ([]byte, string, bool) {
	header, payload, found := strings.Cut(value, ",")
	if !found || !strings.HasSuffix(header, ";base64") {
		return nil, "", false
	}

	var imageType string
	switch strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64") {
	case "image/jpeg", "image/jpg":
		imageType = "JPG"
	case "image/png":
		imageType = "PNG"
	default:
		return nil, "", false
	}

	content, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(content) == 0 {
		return nil, "", false
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(content)); err != nil {
		return nil, "", false
	}
	return content, imageType, true
}

func formatCPF(cpf string) string {
	if cpf == "" {
		return ""
	}
	return metadata.FormatCPF(cpf)
}

func companyLabel(c metadata.Company) string {
	if !c.IsValid() {
		return fmt.Sprintf("%s (%s)", metadata.DefaultCompany, c)
	}
	return c.String()
}
