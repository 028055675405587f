package documents

import (
	"sort"
	"strconv"

	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

var historyColumns = []column{
	{title: "Data", width: 30, align: "C"},
	{title: "Código", width: 30, align: "C"},
	{title: "Descrição", width: 100, align: "L"},
	{title: "CA", width: 30, align: "C"},
}

// RenderCollaboratorHistory lists every item delivered to collaborator,
// newest first, as one consolidated table.
func (g *Generator) RenderCollaboratorHistory(collaborator models.Collaborator, records []models.DeliveryRecord) (*Document, error) {
	sorted := make([]models.DeliveryRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	stamp := g.now()
	if len(sorted) > 0 {
		stamp = sorted[0].Date
	}

	lh := LetterheadFor(collaborator.Company)
	p := g.newPage("Histórico de EPI - "+collaborator.Name, stamp)
	p.AddPage()

	c := lh.Color
	p.SetFillColor(c.r, c.g, c.b)
	p.Rect(pageMargin, pageMargin, contentWidth, 14, "F")
	p.SetXY(pageMargin+4, pageMargin+2)
	p.SetTextColor(255, 255, 255)
	p.SetFont("Helvetica", "B", 13)
	p.CellFormat(contentWidth-8, 6, p.tr("HISTÓRICO DE ENTREGAS DE EPI"), "", 2, "L", false, 0, "")
	p.SetFont("Helvetica", "", 8.5)
	p.CellFormat(contentWidth-8, 4, p.tr(lh.LegalName), "", 2, "L", false, 0, "")

	p.SetXY(pageMargin, pageMargin+18)
	p.SetTextColor(30, 30, 30)
	p.field("Colaborador:", collaborator.Name, contentWidth)
	p.field("CPF:", formatCPF(collaborator.CPF), contentWidth)
	p.field("Turno:", collaborator.Shift, contentWidth)
	p.field("Entregas:", strconv.Itoa(len(sorted)), contentWidth)
	p.Ln(3)

	p.tableHeader(historyColumns, c)
	row := 0
	for _, rec := range sorted {
		day := rec.Date.In(g.loc).Format("02/01/2006")
		for _, item := range rec.Items {
			if !p.fits(rowHeight) {
				p.AddPage()
				p.SetY(pageMargin)
				p.tableHeader(historyColumns, c)
			}
			p.tableRow(historyColumns, []string{day, item.Code, item.Name, item.Certification}, row%2 == 1)
			row++
		}
	}
	if row == 0 {
		p.SetFont("Helvetica", "I", 9)
		p.CellFormat(contentWidth, rowHeight, p.tr("Nenhuma entrega registrada."), "1", 1, "C", false, 0, "")
	}

	return p.output(HistoryFilename(collaborator.Name, stamp.In(g.loc)))
}
