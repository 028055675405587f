package googlesheets

import (
	"fmt"
	"strings"

	"github.com/edy93762/gesto-de-epi-sub000/internal/remotesync"
)

const (
	deliveriesSheet    = "Entregas"
	catalogSheet       = "Catalogo"
	collaboratorsSheet = "Colaboradores"
)

func deliveryRow(p remotesync.DeliveryPush) []interface{} {
	items := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, item.Code+" - "+item.Name)
	}
	return []interface{}{
		p.ID,
		p.Date.UTC().Format("2006-01-02T15:04:05Z"),
		p.Company.String(),
		p.EmployeeName,
		p.CPF,
		p.AdmissionDate,
		p.Shift,
		strings.Join(items, "; "),
		p.Signed,
		p.FileName,
	}
}

func catalogRow(p remotesync.CatalogPush) []interface{} {
	return []interface{}{p.ID, p.Code, p.Name, p.Certification, p.Stock}
}

func collaboratorRow(p remotesync.CollaboratorPush) []interface{} {
	return []interface{}{p.ID, p.Name, p.CPF, p.Shift, p.AdmissionDate, p.Company.String()}
}

// MapHeaders translates the header row of a sheet into field names.
func MapHeaders(headers []interface{}) map[int]string {
	headerMap := make(map[int]string)

	for i, header := range headers {
		headerStr, ok := header.(string)
		if !ok {
			continue
		}

		switch strings.ToLower(strings.TrimSpace(headerStr)) {
		case "id":
			headerMap[i] = "id"
		case "nome", "colaborador":
			headerMap[i] = "name"
		case "cpf":
			headerMap[i] = "cpf"
		case "turno":
			headerMap[i] = "shift"
		case "admissão", "admissao", "data de admissão":
			headerMap[i] = "admission_date"
		case "empresa":
			headerMap[i] = "company"
		case "código", "codigo":
			headerMap[i] = "code"
		case "descrição", "descricao", "nome do epi":
			headerMap[i] = "description"
		case "ca":
			headerMap[i] = "certification"
		case "estoque", "quantidade":
			headerMap[i] = "stock"
		}
	}

	return headerMap
}

// parseRows turns every data row into a field map keyed by MapHeaders names.
func parseRows(values [][]interface{}) []map[string]string {
	if len(values) < 2 {
		return nil
	}

	headerMap := MapHeaders(values[0])
	rows := make([]map[string]string, 0, len(values)-1)
	for _, row := range values[1:] {
		fields := make(map[string]string)
		for j, cell := range row {
			name, exists := headerMap[j]
			if !exists {
				continue
			}
			fields[name] = strings.TrimSpace(toString(cell))
		}
		rows = append(rows, fields)
	}
	return rows
}

func parseCollaborators(values [][]interface{}) []remotesync.RemoteCollaborator {
	rows := parseRows(values)
	result := make([]remotesync.RemoteCollaborator, 0, len(rows))
	for _, f := range rows {
		result = append(result, remotesync.RemoteCollaborator{
			ID:            f["id"],
			Name:          f["name"],
			CPF:           f["cpf"],
			Shift:         f["shift"],
			AdmissionDate: f["admission_date"],
			Company:       f["company"],
		})
	}
	return result
}

func parseCatalog(values [][]interface{}) ([]remotesync.RemoteCatalogItem, error) {
	rows := parseRows(values)
	result := make([]remotesync.RemoteCatalogItem, 0, len(rows))
	for i, f := range rows {
		var stock remotesync.Stock
		if raw := f["stock"]; raw != "" {
			if err := stock.UnmarshalJSON([]byte(fmt.Sprintf("%q", raw))); err != nil {
				return nil, fmt.Errorf("row %d: %w", i+2, err)
			}
		}
		result = append(result, remotesync.RemoteCatalogItem{
			ID:            f["id"],
			Code:          f["code"],
			Name:          f["description"],
			Certification: f["certification"],
			Stock:         stock,
		})
	}
	return result, nil
}

func toString(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
