package remotesync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	custom_error "github.com/edy93762/gesto-de-epi-sub000/pkg/errors"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/metadata"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

// Kind is the value of the type discriminator. Deliveries carry none.
type Kind string

const (
	KindDelivery     Kind = ""
	KindCatalogItem  Kind = "CATALOG_ITEM"
	KindCollaborator Kind = "COLLABORATOR_ITEM"
)

// Label names the kind in logs and metrics.
func (k Kind) Label() string {
	if k == KindDelivery {
		return "DELIVERY"
	}
	return string(k)
}

// Envelope is one outbound push.
type Envelope interface {
	Kind() Kind
	Validate() error
}

// DeliveryPush is a delivery record with its rendered slip attached.
type DeliveryPush struct {
	models.DeliveryRecord
	PDF      string `json:"pdf,omitempty"`
	FileName string `json:"fileName,omitempty"`
}

func NewDeliveryPush(rec models.DeliveryRecord, pdf, fileName string) DeliveryPush {
	return DeliveryPush{DeliveryRecord: rec, PDF: pdf, FileName: fileName}
}

func (DeliveryPush) Kind() Kind { return KindDelivery }

func (p DeliveryPush) Validate() error {
	if strings.TrimSpace(p.EmployeeName) == "" {
		return custom_error.NewValidationError("employeeName", "employee name is required")
	}
	if len(p.Items) == 0 {
		return custom_error.NewValidationError("items", "a delivery carries at least one item")
	}
	return nil
}

type CatalogPush struct {
	Type Kind `json:"type"`
	models.CatalogItem
}

func NewCatalogPush(item models.CatalogItem) CatalogPush {
	return CatalogPush{Type: KindCatalogItem, CatalogItem: item}
}

func (CatalogPush) Kind() Kind { return KindCatalogItem }

func (p CatalogPush) Validate() error {
	if p.Type != KindCatalogItem {
		return custom_error.NewValidationError("type", "catalog pushes are tagged "+string(KindCatalogItem))
	}
	if strings.TrimSpace(p.Code) == "" {
		return custom_error.NewValidationError("code", "code is required")
	}
	if p.Stock < 0 {
		return custom_error.NewValidationError("stock", "stock cannot be negative")
	}
	return nil
}

type CollaboratorPush struct {
	Type Kind `json:"type"`
	models.Collaborator
}

func NewCollaboratorPush(c models.Collaborator) CollaboratorPush {
	return CollaboratorPush{Type: KindCollaborator, Collaborator: c}
}

func (CollaboratorPush) Kind() Kind { return KindCollaborator }

func (p CollaboratorPush) Validate() error {
	if p.Type != KindCollaborator {
		return custom_error.NewValidationError("type", "collaborator pushes are tagged "+string(KindCollaborator))
	}
	if strings.TrimSpace(p.Name) == "" {
		return custom_error.NewValidationError("name", "name is required")
	}
	return nil
}

// Stock accepts a JSON number, a numeric string, an empty string or null.
type Stock int

func (s *Stock) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = 0
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		raw = strings.TrimSpace(text)
		if raw == "" {
			*s = 0
			return nil
		}
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int(f)) {
		return fmt.Errorf("invalid stock value %s", string(data))
	}
	*s = Stock(int(f))
	return nil
}

type RemoteCatalogItem struct {
	ID            string `json:"id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Certification string `json:"certification"`
	CA            string `json:"ca"`
	Stock         Stock  `json:"stock"`
}

type RemoteCollaborator struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	CPF           string `json:"cpf"`
	Shift         string `json:"shift"`
	AdmissionDate string `json:"admissionDate"`
	FaceReference string `json:"faceReference"`
	Company       string `json:"company"`
}

// PullResponse is the body answered by the remote endpoint.
type PullResponse struct {
	Collaborators []RemoteCollaborator `json:"collaborators"`
	Catalog       []RemoteCatalogItem  `json:"catalog"`
}

func DecodePullResponse(r io.Reader) (*PullResponse, error) {
	var resp PullResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("invalid pull response: %w", err)
	}
	return &resp, nil
}

// Normalize validates both lists and converts them to local entities. Any
// invalid row rejects the whole response.
func (r *PullResponse) Normalize() ([]models.Collaborator, []models.CatalogItem, error) {
	collaborators, err := r.collaborators()
	if err != nil {
		return nil, nil, err
	}
	catalog, err := r.catalog()
	if err != nil {
		return nil, nil, err
	}
	return collaborators, catalog, nil
}

func (r *PullResponse) collaborators() ([]models.Collaborator, error) {
	result := make([]models.Collaborator, 0, len(r.Collaborators))
	ids := make(map[string]bool)
	cpfs := make(map[string]bool)

	for i, rc := range r.Collaborators {
		name := strings.Join(strings.Fields(rc.Name), " ")
		if name == "" {
			if rc == (RemoteCollaborator{}) {
				continue
			}
			return nil, custom_error.NewValidationError(fmt.Sprintf("collaborators[%d].name", i), "name is required")
		}
		cpf, err := metadata.NewCPF(rc.CPF)
		if err != nil {
			return nil, custom_error.NewValidationError(fmt.Sprintf("collaborators[%d].cpf", i), err.Error())
		}
		if cpf != "" {
			if cpfs[cpf] {
				return nil, custom_error.NewValidationError(fmt.Sprintf("collaborators[%d].cpf", i), "duplicate cpf "+metadata.FormatCPF(cpf))
			}
			cpfs[cpf] = true
		}

		id := uniqueID(strings.TrimSpace(rc.ID), ids)
		result = append(result, models.Collaborator{
			ID:            id,
			Name:          name,
			CPF:           cpf,
			Shift:         strings.TrimSpace(rc.Shift),
			AdmissionDate: strings.TrimSpace(rc.AdmissionDate),
			FaceReference: rc.FaceReference,
			Company:       metadata.CompanyOrDefault(rc.Company),
		})
	}
	return result, nil
}

func (r *PullResponse) catalog() ([]models.CatalogItem, error) {
	result := make([]models.CatalogItem, 0, len(r.Catalog))
	ids := make(map[string]bool)
	codes := make(map[string]bool)

	for i, rc := range r.Catalog {
		code := strings.TrimSpace(rc.Code)
		if code == "" {
			if rc == (RemoteCatalogItem{}) {
				continue
			}
			return nil, custom_error.NewValidationError(fmt.Sprintf("catalog[%d].code", i), "code is required")
		}
		if codes[code] {
			return nil, custom_error.NewValidationError(fmt.Sprintf("catalog[%d].code", i), "duplicate code "+code)
		}
		codes[code] = true
		if rc.Stock < 0 {
			return nil, custom_error.NewValidationError(fmt.Sprintf("catalog[%d].stock", i), "stock cannot be negative")
		}

		certification := strings.TrimSpace(rc.Certification)
		if certification == "" {
			certification = strings.TrimSpace(rc.CA)
		}
		name := strings.TrimSpace(rc.Name)
		if name == "" {
			name = code
		}

		result = append(result, models.CatalogItem{
			ID:            uniqueID(strings.TrimSpace(rc.ID), ids),
			Code:          code,
			Name:          name,
			Certification: certification,
			Stock:         int(rc.Stock),
		})
	}
	return result, nil
}

// uniqueID keeps id unless it is empty or already taken.
func uniqueID(id string, seen map[string]bool) string {
	if id == "" || seen[id] {
		id = uuid.NewString()
	}
	seen[id] = true
	return id
}
