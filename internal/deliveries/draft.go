package deliveries

import (
	"strings"
	"time"

	custom_error "github.com/edy93762/gesto-de-epi-sub000/pkg/errors"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/metadata"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

// Draft is the delivery being assembled on the issuing desk.
type Draft struct {
	CollaboratorID string           `json:"collaboratorId,omitempty"`
	EmployeeName   string           `json:"employeeName"`
	CPF            string           `json:"cpf,omitempty"`
	AdmissionDate  string           `json:"admissionDate"`
	Shift          string           `json:"shift"`
	Company        metadata.Company `json:"company"`
	Items          []models.Item    `json:"items"`
	Photo          string           `json:"photo,omitempty"`
}

func newDraft() Draft {
	return Draft{Company: metadata.DefaultCompany, Items: []models.Item{}}
}

// DraftView is the draft plus the advisories shown before submitting.
type DraftView struct {
	Draft
	LastDelivery     *time.Time `json:"lastDelivery,omitempty"`
	CanQuickRegister bool       `json:"canQuickRegister"`
}

// validate reports the first missing piece: who, what and the photo.
func (d Draft) validate() error {
	if strings.TrimSpace(d.EmployeeName) == "" {
		return custom_error.NewValidationError("collaborator", "select a collaborator or type a name")
	}
	if len(d.Items) == 0 {
		return custom_error.NewValidationError("items", "add at least one item")
	}
	if d.Photo == "" {
		return custom_error.NewValidationError("photo", "capture the collaborator photo")
	}
	return nil
}

func (d Draft) record(id string, at time.Time) models.DeliveryRecord {
	items := make([]models.Item, len(d.Items))
	copy(items, d.Items)

	return models.DeliveryRecord{
		ID:            id,
		Company:       d.Company,
		EmployeeName:  d.EmployeeName,
		CPF:           d.CPF,
		AdmissionDate: d.AdmissionDate,
		Shift:         d.Shift,
		Items:         items,
		Date:          at,
		Signed:        true,
		Photo:         d.Photo,
	}
}

// sameName compares names ignoring case and repeated spaces.
func sameName(a, b string) bool {
	na := strings.Join(strings.Fields(a), " ")
	nb := strings.Join(strings.Fields(b), " ")
	return na != "" && strings.EqualFold(na, nb)
}
