package models

import (
	"time"

	"github.com/edy93762/gesto-de-epi-sub000/pkg/metadata"
)

// DeliveryRecord is the immutable proof that a set of items was handed to an employee.
// EmployeeName is a snapshot, not a reference to a collaborator.
type DeliveryRecord struct {
	ID            string           `json:"id"`
	Company       metadata.Company `json:"company"`
	EmployeeName  string           `json:"employeeName"`
	CPF           string           `json:"cpf,omitempty"`
	AdmissionDate string           `json:"admissionDate"`
	Shift         string           `json:"shift"`
	Items         []Item           `json:"items"`
	Date          time.Time        `json:"date"`
	Signed        bool             `json:"signed"`
	Photo         string           `json:"photo"`
}
