package models

import (
	"time"

	"github.com/edy93762/gesto-de-epi-sub000/pkg/metadata"
)

type Collaborator struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	CPF              string           `json:"cpf,omitempty"`
	Shift            string           `json:"shift"`
	AdmissionDate    string           `json:"admissionDate"`
	FaceReference    string           `json:"faceReference,omitempty"`
	Company          metadata.Company `json:"company"`
	LastActivityDate *time.Time       `json:"lastActivityDate,omitempty"`
}
