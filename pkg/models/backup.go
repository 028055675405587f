package models

import "time"

// Backup is the full export of the local store.
type Backup struct {
	ExportedAt    time.Time        `json:"exportedAt"`
	Records       []DeliveryRecord `json:"records"`
	Catalog       []CatalogItem    `json:"catalog"`
	Collaborators []Collaborator   `json:"collaborators"`
	Configuration *Configuration   `json:"configuration,omitempty"`
}
