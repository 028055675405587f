package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/edy93762/gesto-de-epi-sub000/pkg/metadata"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

const (
	recordsTable       = "records"
	catalogTable       = "catalog"
	collaboratorsTable = "collaborators"
	configurationTable = "configuration"

	configKey = "app"
)

type recordRow struct {
	ID            string         `db:"id"`
	Company       string         `db:"company"`
	EmployeeName  string         `db:"employee_name"`
	CPF           sql.NullString `db:"cpf"`
	AdmissionDate string         `db:"admission_date"`
	Shift         string         `db:"shift"`
	Items         string         `db:"items"`
	DeliveredAt   string         `db:"delivered_at"`
	Signed        bool           `db:"signed"`
	Photo         string         `db:"photo"`
}

type catalogRow struct {
	ID            string `db:"id"`
	Code          string `db:"code"`
	Name          string `db:"name"`
	Certification string `db:"certification"`
	Stock         int    `db:"stock"`
}

type collaboratorRow struct {
	ID               string         `db:"id"`
	Name             string         `db:"name"`
	CPF              sql.NullString `db:"cpf"`
	Shift            string         `db:"shift"`
	AdmissionDate    string         `db:"admission_date"`
	FaceReference    string         `db:"face_reference"`
	Company          string         `db:"company"`
	LastActivityDate sql.NullString `db:"last_activity_date"`
}

type configRow struct {
	Key         string `db:"config_key"`
	AutoBackup  bool   `db:"auto_backup"`
	EndpointURL string `db:"endpoint_url"`
}

func nullable(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

func encodeRecord(r models.DeliveryRecord) (goqu.Record, error) {
	items, err := json.Marshal(r.Items)
	if err != nil {
		return nil, fmt.Errorf("encode items of record %s: %w", r.ID, err)
	}

	return goqu.Record{
		"id":             r.ID,
		"company":        r.Company.String(),
		"employee_name":  r.EmployeeName,
		"cpf":            nullable(r.CPF),
		"admission_date": r.AdmissionDate,
		"shift":          r.Shift,
		"items":          string(items),
		"delivered_at":   formatTime(r.Date),
		"signed":         r.Signed,
		"photo":          r.Photo,
	}, nil
}

func decodeRecord(row recordRow) (models.DeliveryRecord, error) {
	var items []models.Item
	if err := json.Unmarshal([]byte(row.Items), &items); err != nil {
		return models.DeliveryRecord{}, fmt.Errorf("decode items of record %s: %w", row.ID, err)
	}
	date, err := parseTime(row.DeliveredAt)
	if err != nil {
		return models.DeliveryRecord{}, fmt.Errorf("decode date of record %s: %w", row.ID, err)
	}

	return models.DeliveryRecord{
		ID:            row.ID,
		Company:       metadata.Company(row.Company),
		EmployeeName:  row.EmployeeName,
		CPF:           row.CPF.String,
		AdmissionDate: row.AdmissionDate,
		Shift:         row.Shift,
		Items:         items,
		Date:          date,
		Signed:        row.Signed,
		Photo:         row.Photo,
	}, nil
}

func encodeCatalogItem(c models.CatalogItem) (goqu.Record, error) {
	return goqu.Record{
		"id":            c.ID,
		"code":          c.Code,
		"name":          c.Name,
		"certification": c.Certification,
		"stock":         c.Stock,
	}, nil
}

func decodeCatalogItem(row catalogRow) (models.CatalogItem, error) {
	return models.CatalogItem(row), nil
}

func encodeCollaborator(c models.Collaborator) (goqu.Record, error) {
	var lastActivity interface{}
	if c.LastActivityDate != nil {
		lastActivity = formatTime(*c.LastActivityDate)
	}

	return goqu.Record{
		"id":                 c.ID,
		"name":               c.Name,
		"cpf":                nullable(c.CPF),
		"shift":              c.Shift,
		"admission_date":     c.AdmissionDate,
		"face_reference":     c.FaceReference,
		"company":            c.Company.String(),
		"last_activity_date": lastActivity,
	}, nil
}

func decodeCollaborator(row collaboratorRow) (models.Collaborator, error) {
	collaborator := models.Collaborator{
		ID:            row.ID,
		Name:          row.Name,
		CPF:           row.CPF.String,
		Shift:         row.Shift,
		AdmissionDate: row.AdmissionDate,
		FaceReference: row.FaceReference,
		Company:       metadata.Company(row.Company),
	}
	if row.LastActivityDate.Valid {
		at, err := parseTime(row.LastActivityDate.String)
		if err != nil {
			return models.Collaborator{}, fmt.Errorf("decode last activity of collaborator %s: %w", row.ID, err)
		}
		collaborator.LastActivityDate = &at
	}

	return collaborator, nil
}
