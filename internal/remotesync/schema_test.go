package remotesync

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custom_error "github.com/edy93762/gesto-de-epi-sub000/pkg/errors"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/metadata"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

func TestPushTypeDiscriminator(t *testing.T) {
	rec := models.DeliveryRecord{
		ID: "r1", EmployeeName: "Ana", Company: metadata.CompanyMatriz,
		Items: []models.Item{{Code: "LUVA01", Name: "Luva"}},
		Date:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name     string
		env      Envelope
		wantType any
	}{
		{"delivery has no type", NewDeliveryPush(rec, "JVBERi0=", "EPI_MATRIZ_ANA.pdf"), nil},
		{"catalog item", NewCatalogPush(models.CatalogItem{ID: "c1", Code: "LUVA01", Stock: 3}), "CATALOG_ITEM"},
		{"collaborator", NewCollaboratorPush(models.Collaborator{ID: "p1", Name: "Ana"}), "COLLABORATOR_ITEM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.env)
			require.NoError(t, err)

			var fields map[string]any
			require.NoError(t, json.Unmarshal(raw, &fields))
			assert.Equal(t, tt.wantType, fields["type"])
			assert.Contains(t, fields, "id")
			assert.NoError(t, tt.env.Validate())
		})
	}

	raw, err := json.Marshal(NewDeliveryPush(rec, "JVBERi0=", "EPI_MATRIZ_ANA.pdf"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"pdf":"JVBERi0="`)
	assert.Contains(t, string(raw), `"fileName":"EPI_MATRIZ_ANA.pdf"`)
	assert.Contains(t, string(raw), `"employeeName":"Ana"`)
}

func TestPushValidation(t *testing.T) {
	assert.True(t, custom_error.IsValidation(NewDeliveryPush(models.DeliveryRecord{EmployeeName: "Ana"}, "", "").Validate()))
	assert.True(t, custom_error.IsValidation(NewCatalogPush(models.CatalogItem{Code: " "}).Validate()))
	assert.True(t, custom_error.IsValidation(NewCatalogPush(models.CatalogItem{Code: "X", Stock: -1}).Validate()))
	assert.True(t, custom_error.IsValidation(NewCollaboratorPush(models.Collaborator{}).Validate()))
	assert.True(t, custom_error.IsValidation(CatalogPush{CatalogItem: models.CatalogItem{Code: "X"}}.Validate()))
}

func TestStockUnmarshal(t *testing.T) {
	tests := []struct {
		raw     string
		want    Stock
		wantErr bool
	}{
		{`5`, 5, false},
		{`"12"`, 12, false},
		{`" 7 "`, 7, false},
		{`""`, 0, false},
		{`null`, 0, false},
		{`3.0`, 3, false},
		{`2.5`, 0, true},
		{`"abc"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var s Stock
			err := json.Unmarshal([]byte(tt.raw), &s)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestDecodeAndNormalize(t *testing.T) {
	body := `{
		"collaborators": [
			{"id": "p1", "name": " Ana  Souza ", "cpf": "123.456.789-09", "company": "Filial"},
			{"name": "Bruno", "company": "desconhecida"},
			{}
		],
		"catalog": [
			{"id": "c1", "code": "LUVA01", "name": "Luva", "ca": "123", "stock": "4"},
			{"code": "CAPA01", "stock": 2}
		]
	}`

	resp, err := DecodePullResponse(strings.NewReader(body))
	require.NoError(t, err)

	collaborators, catalog, err := resp.Normalize()
	require.NoError(t, err)
	require.Len(t, collaborators, 2)
	assert.Equal(t, "Ana Souza", collaborators[0].Name)
	assert.Equal(t, "12345678909", collaborators[0].CPF)
	assert.Equal(t, metadata.CompanyFilial, collaborators[0].Company)
	assert.Equal(t, metadata.DefaultCompany, collaborators[1].Company)
	assert.NotEmpty(t, collaborators[1].ID)

	require.Len(t, catalog, 2)
	assert.Equal(t, "123", catalog[0].Certification)
	assert.Equal(t, 4, catalog[0].Stock)
	assert.Equal(t, "CAPA01", catalog[1].Name)
}

func TestNormalizeRejectsInvalidData(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"duplicate code", `{"catalog": [{"code": "A"}, {"code": "A"}]}`},
		{"negative stock", `{"catalog": [{"code": "A", "stock": -2}]}`},
		{"duplicate cpf", `{"collaborators": [{"name": "A", "cpf": "12345678909"}, {"name": "B", "cpf": "123.456.789-09"}]}`},
		{"invalid cpf", `{"collaborators": [{"name": "A", "cpf": "12"}]}`},
		{"missing name", `{"collaborators": [{"cpf": "12345678909"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := DecodePullResponse(strings.NewReader(tt.body))
			require.NoError(t, err)
			_, _, err = resp.Normalize()
			assert.True(t, custom_error.IsValidation(err))
		})
	}

	_, err := DecodePullResponse(strings.NewReader("<html>"))
	assert.Error(t, err)
}
