package metadata

import (
	"fmt"
	"strings"
)

// Company is one of the fixed organizations a collaborator or delivery belongs to.
type Company string

const (
	CompanyMatriz    Company = "matriz"
	CompanyFilial    Company = "filial"
	CompanyTerceiros Company = "terceiros"
)

const DefaultCompany = CompanyMatriz

func Companies() []Company {
	return []Company{CompanyMatriz, CompanyFilial, CompanyTerceiros}
}

func (c Company) IsValid() bool {
	switch c {
	case CompanyMatriz, CompanyFilial, CompanyTerceiros:
		return true
	default:
		return false
	}
}

func NewCompany(value string) (Company, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), " ", "-")
	company := Company(normalized)
	if !company.IsValid() {
		return company, fmt.Errorf(
			"value not valid, only valid values are: %s, %s, %s",
			CompanyMatriz, CompanyFilial, CompanyTerceiros,
		)
	}

	return company, nil
}

// CompanyOrDefault is used for data coming from outside (remote pulls, backups)
// where an unknown organization must not reject the whole payload.
func CompanyOrDefault(value string) Company {
	company, err := NewCompany(value)
	if err != nil {
		return DefaultCompany
	}
	return company
}

func (c Company) String() string {
	return string(c)
}
