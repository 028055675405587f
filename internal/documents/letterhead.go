package documents

import (
	"github.com/edy93762/gesto-de-epi-sub000/pkg/metadata"
)

type rgb struct {
	r, g, b int
}

// Letterhead is the visual and legal identity printed on top of a document.
type Letterhead struct {
	Title       string
	LegalName   string
	TaxID       string
	Declaration string
	Color       rgb
}

const employeeDeclaration = "Declaro ter recebido gratuitamente os Equipamentos de Proteção Individual abaixo " +
	"relacionados, em perfeito estado, comprometendo-me a usá-los apenas para a finalidade a que se destinam, " +
	"responsabilizar-me por sua guarda e conservação e comunicar qualquer alteração que os torne impróprios " +
	"para uso, nos termos da NR-6."

const contractorDeclaration = "Declaro, na condição de prestador de serviço, ter recebido os Equipamentos de " +
	"Proteção Individual abaixo relacionados para uso exclusivo nas dependências da contratante, " +
	"comprometendo-me a devolvê-los ao término do contrato e a observar as orientações da NR-6."

var letterheads = map[metadata.Company]Letterhead{
	metadata.CompanyMatriz: {
		Title:       "FICHA DE ENTREGA DE EPI",
		LegalName:   "Gestão Industrial Matriz Ltda.",
		TaxID:       "CNPJ 12.345.678/0001-90",
		Declaration: employeeDeclaration,
		Color:       rgb{0, 82, 147},
	},
	metadata.CompanyFilial: {
		Title:       "FICHA DE ENTREGA DE EPI - FILIAL",
		LegalName:   "Gestão Industrial Filial Ltda.",
		TaxID:       "CNPJ 12.345.678/0002-71",
		Declaration: employeeDeclaration,
		Color:       rgb{0, 122, 61},
	},
	metadata.CompanyTerceiros: {
		Title:       "TERMO DE ENTREGA DE EPI - TERCEIROS",
		LegalName:   "Prestadores de Serviço Terceirizados",
		TaxID:       "Responsabilidade solidária da contratante",
		Declaration: contractorDeclaration,
		Color:       rgb{196, 90, 0},
	},
}

// LetterheadFor falls back to the default company for unknown values.
func LetterheadFor(company metadata.Company) Letterhead {
	if lh, ok := letterheads[company]; ok {
		return lh
	}
	return letterheads[metadata.DefaultCompany]
}
