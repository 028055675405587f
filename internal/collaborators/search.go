package collaborators

import (
	"strings"

	"github.com/edy93762/gesto-de-epi-sub000/pkg/metadata"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

// Filter returns the collaborators matching query: a case-insensitive name
// substring, or for a numeric query of three or more digits a CPF substring.
func Filter(list []models.Collaborator, query string) []models.Collaborator {
	query = strings.TrimSpace(query)
	if query == "" {
		return list
	}

	name := strings.ToLower(query)
	digits := ""
	if metadata.IsNumericQuery(query) {
		digits = metadata.NormalizeCPF(query)
	}

	result := make([]models.Collaborator, 0)
	for _, c := range list {
		if strings.Contains(strings.ToLower(c.Name), name) {
			result = append(result, c)
			continue
		}
		if digits != "" && c.CPF != "" && strings.Contains(c.CPF, digits) {
			result = append(result, c)
		}
	}

	return result
}

// FindByName matches a full name ignoring case and surrounding spaces.
func FindByName(list []models.Collaborator, name string) (models.Collaborator, bool) {
	target := normalizeName(name)
	if target == "" {
		return models.Collaborator{}, false
	}
	for _, c := range list {
		if normalizeName(c.Name) == target {
			return c, true
		}
	}
	return models.Collaborator{}, false
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
