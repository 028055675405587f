package catalog

import (
	"strings"

	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

// DecrementStock returns a copy of items with the stock of every entry lowered by
// the number of delivered units sharing its code. Stock is clamped at zero and
// delivered codes missing from the catalog are ignored.
func DecrementStock(items []models.CatalogItem, delivered []models.Item) []models.CatalogItem {
	units := make(map[string]int, len(delivered))
	for _, d := range delivered {
		units[normalizeCode(d.Code)]++
	}

	result := make([]models.CatalogItem, len(items))
	for i, item := range items {
		result[i] = item
		if n := units[normalizeCode(item.Code)]; n > 0 {
			result[i].Stock = max(0, item.Stock-n)
		}
	}

	return result
}

// Available is the stock left for code once the units already reserved are taken out.
func Available(item models.CatalogItem, reserved []models.Item) int {
	taken := 0
	for _, r := range reserved {
		if normalizeCode(r.Code) == normalizeCode(item.Code) {
			taken++
		}
	}
	return max(0, item.Stock-taken)
}

func normalizeCode(code string) string {
	return strings.TrimSpace(code)
}
