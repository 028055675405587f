package models

// CatalogItem is a stockable PPE type.
type CatalogItem struct {
	ID            string `json:"id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Certification string `json:"certification,omitempty"` // CA number
	Stock         int    `json:"stock"`
}

// Item is the snapshot of a catalog entry stored inside a delivery record.
type Item struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Certification string `json:"certification,omitempty"`
}

func (c CatalogItem) Snapshot() Item {
	return Item{
		Code:          c.Code,
		Name:          c.Name,
		Certification: c.Certification,
	}
}
