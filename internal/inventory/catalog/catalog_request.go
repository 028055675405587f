package catalog

type CatalogItemRequest struct {
	Code          string `json:"code" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Certification string `json:"certification"`
	Stock         int    `json:"stock"`
}

type PatchCatalogItemRequest struct {
	ID            string  `uri:"id" binding:"required"`
	Code          *string `json:"code"`
	Name          *string `json:"name"`
	Certification *string `json:"certification"`
	Stock         *int    `json:"stock"`
}
