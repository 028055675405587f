package deliveries

type EmployeeRequest struct {
	CollaboratorID string `json:"collaboratorId"`
	Name           string `json:"name"`
	CPF            string `json:"cpf"`
	AdmissionDate  string `json:"admissionDate"`
	Shift          string `json:"shift"`
	Company        string `json:"company"`
}

type AddItemRequest struct {
	CatalogID string `json:"catalogId" binding:"required"`
}

type RemoveItemRequest struct {
	Index *int `uri:"index" binding:"required,min=0"`
}

// PhotoRequest carries either a capture session to confirm or, when capture
// is disabled, an encoded photo.
type PhotoRequest struct {
	SessionID string `json:"sessionId"`
	Photo     string `json:"photo"`
}

type DeliveryQuery struct {
	Employee string `form:"employee"`
}

type LastDeliveryQuery struct {
	Employee string `form:"employee" binding:"required"`
}
