package collaborators

type CollaboratorRequest struct {
	Name          string `json:"name" binding:"required"`
	CPF           string `json:"cpf"`
	Shift         string `json:"shift"`
	AdmissionDate string `json:"admissionDate"`
	FaceReference string `json:"faceReference"`
	Company       string `json:"company" binding:"required"`
}

type PatchCollaboratorRequest struct {
	ID            string  `uri:"id" binding:"required"`
	Name          *string `json:"name"`
	CPF           *string `json:"cpf"`
	Shift         *string `json:"shift"`
	AdmissionDate *string `json:"admissionDate"`
	Company       *string `json:"company"`
}

type FaceReferenceRequest struct {
	Photo string `json:"photo" binding:"required"`
}
