package dto

// CreateProposalRequest starts a new schedule proposal and generates its blocks.
type CreateProposalRequest struct {
	Nombre        string  `json:"nombre" validate:"required,min=3,max=100"`
	PeriodoInicio string  `json:"periodoInicio" validate:"required"`
	PeriodoFin    string  `json:"periodoFin" validate:"required"`
	Descripcion   *string `json:"descripcion" validate:"omitempty"`
}

// UpdateProposalRequest patches proposal metadata. Only provided fields apply.
type UpdateProposalRequest struct {
	Nombre        *string `json:"nombre" validate:"omitempty,min=3,max=100"`
	PeriodoInicio *string `json:"periodoInicio" validate:"omitempty"`
	PeriodoFin    *string `json:"periodoFin" validate:"omitempty"`
	Descripcion   *string `json:"descripcion" validate:"omitempty"`
}

// UpdateProposalStatusRequest transitions the proposal lifecycle state.
type UpdateProposalStatusRequest struct {
	Estado string `json:"estado" validate:"required"`
}

// ListQuery carries the pagination parameters for list endpoints.
type ListQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}
