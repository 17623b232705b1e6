package dto

// WeeklyScheduleQuery filters the weekly schedule grid. All fields optional.
type WeeklyScheduleQuery struct {
	SalaID            string `form:"salaId" validate:"omitempty,uuid"`
	CursoID           string `form:"cursoId" validate:"omitempty,uuid"`
	MateriaID         string `form:"materiaId" validate:"omitempty,uuid"`
	ProfesorVinculoID string `form:"profesorVinculoId" validate:"omitempty,uuid"`
	DiaSemana         int    `form:"diaSemana" validate:"omitempty,min=1,max=5"`
	HoraDesde         string `form:"horaDesde" validate:"omitempty,datetime=15:04"`
	HoraHasta         string `form:"horaHasta" validate:"omitempty,datetime=15:04"`
}

// AppliedScheduleFilters echoes the filters effectively applied to the grid.
type AppliedScheduleFilters struct {
	SalaID            *string `json:"salaId"`
	CursoID           *string `json:"cursoId"`
	MateriaID         *string `json:"materiaId"`
	ProfesorVinculoID *string `json:"profesorVinculoId"`
	DiaSemana         *int    `json:"diaSemana"`
	HoraDesde         *string `json:"horaDesde"`
	HoraHasta         *string `json:"horaHasta"`
}
