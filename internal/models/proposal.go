package models

import (
	"strings"
	"time"
)

// ProposalStatus represents lifecycle phases for schedule proposals.
type ProposalStatus string

const (
	ProposalStatusDraft    ProposalStatus = "draft"
	ProposalStatusApproved ProposalStatus = "approved"
	ProposalStatusRejected ProposalStatus = "rejected"
)

// ParseProposalStatus normalises the raw value and reports whether it is one of
// the allowed lifecycle states.
func ParseProposalStatus(raw string) (ProposalStatus, bool) {
	status := ProposalStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case ProposalStatusDraft, ProposalStatusApproved, ProposalStatusRejected:
		return status, true
	}
	return "", false
}

// Proposal is a named, dated container of generated schedule blocks.
type Proposal struct {
	ID            string         `db:"id" json:"id"`
	ColegioID     string         `db:"colegio_id" json:"colegioId"`
	Nombre        string         `db:"nombre" json:"nombre"`
	PeriodoInicio time.Time      `db:"periodo_inicio" json:"periodoInicio"`
	PeriodoFin    time.Time      `db:"periodo_fin" json:"periodoFin"`
	Estado        ProposalStatus `db:"estado" json:"estado"`
	Descripcion   *string        `db:"descripcion" json:"descripcion"`
	CreatedBy     *string        `db:"created_by" json:"createdBy"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}

// ProposalBlock is one (pairing, room, slot) assignment owned by a proposal.
type ProposalBlock struct {
	ID                string  `db:"id" json:"id"`
	PropuestaID       string  `db:"propuesta_id" json:"propuestaId"`
	ProfesorVinculoID string  `db:"profesor_vinculo_id" json:"profesorVinculoId"`
	CursoMateriaID    string  `db:"curso_materia_id" json:"cursoMateriaId"`
	SalaID            string  `db:"sala_id" json:"salaId"`
	DiaSemana         int     `db:"dia_semana" json:"diaSemana"`
	HoraInicio        string  `db:"hora_inicio" json:"horaInicio"`
	HoraFin           string  `db:"hora_fin" json:"horaFin"`
	Observaciones     *string `db:"observaciones" json:"observaciones"`
}

// ProposalSummary is the list-view row including block count and creator name.
type ProposalSummary struct {
	ID            string         `db:"id" json:"id"`
	Nombre        string         `db:"nombre" json:"nombre"`
	Estado        ProposalStatus `db:"estado" json:"estado"`
	Descripcion   *string        `db:"descripcion" json:"descripcion"`
	PeriodoInicio time.Time      `db:"periodo_inicio" json:"periodoInicio"`
	PeriodoFin    time.Time      `db:"periodo_fin" json:"periodoFin"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
	Bloques       int            `db:"bloques" json:"bloques"`
	CreadoPor     *string        `db:"creador_nombre" json:"creadoPor"`
}

// ProposalBlockDetail joins a block with its curso, materia, sala and professor.
type ProposalBlockDetail struct {
	ID                string  `db:"id" json:"id"`
	ProfesorVinculoID string  `db:"profesor_vinculo_id" json:"profesorVinculoId"`
	ProfesorFullName  string  `db:"profesor_full_name" json:"profesorFullName"`
	CursoMateriaID    string  `db:"curso_materia_id" json:"cursoMateriaId"`
	CursoID           string  `db:"curso_id" json:"cursoId"`
	CursoNombre       string  `db:"curso_nombre" json:"cursoNombre"`
	MateriaNombre     string  `db:"materia_nombre" json:"materiaNombre"`
	SalaID            string  `db:"sala_id" json:"salaId"`
	SalaNombre        string  `db:"sala_nombre" json:"salaNombre"`
	DiaSemana         int     `db:"dia_semana" json:"diaSemana"`
	HoraInicio        string  `db:"hora_inicio" json:"horaInicio"`
	HoraFin           string  `db:"hora_fin" json:"horaFin"`
	Observaciones     *string `db:"observaciones" json:"observaciones"`
}
