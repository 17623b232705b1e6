package models

import "fmt"

// CourseSubjectPairing identifies a course-subject combination and the
// professor teaching it. Immutable for the duration of one allocation run.
type CourseSubjectPairing struct {
	CursoMateriaID    string `db:"curso_materia_id" json:"cursoMateriaId"`
	ProfesorVinculoID string `db:"profesor_vinculo_id" json:"profesorVinculoId"`
}

// Room is an available physical room for the institution.
type Room struct {
	ID string `db:"id" json:"id"`
}

// SlotOption is one candidate (weekday, start, end) unit from the fixed catalog.
type SlotOption struct {
	DiaSemana  int    `json:"diaSemana"`
	HoraInicio string `json:"horaInicio"`
	HoraFin    string `json:"horaFin"`
}

// AssignmentCounts aggregates headline numbers for the assignments dashboard.
type AssignmentCounts struct {
	TotalBlocks         int `json:"totalBlocks"`
	ProfessorsAssigned  int `json:"professorsAssigned"`
	MateriasProgramadas int `json:"materiasProgramadas"`
	CursosWithHorario   int `json:"cursosWithHorario"`
}

// ScheduleListItem is one committed schedule row for the paginated listing.
type ScheduleListItem struct {
	CursoMateriaID    string  `db:"curso_materia_id" json:"cursoMateriaId"`
	MateriaID         string  `db:"materia_id" json:"materiaId"`
	ProfesorVinculoID string  `db:"profesor_vinculo_id" json:"profesorVinculoId"`
	ProfesorFullName  string  `db:"profesor_full_name" json:"profesorFullName"`
	Materia           string  `db:"materia" json:"materia"`
	CursoID           string  `db:"curso_id" json:"cursoId"`
	CursoNombre       string  `db:"curso_nombre" json:"cursoNombre"`
	CursoNivel        string  `db:"curso_nivel" json:"cursoNivel"`
	DiaSemana         int     `db:"dia_semana" json:"diaSemana"`
	HoraInicio        string  `db:"hora_inicio" json:"horaInicio"`
	HoraFin           string  `db:"hora_fin" json:"horaFin"`
	Sala              *string `db:"sala" json:"sala"`
	StudentCount      int     `db:"student_count" json:"studentCount"`
}

// WeeklyBlock is one schedule block inside the weekly grid.
type WeeklyBlock struct {
	HorarioID         string  `db:"horario_id" json:"horarioId"`
	DiaSemana         int     `db:"dia_semana" json:"diaSemana"`
	HoraInicio        string  `db:"hora_inicio" json:"horaInicio"`
	HoraFin           string  `db:"hora_fin" json:"horaFin"`
	SalaID            *string `db:"sala_id" json:"salaId"`
	SalaNombre        *string `db:"sala_nombre" json:"salaNombre"`
	CursoMateriaID    string  `db:"curso_materia_id" json:"cursoMateriaId"`
	CursoID           string  `db:"curso_id" json:"cursoId"`
	CursoNombre       string  `db:"curso_nombre" json:"cursoNombre"`
	CursoNivel        string  `db:"curso_nivel" json:"cursoNivel"`
	MateriaID         string  `db:"materia_id" json:"materiaId"`
	MateriaNombre     string  `db:"materia_nombre" json:"materiaNombre"`
	ProfesorVinculoID string  `db:"profesor_vinculo_id" json:"profesorVinculoId"`
	ProfesorFullName  string  `db:"profesor_full_name" json:"profesorFullName"`
}

// WeeklyDay groups the blocks of one weekday.
type WeeklyDay struct {
	DiaSemana int           `json:"diaSemana"`
	Nombre    string        `json:"nombre"`
	Bloques   []WeeklyBlock `json:"bloques"`
}

// CourseOption is a minimal course row for admin console dropdowns.
type CourseOption struct {
	ID     string `db:"id" json:"id"`
	Nombre string `db:"nombre" json:"nombre"`
}

var dayNames = map[int]string{
	1: "Lunes",
	2: "Martes",
	3: "Miércoles",
	4: "Jueves",
	5: "Viernes",
}

// DayName returns the Spanish weekday label used by the admin console.
func DayName(dia int) string {
	if name, ok := dayNames[dia]; ok {
		return name
	}
	return fmt.Sprintf("Día %d", dia)
}
