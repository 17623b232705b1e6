package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/andes-edu/colegio-admin-api/internal/dto"
	"github.com/andes-edu/colegio-admin-api/internal/models"
)

// AssignmentRepository reads the course-subject pairings, rooms and committed
// schedule rows used by the assignments module.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListPairings returns every course-subject pairing needing a slot.
func (r *AssignmentRepository) ListPairings(ctx context.Context, colegioID string) ([]models.CourseSubjectPairing, error) {
	const query = `
SELECT cm.id as curso_materia_id,
       cm.profesor_vinculo_id
FROM cursos_materias cm
JOIN cursos c ON c.id = cm.curso_id
WHERE c.colegio_id = $1`
	var rows []models.CourseSubjectPairing
	if err := r.db.SelectContext(ctx, &rows, query, colegioID); err != nil {
		return nil, fmt.Errorf("list course pairings: %w", err)
	}
	return rows, nil
}

// ListRooms returns the colegio rooms ordered by name.
func (r *AssignmentRepository) ListRooms(ctx context.Context, colegioID string) ([]models.Room, error) {
	const query = `SELECT id FROM salas WHERE colegio_id = $1 ORDER BY nombre`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, colegioID); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// Counts aggregates the assignments dashboard numbers.
func (r *AssignmentRepository) Counts(ctx context.Context, colegioID string) (*models.AssignmentCounts, error) {
	counts := &models.AssignmentCounts{}

	const blocksQuery = `
SELECT COUNT(*)
FROM horarios h
JOIN cursos_materias cm ON h.curso_materia_id = cm.id
JOIN cursos c ON cm.curso_id = c.id
WHERE c.colegio_id = $1`
	if err := r.db.GetContext(ctx, &counts.TotalBlocks, blocksQuery, colegioID); err != nil {
		return nil, fmt.Errorf("count schedule blocks: %w", err)
	}

	const profQuery = `
SELECT COUNT(DISTINCT cm.profesor_vinculo_id)
FROM cursos_materias cm
JOIN cursos c ON cm.curso_id = c.id
WHERE c.colegio_id = $1`
	if err := r.db.GetContext(ctx, &counts.ProfessorsAssigned, profQuery, colegioID); err != nil {
		return nil, fmt.Errorf("count professors: %w", err)
	}

	const materiaQuery = `
SELECT COUNT(DISTINCT cm.materia_id)
FROM cursos_materias cm
JOIN cursos c ON cm.curso_id = c.id
WHERE c.colegio_id = $1`
	if err := r.db.GetContext(ctx, &counts.MateriasProgramadas, materiaQuery, colegioID); err != nil {
		return nil, fmt.Errorf("count materias: %w", err)
	}

	const cursosQuery = `
SELECT COUNT(DISTINCT c.id)
FROM cursos c
JOIN cursos_materias cm ON cm.curso_id = c.id
JOIN horarios h ON h.curso_materia_id = cm.id
WHERE c.colegio_id = $1`
	if err := r.db.GetContext(ctx, &counts.CursosWithHorario, cursosQuery, colegioID); err != nil {
		return nil, fmt.Errorf("count cursos with horario: %w", err)
	}

	return counts, nil
}

// CountScheduleRows returns the number of committed blocks for pagination.
func (r *AssignmentRepository) CountScheduleRows(ctx context.Context, colegioID string, year int) (int, error) {
	const query = `
SELECT COUNT(*)
FROM horarios h
JOIN cursos_materias cm ON h.curso_materia_id = cm.id
JOIN cursos c ON cm.curso_id = c.id
WHERE c.colegio_id = $1 AND c.annio = $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, colegioID, year); err != nil {
		return 0, fmt.Errorf("count schedule rows: %w", err)
	}
	return total, nil
}

// ListSchedule returns a page of committed schedule rows ordered Monday first.
func (r *AssignmentRepository) ListSchedule(ctx context.Context, colegioID string, year, limit, offset int) ([]models.ScheduleListItem, error) {
	const query = `
SELECT
  v.id as profesor_vinculo_id,
  (p.nombre || ' ' || p.apellido_paterno || ' ' || COALESCE(p.apellido_materno, '')) as profesor_full_name,
  cm.id as curso_materia_id,
  cm.materia_id as materia_id,
  m.nombre as materia,
  c.id as curso_id,
  c.nombre as curso_nombre,
  c.nivel as curso_nivel,
  h.dia_semana,
  h.hora_inicio,
  h.hora_fin,
  s.nombre as sala,
  (
    SELECT COUNT(*) FROM alumnos_cursos ac
    WHERE ac.curso_id = c.id AND ac.annio = $2
  ) as student_count
FROM horarios h
JOIN cursos_materias cm ON h.curso_materia_id = cm.id
JOIN cursos c ON cm.curso_id = c.id
JOIN materias m ON cm.materia_id = m.id
JOIN vinculos_institucionales v ON cm.profesor_vinculo_id = v.id
JOIN personas p ON v.persona_id = p.id
LEFT JOIN salas s ON h.sala_id = s.id
WHERE c.colegio_id = $1 AND c.annio = $2
ORDER BY (CASE WHEN h.dia_semana = 0 THEN 7 ELSE h.dia_semana END) ASC, h.hora_inicio ASC, c.nombre, m.nombre
LIMIT $3 OFFSET $4`
	var rows []models.ScheduleListItem
	if err := r.db.SelectContext(ctx, &rows, query, colegioID, year, limit, offset); err != nil {
		return nil, fmt.Errorf("list schedule: %w", err)
	}
	return rows, nil
}

// WeeklyBlocks returns the filtered weekly grid rows ordered by day and time.
func (r *AssignmentRepository) WeeklyBlocks(ctx context.Context, colegioID string, criteria dto.WeeklyScheduleQuery) ([]models.WeeklyBlock, error) {
	params := []interface{}{colegioID}
	clauses := []string{"c.colegio_id = $1", "h.dia_semana BETWEEN 1 AND 5"}

	addClause := func(expr string, value interface{}) {
		params = append(params, value)
		clauses = append(clauses, fmt.Sprintf(expr, len(params)))
	}

	if criteria.CursoID != "" {
		addClause("c.id = $%d", criteria.CursoID)
	}
	if criteria.MateriaID != "" {
		addClause("m.id = $%d", criteria.MateriaID)
	}
	if criteria.ProfesorVinculoID != "" {
		addClause("cm.profesor_vinculo_id = $%d", criteria.ProfesorVinculoID)
	}
	if criteria.SalaID != "" {
		addClause("h.sala_id = $%d", criteria.SalaID)
	}
	if criteria.DiaSemana != 0 {
		addClause("h.dia_semana = $%d", criteria.DiaSemana)
	}
	if criteria.HoraDesde != "" {
		addClause("h.hora_inicio >= $%d", criteria.HoraDesde)
	}
	if criteria.HoraHasta != "" {
		addClause("h.hora_fin <= $%d", criteria.HoraHasta)
	}

	query := fmt.Sprintf(`
SELECT
  h.id as horario_id,
  h.dia_semana,
  h.hora_inicio,
  h.hora_fin,
  h.sala_id,
  s.nombre as sala_nombre,
  cm.id as curso_materia_id,
  c.id as curso_id,
  c.nombre as curso_nombre,
  c.nivel as curso_nivel,
  m.id as materia_id,
  m.nombre as materia_nombre,
  cm.profesor_vinculo_id,
  (p.nombre || ' ' || p.apellido_paterno || ' ' || COALESCE(p.apellido_materno, '')) as profesor_full_name
FROM horarios h
JOIN cursos_materias cm ON cm.id = h.curso_materia_id
JOIN cursos c ON c.id = cm.curso_id
JOIN materias m ON m.id = cm.materia_id
JOIN vinculos_institucionales v ON v.id = cm.profesor_vinculo_id
JOIN personas p ON p.id = v.persona_id
LEFT JOIN salas s ON s.id = h.sala_id
WHERE %s
ORDER BY h.dia_semana, h.hora_inicio, h.hora_fin`, strings.Join(clauses, " AND "))

	var rows []models.WeeklyBlock
	if err := r.db.SelectContext(ctx, &rows, query, params...); err != nil {
		return nil, fmt.Errorf("list weekly blocks: %w", err)
	}
	return rows, nil
}

// ListCourses returns the colegio courses for console dropdowns.
func (r *AssignmentRepository) ListCourses(ctx context.Context, colegioID string) ([]models.CourseOption, error) {
	const query = `SELECT id, nombre FROM cursos WHERE colegio_id = $1 ORDER BY nombre ASC`
	var rows []models.CourseOption
	if err := r.db.SelectContext(ctx, &rows, query, colegioID); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return rows, nil
}
