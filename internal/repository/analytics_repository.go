package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/andes-edu/colegio-admin-api/internal/models"
)

// AnalyticsRepository runs the aggregate queries behind the analytics endpoints.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository constructs repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// Approval computes the previous-year approval rate (average grade above 4 and
// attendance above 70%) together with the institutional average grade.
func (r *AnalyticsRepository) Approval(ctx context.Context, colegioID string) (*models.ApprovalAnalytics, error) {
	year := time.Now().Year() - 1

	var totalStudents int
	const totalQuery = `
SELECT COUNT(DISTINCT ac.alumno_vinculo_id)
FROM alumnos_cursos ac
JOIN cursos c ON ac.curso_id = c.id
WHERE c.colegio_id = $1 AND ac.annio = $2`
	if err := r.db.GetContext(ctx, &totalStudents, totalQuery, colegioID, year); err != nil {
		return nil, fmt.Errorf("count enrolled students: %w", err)
	}

	var approved int
	const approvedQuery = `
SELECT COUNT(DISTINCT ac.alumno_vinculo_id)
FROM alumnos_cursos ac
JOIN cursos c ON ac.curso_id = c.id
LEFT JOIN (
  SELECT n.alumno_vinculo_id, AVG(n.valor) as avg_grade
  FROM notas n
  JOIN evaluaciones ev ON n.evaluacion_id = ev.id
  JOIN cursos_materias cm ON ev.curso_materia_id = cm.id
  JOIN cursos c2 ON cm.curso_id = c2.id
  WHERE c2.colegio_id = $1 AND EXTRACT(YEAR FROM ev.fecha) = $2
  GROUP BY n.alumno_vinculo_id
) ag ON ag.alumno_vinculo_id = ac.alumno_vinculo_id
LEFT JOIN (
  SELECT ad.alumno_vinculo_id,
         SUM(CASE WHEN ad.estado = 'presente' THEN 1 ELSE 0 END) as present_count,
         COUNT(*) as total_count
  FROM asistencias_diarias ad
  JOIN cursos c3 ON ad.curso_id = c3.id
  WHERE c3.colegio_id = $1 AND EXTRACT(YEAR FROM ad.fecha) = $2
  GROUP BY ad.alumno_vinculo_id
) at ON at.alumno_vinculo_id = ac.alumno_vinculo_id
WHERE c.colegio_id = $1 AND ac.annio = $2
  AND ag.avg_grade > 4
  AND at.total_count > 0
  AND (at.present_count::float / at.total_count) * 100 > 70`
	if err := r.db.GetContext(ctx, &approved, approvedQuery, colegioID, year); err != nil {
		return nil, fmt.Errorf("count approved students: %w", err)
	}

	var institutionalAvg *float64
	const avgQuery = `
SELECT AVG(n.valor)::numeric(4,2)
FROM notas n
JOIN evaluaciones ev ON n.evaluacion_id = ev.id
JOIN cursos_materias cm ON ev.curso_materia_id = cm.id
JOIN cursos c ON cm.curso_id = c.id
WHERE c.colegio_id = $1 AND EXTRACT(YEAR FROM ev.fecha) = $2`
	if err := r.db.GetContext(ctx, &institutionalAvg, avgQuery, colegioID, year); err != nil {
		return nil, fmt.Errorf("institutional average: %w", err)
	}

	var rate float64
	if totalStudents > 0 {
		rate = float64(approved) / float64(totalStudents) * 100
	}

	return &models.ApprovalAnalytics{
		ApprovalRate:     math.Round(rate*100) / 100,
		InstitutionalAvg: institutionalAvg,
	}, nil
}

// Summary aggregates the current-year headline metrics.
func (r *AnalyticsRepository) Summary(ctx context.Context, colegioID string) (*models.AnalyticsSummary, error) {
	year := time.Now().Year()

	var totalStudents int
	const totalQuery = `
SELECT COUNT(DISTINCT ac.alumno_vinculo_id)
FROM alumnos_cursos ac
JOIN cursos c ON ac.curso_id = c.id
WHERE c.colegio_id = $1 AND ac.annio = $2`
	if err := r.db.GetContext(ctx, &totalStudents, totalQuery, colegioID, year); err != nil {
		return nil, fmt.Errorf("count enrolled students: %w", err)
	}

	var approvedStudents int
	const approvedQuery = `
SELECT COUNT(*) FROM (
  SELECT n.alumno_vinculo_id
  FROM notas n
  JOIN evaluaciones ev ON n.evaluacion_id = ev.id
  JOIN cursos_materias cm ON ev.curso_materia_id = cm.id
  JOIN cursos c ON cm.curso_id = c.id
  WHERE c.colegio_id = $1 AND EXTRACT(YEAR FROM ev.fecha) = $2
  GROUP BY n.alumno_vinculo_id
  HAVING AVG(n.valor) > 4
) sub`
	if err := r.db.GetContext(ctx, &approvedStudents, approvedQuery, colegioID, year); err != nil {
		return nil, fmt.Errorf("count approved students: %w", err)
	}

	var attendancePercent *float64
	const attendanceQuery = `
SELECT CASE WHEN COUNT(*) = 0 THEN NULL ELSE ROUND((SUM(CASE WHEN a.estado = 'presente' THEN 1 ELSE 0 END)::float / COUNT(*) * 100)::numeric, 2) END
FROM asistencias_diarias a
JOIN cursos c ON a.curso_id = c.id
WHERE c.colegio_id = $1 AND EXTRACT(YEAR FROM a.fecha) = $2`
	if err := r.db.GetContext(ctx, &attendancePercent, attendanceQuery, colegioID, year); err != nil {
		return nil, fmt.Errorf("attendance percent: %w", err)
	}

	var professorAverage *float64
	const professorQuery = `
SELECT AVG(sub.avg_grade)::numeric(4,2)
FROM (
  SELECT cm.profesor_vinculo_id, AVG(n.valor)::numeric(4,2) as avg_grade
  FROM notas n
  JOIN evaluaciones ev ON n.evaluacion_id = ev.id
  JOIN cursos_materias cm ON ev.curso_materia_id = cm.id
  JOIN cursos c ON cm.curso_id = c.id
  WHERE c.colegio_id = $1 AND EXTRACT(YEAR FROM ev.fecha) = $2
  GROUP BY cm.profesor_vinculo_id
) sub`
	if err := r.db.GetContext(ctx, &professorAverage, professorQuery, colegioID, year); err != nil {
		return nil, fmt.Errorf("professor average: %w", err)
	}

	var institutionalAverage *float64
	const institutionalQuery = `
SELECT AVG(n.valor)::numeric(4,2)
FROM notas n
JOIN evaluaciones ev ON n.evaluacion_id = ev.id
JOIN cursos_materias cm ON ev.curso_materia_id = cm.id
JOIN cursos c ON cm.curso_id = c.id
WHERE c.colegio_id = $1 AND EXTRACT(YEAR FROM ev.fecha) = $2`
	if err := r.db.GetContext(ctx, &institutionalAverage, institutionalQuery, colegioID, year); err != nil {
		return nil, fmt.Errorf("institutional average: %w", err)
	}

	var rate float64
	if totalStudents > 0 {
		rate = float64(approvedStudents) / float64(totalStudents) * 100
	}

	return &models.AnalyticsSummary{
		Year:                 year,
		ApprovalRate:         math.Round(rate*100) / 100,
		AttendancePercent:    attendancePercent,
		ProfessorAverage:     professorAverage,
		InstitutionalAverage: institutionalAverage,
	}, nil
}

// SubjectAverages reports average grade and approval percentage per materia.
func (r *AnalyticsRepository) SubjectAverages(ctx context.Context, colegioID string) ([]models.SubjectAverage, error) {
	year := time.Now().Year()

	const query = `
SELECT m.id as materia_id,
  m.nombre as materia,
  (
    SELECT AVG(n.valor)::numeric(4,2)
    FROM notas n
    JOIN evaluaciones ev ON n.evaluacion_id = ev.id
    JOIN cursos_materias cm ON ev.curso_materia_id = cm.id
    JOIN cursos c ON cm.curso_id = c.id
    WHERE cm.materia_id = m.id AND c.colegio_id = $1 AND EXTRACT(YEAR FROM ev.fecha) = $2
  ) as average,
  (
    SELECT CASE WHEN COUNT(*) = 0 THEN 0 ELSE ROUND(SUM(CASE WHEN avg_alumno > 4 THEN 1 ELSE 0 END)::numeric / COUNT(*) * 100, 2) END
    FROM (
      SELECT n.alumno_vinculo_id, AVG(n.valor) as avg_alumno
      FROM notas n
      JOIN evaluaciones ev ON n.evaluacion_id = ev.id
      JOIN cursos_materias cm ON ev.curso_materia_id = cm.id
      JOIN cursos c ON cm.curso_id = c.id
      WHERE cm.materia_id = m.id AND c.colegio_id = $1 AND EXTRACT(YEAR FROM ev.fecha) = $2
      GROUP BY n.alumno_vinculo_id
    ) t
  ) as approval_percent
FROM materias m
WHERE m.colegio_id = $1
ORDER BY m.nombre`
	var rows []models.SubjectAverage
	if err := r.db.SelectContext(ctx, &rows, query, colegioID, year); err != nil {
		return nil, fmt.Errorf("subject averages: %w", err)
	}
	return rows, nil
}

type attendanceTotalsRow struct {
	Total    int `db:"total"`
	Presente int `db:"presente"`
	Tardanza int `db:"tardanza"`
	Ausente  int `db:"ausente"`
}

type monthlyAttendanceRow struct {
	MonthStart time.Time `db:"month_start"`
	Total      int       `db:"total"`
	Presente   int       `db:"presente"`
}

// AttendanceSinceMarch aggregates attendance from the start of the academic
// year (March) through the end of the current month, with a per-month
// breakdown covering every month of the window even when no records exist.
func (r *AnalyticsRepository) AttendanceSinceMarch(ctx context.Context, colegioID string) (*models.AttendanceAnalytics, error) {
	start, end := academicWindow(time.Now())
	startStr := start.Format(dateLayout)
	endStr := end.Format(dateLayout)

	var totals attendanceTotalsRow
	const totalsQuery = `
SELECT COUNT(*) as total,
  COALESCE(SUM(CASE WHEN a.estado = 'presente' THEN 1 ELSE 0 END), 0) as presente,
  COALESCE(SUM(CASE WHEN a.estado = 'tardanza' THEN 1 ELSE 0 END), 0) as tardanza,
  COALESCE(SUM(CASE WHEN a.estado = 'ausente' THEN 1 ELSE 0 END), 0) as ausente
FROM asistencias_diarias a
JOIN cursos c ON a.curso_id = c.id
WHERE a.fecha BETWEEN $1::date AND $2::date AND c.colegio_id = $3`
	if err := r.db.GetContext(ctx, &totals, totalsQuery, startStr, endStr, colegioID); err != nil {
		return nil, fmt.Errorf("attendance totals: %w", err)
	}

	var monthRows []monthlyAttendanceRow
	const monthlyQuery = `
SELECT date_trunc('month', a.fecha)::date as month_start,
  COUNT(*) as total,
  COALESCE(SUM(CASE WHEN a.estado = 'presente' THEN 1 ELSE 0 END), 0) as presente
FROM asistencias_diarias a
JOIN cursos c ON a.curso_id = c.id
WHERE a.fecha BETWEEN $1::date AND $2::date AND c.colegio_id = $3
GROUP BY 1
ORDER BY 1`
	if err := r.db.SelectContext(ctx, &monthRows, monthlyQuery, startStr, endStr, colegioID); err != nil {
		return nil, fmt.Errorf("monthly attendance: %w", err)
	}

	byMonth := make(map[string]monthlyAttendanceRow, len(monthRows))
	for _, row := range monthRows {
		byMonth[row.MonthStart.Format(dateLayout)] = row
	}

	monthly := make([]models.MonthlyAttendance, 0)
	for cursor := start; cursor.Before(end); cursor = cursor.AddDate(0, 1, 0) {
		key := cursor.Format(dateLayout)
		row := byMonth[key]
		monthly = append(monthly, models.MonthlyAttendance{
			Month:             models.MonthLabel(cursor),
			MonthStart:        key,
			AttendancePercent: sharePercent(row.Presente, row.Total),
		})
	}

	return &models.AttendanceAnalytics{
		Period: models.AttendancePeriod{Start: startStr, End: endStr, StartYear: start.Year()},
		Stats: models.AttendanceStats{
			Total:             totals.Total,
			Present:           models.CountPercent{Count: totals.Presente, Percent: sharePercent(totals.Presente, totals.Total)},
			Tardanza:          models.CountPercent{Count: totals.Tardanza, Percent: sharePercent(totals.Tardanza, totals.Total)},
			Absent:            models.CountPercent{Count: totals.Ausente, Percent: sharePercent(totals.Ausente, totals.Total)},
			AttendancePercent: sharePercent(totals.Presente, totals.Total),
		},
		Monthly: monthly,
	}, nil
}

type observationsRow struct {
	Total       int `db:"total"`
	Positiva    int `db:"positiva"`
	Negativa    int `db:"negativa"`
	Informativa int `db:"informativa"`
}

// ObservationsSummary counts all conduct observations of the colegio by tipo.
func (r *AnalyticsRepository) ObservationsSummary(ctx context.Context, colegioID string) (*models.ObservationsSummary, error) {
	var row observationsRow
	const query = `
SELECT COUNT(*) as total,
  COALESCE(SUM(CASE WHEN o.tipo = 'positiva' THEN 1 ELSE 0 END), 0) as positiva,
  COALESCE(SUM(CASE WHEN o.tipo = 'negativa' THEN 1 ELSE 0 END), 0) as negativa,
  COALESCE(SUM(CASE WHEN o.tipo = 'informativa' THEN 1 ELSE 0 END), 0) as informativa
FROM observaciones o
JOIN cursos c ON o.curso_id = c.id
WHERE c.colegio_id = $1`
	if err := r.db.GetContext(ctx, &row, query, colegioID); err != nil {
		return nil, fmt.Errorf("observations summary: %w", err)
	}
	return buildObservationsSummary(row), nil
}

type professorSubjectRow struct {
	ProfesorVinculoID string   `db:"profesor_vinculo_id"`
	FullName          string   `db:"full_name"`
	Curso             string   `db:"curso"`
	Materia           string   `db:"materia"`
	Average           *float64 `db:"average"`
}

// ProfessorPerformance lists each professor of the colegio with their
// current-year subject averages and a qualitative trend band.
func (r *AnalyticsRepository) ProfessorPerformance(ctx context.Context, colegioID string) ([]models.ProfessorPerformance, error) {
	year := time.Now().Year()

	const query = `
SELECT v.id as profesor_vinculo_id,
  (p.nombre || ' ' || p.apellido_paterno || COALESCE(' ' || p.apellido_materno, '')) as full_name,
  c.nombre as curso,
  m.nombre as materia,
  (
    SELECT AVG(n.valor)::numeric(4,2)
    FROM evaluaciones ev
    JOIN notas n ON n.evaluacion_id = ev.id
    WHERE ev.curso_materia_id = cm.id AND EXTRACT(YEAR FROM ev.fecha) = $2
  ) as average
FROM vinculos_institucionales v
JOIN personas p ON v.persona_id = p.id
JOIN cursos_materias cm ON cm.profesor_vinculo_id = v.id
JOIN cursos c ON cm.curso_id = c.id AND c.colegio_id = $1
JOIN materias m ON cm.materia_id = m.id
ORDER BY full_name, c.nombre, m.nombre`
	var rows []professorSubjectRow
	if err := r.db.SelectContext(ctx, &rows, query, colegioID, year); err != nil {
		return nil, fmt.Errorf("professor performance: %w", err)
	}
	return groupProfessorRows(rows), nil
}

// groupProfessorRows folds the flat per-subject rows into one entry per
// professor, deduplicating repeated materia+curso pairs in favor of the
// higher non-null average.
func groupProfessorRows(rows []professorSubjectRow) []models.ProfessorPerformance {
	type gradeSum struct {
		sum float64
		n   int
	}

	items := make([]models.ProfessorPerformance, 0)
	index := make(map[string]int)
	sums := make(map[string]*gradeSum)

	for _, row := range rows {
		i, ok := index[row.ProfesorVinculoID]
		if !ok {
			i = len(items)
			index[row.ProfesorVinculoID] = i
			sums[row.ProfesorVinculoID] = &gradeSum{}
			items = append(items, models.ProfessorPerformance{
				ProfesorVinculoID: row.ProfesorVinculoID,
				FullName:          row.FullName,
				Subjects:          []models.ProfessorSubject{},
			})
		}
		if row.Average != nil {
			sums[row.ProfesorVinculoID].sum += *row.Average
			sums[row.ProfesorVinculoID].n++
		}
		items[i].Subjects = mergeSubject(items[i].Subjects, models.ProfessorSubject{
			Materia: row.Materia,
			Curso:   row.Curso,
			Average: row.Average,
		})
	}

	for i := range items {
		gs := sums[items[i].ProfesorVinculoID]
		if gs.n > 0 {
			avg := math.Round(gs.sum/float64(gs.n)*100) / 100
			items[i].ProfessorAverage = &avg
		}
		items[i].Trend = professorTrend(items[i].ProfessorAverage)
	}
	return items
}

func mergeSubject(subjects []models.ProfessorSubject, next models.ProfessorSubject) []models.ProfessorSubject {
	for i, s := range subjects {
		if s.Materia == next.Materia && s.Curso == next.Curso {
			if next.Average != nil && (s.Average == nil || *next.Average > *s.Average) {
				subjects[i] = next
			}
			return subjects
		}
	}
	return append(subjects, next)
}

// professorTrend maps a grade average onto the console's quality bands. The
// 1-7 Chilean grading scale leaves small gaps between bands (e.g. 6.05),
// which fall through to "sin datos".
func professorTrend(avg *float64) string {
	switch {
	case avg == nil:
		return "sin datos"
	case *avg >= 6.1 && *avg <= 7:
		return "excelente"
	case *avg >= 5.1 && *avg <= 6:
		return "bueno"
	case *avg >= 4.1 && *avg <= 5:
		return "regular"
	case *avg >= 1 && *avg <= 3.9:
		return "malo"
	default:
		return "sin datos"
	}
}

func buildObservationsSummary(row observationsRow) *models.ObservationsSummary {
	return &models.ObservationsSummary{
		Total:       row.Total,
		Positiva:    models.CountPercent{Count: row.Positiva, Percent: sharePercent(row.Positiva, row.Total)},
		Negativa:    models.CountPercent{Count: row.Negativa, Percent: sharePercent(row.Negativa, row.Total)},
		Informativa: models.CountPercent{Count: row.Informativa, Percent: sharePercent(row.Informativa, row.Total)},
	}
}

// academicWindow returns the first day of March of the current academic year
// and the last day of the current month. Before March the academic year is
// still the previous calendar year's.
func academicWindow(now time.Time) (time.Time, time.Time) {
	startYear := now.Year()
	if now.Month() < time.March {
		startYear--
	}
	start := time.Date(startYear, time.March, 1, 0, 0, 0, 0, now.Location())
	end := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location())
	return start, end
}

func sharePercent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*10000) / 100
}

const dateLayout = "2006-01-02"
