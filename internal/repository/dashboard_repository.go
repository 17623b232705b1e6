package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/andes-edu/colegio-admin-api/internal/models"
)

// DashboardRepository runs the aggregate queries behind the landing-page
// dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Counts returns the landing-page headline numbers for the current year.
func (r *DashboardRepository) Counts(ctx context.Context, colegioID string) (*models.DashboardCounts, error) {
	year := time.Now().Year()

	var students int
	const studentsQuery = `
SELECT COUNT(DISTINCT ac.alumno_vinculo_id)
FROM alumnos_cursos ac
JOIN vinculos_institucionales v ON ac.alumno_vinculo_id = v.id
JOIN roles r ON v.rol_id = r.id
WHERE ac.annio = $1 AND r.nombre = 'estudiante' AND v.colegio_id = $2`
	if err := r.db.GetContext(ctx, &students, studentsQuery, year, colegioID); err != nil {
		return nil, fmt.Errorf("count students: %w", err)
	}

	var teachers int
	const teachersQuery = `
SELECT COUNT(DISTINCT v.id) FROM (
  SELECT cm.profesor_vinculo_id as id
  FROM cursos_materias cm
  JOIN cursos c ON cm.curso_id = c.id
  WHERE c.annio = $1 AND c.colegio_id = $2
  UNION
  SELECT c.profesor_jefe_vinculo_id as id
  FROM cursos c
  WHERE c.annio = $1 AND c.colegio_id = $2
) s
JOIN vinculos_institucionales v ON s.id = v.id
JOIN roles r ON v.rol_id = r.id
WHERE r.nombre = 'profesor'`
	if err := r.db.GetContext(ctx, &teachers, teachersQuery, year, colegioID); err != nil {
		return nil, fmt.Errorf("count teachers: %w", err)
	}

	var averageGrade *float64
	const avgQuery = `
SELECT ROUND(AVG(n.valor)::numeric, 2)
FROM notas n
JOIN evaluaciones e ON n.evaluacion_id = e.id
JOIN vinculos_institucionales v ON n.alumno_vinculo_id = v.id
WHERE EXTRACT(YEAR FROM e.fecha) = $1 AND v.colegio_id = $2`
	if err := r.db.GetContext(ctx, &averageGrade, avgQuery, year, colegioID); err != nil {
		return nil, fmt.Errorf("average grade: %w", err)
	}

	var attendancePercent *float64
	const attendanceQuery = `
SELECT CASE WHEN COUNT(*) = 0 THEN NULL ELSE ROUND((SUM(CASE WHEN a.estado = 'presente' THEN 1 ELSE 0 END)::float / COUNT(*) * 100)::numeric, 2) END
FROM asistencias_diarias a
JOIN cursos c ON a.curso_id = c.id
WHERE EXTRACT(YEAR FROM a.fecha) = $1 AND c.colegio_id = $2`
	if err := r.db.GetContext(ctx, &attendancePercent, attendanceQuery, year, colegioID); err != nil {
		return nil, fmt.Errorf("attendance percent: %w", err)
	}

	return &models.DashboardCounts{
		Students:          students,
		Teachers:          teachers,
		AverageGrade:      averageGrade,
		AttendancePercent: attendancePercent,
	}, nil
}

type dailyAttendanceRow struct {
	Fecha   time.Time `db:"fecha"`
	Percent *float64  `db:"percent"`
}

type monthlyGradeRow struct {
	MonthStart time.Time `db:"month_start"`
	Average    *float64  `db:"average"`
}

type monthlyPercentRow struct {
	MonthStart time.Time `db:"month_start"`
	Percent    *float64  `db:"percent"`
}

type gradeDistributionRow struct {
	Total        int `db:"total"`
	Excelente    int `db:"excelente"`
	Bueno        int `db:"bueno"`
	Regular      int `db:"regular"`
	Insuficiente int `db:"insuficiente"`
}

// Analytics builds the landing-page charts: attendance over the last five
// school days, grade and attendance averages over the previous full months of
// the current year, and the current-year grade distribution.
func (r *DashboardRepository) Analytics(ctx context.Context, colegioID string) (*models.DashboardAnalytics, error) {
	now := time.Now()
	year := now.Year()

	days := lastSchoolDays(now, 5)
	attendanceByDay := make([]models.DailyAttendance, 0, len(days))
	if len(days) > 0 {
		const dailyQuery = `
SELECT a.fecha as fecha,
  ROUND((SUM(CASE WHEN a.estado = 'presente' THEN 1 ELSE 0 END)::float / COUNT(*) * 100)::numeric, 2) as percent
FROM asistencias_diarias a
JOIN cursos c ON a.curso_id = c.id
WHERE a.fecha BETWEEN $1::date AND $2::date AND c.colegio_id = $3
GROUP BY a.fecha`
		var rows []dailyAttendanceRow
		startStr := days[0].Format(dateLayout)
		endStr := days[len(days)-1].Format(dateLayout)
		if err := r.db.SelectContext(ctx, &rows, dailyQuery, startStr, endStr, colegioID); err != nil {
			return nil, fmt.Errorf("daily attendance: %w", err)
		}
		byDate := make(map[string]*float64, len(rows))
		for _, row := range rows {
			byDate[row.Fecha.Format(dateLayout)] = row.Percent
		}
		for _, d := range days {
			key := d.Format(dateLayout)
			attendanceByDay = append(attendanceByDay, models.DailyAttendance{
				Date:    key,
				Weekday: models.WeekdayAbbrev(d),
				Percent: byDate[key],
			})
		}
	}

	months := previousFullMonths(now, 4)
	monthlyGrades := make([]models.MonthlyGrade, 0, len(months))
	monthlyAttendance := make([]models.MonthlyPercent, 0, len(months))
	if len(months) > 0 {
		// months runs newest-first, so the window bounds come from the ends.
		startStr := months[len(months)-1].start.Format(dateLayout)
		endStr := months[0].end.Format(dateLayout)

		const gradesQuery = `
SELECT date_trunc('month', e.fecha)::date as month_start,
  ROUND(AVG(n.valor)::numeric, 2) as average
FROM notas n
JOIN evaluaciones e ON n.evaluacion_id = e.id
JOIN vinculos_institucionales v ON n.alumno_vinculo_id = v.id
WHERE e.fecha BETWEEN $1::date AND $2::date AND v.colegio_id = $3
GROUP BY 1`
		var gradeRows []monthlyGradeRow
		if err := r.db.SelectContext(ctx, &gradeRows, gradesQuery, startStr, endStr, colegioID); err != nil {
			return nil, fmt.Errorf("monthly grades: %w", err)
		}
		gradesByMonth := make(map[string]*float64, len(gradeRows))
		for _, row := range gradeRows {
			gradesByMonth[row.MonthStart.Format(dateLayout)] = row.Average
		}

		const attendanceQuery = `
SELECT date_trunc('month', a.fecha)::date as month_start,
  ROUND((SUM(CASE WHEN a.estado = 'presente' THEN 1 ELSE 0 END)::float / COUNT(*) * 100)::numeric, 2) as percent
FROM asistencias_diarias a
JOIN cursos c ON a.curso_id = c.id
WHERE a.fecha BETWEEN $1::date AND $2::date AND c.colegio_id = $3
GROUP BY 1`
		var attendanceRows []monthlyPercentRow
		if err := r.db.SelectContext(ctx, &attendanceRows, attendanceQuery, startStr, endStr, colegioID); err != nil {
			return nil, fmt.Errorf("monthly attendance: %w", err)
		}
		attendanceByMonth := make(map[string]*float64, len(attendanceRows))
		for _, row := range attendanceRows {
			attendanceByMonth[row.MonthStart.Format(dateLayout)] = row.Percent
		}

		for _, m := range months {
			key := m.start.Format(dateLayout)
			label := models.MonthLabel(m.start)
			monthlyGrades = append(monthlyGrades, models.MonthlyGrade{Month: label, Average: gradesByMonth[key]})
			monthlyAttendance = append(monthlyAttendance, models.MonthlyPercent{Month: label, Percent: attendanceByMonth[key]})
		}
	}

	var dist gradeDistributionRow
	const distQuery = `
SELECT COUNT(*) as total,
  COALESCE(SUM(CASE WHEN n.valor >= 6.0 AND n.valor <= 7.0 THEN 1 ELSE 0 END), 0) as excelente,
  COALESCE(SUM(CASE WHEN n.valor >= 5.0 AND n.valor < 6.0 THEN 1 ELSE 0 END), 0) as bueno,
  COALESCE(SUM(CASE WHEN n.valor >= 4.0 AND n.valor < 5.0 THEN 1 ELSE 0 END), 0) as regular,
  COALESCE(SUM(CASE WHEN n.valor >= 1.0 AND n.valor < 4.0 THEN 1 ELSE 0 END), 0) as insuficiente
FROM notas n
JOIN evaluaciones e ON n.evaluacion_id = e.id
JOIN vinculos_institucionales v ON n.alumno_vinculo_id = v.id
WHERE EXTRACT(YEAR FROM e.fecha) = $1 AND v.colegio_id = $2`
	if err := r.db.GetContext(ctx, &dist, distQuery, year, colegioID); err != nil {
		return nil, fmt.Errorf("grade distribution: %w", err)
	}

	return &models.DashboardAnalytics{
		AttendanceByDay:   attendanceByDay,
		MonthlyGrades:     monthlyGrades,
		MonthlyAttendance: monthlyAttendance,
		GradeDistribution: models.GradeDistribution{
			Total: dist.Total,
			Distribution: []models.GradeBand{
				{Label: "Excelente", Range: "6.0-7.0", Count: dist.Excelente, Percent: sharePercent(dist.Excelente, dist.Total)},
				{Label: "Bueno", Range: "5.0-5.9", Count: dist.Bueno, Percent: sharePercent(dist.Bueno, dist.Total)},
				{Label: "Regular", Range: "4.0-4.9", Count: dist.Regular, Percent: sharePercent(dist.Regular, dist.Total)},
				{Label: "Insuficiente", Range: "1.0-3.9", Count: dist.Insuficiente, Percent: sharePercent(dist.Insuficiente, dist.Total)},
			},
		},
	}, nil
}

// ObservationsSummary counts the colegio's conduct observations by tipo,
// restricted to the current year. The analytics variant spans all years.
func (r *DashboardRepository) ObservationsSummary(ctx context.Context, colegioID string) (*models.ObservationsSummary, error) {
	year := time.Now().Year()

	var row observationsRow
	const query = `
SELECT COUNT(*) as total,
  COALESCE(SUM(CASE WHEN o.tipo = 'positiva' THEN 1 ELSE 0 END), 0) as positiva,
  COALESCE(SUM(CASE WHEN o.tipo = 'negativa' THEN 1 ELSE 0 END), 0) as negativa,
  COALESCE(SUM(CASE WHEN o.tipo = 'informativa' THEN 1 ELSE 0 END), 0) as informativa
FROM observaciones o
JOIN cursos c ON o.curso_id = c.id
WHERE EXTRACT(YEAR FROM o.fecha) = $1 AND c.colegio_id = $2`
	if err := r.db.GetContext(ctx, &row, query, year, colegioID); err != nil {
		return nil, fmt.Errorf("observations summary: %w", err)
	}
	return buildObservationsSummary(row), nil
}

// lastSchoolDays returns up to n weekdays ending at now's date, oldest first.
// Days from the previous calendar year are excluded so the charts never mix
// school years.
func lastSchoolDays(now time.Time, n int) []time.Time {
	days := make([]time.Time, 0, n)
	cursor := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for len(days) < n && cursor.Year() == now.Year() {
		if wd := cursor.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days = append(days, cursor)
		}
		cursor = cursor.AddDate(0, 0, -1)
	}
	for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
		days[i], days[j] = days[j], days[i]
	}
	return days
}

type monthSpan struct {
	start time.Time
	end   time.Time
}

// previousFullMonths returns up to n complete months before the current one,
// newest first, never crossing into the previous calendar year.
func previousFullMonths(now time.Time, n int) []monthSpan {
	spans := make([]monthSpan, 0, n)
	cursor := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
	for len(spans) < n && cursor.Year() == now.Year() {
		spans = append(spans, monthSpan{
			start: cursor,
			end:   time.Date(cursor.Year(), cursor.Month()+1, 0, 0, 0, 0, 0, now.Location()),
		})
		cursor = cursor.AddDate(0, -1, 0)
	}
	return spans
}
