package models

// ApprovalAnalytics holds the previous-year approval rate and the
// institutional average grade (null when no grades exist).
type ApprovalAnalytics struct {
	ApprovalRate     float64  `json:"approvalRate"`
	InstitutionalAvg *float64 `json:"institutionalAvg"`
}

// AnalyticsSummary aggregates the current-year headline metrics.
type AnalyticsSummary struct {
	Year                 int      `json:"year"`
	ApprovalRate         float64  `json:"approvalRate"`
	AttendancePercent    *float64 `json:"attendancePercent"`
	ProfessorAverage     *float64 `json:"professorAverage"`
	InstitutionalAverage *float64 `json:"institutionalAverage"`
}

// SubjectAverage reports the yearly average and approval percentage per materia.
type SubjectAverage struct {
	MateriaID       string   `db:"materia_id" json:"materiaId"`
	Materia         string   `db:"materia" json:"materia"`
	Average         *float64 `db:"average" json:"average"`
	ApprovalPercent float64  `db:"approval_percent" json:"approvalPercent"`
}

// CountPercent pairs an absolute count with its share of the total.
type CountPercent struct {
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// AttendancePeriod bounds the academic window, which starts in March.
type AttendancePeriod struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	StartYear int    `json:"startYear"`
}

// AttendanceStats breaks attendance records down by estado.
type AttendanceStats struct {
	Total             int          `json:"total"`
	Present           CountPercent `json:"present"`
	Tardanza          CountPercent `json:"tardanza"`
	Absent            CountPercent `json:"absent"`
	AttendancePercent float64      `json:"attendancePercent"`
}

// MonthlyAttendance is one month's attendance percentage within the window.
type MonthlyAttendance struct {
	Month             string  `json:"month"`
	MonthStart        string  `json:"monthStart"`
	AttendancePercent float64 `json:"attendancePercent"`
}

// AttendanceAnalytics aggregates attendance from March to the current month.
type AttendanceAnalytics struct {
	Period  AttendancePeriod    `json:"period"`
	Stats   AttendanceStats     `json:"stats"`
	Monthly []MonthlyAttendance `json:"monthly"`
}

// ObservationsSummary counts conduct observations per tipo.
type ObservationsSummary struct {
	Total       int          `json:"total"`
	Positiva    CountPercent `json:"positiva"`
	Negativa    CountPercent `json:"negativa"`
	Informativa CountPercent `json:"informativa"`
}

// ProfessorSubject is one materia taught in one curso, with its grade average.
type ProfessorSubject struct {
	Materia string   `json:"materia"`
	Curso   string   `json:"curso"`
	Average *float64 `json:"average"`
}

// ProfessorPerformance summarizes one professor's current-year results.
type ProfessorPerformance struct {
	ProfesorVinculoID string             `json:"profesorVinculoId"`
	FullName          string             `json:"fullName"`
	ProfessorAverage  *float64           `json:"professorAverage"`
	Trend             string             `json:"trend"`
	Subjects          []ProfessorSubject `json:"subjects"`
}
