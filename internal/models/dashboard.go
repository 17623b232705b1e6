package models

import (
	"fmt"
	"time"
)

// DashboardCounts headlines the admin landing page.
type DashboardCounts struct {
	Students          int      `json:"students"`
	Teachers          int      `json:"teachers"`
	AverageGrade      *float64 `json:"averageGrade"`
	AttendancePercent *float64 `json:"attendancePercent"`
}

// DailyAttendance is one school day's attendance percentage (null when no
// records exist for that day).
type DailyAttendance struct {
	Date    string   `json:"date"`
	Weekday string   `json:"weekday"`
	Percent *float64 `json:"percent"`
}

// MonthlyGrade is the grade average of one full month.
type MonthlyGrade struct {
	Month   string   `json:"month"`
	Average *float64 `json:"average"`
}

// MonthlyPercent is the attendance percentage of one full month.
type MonthlyPercent struct {
	Month   string   `json:"month"`
	Percent *float64 `json:"percent"`
}

// GradeBand is one bucket of the grade distribution chart.
type GradeBand struct {
	Label   string  `json:"label"`
	Range   string  `json:"range"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// GradeDistribution buckets current-year grades into quality bands.
type GradeDistribution struct {
	Total        int         `json:"total"`
	Distribution []GradeBand `json:"distribution"`
}

// DashboardAnalytics feeds the landing-page charts.
type DashboardAnalytics struct {
	AttendanceByDay   []DailyAttendance `json:"attendanceByDay"`
	MonthlyGrades     []MonthlyGrade    `json:"monthlyGrades"`
	MonthlyAttendance []MonthlyPercent  `json:"monthlyAttendance"`
	GradeDistribution GradeDistribution `json:"gradeDistribution"`
}

var monthAbbrevs = map[time.Month]string{
	time.January:   "ene",
	time.February:  "feb",
	time.March:     "mar",
	time.April:     "abr",
	time.May:       "may",
	time.June:      "jun",
	time.July:      "jul",
	time.August:    "ago",
	time.September: "sep",
	time.October:   "oct",
	time.November:  "nov",
	time.December:  "dic",
}

// MonthLabel formats a month the way the console charts label their axes,
// e.g. "mar 2026".
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%s %d", monthAbbrevs[t.Month()], t.Year())
}

var weekdayAbbrevs = map[time.Weekday]string{
	time.Sunday:    "dom",
	time.Monday:    "lun",
	time.Tuesday:   "mar",
	time.Wednesday: "mié",
	time.Thursday:  "jue",
	time.Friday:    "vie",
	time.Saturday:  "sáb",
}

// WeekdayAbbrev returns the short Spanish weekday label.
func WeekdayAbbrev(t time.Time) string {
	return weekdayAbbrevs[t.Weekday()]
}
