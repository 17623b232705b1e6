package service

import (
	"context"
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/andes-edu/colegio-admin-api/internal/dto"
	"github.com/andes-edu/colegio-admin-api/internal/models"
	appErrors "github.com/andes-edu/colegio-admin-api/pkg/errors"
)

const (
	defaultScheduleLimit = 20
	maxScheduleLimit     = 200
)

type scheduleRepository interface {
	Counts(ctx context.Context, colegioID string) (*models.AssignmentCounts, error)
	CountScheduleRows(ctx context.Context, colegioID string, year int) (int, error)
	ListSchedule(ctx context.Context, colegioID string, year, limit, offset int) ([]models.ScheduleListItem, error)
	WeeklyBlocks(ctx context.Context, colegioID string, criteria dto.WeeklyScheduleQuery) ([]models.WeeklyBlock, error)
	ListCourses(ctx context.Context, colegioID string) ([]models.CourseOption, error)
}

// ScheduleService serves the committed schedule read surface: dashboard
// counts, the paginated listing, the weekly grid and the course filter list.
type ScheduleService struct {
	repo      scheduleRepository
	validator *validator.Validate
}

func NewScheduleService(repo scheduleRepository) *ScheduleService {
	return &ScheduleService{repo: repo, validator: validator.New()}
}

func (s *ScheduleService) Counts(ctx context.Context, colegioID string) (*models.AssignmentCounts, error) {
	counts, err := s.repo.Counts(ctx, colegioID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment counts")
	}
	return counts, nil
}

// ScheduleList pages through the committed schedule for one school year.
// A zero year means the current year.
func (s *ScheduleService) ScheduleList(ctx context.Context, colegioID string, year int, query dto.ListQuery) ([]models.ScheduleListItem, *models.Pagination, error) {
	if year == 0 {
		year = time.Now().Year()
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = defaultScheduleLimit
	}
	if limit > maxScheduleLimit {
		limit = maxScheduleLimit
	}

	total, err := s.repo.CountScheduleRows(ctx, colegioID, year)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count schedule rows")
	}
	rows, err := s.repo.ListSchedule(ctx, colegioID, year, limit, (page-1)*limit)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule")
	}

	pagination := &models.Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
	return rows, pagination, nil
}

// WeeklySchedule returns the filtered weekly grid grouped by weekday, plus an
// echo of the filters that were applied.
func (s *ScheduleService) WeeklySchedule(ctx context.Context, colegioID string, query dto.WeeklyScheduleQuery) ([]models.WeeklyDay, *dto.AppliedScheduleFilters, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule filters")
	}
	if query.HoraDesde != "" && query.HoraHasta != "" && query.HoraDesde >= query.HoraHasta {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "horaDesde debe ser anterior a horaHasta")
	}

	blocks, err := s.repo.WeeklyBlocks(ctx, colegioID, query)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly schedule")
	}

	return groupByDay(blocks), appliedFilters(query), nil
}

func (s *ScheduleService) Courses(ctx context.Context, colegioID string) ([]models.CourseOption, error) {
	courses, err := s.repo.ListCourses(ctx, colegioID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// groupByDay buckets blocks into the five Monday-through-Friday groups,
// keeping the repository's (dia, hora) ordering within each day. Days without
// blocks still appear, with an empty list.
func groupByDay(blocks []models.WeeklyBlock) []models.WeeklyDay {
	buckets := make(map[int][]models.WeeklyBlock)
	for _, block := range blocks {
		buckets[block.DiaSemana] = append(buckets[block.DiaSemana], block)
	}

	days := make([]models.WeeklyDay, 0, 5)
	for dia := 1; dia <= 5; dia++ {
		bloques := buckets[dia]
		if bloques == nil {
			bloques = []models.WeeklyBlock{}
		}
		days = append(days, models.WeeklyDay{
			DiaSemana: dia,
			Nombre:    models.DayName(dia),
			Bloques:   bloques,
		})
	}
	return days
}

func appliedFilters(query dto.WeeklyScheduleQuery) *dto.AppliedScheduleFilters {
	filters := &dto.AppliedScheduleFilters{}
	if query.SalaID != "" {
		filters.SalaID = &query.SalaID
	}
	if query.CursoID != "" {
		filters.CursoID = &query.CursoID
	}
	if query.MateriaID != "" {
		filters.MateriaID = &query.MateriaID
	}
	if query.ProfesorVinculoID != "" {
		filters.ProfesorVinculoID = &query.ProfesorVinculoID
	}
	if query.DiaSemana != 0 {
		filters.DiaSemana = &query.DiaSemana
	}
	if query.HoraDesde != "" {
		filters.HoraDesde = &query.HoraDesde
	}
	if query.HoraHasta != "" {
		filters.HoraHasta = &query.HoraHasta
	}
	return filters
}
