package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andes-edu/colegio-admin-api/internal/models"
	appErrors "github.com/andes-edu/colegio-admin-api/pkg/errors"
)

type analyticsRepository interface {
	Approval(ctx context.Context, colegioID string) (*models.ApprovalAnalytics, error)
	Summary(ctx context.Context, colegioID string) (*models.AnalyticsSummary, error)
	SubjectAverages(ctx context.Context, colegioID string) ([]models.SubjectAverage, error)
	AttendanceSinceMarch(ctx context.Context, colegioID string) (*models.AttendanceAnalytics, error)
	ObservationsSummary(ctx context.Context, colegioID string) (*models.ObservationsSummary, error)
	ProfessorPerformance(ctx context.Context, colegioID string) ([]models.ProfessorPerformance, error)
}

// AnalyticsService computes academic aggregates per colegio, caching results
// since the underlying queries scan full grade and attendance tables.
type AnalyticsService struct {
	repo     analyticsRepository
	cache    *CacheService
	cacheTTL time.Duration
}

func NewAnalyticsService(repo analyticsRepository, cache *CacheService, cacheTTL time.Duration) *AnalyticsService {
	return &AnalyticsService{repo: repo, cache: cache, cacheTTL: cacheTTL}
}

// Approval returns the previous school year's approval rate and the
// institutional grade average.
func (s *AnalyticsService) Approval(ctx context.Context, colegioID string) (*models.ApprovalAnalytics, error) {
	key := analyticsKey(colegioID, "approval")
	var cached models.ApprovalAnalytics
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	result, err := s.repo.Approval(ctx, colegioID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute approval analytics")
	}
	s.cache.Set(ctx, key, result, s.cacheTTL)
	return result, nil
}

// Summary returns the current school year's headline metrics.
func (s *AnalyticsService) Summary(ctx context.Context, colegioID string) (*models.AnalyticsSummary, error) {
	key := analyticsKey(colegioID, "summary")
	var cached models.AnalyticsSummary
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	result, err := s.repo.Summary(ctx, colegioID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute analytics summary")
	}
	s.cache.Set(ctx, key, result, s.cacheTTL)
	return result, nil
}

// SubjectAverages returns the per-materia averages for the current year.
func (s *AnalyticsService) SubjectAverages(ctx context.Context, colegioID string) ([]models.SubjectAverage, error) {
	key := analyticsKey(colegioID, "subjects")
	var cached []models.SubjectAverage
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	result, err := s.repo.SubjectAverages(ctx, colegioID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute subject averages")
	}
	s.cache.Set(ctx, key, result, s.cacheTTL)
	return result, nil
}

// AttendanceSinceMarch reports attendance from the start of the academic year
// (March) through the current month, with a monthly breakdown.
func (s *AnalyticsService) AttendanceSinceMarch(ctx context.Context, colegioID string) (*models.AttendanceAnalytics, error) {
	key := analyticsKey(colegioID, "attendance")
	var cached models.AttendanceAnalytics
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	result, err := s.repo.AttendanceSinceMarch(ctx, colegioID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute attendance analytics")
	}
	s.cache.Set(ctx, key, result, s.cacheTTL)
	return result, nil
}

// ObservationsSummary breaks the colegio's conduct observations down by tipo.
func (s *AnalyticsService) ObservationsSummary(ctx context.Context, colegioID string) (*models.ObservationsSummary, error) {
	key := analyticsKey(colegioID, "observations")
	var cached models.ObservationsSummary
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	result, err := s.repo.ObservationsSummary(ctx, colegioID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute observations summary")
	}
	s.cache.Set(ctx, key, result, s.cacheTTL)
	return result, nil
}

// ProfessorPerformance lists each professor with their current-year subject
// averages and trend band.
func (s *AnalyticsService) ProfessorPerformance(ctx context.Context, colegioID string) ([]models.ProfessorPerformance, error) {
	key := analyticsKey(colegioID, "professors")
	var cached []models.ProfessorPerformance
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	result, err := s.repo.ProfessorPerformance(ctx, colegioID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute professor performance")
	}
	s.cache.Set(ctx, key, result, s.cacheTTL)
	return result, nil
}

func analyticsKey(colegioID, section string) string {
	return fmt.Sprintf("analytics:%s:%s", colegioID, section)
}
