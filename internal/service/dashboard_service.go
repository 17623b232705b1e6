package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andes-edu/colegio-admin-api/internal/models"
	appErrors "github.com/andes-edu/colegio-admin-api/pkg/errors"
)

type dashboardRepository interface {
	Counts(ctx context.Context, colegioID string) (*models.DashboardCounts, error)
	Analytics(ctx context.Context, colegioID string) (*models.DashboardAnalytics, error)
	ObservationsSummary(ctx context.Context, colegioID string) (*models.ObservationsSummary, error)
}

// DashboardService serves the admin landing page: headline counts, chart data
// and the current-year observations summary, all cached per colegio.
type DashboardService struct {
	repo     dashboardRepository
	cache    *CacheService
	cacheTTL time.Duration
}

func NewDashboardService(repo dashboardRepository, cache *CacheService, cacheTTL time.Duration) *DashboardService {
	return &DashboardService{repo: repo, cache: cache, cacheTTL: cacheTTL}
}

// Counts returns the current-year headline numbers.
func (s *DashboardService) Counts(ctx context.Context, colegioID string) (*models.DashboardCounts, error) {
	key := dashboardKey(colegioID, "counts")
	var cached models.DashboardCounts
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	result, err := s.repo.Counts(ctx, colegioID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute dashboard counts")
	}
	s.cache.Set(ctx, key, result, s.cacheTTL)
	return result, nil
}

// Analytics returns the landing-page chart data.
func (s *DashboardService) Analytics(ctx context.Context, colegioID string) (*models.DashboardAnalytics, error) {
	key := dashboardKey(colegioID, "analytics")
	var cached models.DashboardAnalytics
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	result, err := s.repo.Analytics(ctx, colegioID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute dashboard analytics")
	}
	s.cache.Set(ctx, key, result, s.cacheTTL)
	return result, nil
}

// ObservationsSummary returns the current-year observations breakdown.
func (s *DashboardService) ObservationsSummary(ctx context.Context, colegioID string) (*models.ObservationsSummary, error) {
	key := dashboardKey(colegioID, "observations")
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

func dashboardKey(colegioID, section string) string {
	return fmt.Sprintf("dashboard:%s:%s", colegioID, section)
}
