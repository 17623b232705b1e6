package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/andes-edu/colegio-admin-api/internal/handler"
	"github.com/andes-edu/colegio-admin-api/internal/middleware"
	"github.com/andes-edu/colegio-admin-api/internal/repository"
	"github.com/andes-edu/colegio-admin-api/internal/service"
	"github.com/andes-edu/colegio-admin-api/pkg/cache"
	"github.com/andes-edu/colegio-admin-api/pkg/config"
	"github.com/andes-edu/colegio-admin-api/pkg/database"
	"github.com/andes-edu/colegio-admin-api/pkg/logger"
	corsmiddleware "github.com/andes-edu/colegio-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/andes-edu/colegio-admin-api/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Analytics.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, analytics cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr, true)
		}
	}

	assignmentRepo := repository.NewAssignmentRepository(db)
	proposalRepo := repository.NewProposalRepository(db)
	blockRepo := repository.NewProposalBlockRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	proposalSvc := service.NewProposalService(assignmentRepo, proposalRepo, blockRepo, db, logr, metricsSvc, nil)
	scheduleSvc := service.NewScheduleService(assignmentRepo)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, cacheSvc, cfg.Analytics.CacheTTL)
	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheSvc, cfg.Analytics.CacheTTL)

	proposalHandler := handler.NewProposalHandler(proposalSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	admin := r.Group(cfg.APIPrefix)
	admin.Use(middleware.JWT(cfg.JWT.Secret))
	{
		assignments := admin.Group("/assignments")
		assignments.GET("/counts", scheduleHandler.Counts)
		assignments.GET("/list", scheduleHandler.List)
		assignments.GET("/schedule", scheduleHandler.Weekly)
		assignments.GET("/proposals", proposalHandler.List)
		assignments.POST("/proposals", proposalHandler.Create)
		assignments.GET("/proposals/:id", proposalHandler.Detail)
		assignments.POST("/proposals/:id/reroll", proposalHandler.Reroll)
		assignments.PATCH("/proposals/:id", proposalHandler.Update)
		assignments.PATCH("/proposals/:id/status", proposalHandler.UpdateStatus)

		analytics := admin.Group("/analytics")
		analytics.GET("/approval", analyticsHandler.Approval)
		analytics.GET("/summary", analyticsHandler.Summary)
		analytics.GET("/subjects", analyticsHandler.Subjects)
		analytics.GET("/attendance", analyticsHandler.Attendance)
		analytics.GET("/observations", analyticsHandler.Observations)
		analytics.GET("/professors", analyticsHandler.Professors)

		dashboard := admin.Group("/main")
		dashboard.GET("/counts", dashboardHandler.Counts)
		dashboard.GET("/analytics", dashboardHandler.Analytics)
		dashboard.GET("/observations-summary", dashboardHandler.Observations)

		admin.GET("/filters/courses", scheduleHandler.Courses)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
