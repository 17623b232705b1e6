package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andes-edu/colegio-admin-api/internal/service"
	"github.com/andes-edu/colegio-admin-api/pkg/response"
)

// AnalyticsHandler exposes the academic analytics endpoints.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func (h *AnalyticsHandler) Approval(c *gin.Context) {
	colegioID, err := currentColegioID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.analytics.Approval(c.Request.Context(), colegioID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{
		"approvalRate":     result.ApprovalRate,
		"institutionalAvg": result.InstitutionalAvg,
	})
}

func (h *AnalyticsHandler) Summary(c *gin.Context) {
	colegioID, err := currentColegioID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	summary, err := h.analytics.Summary(c.Request.Context(), colegioID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"summary": summary})
}

func (h *AnalyticsHandler) Subjects(c *gin.Context) {
	colegioID, err := currentColegioID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	subjects, err := h.analytics.SubjectAverages(c.Request.Context(), colegioID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"materias": subjects})
}

func (h *AnalyticsHandler) Attendance(c *gin.Context) {
	colegioID, err := currentColegioID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.analytics.AttendanceSinceMarch(c.Request.Context(), colegioID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{
		"period":  result.Period,
		"stats":   result.Stats,
		"monthly": result.Monthly,
	})
}

func (h *AnalyticsHandler) Observations(c *gin.Context) {
	colegioID, err := currentColegioID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	summary, err := h.analytics.ObservationsSummary(c.Request.Context(), colegioID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"observaciones": summary})
}

func (h *AnalyticsHandler) Professors(c *gin.Context) {
	colegioID, err := currentColegioID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	professors, err := h.analytics.ProfessorPerformance(c.Request.Context(), colegioID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"profesores": professors})
}
