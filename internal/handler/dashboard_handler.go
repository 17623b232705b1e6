package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andes-edu/colegio-admin-api/internal/service"
	"github.com/andes-edu/colegio-admin-api/pkg/response"
)

// DashboardHandler exposes the admin landing-page endpoints.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

func (h *DashboardHandler) Counts(c *gin.Context) {
	colegioID, err := currentColegioID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	counts, err := h.dashboard.Counts(c.Request.Context(), colegioID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"counts": counts})
}

func (h *DashboardHandler) Analytics(c *gin.Context) {
	colegioID, err := currentColegioID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	analytics, err := h.dashboard.Analytics(c.Request.Context(), colegioID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"analytics": analytics})
}

func (h *DashboardHandler) Observations(c *gin.Context) {
	colegioID, err := currentColegioID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	summary, err := h.dashboard.ObservationsSummary(c.Request.Context(), colegioID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"summary": summary})
}
