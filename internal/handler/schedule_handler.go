package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/andes-edu/colegio-admin-api/internal/dto"
	"github.com/andes-edu/colegio-admin-api/internal/service"
	appErrors "github.com/andes-edu/colegio-admin-api/pkg/errors"
	"github.com/andes-edu/colegio-admin-api/pkg/response"
)

// ScheduleHandler exposes the committed-schedule read endpoints and the course
// filter list.
type ScheduleHandler struct {
	schedules *service.ScheduleService
}

func NewScheduleHandler(schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

func (h *ScheduleHandler) Counts(c *gin.Context) {
	colegioID, err := currentColegioID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	counts, err := h.schedules.Counts(c.Request.Context(), colegioID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"counts": counts})
}

func (h *ScheduleHandler) List(c *gin.Context) {
	colegioID, err := currentColegioID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var query dto.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	year := 0
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be numeric"))
			return
		}
		year = parsed
	}

	rows, pagination, err := h.schedules.ScheduleList(c.Request.Context(), colegioID, year, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"horarios": rows, "pagination": pagination})
}

func (h *ScheduleHandler) Weekly(c *gin.Context) {
	colegioID, err := currentColegioID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var query dto.WeeklyScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	days, filters, err := h.schedules.WeeklySchedule(c.Request.Context(), colegioID, query)
	if err != nil {
		response.Error(c, err)
		return
	}

	total := 0
	for _, day := range days {
		total += len(day.Bloques)
	}
	response.OK(c, http.StatusOK, gin.H{
		"dias":           days,
		"totalBloques":   total,
		"appliedFilters": filters,
	})
}

func (h *ScheduleHandler) Courses(c *gin.Context) {
	colegioID, err := currentColegioID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	courses, err := h.schedules.Courses(c.Request.Context(), colegioID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"cursos": courses})
}
