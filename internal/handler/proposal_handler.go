package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andes-edu/colegio-admin-api/internal/dto"
	"github.com/andes-edu/colegio-admin-api/internal/service"
	appErrors "github.com/andes-edu/colegio-admin-api/pkg/errors"
	"github.com/andes-edu/colegio-admin-api/pkg/response"
)

// ProposalHandler exposes the schedule proposal endpoints.
type ProposalHandler struct {
	proposals *service.ProposalService
}

func NewProposalHandler(proposals *service.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposals: proposals}
}

func (h *ProposalHandler) Create(c *gin.Context) {
	colegioID, err := currentColegioID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	claims, _ := currentClaims(c)
	var createdBy *string
	if claims != nil && claims.Subject != "" {
		createdBy = &claims.Subject
	}

	proposal, err := h.proposals.Create(c.Request.Context(), colegioID, createdBy, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"propuesta": proposal})
}

func (h *ProposalHandler) Reroll(c *gin.Context) {
	colegioID, err := currentColegioID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	proposal, blocks, err := h.proposals.Reroll(c.Request.Context(), colegioID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"propuesta": proposal, "bloquesGenerados": blocks})
}

func (h *ProposalHandler) List(c *gin.Context) {
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

	rows, pagination, err := h.proposals.List(c.Request.Context(), colegioID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"propuestas": rows, "pagination": pagination})
}

func (h *ProposalHandler) Detail(c *gin.Context) {
	colegioID, err := currentColegioID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	proposal, blocks, err := h.proposals.Detail(c.Request.Context(), colegioID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"propuesta": proposal, "bloques": blocks})
}

func (h *ProposalHandler) Update(c *gin.Context) {
	colegioID, err := currentColegioID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.UpdateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	proposal, err := h.proposals.UpdateMetadata(c.Request.Context(), colegioID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"propuesta": proposal})
}

func (h *ProposalHandler) UpdateStatus(c *gin.Context) {
	colegioID, err := currentColegioID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.UpdateProposalStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	proposal, err := h.proposals.UpdateStatus(c.Request.Context(), colegioID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"propuesta": proposal})
}
