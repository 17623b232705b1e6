package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andes-edu/colegio-admin-api/internal/middleware"
	"github.com/andes-edu/colegio-admin-api/internal/models"
	"github.com/andes-edu/colegio-admin-api/internal/service"
)

type pairingStub struct{}

func (pairingStub) ListPairings(context.Context, string) ([]models.CourseSubjectPairing, error) {
	return []models.CourseSubjectPairing{{CursoMateriaID: "cm-1", ProfesorVinculoID: "prof-1"}}, nil
}

func (pairingStub) ListRooms(context.Context, string) ([]models.Room, error) {
	return []models.Room{{ID: "room-1"}}, nil
}

type proposalStoreStub struct {
	proposal *models.Proposal
	rows     []models.ProposalSummary
}

func (s *proposalStoreStub) Create(_ context.Context, _ sqlx.ExtContext, p *models.Proposal) error {
	p.ID = "prop-new"
	return nil
}

func (s *proposalStoreStub) FindByColegio(_ context.Context, colegioID, proposalID string) (*models.Proposal, error) {
	if s.proposal == nil || s.proposal.ID != proposalID || s.proposal.ColegioID != colegioID {
		return nil, sql.ErrNoRows
	}
	return s.proposal, nil
}

func (s *proposalStoreStub) Update(context.Context, *models.Proposal) error { return nil }

func (s *proposalStoreStub) CountByColegio(context.Context, string) (int, error) {
	return len(s.rows), nil
}

func (s *proposalStoreStub) ListByColegio(context.Context, string, int, int) ([]models.ProposalSummary, error) {
	return s.rows, nil
}

type blockStoreStub struct{}

func (blockStoreStub) BulkInsert(context.Context, sqlx.ExtContext, []models.ProposalBlock) error {
	return nil
}

func (blockStoreStub) DeleteByProposal(context.Context, sqlx.ExtContext, string) error { return nil }

func (blockStoreStub) ListDetail(context.Context, string) ([]models.ProposalBlockDetail, error) {
	return nil, nil
}

func newProposalHandlerFixture(store *proposalStoreStub) *ProposalHandler {
	svc := service.NewProposalService(pairingStub{}, store, blockStoreStub{}, nil, zap.NewNop(), nil, nil)
	return NewProposalHandler(svc)
}

func testContext(t *testing.T, method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func authenticate(c *gin.Context, colegioID string) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{ColegioID: colegioID})
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestProposalHandlerRequiresAuth(t *testing.T) {
	handler := newProposalHandlerFixture(&proposalStoreStub{})
	c, w := testContext(t, http.MethodGet, "/assignments/proposals", "")

	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["ok"])
}

func TestProposalHandlerRequiresColegio(t *testing.T) {
	handler := newProposalHandlerFixture(&proposalStoreStub{})
	c, w := testContext(t, http.MethodGet, "/assignments/proposals", "")
	authenticate(c, "")

	handler.List(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProposalHandlerListEnvelope(t *testing.T) {
	store := &proposalStoreStub{rows: []models.ProposalSummary{{ID: "prop-1", Nombre: "Semestre 1"}}}
	handler := newProposalHandlerFixture(store)
	c, w := testContext(t, http.MethodGet, "/assignments/proposals?page=1&limit=10", "")
	authenticate(c, "colegio-1")

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["ok"])
	require.Contains(t, body, "propuestas")
	require.Contains(t, body, "pagination")
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["total"])
}

func TestProposalHandlerDetailNotFound(t *testing.T) {
	handler := newProposalHandlerFixture(&proposalStoreStub{})
	c, w := testContext(t, http.MethodGet, "/assignments/proposals/missing", "")
	authenticate(c, "colegio-1")
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Detail(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["ok"])
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "NOT_FOUND", errBody["code"])
}

func TestProposalHandlerCreateRejectsMalformedBody(t *testing.T) {
	handler := newProposalHandlerFixture(&proposalStoreStub{})
	c, w := testContext(t, http.MethodPost, "/assignments/proposals", `{"nombre":`)
	authenticate(c, "colegio-1")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProposalHandlerUpdateStatusInvalid(t *testing.T) {
	store := &proposalStoreStub{proposal: &models.Proposal{ID: "prop-1", ColegioID: "colegio-1", Estado: models.ProposalStatusDraft}}
	handler := newProposalHandlerFixture(store)
	c, w := testContext(t, http.MethodPatch, "/assignments/proposals/prop-1/status", `{"estado":"archived"}`)
	authenticate(c, "colegio-1")
	c.Params = gin.Params{{Key: "id", Value: "prop-1"}}

	handler.UpdateStatus(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errBody["code"])
}

func TestProposalHandlerUpdateStatusApproves(t *testing.T) {
	store := &proposalStoreStub{proposal: &models.Proposal{ID: "prop-1", ColegioID: "colegio-1", Estado: models.ProposalStatusDraft}}
	handler := newProposalHandlerFixture(store)
	c, w := testContext(t, http.MethodPatch, "/assignments/proposals/prop-1/status", `{"estado":"approved"}`)
	authenticate(c, "colegio-1")
	c.Params = gin.Params{{Key: "id", Value: "prop-1"}}

	handler.UpdateStatus(c)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	propuesta := body["propuesta"].(map[string]interface{})
	assert.Equal(t, "approved", propuesta["estado"])
}
