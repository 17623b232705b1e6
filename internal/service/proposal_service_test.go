package service

import (
	"context"
	"database/sql"
	"math/rand"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andes-edu/colegio-admin-api/internal/dto"
	"github.com/andes-edu/colegio-admin-api/internal/models"
	appErrors "github.com/andes-edu/colegio-admin-api/pkg/errors"
)

const testColegioID = "colegio-1"

type assignmentStub struct {
	pairings []models.CourseSubjectPairing
	rooms    []models.Room
	err      error
}

func (s assignmentStub) ListPairings(context.Context, string) ([]models.CourseSubjectPairing, error) {
	return s.pairings, s.err
}

func (s assignmentStub) ListRooms(context.Context, string) ([]models.Room, error) {
	return s.rooms, s.err
}

type proposalRepoStub struct {
	proposal  *models.Proposal
	findErr   error
	updateErr error
	created   *models.Proposal
	updated   *models.Proposal
	total     int
	rows      []models.ProposalSummary
	lastLimit int
	lastOff   int
}

func (s *proposalRepoStub) Create(_ context.Context, _ sqlx.ExtContext, proposal *models.Proposal) error {
	if proposal.ID == "" {
		proposal.ID = "prop-new"
	}
	s.created = proposal
	return nil
}

func (s *proposalRepoStub) FindByColegio(_ context.Context, colegioID, proposalID string) (*models.Proposal, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.proposal == nil || s.proposal.ColegioID != colegioID || s.proposal.ID != proposalID {
		return nil, sql.ErrNoRows
	}
	copied := *s.proposal
	return &copied, nil
}

func (s *proposalRepoStub) Update(_ context.Context, proposal *models.Proposal) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = proposal
	return nil
}

func (s *proposalRepoStub) CountByColegio(context.Context, string) (int, error) {
	return s.total, nil
}

func (s *proposalRepoStub) ListByColegio(_ context.Context, _ string, limit, offset int) ([]models.ProposalSummary, error) {
	s.lastLimit = limit
	s.lastOff = offset
	return s.rows, nil
}

type blockRepoStub struct {
	inserted [][]models.ProposalBlock
	deleted  []string
	detail   []models.ProposalBlockDetail
}

func (s *blockRepoStub) BulkInsert(_ context.Context, _ sqlx.ExtContext, blocks []models.ProposalBlock) error {
	s.inserted = append(s.inserted, blocks)
	return nil
}

func (s *blockRepoStub) DeleteByProposal(_ context.Context, _ sqlx.ExtContext, proposalID string) error {
	s.deleted = append(s.deleted, proposalID)
	return nil
}

func (s *blockRepoStub) ListDetail(context.Context, string) ([]models.ProposalBlockDetail, error) {
	return s.detail, nil
}

type txProviderMock struct {
	db *sqlx.DB
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb}, mock
}

type proposalFixtureConfig struct {
	assignments *assignmentStub
	proposals   *proposalRepoStub
	blocks      *blockRepoStub
	tx          txProvider
}

func newProposalServiceFixture(t *testing.T, cfg proposalFixtureConfig) (*ProposalService, *proposalRepoStub, *blockRepoStub) {
	assignments := cfg.assignments
	if assignments == nil {
		assignments = &assignmentStub{
			pairings: []models.CourseSubjectPairing{
				{CursoMateriaID: "cm-1", ProfesorVinculoID: "prof-1"},
				{CursoMateriaID: "cm-2", ProfesorVinculoID: "prof-2"},
			},
			rooms: []models.Room{{ID: "room-1"}},
		}
	}
	proposals := cfg.proposals
	if proposals == nil {
		proposals = &proposalRepoStub{}
	}
	blocks := cfg.blocks
	if blocks == nil {
		blocks = &blockRepoStub{}
	}
	tx := cfg.tx
	if tx == nil {
		tx, _ = newTxProviderMock(t)
	}
	newRand := func() *rand.Rand { return rand.New(rand.NewSource(42)) }
	svc := NewProposalService(*assignments, proposals, blocks, tx, zap.NewNop(), nil, newRand)
	return svc, proposals, blocks
}

func draftProposal() *models.Proposal {
	return &models.Proposal{
		ID:        "prop-1",
		ColegioID: testColegioID,
		Nombre:    "Semestre 1",
		Estado:    models.ProposalStatusDraft,
	}
}

func TestProposalServiceCreateSuccess(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	svc, proposals, blocks := newProposalServiceFixture(t, proposalFixtureConfig{tx: tx})

	mock.ExpectBegin()
	mock.ExpectCommit()

	proposal, err := svc.Create(context.Background(), testColegioID, nil, dto.CreateProposalRequest{
		Nombre:        "  Propuesta Semestre 1  ",
		PeriodoInicio: "2026-03-01",
		PeriodoFin:    "2026-07-15",
	})
	require.NoError(t, err)
	assert.Equal(t, "Propuesta Semestre 1", proposal.Nombre)
	assert.Equal(t, models.ProposalStatusDraft, proposal.Estado)
	assert.Equal(t, testColegioID, proposal.ColegioID)
	require.NotNil(t, proposals.created)

	require.Len(t, blocks.inserted, 1)
	require.Len(t, blocks.inserted[0], 2)
	for _, block := range blocks.inserted[0] {
		assert.Equal(t, proposal.ID, block.PropuestaID)
		require.NotNil(t, block.Observaciones)
		assert.Equal(t, "Generado automáticamente", *block.Observaciones)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalServiceCreateRejectsShortName(t *testing.T) {
	svc, _, _ := newProposalServiceFixture(t, proposalFixtureConfig{})

	_, err := svc.Create(context.Background(), testColegioID, nil, dto.CreateProposalRequest{
		Nombre:        "ab",
		PeriodoInicio: "2026-03-01",
		PeriodoFin:    "2026-07-15",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProposalServiceCreateRejectsBadDates(t *testing.T) {
	svc, _, _ := newProposalServiceFixture(t, proposalFixtureConfig{})

	_, err := svc.Create(context.Background(), testColegioID, nil, dto.CreateProposalRequest{
		Nombre:        "Propuesta",
		PeriodoInicio: "not-a-date",
		PeriodoFin:    "2026-07-15",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProposalServiceCreateRejectsInvertedPeriod(t *testing.T) {
	svc, _, _ := newProposalServiceFixture(t, proposalFixtureConfig{})

	_, err := svc.Create(context.Background(), testColegioID, nil, dto.CreateProposalRequest{
		Nombre:        "Propuesta",
		PeriodoInicio: "2026-07-15",
		PeriodoFin:    "2026-03-01",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProposalServiceCreateRequiresRooms(t *testing.T) {
	svc, proposals, blocks := newProposalServiceFixture(t, proposalFixtureConfig{
		assignments: &assignmentStub{rooms: nil},
	})

	_, err := svc.Create(context.Background(), testColegioID, nil, dto.CreateProposalRequest{
		Nombre:        "Propuesta",
		PeriodoInicio: "2026-03-01",
		PeriodoFin:    "2026-07-15",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Contains(t, appErrors.FromError(err).Message, "salas")
	assert.Nil(t, proposals.created)
	assert.Empty(t, blocks.inserted)
}

func TestProposalServiceCreateEmptyPairings(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	svc, _, blocks := newProposalServiceFixture(t, proposalFixtureConfig{
		tx: tx,
		assignments: &assignmentStub{
			rooms: []models.Room{{ID: "room-1"}},
		},
	})

	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.Create(context.Background(), testColegioID, nil, dto.CreateProposalRequest{
		Nombre:        "Propuesta",
		PeriodoInicio: "2026-03-01",
		PeriodoFin:    "2026-07-15",
	})
	require.NoError(t, err)
	require.Len(t, blocks.inserted, 1)
	assert.Empty(t, blocks.inserted[0])
}

func TestProposalServiceRerollReplacesBlocks(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	proposals := &proposalRepoStub{proposal: draftProposal()}
	svc, _, blocks := newProposalServiceFixture(t, proposalFixtureConfig{tx: tx, proposals: proposals})

	mock.ExpectBegin()
	mock.ExpectCommit()

	proposal, count, err := svc.Reroll(context.Background(), testColegioID, "prop-1")
	require.NoError(t, err)
	assert.Equal(t, "prop-1", proposal.ID)
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"prop-1"}, blocks.deleted)
	require.Len(t, blocks.inserted, 1)
	assert.Len(t, blocks.inserted[0], 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalServiceRerollRejectsApproved(t *testing.T) {
	approved := draftProposal()
	approved.Estado = models.ProposalStatusApproved
	svc, _, blocks := newProposalServiceFixture(t, proposalFixtureConfig{
		proposals: &proposalRepoStub{proposal: approved},
	})

	_, _, err := svc.Reroll(context.Background(), testColegioID, "prop-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrProposalApproved.Code, appErrors.FromError(err).Code)
	assert.Empty(t, blocks.deleted)
	assert.Empty(t, blocks.inserted)
}

func TestProposalServiceRerollNotFound(t *testing.T) {
	svc, _, _ := newProposalServiceFixture(t, proposalFixtureConfig{
		proposals: &proposalRepoStub{},
	})

	_, _, err := svc.Reroll(context.Background(), testColegioID, "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProposalServiceRerollScopesByColegio(t *testing.T) {
	other := draftProposal()
	other.ColegioID = "colegio-2"
	svc, _, _ := newProposalServiceFixture(t, proposalFixtureConfig{
		proposals: &proposalRepoStub{proposal: other},
	})

	_, _, err := svc.Reroll(context.Background(), testColegioID, "prop-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProposalServiceUpdateMetadata(t *testing.T) {
	proposals := &proposalRepoStub{proposal: draftProposal()}
	svc, _, _ := newProposalServiceFixture(t, proposalFixtureConfig{proposals: proposals})

	nombre := "  Nuevo Nombre  "
	descripcion := "   "
	inicio := "2026-03-01"
	fin := "2026-12-15"
	proposal, err := svc.UpdateMetadata(context.Background(), testColegioID, "prop-1", dto.UpdateProposalRequest{
		Nombre:        &nombre,
		Descripcion:   &descripcion,
		PeriodoInicio: &inicio,
		PeriodoFin:    &fin,
	})
	require.NoError(t, err)
	assert.Equal(t, "Nuevo Nombre", proposal.Nombre)
	assert.Nil(t, proposal.Descripcion, "blank description becomes null")
	require.NotNil(t, proposals.updated)
}

func TestProposalServiceUpdateMetadataRejectsApproved(t *testing.T) {
	approved := draftProposal()
	approved.Estado = models.ProposalStatusApproved
	svc, _, _ := newProposalServiceFixture(t, proposalFixtureConfig{
		proposals: &proposalRepoStub{proposal: approved},
	})

	nombre := "Nuevo"
	_, err := svc.UpdateMetadata(context.Background(), testColegioID, "prop-1", dto.UpdateProposalRequest{Nombre: &nombre})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrProposalApproved.Code, appErrors.FromError(err).Code)
}

func TestProposalServiceUpdateMetadataRejectsInvertedPeriod(t *testing.T) {
	existing := draftProposal()
	existing.PeriodoInicio = mustDate(t, "2026-03-01")
	existing.PeriodoFin = mustDate(t, "2026-07-15")
	svc, _, _ := newProposalServiceFixture(t, proposalFixtureConfig{
		proposals: &proposalRepoStub{proposal: existing},
	})

	fin := "2026-01-01"
	_, err := svc.UpdateMetadata(context.Background(), testColegioID, "prop-1", dto.UpdateProposalRequest{PeriodoFin: &fin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProposalServiceUpdateStatus(t *testing.T) {
	proposals := &proposalRepoStub{proposal: draftProposal()}
	svc, _, _ := newProposalServiceFixture(t, proposalFixtureConfig{proposals: proposals})

	proposal, err := svc.UpdateStatus(context.Background(), testColegioID, "prop-1", dto.UpdateProposalStatusRequest{Estado: "  APPROVED "})
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusApproved, proposal.Estado)
}

func TestProposalServiceUpdateStatusAllowsUnapprove(t *testing.T) {
	approved := draftProposal()
	approved.Estado = models.ProposalStatusApproved
	svc, _, _ := newProposalServiceFixture(t, proposalFixtureConfig{
		proposals: &proposalRepoStub{proposal: approved},
	})

	proposal, err := svc.UpdateStatus(context.Background(), testColegioID, "prop-1", dto.UpdateProposalStatusRequest{Estado: "draft"})
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusDraft, proposal.Estado)
}

func TestProposalServiceUpdateStatusRejectsUnknown(t *testing.T) {
	svc, _, _ := newProposalServiceFixture(t, proposalFixtureConfig{
		proposals: &proposalRepoStub{proposal: draftProposal()},
	})

	_, err := svc.UpdateStatus(context.Background(), testColegioID, "prop-1", dto.UpdateProposalStatusRequest{Estado: "archived"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProposalServiceUpdateStatusMissingProposalIsNotFound(t *testing.T) {
	svc, _, _ := newProposalServiceFixture(t, proposalFixtureConfig{
		proposals: &proposalRepoStub{proposal: draftProposal()},
	})

	// The lookup runs before status validation, so an unknown proposal wins
	// even when the requested estado is also bad.
	_, err := svc.UpdateStatus(context.Background(), testColegioID, "prop-missing", dto.UpdateProposalStatusRequest{Estado: "archived"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProposalServiceListClampsPagination(t *testing.T) {
	proposals := &proposalRepoStub{total: 450}
	svc, _, _ := newProposalServiceFixture(t, proposalFixtureConfig{proposals: proposals})

	_, pagination, err := svc.List(context.Background(), testColegioID, dto.ListQuery{Page: 0, Limit: 999})
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 200, pagination.Limit)
	assert.Equal(t, 450, pagination.Total)
	assert.Equal(t, 3, pagination.TotalPages)
	assert.Equal(t, 200, proposals.lastLimit)
	assert.Equal(t, 0, proposals.lastOff)
}

func TestProposalServiceListDefaults(t *testing.T) {
	proposals := &proposalRepoStub{total: 5}
	svc, _, _ := newProposalServiceFixture(t, proposalFixtureConfig{proposals: proposals})

	_, pagination, err := svc.List(context.Background(), testColegioID, dto.ListQuery{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 20, pagination.Limit)
	assert.Equal(t, 20, proposals.lastOff)
}

func TestProposalServiceDetailNotFound(t *testing.T) {
	svc, _, _ := newProposalServiceFixture(t, proposalFixtureConfig{
		proposals: &proposalRepoStub{},
	})

	_, _, err := svc.Detail(context.Background(), testColegioID, "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProposalServiceDetailReturnsBlocks(t *testing.T) {
	blocks := &blockRepoStub{detail: []models.ProposalBlockDetail{
		{DiaSemana: 1, HoraInicio: "07:30:00"},
		{DiaSemana: 1, HoraInicio: "08:30:00"},
	}}
	svc, _, _ := newProposalServiceFixture(t, proposalFixtureConfig{
		proposals: &proposalRepoStub{proposal: draftProposal()},
		blocks:    blocks,
	})

	proposal, detail, err := svc.Detail(context.Background(), testColegioID, "prop-1")
	require.NoError(t, err)
	assert.Equal(t, "prop-1", proposal.ID)
	assert.Len(t, detail, 2)
}

func mustDate(t *testing.T, raw string) time.Time {
	value, err := parseDate(raw)
	require.NoError(t, err)
	return value
}
