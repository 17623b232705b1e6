package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/andes-edu/colegio-admin-api/internal/dto"
	"github.com/andes-edu/colegio-admin-api/internal/models"
	appErrors "github.com/andes-edu/colegio-admin-api/pkg/errors"
)

const (
	defaultProposalLimit = 20
	maxProposalLimit     = 200
)

type pairingFetcher interface {
	ListPairings(ctx context.Context, colegioID string) ([]models.CourseSubjectPairing, error)
	ListRooms(ctx context.Context, colegioID string) ([]models.Room, error)
}

type proposalRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, proposal *models.Proposal) error
	FindByColegio(ctx context.Context, colegioID, proposalID string) (*models.Proposal, error)
	Update(ctx context.Context, proposal *models.Proposal) error
	CountByColegio(ctx context.Context, colegioID string) (int, error)
	ListByColegio(ctx context.Context, colegioID string, limit, offset int) ([]models.ProposalSummary, error)
}

type proposalBlockRepository interface {
	BulkInsert(ctx context.Context, exec sqlx.ExtContext, blocks []models.ProposalBlock) error
	DeleteByProposal(ctx context.Context, exec sqlx.ExtContext, proposalID string) error
	ListDetail(ctx context.Context, proposalID string) ([]models.ProposalBlockDetail, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ProposalService generates weekly schedule proposals and manages their
// lifecycle. Every operation is scoped to the caller's colegio.
type ProposalService struct {
	assignments pairingFetcher
	proposals   proposalRepository
	blocks      proposalBlockRepository
	tx          txProvider
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     *MetricsService
	newRand     func() *rand.Rand
}

func NewProposalService(
	assignments pairingFetcher,
	proposals proposalRepository,
	blocks proposalBlockRepository,
	tx txProvider,
	logger *zap.Logger,
	metrics *MetricsService,
	newRand func() *rand.Rand,
) *ProposalService {
	if newRand == nil {
		newRand = func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		}
	}
	return &ProposalService{
		assignments: assignments,
		proposals:   proposals,
		blocks:      blocks,
		tx:          tx,
		validator:   validator.New(),
		logger:      logger,
		metrics:     metrics,
		newRand:     newRand,
	}
}

// Create validates the request, generates a full set of blocks for the colegio
// and persists the proposal together with its blocks in one transaction.
func (s *ProposalService) Create(ctx context.Context, colegioID string, createdBy *string, req dto.CreateProposalRequest) (*models.Proposal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid proposal payload")
	}

	inicio, fin, err := parsePeriod(req.PeriodoInicio, req.PeriodoFin)
	if err != nil {
		return nil, err
	}

	blocks, degraded, err := s.generateBlocks(ctx, colegioID)
	if err != nil {
		return nil, err
	}

	proposal := &models.Proposal{
		ColegioID:     colegioID,
		Nombre:        strings.TrimSpace(req.Nombre),
		PeriodoInicio: inicio,
		PeriodoFin:    fin,
		Estado:        models.ProposalStatusDraft,
		Descripcion:   trimOrNil(req.Descripcion),
		CreatedBy:     createdBy,
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := s.proposals.Create(ctx, tx, proposal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create proposal")
	}
	for i := range blocks {
		blocks[i].PropuestaID = proposal.ID
	}
	if err := s.blocks.BulkInsert(ctx, tx, blocks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert proposal blocks")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit proposal")
	}

	s.logGeneration(colegioID, proposal.ID, len(blocks), degraded)
	return proposal, nil
}

// Reroll regenerates every block of a draft or rejected proposal. The old
// blocks are deleted and the new set inserted atomically.
func (s *ProposalService) Reroll(ctx context.Context, colegioID, proposalID string) (*models.Proposal, int, error) {
	proposal, err := s.findProposal(ctx, colegioID, proposalID)
	if err != nil {
		return nil, 0, err
	}
	if proposal.Estado == models.ProposalStatusApproved {
		return nil, 0, appErrors.Clone(appErrors.ErrProposalApproved, "no se puede regenerar una propuesta ya aprobada")
	}

	blocks, degraded, err := s.generateBlocks(ctx, colegioID)
	if err != nil {
		return nil, 0, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := s.blocks.DeleteByProposal(ctx, tx, proposal.ID); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear proposal blocks")
	}
	for i := range blocks {
		blocks[i].PropuestaID = proposal.ID
	}
	if err := s.blocks.BulkInsert(ctx, tx, blocks); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert proposal blocks")
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit reroll")
	}

	if err := s.proposals.Update(ctx, proposal); err != nil {
		s.logger.Warn("failed to touch proposal after reroll",
			zap.String("proposal_id", proposal.ID),
			zap.Error(err))
	}

	s.logGeneration(colegioID, proposal.ID, len(blocks), degraded)
	return proposal, len(blocks), nil
}

// List returns a page of proposal summaries, newest first.
func (s *ProposalService) List(ctx context.Context, colegioID string, query dto.ListQuery) ([]models.ProposalSummary, *models.Pagination, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = defaultProposalLimit
	}
	if limit > maxProposalLimit {
		limit = maxProposalLimit
	}

	total, err := s.proposals.CountByColegio(ctx, colegioID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count proposals")
	}
	rows, err := s.proposals.ListByColegio(ctx, colegioID, limit, (page-1)*limit)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list proposals")
	}

	pagination := &models.Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
	return rows, pagination, nil
}

// Detail returns one proposal with its blocks ordered by day and start time.
func (s *ProposalService) Detail(ctx context.Context, colegioID, proposalID string) (*models.Proposal, []models.ProposalBlockDetail, error) {
	proposal, err := s.findProposal(ctx, colegioID, proposalID)
	if err != nil {
		return nil, nil, err
	}
	blocks, err := s.blocks.ListDetail(ctx, proposal.ID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proposal blocks")
	}
	return proposal, blocks, nil
}

// UpdateMetadata patches name, period and description. Approved proposals are
// immutable through this operation.
func (s *ProposalService) UpdateMetadata(ctx context.Context, colegioID, proposalID string, req dto.UpdateProposalRequest) (*models.Proposal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid proposal payload")
	}

	proposal, err := s.findProposal(ctx, colegioID, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.Estado == models.ProposalStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrProposalApproved, "no se pueden editar propuestas ya aprobadas")
	}

	if req.Nombre != nil {
		proposal.Nombre = strings.TrimSpace(*req.Nombre)
	}
	if req.PeriodoInicio != nil {
		inicio, err := parseDate(*req.PeriodoInicio)
		if err != nil {
			return nil, err
		}
		proposal.PeriodoInicio = inicio
	}
	if req.PeriodoFin != nil {
		fin, err := parseDate(*req.PeriodoFin)
		if err != nil {
			return nil, err
		}
		proposal.PeriodoFin = fin
	}
	if proposal.PeriodoFin.Before(proposal.PeriodoInicio) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "el periodo de fin no puede ser anterior al inicio")
	}
	if req.Descripcion != nil {
		proposal.Descripcion = trimOrNil(req.Descripcion)
	}

	if err := s.proposals.Update(ctx, proposal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "propuesta de horario no encontrada")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update proposal")
	}
	return proposal, nil
}

// UpdateStatus moves the proposal to any allowed lifecycle state, including
// back out of approved.
func (s *ProposalService) UpdateStatus(ctx context.Context, colegioID, proposalID string, req dto.UpdateProposalStatusRequest) (*models.Proposal, error) {
	proposal, err := s.findProposal(ctx, colegioID, proposalID)
	if err != nil {
		return nil, err
	}

	status, ok := models.ParseProposalStatus(req.Estado)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "estado inválido: use draft, approved o rejected")
	}
	proposal.Estado = status

	if err := s.proposals.Update(ctx, proposal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "propuesta de horario no encontrada")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update proposal status")
	}
	return proposal, nil
}

func (s *ProposalService) findProposal(ctx context.Context, colegioID, proposalID string) (*models.Proposal, error) {
	proposal, err := s.proposals.FindByColegio(ctx, colegioID, proposalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "propuesta de horario no encontrada")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proposal")
	}
	return proposal, nil
}

// generateBlocks loads the colegio's course-subject pairings and rooms and runs
// the allocator over them. A colegio without rooms cannot generate anything; a
// colegio without pairings yields an empty proposal.
func (s *ProposalService) generateBlocks(ctx context.Context, colegioID string) ([]models.ProposalBlock, int, error) {
	rooms, err := s.assignments.ListRooms(ctx, colegioID)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	if len(rooms) == 0 {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "no hay salas registradas para este colegio")
	}

	pairings, err := s.assignments.ListPairings(ctx, colegioID)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course-subject pairings")
	}
	if len(pairings) == 0 {
		return []models.ProposalBlock{}, 0, nil
	}

	allocator := newSlotAllocator(rooms, s.newRand())
	blocks := allocator.buildBlocks(pairings)
	return blocks, allocator.degraded, nil
}

func (s *ProposalService) logGeneration(colegioID, proposalID string, total, degraded int) {
	s.metrics.RecordGeneration(total, degraded)
	if degraded > 0 {
		s.logger.Warn("schedule generation exhausted free slots for some blocks",
			zap.String("colegio_id", colegioID),
			zap.String("proposal_id", proposalID),
			zap.Int("blocks", total),
			zap.Int("degraded_blocks", degraded))
		return
	}
	s.logger.Info("schedule proposal generated",
		zap.String("colegio_id", colegioID),
		zap.String("proposal_id", proposalID),
		zap.Int("blocks", total))
}

func parsePeriod(rawInicio, rawFin string) (time.Time, time.Time, error) {
	inicio, err := parseDate(rawInicio)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	fin, err := parseDate(rawFin)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if fin.Before(inicio) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "el periodo de fin no puede ser anterior al inicio")
	}
	return inicio, fin, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "las fechas proporcionadas no son válidas")
}

func trimOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
