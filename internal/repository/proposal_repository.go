package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/andes-edu/colegio-admin-api/internal/models"
)

// ProposalRepository persists schedule proposals scoped to one colegio.
type ProposalRepository struct {
	db *sqlx.DB
}

// NewProposalRepository constructs repository.
func NewProposalRepository(db *sqlx.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

func (r *ProposalRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a proposal, assigning identity, default state and timestamps.
func (r *ProposalRepository) Create(ctx context.Context, exec sqlx.ExtContext, proposal *models.Proposal) error {
	if proposal == nil {
		return fmt.Errorf("proposal payload is nil")
	}
	if proposal.ColegioID == "" {
		return fmt.Errorf("colegio_id is required")
	}
	if proposal.ID == "" {
		proposal.ID = uuid.NewString()
	}
	if proposal.Estado == "" {
		proposal.Estado = models.ProposalStatusDraft
	}
	now := time.Now().UTC()
	if proposal.CreatedAt.IsZero() {
		proposal.CreatedAt = now
	}
	proposal.UpdatedAt = now

	const query = `
INSERT INTO horarios_propuestos (id, colegio_id, nombre, periodo_inicio, periodo_fin, estado, descripcion, created_by, created_at, updated_at)
VALUES (:id, :colegio_id, :nombre, :periodo_inicio, :periodo_fin, :estado, :descripcion, :created_by, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, proposal); err != nil {
		return fmt.Errorf("insert proposal: %w", err)
	}
	return nil
}

// FindByColegio loads a proposal owned by the given colegio. A proposal that
// belongs to another institution surfaces as sql.ErrNoRows.
func (r *ProposalRepository) FindByColegio(ctx context.Context, colegioID, proposalID string) (*models.Proposal, error) {
	const query = `SELECT id, colegio_id, nombre, periodo_inicio, periodo_fin, estado, descripcion, created_by, created_at, updated_at
FROM horarios_propuestos WHERE id = $1 AND colegio_id = $2`
	var proposal models.Proposal
	if err := r.db.GetContext(ctx, &proposal, query, proposalID, colegioID); err != nil {
		return nil, err
	}
	return &proposal, nil
}

// Update persists mutable proposal fields.
func (r *ProposalRepository) Update(ctx context.Context, proposal *models.Proposal) error {
	if proposal == nil {
		return fmt.Errorf("proposal payload is nil")
	}
	proposal.UpdatedAt = time.Now().UTC()

	const query = `
UPDATE horarios_propuestos
SET nombre = :nombre, periodo_inicio = :periodo_inicio, periodo_fin = :periodo_fin, estado = :estado, descripcion = :descripcion, updated_at = :updated_at
WHERE id = :id AND colegio_id = :colegio_id`
	result, err := sqlx.NamedExecContext(ctx, r.db, query, proposal)
	if err != nil {
		return fmt.Errorf("update proposal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("proposal rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByColegio returns the total number of proposals for the colegio.
func (r *ProposalRepository) CountByColegio(ctx context.Context, colegioID string) (int, error) {
	const query = `SELECT COUNT(*) FROM horarios_propuestos WHERE colegio_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, colegioID); err != nil {
		return 0, fmt.Errorf("count proposals: %w", err)
	}
	return total, nil
}

// ListByColegio returns a page of proposal summaries including block counts and
// the creator full name, newest first.
func (r *ProposalRepository) ListByColegio(ctx context.Context, colegioID string, limit, offset int) ([]models.ProposalSummary, error) {
	const query = `
SELECT
  h.id,
  h.nombre,
  h.periodo_inicio,
  h.periodo_fin,
  h.estado,
  h.descripcion,
  h.created_at,
  h.updated_at,
  COUNT(d.id) as bloques,
  (
    SELECT (p.nombre || ' ' || p.apellido_paterno || ' ' || COALESCE(p.apellido_materno, ''))
    FROM vinculos_institucionales cb
    JOIN personas p ON p.id = cb.persona_id
    WHERE cb.id = h.created_by
  ) as creador_nombre
FROM horarios_propuestos h
LEFT JOIN horarios_propuestos_detalle d ON d.propuesta_id = h.id
WHERE h.colegio_id = $1
GROUP BY h.id
ORDER BY h.created_at DESC
LIMIT $2 OFFSET $3`
	var rows []models.ProposalSummary
	if err := r.db.SelectContext(ctx, &rows, query, colegioID, limit, offset); err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	return rows, nil
}
