package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/andes-edu/colegio-admin-api/internal/models"
)

// ProposalBlockRepository manages the detail rows owned by a proposal.
type ProposalBlockRepository struct {
	db *sqlx.DB
}

// NewProposalBlockRepository builds repository.
func NewProposalBlockRepository(db *sqlx.DB) *ProposalBlockRepository {
	return &ProposalBlockRepository{db: db}
}

func (r *ProposalBlockRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// BulkInsert stores the generated blocks for a proposal.
func (r *ProposalBlockRepository) BulkInsert(ctx context.Context, exec sqlx.ExtContext, blocks []models.ProposalBlock) error {
	if len(blocks) == 0 {
		return nil
	}
	target := r.exec(exec)

	const query = `
INSERT INTO horarios_propuestos_detalle (id, propuesta_id, profesor_vinculo_id, curso_materia_id, sala_id, dia_semana, hora_inicio, hora_fin, observaciones)
VALUES (:id, :propuesta_id, :profesor_vinculo_id, :curso_materia_id, :sala_id, :dia_semana, :hora_inicio, :hora_fin, :observaciones)`

	for i := range blocks {
		block := &blocks[i]
		if block.ID == "" {
			block.ID = uuid.NewString()
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, block); err != nil {
			return fmt.Errorf("insert proposal block: %w", err)
		}
	}
	return nil
}

// DeleteByProposal removes every block owned by the proposal.
func (r *ProposalBlockRepository) DeleteByProposal(ctx context.Context, exec sqlx.ExtContext, proposalID string) error {
	const query = `DELETE FROM horarios_propuestos_detalle WHERE propuesta_id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, proposalID); err != nil {
		return fmt.Errorf("delete proposal blocks: %w", err)
	}
	return nil
}

// ListDetail returns the proposal blocks joined with curso, materia, sala and
// professor names, ordered by weekday then start time.
func (r *ProposalBlockRepository) ListDetail(ctx context.Context, proposalID string) ([]models.ProposalBlockDetail, error) {
	const query = `
SELECT d.id,
  d.profesor_vinculo_id,
  d.curso_materia_id,
  d.sala_id,
  d.dia_semana,
  d.hora_inicio,
  d.hora_fin,
  d.observaciones,
  c.id as curso_id,
  c.nombre as curso_nombre,
  m.nombre as materia_nombre,
  s.nombre as sala_nombre,
  (p.nombre || ' ' || p.apellido_paterno || ' ' || COALESCE(p.apellido_materno, '')) as profesor_full_name
FROM horarios_propuestos_detalle d
JOIN cursos_materias cm ON cm.id = d.curso_materia_id
JOIN cursos c ON c.id = cm.curso_id
JOIN materias m ON m.id = cm.materia_id
JOIN salas s ON s.id = d.sala_id
JOIN vinculos_institucionales v ON v.id = d.profesor_vinculo_id
JOIN personas p ON p.id = v.persona_id
WHERE d.propuesta_id = $1
ORDER BY d.dia_semana ASC, d.hora_inicio ASC`
	var rows []models.ProposalBlockDetail
	if err := r.db.SelectContext(ctx, &rows, query, proposalID); err != nil {
		return nil, fmt.Errorf("list proposal blocks: %w", err)
	}
	return rows, nil
}
