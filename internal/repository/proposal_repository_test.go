package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andes-edu/colegio-admin-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestProposalRepositoryCreateAssignsDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectExec("INSERT INTO horarios_propuestos").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	proposal := &models.Proposal{
		ColegioID:     "colegio-1",
		Nombre:        "Semestre 1",
		PeriodoInicio: time.Now(),
		PeriodoFin:    time.Now().AddDate(0, 4, 0),
	}
	require.NoError(t, repo.Create(context.Background(), nil, proposal))
	assert.NotEmpty(t, proposal.ID)
	assert.Equal(t, models.ProposalStatusDraft, proposal.Estado)
	assert.False(t, proposal.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalRepositoryCreateRequiresColegio(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	err := repo.Create(context.Background(), nil, &models.Proposal{Nombre: "x"})
	require.Error(t, err)
}

func TestProposalRepositoryFindByColegio(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	rows := sqlmock.NewRows([]string{"id", "colegio_id", "nombre", "periodo_inicio", "periodo_fin", "estado", "descripcion", "created_by", "created_at", "updated_at"}).
		AddRow("prop-1", "colegio-1", "Semestre 1", time.Now(), time.Now(), "draft", nil, nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, colegio_id, nombre, periodo_inicio, periodo_fin, estado, descripcion, created_by, created_at, updated_at\nFROM horarios_propuestos WHERE id = \\$1 AND colegio_id = \\$2").
		WithArgs("prop-1", "colegio-1").
		WillReturnRows(rows)

	proposal, err := repo.FindByColegio(context.Background(), "colegio-1", "prop-1")
	require.NoError(t, err)
	assert.Equal(t, "prop-1", proposal.ID)
	assert.Equal(t, models.ProposalStatusDraft, proposal.Estado)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalRepositoryFindByColegioMiss(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectQuery("FROM horarios_propuestos WHERE id = \\$1 AND colegio_id = \\$2").
		WithArgs("prop-1", "other-colegio").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByColegio(context.Background(), "other-colegio", "prop-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestProposalRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectExec("UPDATE horarios_propuestos").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Proposal{ID: "prop-1", ColegioID: "colegio-1"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalRepositoryListByColegio(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	rows := sqlmock.NewRows([]string{"id", "nombre", "periodo_inicio", "periodo_fin", "estado", "descripcion", "created_at", "updated_at", "bloques", "creador_nombre"}).
		AddRow("prop-2", "Semestre 2", time.Now(), time.Now(), "draft", nil, time.Now(), time.Now(), 40, "Ana Soto Díaz").
		AddRow("prop-1", "Semestre 1", time.Now(), time.Now(), "approved", nil, time.Now(), time.Now(), 38, nil)
	mock.ExpectQuery("FROM horarios_propuestos h\nLEFT JOIN horarios_propuestos_detalle d ON d.propuesta_id = h.id").
		WithArgs("colegio-1", 20, 0).
		WillReturnRows(rows)

	list, err := repo.ListByColegio(context.Background(), "colegio-1", 20, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 40, list[0].Bloques)
	require.NotNil(t, list[0].CreadoPor)
	assert.Equal(t, "Ana Soto Díaz", *list[0].CreadoPor)
	assert.Nil(t, list[1].CreadoPor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalRepositoryCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM horarios_propuestos WHERE colegio_id = \\$1").
		WithArgs("colegio-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	total, err := repo.CountByColegio(context.Background(), "colegio-1")
	require.NoError(t, err)
	assert.Equal(t, 7, total)
}
