package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tfgestor/backend/core"
	"github.com/tfgestor/backend/core/tribunal"
)

type tribunalRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	IsActive     bool        `db:"is_active"`
	PresidentID  string      `db:"president_id"`
	SecretaryID  string      `db:"secretary_id"`
	VocalID      string      `db:"vocal_id"`
	Alternate1ID null.String `db:"alternate1_id"`
	Alternate2ID null.String `db:"alternate2_id"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

type tribunalRepository struct {
	exec core.DBExecutor
}

var _ tribunal.Repository = (*tribunalRepository)(nil) // interface compliance check

func NewTribunalRepository(exec core.DBExecutor) *tribunalRepository {
	return &tribunalRepository{exec: exec}
}

func (repo tribunalRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo tribunalRepository) toRow(trib tribunal.Tribunal) tribunalRow {
	return tribunalRow{
		ID:           trib.ID,
		Name:         trib.Name,
		IsActive:     trib.IsActive,
		PresidentID:  trib.PresidentID,
		SecretaryID:  trib.SecretaryID,
		VocalID:      trib.VocalID,
		Alternate1ID: trib.Alternate1ID,
		Alternate2ID: trib.Alternate2ID,
		CreatedAt:    trib.CreatedAt.UTC(),
		UpdatedAt:    trib.UpdatedAt.UTC(),
	}
}

func (repo tribunalRepository) fromRow(row tribunalRow) tribunal.Tribunal {
	return tribunal.Tribunal{
		ID:           row.ID,
		Name:         row.Name,
		IsActive:     row.IsActive,
		PresidentID:  row.PresidentID,
		SecretaryID:  row.SecretaryID,
		VocalID:      row.VocalID,
		Alternate1ID: row.Alternate1ID,
		Alternate2ID: row.Alternate2ID,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to tribunal.ErrNotFound
func (repo tribunalRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return tribunal.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo tribunalRepository) CreateTribunal(ctx context.Context, trib tribunal.Tribunal, exec ...core.DBExecutor) (tribunal.Tribunal, error) {
	trib.ID = uuid.New().String()
	row := repo.toRow(trib)
	_, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), `
		INSERT INTO tribunal (id, name, is_active, president_id, secretary_id, vocal_id,
		                      alternate1_id, alternate2_id, created_at, updated_at)
		VALUES (:id, :name, :is_active, :president_id, :secretary_id, :vocal_id,
		        :alternate1_id, :alternate2_id, :created_at, :updated_at)`, row)
	if err != nil {
		return tribunal.Tribunal{}, errors.Wrap(err, "inserting tribunal")
	}
	return repo.fromRow(row), nil
}

func (repo tribunalRepository) GetTribunal(ctx context.Context, id string, exec ...core.DBExecutor) (tribunal.Tribunal, error) {
	if _, err := uuid.Parse(id); err != nil {
		return tribunal.Tribunal{}, tribunal.ErrNotFound
	}

	var row tribunalRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, `SELECT * FROM tribunal WHERE id = $1`, id); err != nil {
		return tribunal.Tribunal{}, repo.trapNoRowsErr(err, "finding tribunal by ID")
	}
	return repo.fromRow(row), nil
}

func (repo tribunalRepository) QueryAllTribunals(ctx context.Context, exec ...core.DBExecutor) ([]tribunal.Tribunal, error) {
	var rows []tribunalRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, `SELECT * FROM tribunal ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "querying tribunals")
	}
	tribs := make([]tribunal.Tribunal, 0, len(rows))
	for _, row := range rows {
		tribs = append(tribs, repo.fromRow(row))
	}
	return tribs, nil
}

func (repo tribunalRepository) UpdateTribunal(ctx context.Context, trib tribunal.Tribunal, exec ...core.DBExecutor) (tribunal.Tribunal, error) {
	row := repo.toRow(trib)
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), `
		UPDATE tribunal
		   SET name = :name, is_active = :is_active, president_id = :president_id,
		       secretary_id = :secretary_id, vocal_id = :vocal_id,
		       alternate1_id = :alternate1_id, alternate2_id = :alternate2_id,
		       updated_at = :updated_at
		 WHERE id = :id`, row)
	if err != nil {
		return tribunal.Tribunal{}, errors.Wrap(err, "updating tribunal")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tribunal.Tribunal{}, tribunal.ErrNotFound
	}
	return repo.fromRow(row), nil
}
