package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tfgestor/backend/core"
	"github.com/tfgestor/backend/core/thesis"
)

type thesisRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Abstract    string         `db:"abstract"`
	Keywords    pq.StringArray `db:"keywords"`
	StudentID   string         `db:"student_id"`
	TutorID     null.String    `db:"tutor_id"`
	CoTutorID   null.String    `db:"co_tutor_id"`
	Status      string         `db:"status"`
	FinalGrade  null.Float64   `db:"final_grade"`
	CompletedAt null.Time      `db:"completed_at"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type thesisRepository struct {
	exec core.DBExecutor
}

var _ thesis.Repository = (*thesisRepository)(nil) // interface compliance check

func NewThesisRepository(exec core.DBExecutor) *thesisRepository {
	return &thesisRepository{exec: exec}
}

func (repo thesisRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo thesisRepository) toRow(th thesis.Thesis) thesisRow {
	return thesisRow{
		ID:          th.ID,
		Title:       th.Title,
		Description: th.Description,
		Abstract:    th.Abstract,
		Keywords:    pq.StringArray(th.Keywords),
		StudentID:   th.StudentID,
		TutorID:     th.TutorID,
		CoTutorID:   th.CoTutorID,
		Status:      th.Status,
		FinalGrade:  th.FinalGrade,
		CompletedAt: th.CompletedAt,
		CreatedAt:   th.CreatedAt.UTC(),
		UpdatedAt:   th.UpdatedAt.UTC(),
	}
}

func (repo thesisRepository) fromRow(row thesisRow) thesis.Thesis {
	return thesis.Thesis{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Abstract:    row.Abstract,
		Keywords:    []string(row.Keywords),
		StudentID:   row.StudentID,
		TutorID:     row.TutorID,
		CoTutorID:   row.CoTutorID,
		Status:      row.Status,
		FinalGrade:  row.FinalGrade,
		CompletedAt: row.CompletedAt,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to thesis.ErrNotFound
func (repo thesisRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return thesis.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo thesisRepository) CreateThesis(ctx context.Context, th thesis.Thesis, exec ...core.DBExecutor) (thesis.Thesis, error) {
	th.ID = uuid.New().String()
	row := repo.toRow(th)
	_, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), `
		INSERT INTO thesis (id, title, description, abstract, keywords, student_id, tutor_id, co_tutor_id,
		                    status, final_grade, completed_at, created_at, updated_at)
		VALUES (:id, :title, :description, :abstract, :keywords, :student_id, :tutor_id, :co_tutor_id,
		        :status, :final_grade, :completed_at, :created_at, :updated_at)`, row)
	if err != nil {
		return thesis.Thesis{}, errors.Wrap(err, "inserting thesis")
	}
	return repo.fromRow(row), nil
}

func (repo thesisRepository) getThesis(ctx context.Context, id string, forUpdate bool, exec []core.DBExecutor) (thesis.Thesis, error) {
	if _, err := uuid.Parse(id); err != nil {
		return thesis.Thesis{}, thesis.ErrNotFound
	}

	query := `SELECT * FROM thesis WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var row thesisRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, query, id); err != nil {
		return thesis.Thesis{}, repo.trapNoRowsErr(err, "finding thesis by ID")
	}
	return repo.fromRow(row), nil
}

func (repo thesisRepository) GetThesis(ctx context.Context, id string, exec ...core.DBExecutor) (thesis.Thesis, error) {
	return repo.getThesis(ctx, id, false, exec)
}

func (repo thesisRepository) GetThesisForUpdate(ctx context.Context, id string, exec ...core.DBExecutor) (thesis.Thesis, error) {
	return repo.getThesis(ctx, id, true, exec)
}

func (repo thesisRepository) UpdateThesis(ctx context.Context, th thesis.Thesis, exec ...core.DBExecutor) (thesis.Thesis, error) {
	row := repo.toRow(th)
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), `
		UPDATE thesis
		   SET title = :title, description = :description, abstract = :abstract, keywords = :keywords,
		       student_id = :student_id, tutor_id = :tutor_id, co_tutor_id = :co_tutor_id,
		       status = :status, final_grade = :final_grade, completed_at = :completed_at,
		       updated_at = :updated_at
		 WHERE id = :id`, row)
	if err != nil {
		return thesis.Thesis{}, errors.Wrap(err, "updating thesis")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return thesis.Thesis{}, thesis.ErrNotFound
	}
	return repo.fromRow(row), nil
}
