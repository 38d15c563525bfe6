package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tfgestor/backend/core"
	"github.com/tfgestor/backend/core/grade"
)

const uniqueViolation = "23505"

type gradeRow struct {
	ID           string       `db:"id"`
	DefenseID    string       `db:"defense_id"`
	EvaluatorID  string       `db:"evaluator_id"`
	Presentation null.Float64 `db:"presentation"`
	Content      null.Float64 `db:"content"`
	Performance  null.Float64 `db:"performance"`
	Composite    float64      `db:"composite"`
	Comments     string       `db:"comments"`
	CreatedAt    time.Time    `db:"created_at"`
}

type gradeRepository struct {
	exec core.DBExecutor
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(exec core.DBExecutor) *gradeRepository {
	return &gradeRepository{exec: exec}
}

func (repo gradeRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo gradeRepository) toRow(grd grade.Grade) gradeRow {
	return gradeRow{
		ID:           grd.ID,
		DefenseID:    grd.DefenseID,
		EvaluatorID:  grd.EvaluatorID,
		Presentation: grd.Presentation,
		Content:      grd.Content,
		Performance:  grd.Performance,
		Composite:    grd.Composite,
		Comments:     grd.Comments,
		CreatedAt:    grd.CreatedAt.UTC(),
	}
}

func (repo gradeRepository) fromRow(row gradeRow) grade.Grade {
	return grade.Grade{
		ID:           row.ID,
		DefenseID:    row.DefenseID,
		EvaluatorID:  row.EvaluatorID,
		Presentation: row.Presentation,
		Content:      row.Content,
		Performance:  row.Performance,
		Composite:    row.Composite,
		Comments:     row.Comments,
		CreatedAt:    row.CreatedAt,
	}
}

func (repo gradeRepository) CreateGrade(ctx context.Context, grd grade.Grade, exec ...core.DBExecutor) (grade.Grade, error) {
	grd.ID = uuid.New().String()
	row := repo.toRow(grd)
	_, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), `
		INSERT INTO grade (id, defense_id, evaluator_id, presentation, content, performance,
		                   composite, comments, created_at)
		VALUES (:id, :defense_id, :evaluator_id, :presentation, :content, :performance,
		        :composite, :comments, :created_at)`, row)
	if err != nil {
		// the unique key backstops the in-transaction duplicate scan
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return grade.Grade{}, &grade.DuplicateGradeError{DefenseID: grd.DefenseID, EvaluatorID: grd.EvaluatorID}
		}
		return grade.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return repo.fromRow(row), nil
}

func (repo gradeRepository) QueryGradesByDefense(ctx context.Context, defenseID string, exec ...core.DBExecutor) ([]grade.Grade, error) {
	if _, err := uuid.Parse(defenseID); err != nil {
		return []grade.Grade{}, nil
	}

	var rows []gradeRow
	err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, `
		SELECT * FROM grade WHERE defense_id = $1 ORDER BY created_at`, defenseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying grades by defense")
	}
	grds := make([]grade.Grade, 0, len(rows))
	for _, row := range rows {
		grds = append(grds, repo.fromRow(row))
	}
	return grds, nil
}
