package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/tfgestor/backend/core"
	"github.com/tfgestor/backend/core/grade"
)

type gradeRepository struct {
	db *gradeTable
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *DB) grade.Repository {
	return &gradeRepository{db: db.grade}
}

func (repo *gradeRepository) CreateGrade(ctx context.Context, grd grade.Grade, _ ...core.DBExecutor) (grade.Grade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, g := range repo.db.table {
		if g.DefenseID == grd.DefenseID && g.EvaluatorID == grd.EvaluatorID {
			return grade.Grade{}, &grade.DuplicateGradeError{DefenseID: grd.DefenseID, EvaluatorID: grd.EvaluatorID}
		}
	}

	grd.ID = uuid.New().String()
	repo.db.table[grd.ID] = &grd
	return grd, nil
}

func (repo *gradeRepository) QueryGradesByDefense(ctx context.Context, defenseID string, _ ...core.DBExecutor) ([]grade.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	grds := make([]grade.Grade, 0, len(repo.db.table))
	for _, g := range repo.db.table {
		if g.DefenseID == defenseID {
			grds = append(grds, *g)
		}
	}
	sort.Slice(grds, func(i, j int) bool { return grds[i].CreatedAt.Before(grds[j].CreatedAt) })
	return grds, nil
}
