package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/tfgestor/backend/core"
	"github.com/tfgestor/backend/core/thesis"
)

type thesisRepository struct {
	db *thesisTable
}

var _ thesis.Repository = (*thesisRepository)(nil) // interface compliance check

func NewThesisRepository(db *DB) thesis.Repository {
	return &thesisRepository{db: db.thesis}
}

func (repo *thesisRepository) CreateThesis(ctx context.Context, th thesis.Thesis, _ ...core.DBExecutor) (thesis.Thesis, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	th.ID = uuid.New().String()
	repo.db.table[th.ID] = &th
	return th, nil
}

func (repo *thesisRepository) GetThesis(ctx context.Context, id string, _ ...core.DBExecutor) (thesis.Thesis, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if th, ok := repo.db.table[id]; ok {
		return *th, nil
	}
	return thesis.Thesis{}, thesis.ErrNotFound
}

func (repo *thesisRepository) GetThesisForUpdate(ctx context.Context, id string, exec ...core.DBExecutor) (thesis.Thesis, error) {
	// the transaction lock already serializes writers
	return repo.GetThesis(ctx, id, exec...)
}

func (repo *thesisRepository) UpdateThesis(ctx context.Context, th thesis.Thesis, _ ...core.DBExecutor) (thesis.Thesis, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[th.ID]; !ok {
		return thesis.Thesis{}, thesis.ErrNotFound
	}
	repo.db.table[th.ID] = &th
	return th, nil
}
