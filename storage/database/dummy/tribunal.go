package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/tfgestor/backend/core"
	"github.com/tfgestor/backend/core/tribunal"
)

type tribunalRepository struct {
	db *tribunalTable
}

var _ tribunal.Repository = (*tribunalRepository)(nil) // interface compliance check

func NewTribunalRepository(db *DB) tribunal.Repository {
	return &tribunalRepository{db: db.tribunal}
}

func (repo *tribunalRepository) CreateTribunal(ctx context.Context, trib tribunal.Tribunal, _ ...core.DBExecutor) (tribunal.Tribunal, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	trib.ID = uuid.New().String()
	repo.db.table[trib.ID] = &trib
	return trib, nil
}

func (repo *tribunalRepository) GetTribunal(ctx context.Context, id string, _ ...core.DBExecutor) (tribunal.Tribunal, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if trib, ok := repo.db.table[id]; ok {
		return *trib, nil
	}
	return tribunal.Tribunal{}, tribunal.ErrNotFound
}

func (repo *tribunalRepository) QueryAllTribunals(ctx context.Context, _ ...core.DBExecutor) ([]tribunal.Tribunal, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tribs := make([]tribunal.Tribunal, 0, len(repo.db.table))
	for _, trib := range repo.db.table {
		tribs = append(tribs, *trib)
	}
	sort.Slice(tribs, func(i, j int) bool { return tribs[i].Name < tribs[j].Name })
	return tribs, nil
}

func (repo *tribunalRepository) UpdateTribunal(ctx context.Context, trib tribunal.Tribunal, _ ...core.DBExecutor) (tribunal.Tribunal, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[trib.ID]; !ok {
		return tribunal.Tribunal{}, tribunal.ErrNotFound
	}
	repo.db.table[trib.ID] = &trib
	return trib, nil
}
