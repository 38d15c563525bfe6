package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tfgestor/backend/core"
	"github.com/tfgestor/backend/core/defense"
)

type defenseRepository struct {
	db *defenseTable
}

var _ defense.Repository = (*defenseRepository)(nil) // interface compliance check

func NewDefenseRepository(db *DB) defense.Repository {
	return &defenseRepository{db: db.defense}
}

func (repo *defenseRepository) query() []defense.Defense {
	defs := make([]defense.Defense, 0, len(repo.db.table))
	for _, d := range repo.db.table {
		defs = append(defs, *d)
	}
	return defs
}

func (repo *defenseRepository) CreateDefense(ctx context.Context, d defense.Defense, _ ...core.DBExecutor) (defense.Defense, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	d.ID = uuid.New().String()
	repo.db.table[d.ID] = &d
	return d, nil
}

func (repo *defenseRepository) GetDefense(ctx context.Context, id string, _ ...core.DBExecutor) (defense.Defense, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if d, ok := repo.db.table[id]; ok {
		return *d, nil
	}
	return defense.Defense{}, defense.ErrNotFound
}

func (repo *defenseRepository) GetDefenseForUpdate(ctx context.Context, id string, exec ...core.DBExecutor) (defense.Defense, error) {
	// the transaction lock already serializes writers
	return repo.GetDefense(ctx, id, exec...)
}

func (repo *defenseRepository) GetActiveDefenseByThesis(ctx context.Context, thesisID string, _ ...core.DBExecutor) (defense.Defense, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, d := range repo.query() {
		if d.ThesisID == thesisID && d.Status != defense.StatusCancelled {
			return d, nil
		}
	}
	return defense.Defense{}, defense.ErrNotFound
}

func (repo *defenseRepository) findConflict(match func(defense.Defense) bool, startsAt time.Time, durationMins int, excludeID string) (defense.Defense, bool) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	defs := repo.query()
	sort.Slice(defs, func(i, j int) bool { return defs[i].StartsAt.Before(defs[j].StartsAt) })

	for _, d := range defs {
		if d.ID == excludeID || d.Status == defense.StatusCancelled || !match(d) {
			continue
		}
		if defense.Overlaps(startsAt, durationMins, d.StartsAt, d.DurationMins) {
			return d, true
		}
	}
	return defense.Defense{}, false
}

func (repo *defenseRepository) FindTribunalConflict(ctx context.Context, tribunalID string, startsAt time.Time, durationMins int, excludeID string, _ ...core.DBExecutor) (defense.Defense, bool, error) {
	d, found := repo.findConflict(func(d defense.Defense) bool { return d.TribunalID == tribunalID }, startsAt, durationMins, excludeID)
	return d, found, nil
}

func (repo *defenseRepository) FindRoomConflict(ctx context.Context, room string, startsAt time.Time, durationMins int, excludeID string, _ ...core.DBExecutor) (defense.Defense, bool, error) {
	d, found := repo.findConflict(func(d defense.Defense) bool { return d.Room == room }, startsAt, durationMins, excludeID)
	return d, found, nil
}

func (repo *defenseRepository) UpdateDefense(ctx context.Context, d defense.Defense, _ ...core.DBExecutor) (defense.Defense, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[d.ID]; !ok {
		return defense.Defense{}, defense.ErrNotFound
	}
	repo.db.table[d.ID] = &d
	return d, nil
}
