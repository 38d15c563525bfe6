package dummydb

import (
	"context"
	"sync"

	"github.com/tfgestor/backend/core"
	"github.com/tfgestor/backend/core/defense"
	"github.com/tfgestor/backend/core/grade"
	"github.com/tfgestor/backend/core/thesis"
	"github.com/tfgestor/backend/core/tribunal"
)

type (
	DB struct {
		txMut sync.Mutex // serializes transactions

		thesis   *thesisTable
		tribunal *tribunalTable
		defense  *defenseTable
		grade    *gradeTable
	}

	thesisTable struct {
		sync.RWMutex
		table map[string]*thesis.Thesis
	}

	tribunalTable struct {
		sync.RWMutex
		table map[string]*tribunal.Tribunal
	}

	defenseTable struct {
		sync.RWMutex
		table map[string]*defense.Defense
	}

	gradeTable struct {
		sync.RWMutex
		table map[string]*grade.Grade
	}
)

var _ core.Transactor = (*DB)(nil) // interface compliance check

func Open() (*DB, error) {
	db := &DB{
		thesis:   &thesisTable{table: make(map[string]*thesis.Thesis)},
		tribunal: &tribunalTable{table: make(map[string]*tribunal.Tribunal)},
		defense:  &defenseTable{table: make(map[string]*defense.Defense)},
		grade:    &gradeTable{table: make(map[string]*grade.Grade)},
	}
	return db, nil
}

// RunInTx serializes transactions behind a single lock, which gives the same
// isolation guarantees the real engine provides without rollback support.
// Callers receive no executor; the repositories fall back to their own tables.
func (db *DB) RunInTx(ctx context.Context, fn func(exec core.DBExecutor) error) error {
	db.txMut.Lock()
	defer db.txMut.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(nil)
}
