package core

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type (
	// DBExecutor is what repositories run their queries against: either the
	// root *sqlx.DB or an open *sqlx.Tx injected by a service.
	DBExecutor interface {
		sqlx.ExtContext
	}

	// Transactor runs fn inside one atomic unit. The postgres implementation
	// opens a SERIALIZABLE transaction and retries once on a serialization
	// abort before giving up with a TransientError; the in-memory test
	// implementation serializes all units behind a mutex.
	//
	// The conflict-check-then-insert and the insert+count+finalize sequences
	// must always run through this.
	Transactor interface {
		RunInTx(ctx context.Context, fn func(exec DBExecutor) error) error
	}
)
