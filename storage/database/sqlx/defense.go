package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tfgestor/backend/core"
	"github.com/tfgestor/backend/core/defense"
)

type defenseRow struct {
	ID               string    `db:"id"`
	ThesisID         string    `db:"thesis_id"`
	TribunalID       string    `db:"tribunal_id"`
	StartsAt         time.Time `db:"starts_at"`
	DurationMins     int       `db:"duration_mins"`
	Room             string    `db:"room"`
	Status           string    `db:"status"`
	Observations     string    `db:"observations"`
	MinutesGenerated bool      `db:"minutes_generated"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

type defenseRepository struct {
	exec core.DBExecutor
}

var _ defense.Repository = (*defenseRepository)(nil) // interface compliance check

func NewDefenseRepository(exec core.DBExecutor) *defenseRepository {
	return &defenseRepository{exec: exec}
}

func (repo defenseRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo defenseRepository) toRow(d defense.Defense) defenseRow {
	return defenseRow{
		ID:               d.ID,
		ThesisID:         d.ThesisID,
		TribunalID:       d.TribunalID,
		StartsAt:         d.StartsAt.UTC(),
		DurationMins:     d.DurationMins,
		Room:             d.Room,
		Status:           d.Status,
		Observations:     d.Observations,
		MinutesGenerated: d.MinutesGenerated,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}
}

func (repo defenseRepository) fromRow(row defenseRow) defense.Defense {
	return defense.Defense{
		ID:               row.ID,
		ThesisID:         row.ThesisID,
		TribunalID:       row.TribunalID,
		StartsAt:         row.StartsAt,
		DurationMins:     row.DurationMins,
		Room:             row.Room,
		Status:           row.Status,
		Observations:     row.Observations,
		MinutesGenerated: row.MinutesGenerated,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to defense.ErrNotFound
func (repo defenseRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return defense.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo defenseRepository) CreateDefense(ctx context.Context, d defense.Defense, exec ...core.DBExecutor) (defense.Defense, error) {
	d.ID = uuid.New().String()
	row := repo.toRow(d)
	_, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), `
		INSERT INTO defense (id, thesis_id, tribunal_id, starts_at, duration_mins, room,
		                     status, observations, minutes_generated, created_at, updated_at)
		VALUES (:id, :thesis_id, :tribunal_id, :starts_at, :duration_mins, :room,
		        :status, :observations, :minutes_generated, :created_at, :updated_at)`, row)
	if err != nil {
		return defense.Defense{}, errors.Wrap(err, "inserting defense")
	}
	return repo.fromRow(row), nil
}

func (repo defenseRepository) getDefense(ctx context.Context, id string, forUpdate bool, exec []core.DBExecutor) (defense.Defense, error) {
	if _, err := uuid.Parse(id); err != nil {
		return defense.Defense{}, defense.ErrNotFound
	}

	query := `SELECT * FROM defense WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var row defenseRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, query, id); err != nil {
		return defense.Defense{}, repo.trapNoRowsErr(err, "finding defense by ID")
	}
	return repo.fromRow(row), nil
}

func (repo defenseRepository) GetDefense(ctx context.Context, id string, exec ...core.DBExecutor) (defense.Defense, error) {
	return repo.getDefense(ctx, id, false, exec)
}

func (repo defenseRepository) GetDefenseForUpdate(ctx context.Context, id string, exec ...core.DBExecutor) (defense.Defense, error) {
	return repo.getDefense(ctx, id, true, exec)
}

func (repo defenseRepository) GetActiveDefenseByThesis(ctx context.Context, thesisID string, exec ...core.DBExecutor) (defense.Defense, error) {
	if _, err := uuid.Parse(thesisID); err != nil {
		return defense.Defense{}, defense.ErrNotFound
	}

	var row defenseRow
	err := sqlx.GetContext(ctx, repo.getExec(exec), &row, `
		SELECT * FROM defense
		 WHERE thesis_id = $1 AND status <> $2
		 ORDER BY created_at DESC
		 LIMIT 1`, thesisID, defense.StatusCancelled)
	if err != nil {
		return defense.Defense{}, repo.trapNoRowsErr(err, "finding active defense by thesis")
	}
	return repo.fromRow(row), nil
}

// Half-open interval overlap: [starts_at, starts_at+duration) windows
// intersect iff each starts before the other ends. A defense ending exactly
// when the candidate starts is not a conflict. Cancelled defenses never
// participate; excludeID skips the defense being edited (id::text never
// equals the empty string, so no exclusion happens when it is empty).
const conflictQuery = `
	SELECT * FROM defense
	 WHERE %s = $1
	   AND status <> $2
	   AND id::text <> $3
	   AND starts_at < $5
	   AND $4 < starts_at + duration_mins * interval '1 minute'
	 ORDER BY starts_at
	 LIMIT 1`

func (repo defenseRepository) findConflict(ctx context.Context, column, key string, startsAt time.Time, durationMins int, excludeID string, exec []core.DBExecutor) (defense.Defense, bool, error) {
	endsAt := startsAt.Add(time.Duration(durationMins) * time.Minute)

	var row defenseRow
	err := sqlx.GetContext(ctx, repo.getExec(exec), &row, fmt.Sprintf(conflictQuery, column),
		key, defense.StatusCancelled, excludeID, startsAt.UTC(), endsAt.UTC())
	if err != nil {
		if err == sql.ErrNoRows {
			return defense.Defense{}, false, nil
		}
		return defense.Defense{}, false, errors.Wrap(err, "finding conflicting defense")
	}
	return repo.fromRow(row), true, nil
}

func (repo defenseRepository) FindTribunalConflict(ctx context.Context, tribunalID string, startsAt time.Time, durationMins int, excludeID string, exec ...core.DBExecutor) (defense.Defense, bool, error) {
	return repo.findConflict(ctx, "tribunal_id", tribunalID, startsAt, durationMins, excludeID, exec)
}

func (repo defenseRepository) FindRoomConflict(ctx context.Context, room string, startsAt time.Time, durationMins int, excludeID string, exec ...core.DBExecutor) (defense.Defense, bool, error) {
	return repo.findConflict(ctx, "room", room, startsAt, durationMins, excludeID, exec)
}

func (repo defenseRepository) UpdateDefense(ctx context.Context, d defense.Defense, exec ...core.DBExecutor) (defense.Defense, error) {
	row := repo.toRow(d)
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), `
		UPDATE defense
		   SET starts_at = :starts_at, duration_mins = :duration_mins, room = :room,
		       status = :status, observations = :observations, minutes_generated = :minutes_generated,
		       updated_at = :updated_at
		 WHERE id = :id`, row)
	if err != nil {
		return defense.Defense{}, errors.Wrap(err, "updating defense")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return defense.Defense{}, defense.ErrNotFound
	}
	return repo.fromRow(row), nil
}
