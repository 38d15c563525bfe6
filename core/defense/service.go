package defense

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tfgestor/backend/core"
	"github.com/tfgestor/backend/core/thesis"
	"github.com/tfgestor/backend/core/tribunal"
)

var (
	// errors
	ErrNotFound = errors.New("defense not found")

	errThesisNotApproved = "thesis is not approved for defense"
	errThesisHasDefense  = "thesis already has an active defense"
	errTribunalInactive  = "tribunal is not active"
	errNotEditable       = "only a scheduled defense can be edited"
	errPastStart         = errors.New("defense start must be in the future")
	errCancelPast        = errors.New("a defense can only be cancelled before it starts")
)

type (
	Repository interface {
		CreateDefense(ctx context.Context, d Defense, exec ...core.DBExecutor) (Defense, error)
		GetDefense(ctx context.Context, id string, exec ...core.DBExecutor) (Defense, error)
		// GetDefenseForUpdate locks the defense row for the duration of the
		// surrounding transaction.
		GetDefenseForUpdate(ctx context.Context, id string, exec ...core.DBExecutor) (Defense, error)
		// GetActiveDefenseByThesis returns the thesis's non-cancelled defense,
		// or ErrNotFound when the thesis has none.
		GetActiveDefenseByThesis(ctx context.Context, thesisID string, exec ...core.DBExecutor) (Defense, error)
		// FindTribunalConflict returns the first non-cancelled defense of the
		// tribunal whose window overlaps the candidate window, skipping
		// excludeID (so a reschedule does not conflict with itself).
		FindTribunalConflict(ctx context.Context, tribunalID string, startsAt time.Time, durationMins int, excludeID string, exec ...core.DBExecutor) (Defense, bool, error)
		// FindRoomConflict is FindTribunalConflict for the room resource.
		FindRoomConflict(ctx context.Context, room string, startsAt time.Time, durationMins int, excludeID string, exec ...core.DBExecutor) (Defense, bool, error)
		UpdateDefense(ctx context.Context, d Defense, exec ...core.DBExecutor) (Defense, error)
	}

	// Service sequences every defense lifecycle operation: state machine
	// guards, conflict detection and the post-commit notifications.
	Service struct {
		db       core.Transactor
		repo     Repository
		thRepo   thesis.Repository
		tribRepo tribunal.Repository
		notifSvc core.NotificationService
	}
)

func NewService(
	db core.Transactor,
	repo Repository,
	thRepo thesis.Repository,
	tribRepo tribunal.Repository,
	notifSvc core.NotificationService,
) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		thRepo:   thRepo,
		tribRepo: tribRepo,
		notifSvc: notifSvc,
	}
}

func (svc *Service) GetByID(ctx context.Context, id string) (Defense, error) {
	return svc.repo.GetDefense(ctx, id)
}

// FindTribunalConflict reports the defense occupying the tribunal's candidate
// window, if any. excludeID may be empty.
func (svc *Service) FindTribunalConflict(ctx context.Context, tribunalID string, startsAt time.Time, durationMins int, excludeID string) (Defense, bool, error) {
	return svc.repo.FindTribunalConflict(ctx, tribunalID, startsAt.UTC(), durationMins, excludeID)
}

// FindRoomConflict reports the defense occupying the room's candidate window,
// if any. excludeID may be empty.
func (svc *Service) FindRoomConflict(ctx context.Context, room string, startsAt time.Time, durationMins int, excludeID string) (Defense, bool, error) {
	return svc.repo.FindRoomConflict(ctx, room, startsAt.UTC(), durationMins, excludeID)
}

// checkConflicts runs both detectors inside the caller's transaction and
// reports every conflict found, so the scheduler does not have to retry once
// per resource.
func (svc *Service) checkConflicts(ctx context.Context, exec core.DBExecutor, tribunalID, room string, startsAt time.Time, durationMins int, excludeID string) error {
	var conflicts []core.Conflict

	if d, found, err := svc.repo.FindTribunalConflict(ctx, tribunalID, startsAt, durationMins, excludeID, exec); err != nil {
		return err
	} else if found {
		conflicts = append(conflicts, core.Conflict{Resource: "tribunal", DefenseID: d.ID, StartsAt: d.StartsAt, EndsAt: d.EndsAt()})
	}

	if d, found, err := svc.repo.FindRoomConflict(ctx, room, startsAt, durationMins, excludeID, exec); err != nil {
		return err
	} else if found {
		conflicts = append(conflicts, core.Conflict{Resource: "room", DefenseID: d.ID, StartsAt: d.StartsAt, EndsAt: d.EndsAt()})
	}

	if len(conflicts) > 0 {
		return core.NewConflictError(conflicts...)
	}
	return nil
}

// Schedule books a new defense for an approved thesis. The thesis/tribunal
// checks, the conflict pass and the insert run in one atomic unit so two
// concurrent requests for the same slot cannot both succeed.
func (svc *Service) Schedule(ctx context.Context, nd NewDefense) (Defense, error) {
	if err := nd.Validate(); err != nil {
		return Defense{}, err
	}

	var (
		d    Defense
		th   thesis.Thesis
		trib tribunal.Tribunal
	)
	err := svc.db.RunInTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if th, err = svc.thRepo.GetThesisForUpdate(ctx, nd.ThesisID, exec); err != nil {
			return err
		}
		if !th.CanScheduleDefense() {
			return core.NewPreconditionError(errThesisNotApproved)
		}
		if _, err = svc.repo.GetActiveDefenseByThesis(ctx, nd.ThesisID, exec); err == nil {
			return core.NewPreconditionError(errThesisHasDefense)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		if trib, err = svc.tribRepo.GetTribunal(ctx, nd.TribunalID, exec); err != nil {
			return err
		}
		if !trib.IsActive {
			return core.NewPreconditionError(errTribunalInactive)
		}

		if err = svc.checkConflicts(ctx, exec, nd.TribunalID, nd.Room, nd.StartsAt, nd.DurationMins, ""); err != nil {
			return err
		}

		now := time.Now().UTC()
		d = Defense{
			ThesisID:     nd.ThesisID,
			TribunalID:   nd.TribunalID,
			StartsAt:     nd.StartsAt,
			DurationMins: nd.DurationMins,
			Room:         nd.Room,
			Status:       StatusScheduled,
			Observations: nd.Observations,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		d, err = svc.repo.CreateDefense(ctx, d, exec)
		return err
	})
	if err != nil {
		return Defense{}, err
	}

	svc.notifyDefense(core.EventDefenseScheduled, "Defense scheduled", d, th, trib)
	return d, nil
}

// Reschedule edits a scheduled defense. Any change to the time, duration or
// room re-runs the full conflict pass, excluding the defense's own slot, and
// re-notifies all affected parties.
func (svc *Service) Reschedule(ctx context.Context, id string, ud UpdateDefense) (Defense, error) {
	var (
		d           Defense
		th          thesis.Thesis
		trib        tribunal.Tribunal
		slotChanged bool
	)
	err := svc.db.RunInTx(ctx, func(exec core.DBExecutor) error {
		orig, err := svc.repo.GetDefenseForUpdate(ctx, id, exec)
		if err != nil {
			return err
		}
		if orig.Status != StatusScheduled {
			return core.NewPreconditionError(errNotEditable)
		}

		if d, slotChanged, err = ud.Validate(orig); err != nil {
			return err
		}
		if slotChanged {
			if !d.StartsAt.After(time.Now().UTC()) {
				return core.NewValidationError(errPastStart, core.FieldError{Field: "starts_at", Error: errPastStart.Error()})
			}
			if err = svc.checkConflicts(ctx, exec, d.TribunalID, d.Room, d.StartsAt, d.DurationMins, d.ID); err != nil {
				return err
			}
		}

		d.UpdatedAt = time.Now().UTC()
		if d, err = svc.repo.UpdateDefense(ctx, d, exec); err != nil {
			return err
		}

		if th, err = svc.thRepo.GetThesis(ctx, d.ThesisID, exec); err != nil {
			return err
		}
		trib, err = svc.tribRepo.GetTribunal(ctx, d.TribunalID, exec)
		return err
	})
	if err != nil {
		return Defense{}, err
	}

	if slotChanged {
		svc.notifyDefense(core.EventDefenseRescheduled, "Defense rescheduled", d, th, trib)
	}
	return d, nil
}

// ChangeState moves a defense to completed or cancelled, both terminal.
// Completing makes the defense gradable; the owning thesis is only marked
// defended once grading finalizes. Cancelling frees the slot immediately and
// detaches the defense from its thesis.
func (svc *Service) ChangeState(ctx context.Context, id string, sc StateChange) (Defense, error) {
	if err := sc.Validate(); err != nil {
		return Defense{}, err
	}

	var (
		d    Defense
		th   thesis.Thesis
		trib tribunal.Tribunal
	)
	err := svc.db.RunInTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if d, err = svc.repo.GetDefenseForUpdate(ctx, id, exec); err != nil {
			return err
		}
		if err = StateTable.Transition("defense", d.Status, sc.Target); err != nil {
			return err
		}
		if sc.Target == StatusCancelled && !d.StartsAt.After(time.Now().UTC()) {
			return core.NewValidationError(errCancelPast)
		}

		d.Status = sc.Target
		if sc.Comment != "" {
			if d.Observations != "" {
				d.Observations += "\n"
			}
			d.Observations += sc.Comment
		}
		d.UpdatedAt = time.Now().UTC()
		if d, err = svc.repo.UpdateDefense(ctx, d, exec); err != nil {
			return err
		}

		if th, err = svc.thRepo.GetThesis(ctx, d.ThesisID, exec); err != nil {
			return err
		}
		trib, err = svc.tribRepo.GetTribunal(ctx, d.TribunalID, exec)
		return err
	})
	if err != nil {
		return Defense{}, err
	}

	if d.Status == StatusCancelled {
		svc.notifyDefense(core.EventDefenseCancelled, "Defense cancelled", d, th, trib)
	}
	return d, nil
}

// Cancel withdraws a scheduled, future defense. The tribunal/room slot is
// free for rebooking as soon as the transaction commits.
func (svc *Service) Cancel(ctx context.Context, id string) error {
	_, err := svc.ChangeState(ctx, id, StateChange{Target: StatusCancelled})
	return err
}

func (svc *Service) notifyDefense(event core.EventType, subject string, d Defense, th thesis.Thesis, trib tribunal.Tribunal) {
	recipients := make([]core.Recipient, 0, 6)
	recipients = append(recipients, core.Recipient{PersonID: th.StudentID})
	for _, id := range trib.MemberIDs() {
		recipients = append(recipients, core.Recipient{PersonID: id})
	}

	n := core.NewNotification(event, subject, recipients...)
	n.BodyStr = fmt.Sprintf(
		"%s: thesis %q, tribunal %q, room %s, %s (%d min)",
		subject, th.Title, trib.Name, d.Room, d.StartsAt.Format(time.RFC1123), d.DurationMins,
	)
	n.TemplateName = string(event)
	n.TemplateData = map[string]interface{}{
		"Defense":  d,
		"Thesis":   th,
		"Tribunal": trib,
	}
	svc.notifSvc.Send(n)
}
