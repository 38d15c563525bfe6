package grade

import (
	"context"
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/tfgestor/backend/core"
	"github.com/tfgestor/backend/core/defense"
	"github.com/tfgestor/backend/core/thesis"
	"github.com/tfgestor/backend/core/tribunal"
)

var (
	errDefenseNotCompleted = "defense is not completed"
	errNotVotingMember     = "evaluator is not a voting member of the tribunal"
)

type (
	Repository interface {
		// CreateGrade inserts a grade; at most one row may exist per
		// (defense, evaluator), backed by a uniqueness constraint. A
		// violation surfaces as *DuplicateGradeError.
		CreateGrade(ctx context.Context, grd Grade, exec ...core.DBExecutor) (Grade, error)
		QueryGradesByDefense(ctx context.Context, defenseID string, exec ...core.DBExecutor) ([]Grade, error)
	}

	// Service is the grade aggregation engine: it accepts one submission per
	// voting member per defense and finalizes the thesis grade exactly once
	// when quorum is reached.
	Service struct {
		db       core.Transactor
		repo     Repository
		defRepo  defense.Repository
		thRepo   thesis.Repository
		tribRepo tribunal.Repository
		notifSvc core.NotificationService
	}
)

func NewService(
	db core.Transactor,
	repo Repository,
	defRepo defense.Repository,
	thRepo thesis.Repository,
	tribRepo tribunal.Repository,
	notifSvc core.NotificationService,
) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		defRepo:  defRepo,
		thRepo:   thRepo,
		tribRepo: tribRepo,
		notifSvc: notifSvc,
	}
}

func (svc *Service) QueryByDefense(ctx context.Context, defenseID string) ([]Grade, error) {
	return svc.repo.QueryGradesByDefense(ctx, defenseID)
}

// Submit records an evaluator's grade for a completed defense. The insert,
// the quorum count and the conditional finalization run in one atomic unit
// with the defense row locked, so at most one submission observes the quorum
// and writes the thesis final grade. Different defenses grade in parallel.
func (svc *Service) Submit(ctx context.Context, defenseID string, ng NewGrade) (Grade, error) {
	if err := ng.Validate(); err != nil {
		return Grade{}, err
	}

	var (
		grd       Grade
		th        thesis.Thesis
		finalized bool
	)
	err := svc.db.RunInTx(ctx, func(exec core.DBExecutor) error {
		// the row lock serializes concurrent submissions for this defense
		d, err := svc.defRepo.GetDefenseForUpdate(ctx, defenseID, exec)
		if err != nil {
			return err
		}
		if d.Status != defense.StatusCompleted {
			return core.NewPreconditionError(errDefenseNotCompleted)
		}

		trib, err := svc.tribRepo.GetTribunal(ctx, d.TribunalID, exec)
		if err != nil {
			return err
		}
		if !trib.IsVotingMember(ng.EvaluatorID) {
			return core.NewPreconditionError(errNotVotingMember)
		}

		existing, err := svc.repo.QueryGradesByDefense(ctx, defenseID, exec)
		if err != nil {
			return err
		}
		for _, g := range existing {
			if g.EvaluatorID == ng.EvaluatorID {
				return &DuplicateGradeError{DefenseID: defenseID, EvaluatorID: ng.EvaluatorID}
			}
		}

		grd = Grade{
			DefenseID:    defenseID,
			EvaluatorID:  ng.EvaluatorID,
			Presentation: null.Float64FromPtr(ng.Presentation),
			Content:      null.Float64FromPtr(ng.Content),
			Performance:  null.Float64FromPtr(ng.Performance),
			Comments:     ng.Comments,
			CreatedAt:    time.Now().UTC(),
		}
		grd.Composite, _ = Composite(grd.Presentation, grd.Content, grd.Performance)
		if grd, err = svc.repo.CreateGrade(ctx, grd, exec); err != nil {
			return err
		}

		// quorum cannot be exceeded: alternates are rejected above and
		// duplicates never insert
		if len(existing)+1 < Quorum {
			return nil
		}

		sum := grd.Composite
		for _, g := range existing {
			sum += g.Composite
		}
		final := sum / float64(Quorum)

		if th, err = svc.thRepo.GetThesisForUpdate(ctx, d.ThesisID, exec); err != nil {
			return err
		}
		if err = thesis.StateTable.Transition("thesis", th.Status, thesis.StatusDefended); err != nil {
			return err
		}
		now := time.Now().UTC()
		th.Status = thesis.StatusDefended
		th.FinalGrade = null.Float64From(final)
		th.CompletedAt = null.TimeFrom(now)
		th.UpdatedAt = now
		if th, err = svc.thRepo.UpdateThesis(ctx, th, exec); err != nil {
			return err
		}
		finalized = true
		return nil
	})
	if err != nil {
		return Grade{}, err
	}

	if finalized {
		svc.notifyPublished(th)
	}
	return grd, nil
}

func (svc *Service) notifyPublished(th thesis.Thesis) {
	recipients := []core.Recipient{{PersonID: th.StudentID}}
	if th.TutorID.Valid {
		recipients = append(recipients, core.Recipient{PersonID: th.TutorID.String})
	}

	n := core.NewNotification(core.EventGradePublished, "Final grade published", recipients...)
	n.BodyStr = fmt.Sprintf("The final grade for thesis %q has been published: %.1f", th.Title, core.Round1(th.FinalGrade.Float64))
	n.TemplateName = string(core.EventGradePublished)
	n.TemplateData = map[string]interface{}{"Thesis": th}
	svc.notifSvc.Send(n)
}
