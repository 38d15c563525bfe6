package thesis

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/tfgestor/backend/core"
)

var (
	// errors
	ErrNotFound = errors.New("thesis not found")
)

type (
	Repository interface {
		CreateThesis(ctx context.Context, th Thesis, exec ...core.DBExecutor) (Thesis, error)
		GetThesis(ctx context.Context, id string, exec ...core.DBExecutor) (Thesis, error)
		// GetThesisForUpdate locks the thesis row for the duration of the
		// surrounding transaction.
		GetThesisForUpdate(ctx context.Context, id string, exec ...core.DBExecutor) (Thesis, error)
		UpdateThesis(ctx context.Context, th Thesis, exec ...core.DBExecutor) (Thesis, error)
	}

	Service struct {
		db   core.Transactor
		repo Repository
	}
)

func NewService(db core.Transactor, repo Repository) *Service {
	return &Service{db: db, repo: repo}
}

func (svc *Service) Create(ctx context.Context, nt NewThesis) (Thesis, error) {
	now := time.Now().UTC()
	th := Thesis{
		Title:       nt.Title,
		Description: nt.Description,
		Abstract:    nt.Abstract,
		Keywords:    nt.Keywords,
		StudentID:   nt.StudentID,
		TutorID:     null.NewString(nt.TutorID, nt.TutorID != ""),
		CoTutorID:   null.NewString(nt.CoTutorID, nt.CoTutorID != ""),
		Status:      StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateThesis(ctx, th)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Thesis, error) {
	return svc.repo.GetThesis(ctx, id)
}

// ChangeState moves a thesis along its lifecycle. Entering `defended` also
// stamps the completion date; that transition normally happens through grade
// finalization, which owns the final-grade write.
func (svc *Service) ChangeState(ctx context.Context, id, target string) (Thesis, error) {
	var th Thesis
	err := svc.db.RunInTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if th, err = svc.repo.GetThesisForUpdate(ctx, id, exec); err != nil {
			return err
		}
		if err = StateTable.Transition("thesis", th.Status, target); err != nil {
			return err
		}
		th.Status = target
		if target == StatusDefended {
			th.CompletedAt = null.TimeFrom(time.Now().UTC())
		}
		th.UpdatedAt = time.Now().UTC()
		th, err = svc.repo.UpdateThesis(ctx, th, exec)
		return err
	})
	if err != nil {
		return Thesis{}, err
	}
	return th, nil
}
