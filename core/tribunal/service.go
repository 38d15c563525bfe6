package tribunal

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/tfgestor/backend/core"
)

var (
	// errors
	ErrNotFound = errors.New("tribunal not found")
)

type (
	Repository interface {
		CreateTribunal(ctx context.Context, trib Tribunal, exec ...core.DBExecutor) (Tribunal, error)
		GetTribunal(ctx context.Context, id string, exec ...core.DBExecutor) (Tribunal, error)
		QueryAllTribunals(ctx context.Context, exec ...core.DBExecutor) ([]Tribunal, error)
		UpdateTribunal(ctx context.Context, trib Tribunal, exec ...core.DBExecutor) (Tribunal, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nt NewTribunal) (Tribunal, error) {
	now := time.Now().UTC()
	trib := Tribunal{
		Name:         nt.Name,
		IsActive:     true,
		PresidentID:  nt.PresidentID,
		SecretaryID:  nt.SecretaryID,
		VocalID:      nt.VocalID,
		Alternate1ID: null.NewString(nt.Alternate1ID, nt.Alternate1ID != ""),
		Alternate2ID: null.NewString(nt.Alternate2ID, nt.Alternate2ID != ""),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateTribunal(ctx, trib)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Tribunal, error) {
	return svc.repo.GetTribunal(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Tribunal, error) {
	return svc.repo.QueryAllTribunals(ctx)
}

// SetActive toggles whether the tribunal may be booked for new defenses.
func (svc *Service) SetActive(ctx context.Context, id string, active bool) (Tribunal, error) {
	trib, err := svc.repo.GetTribunal(ctx, id)
	if err != nil {
		return Tribunal{}, err
	}
	trib.IsActive = active
	trib.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTribunal(ctx, trib)
}
