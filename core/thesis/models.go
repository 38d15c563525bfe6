package thesis

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/tfgestor/backend/core"
)

// Thesis states
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusReview    = "review"
	StatusApproved  = "approved"
	StatusDefended  = "defended"
	StatusRejected  = "rejected"
)

// StateTable drives every thesis state write. `defended` and `rejected` are
// terminal; `defended` is only ever entered by grade finalization.
var StateTable = core.StateTable{
	StatusDraft:     {StatusSubmitted},
	StatusSubmitted: {StatusReview},
	StatusReview:    {StatusApproved, StatusRejected},
	StatusApproved:  {StatusDefended},
}

type Thesis struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Abstract    string       `json:"abstract"`
	Keywords    []string     `json:"keywords"`
	StudentID   string       `json:"student_id"`
	TutorID     null.String  `json:"tutor_id"`
	CoTutorID   null.String  `json:"co_tutor_id"`
	Status      string       `json:"status"`
	FinalGrade  null.Float64 `json:"final_grade"`
	CompletedAt null.Time    `json:"completed_at"` // UTC
	CreatedAt   time.Time    `json:"created_at"`   // UTC
	UpdatedAt   time.Time    `json:"updated_at"`   // UTC
}

// CanScheduleDefense reports whether the thesis is eligible for defense
// scheduling; a defense may exist only for an approved thesis.
func (t *Thesis) CanScheduleDefense() bool {
	return t.Status == StatusApproved
}

// NewThesis contains information needed to register a new Thesis.
type NewThesis struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Abstract    string   `json:"abstract"`
	Keywords    []string `json:"keywords" validate:"omitempty,dive,required"`
	StudentID   string   `json:"student_id" validate:"required"`
	TutorID     string   `json:"tutor_id"`
	CoTutorID   string   `json:"co_tutor_id"`
}

func (nt *NewThesis) Validate() error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	nt.Abstract = core.CleanString(nt.Abstract)
	for i, kw := range nt.Keywords {
		nt.Keywords[i] = core.CleanString(kw, true /* lower */)
	}
	return core.Validate.Struct(nt)
}

// StateChange asks for a thesis state transition.
type StateChange struct {
	Target string `json:"target" validate:"required"`
}

func (sc *StateChange) Validate() error {
	sc.Target = core.CleanString(sc.Target, true /* lower */)
	return core.Validate.Struct(sc)
}
