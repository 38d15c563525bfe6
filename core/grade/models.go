package grade

import (
	"errors"
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/tfgestor/backend/core"
)

// Quorum is the number of submitted grades (one per voting member) required
// to finalize a thesis's final grade.
const Quorum = 3

var errNoSubScores = errors.New("at least one sub-score is required")

type Grade struct {
	ID          string       `json:"id"`
	DefenseID   string       `json:"defense_id"`
	EvaluatorID string       `json:"evaluator_id"`
	// sub-scores, each 0-10; an omitted sub-score is excluded from the
	// composite, not treated as zero
	Presentation null.Float64 `json:"presentation"`
	Content      null.Float64 `json:"content"`
	Performance  null.Float64 `json:"performance"`
	Composite    float64      `json:"composite"`
	Comments     string       `json:"comments"`
	CreatedAt    time.Time    `json:"created_at"` // UTC
}

// Composite averages the sub-scores that are set. ok is false when none are.
func Composite(scores ...null.Float64) (float64, bool) {
	var sum float64
	var n int
	for _, s := range scores {
		if s.Valid {
			sum += s.Float64
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// DuplicateGradeError indicates the evaluator already graded this defense.
// Grades are never mutated after creation; resubmission is rejected.
type DuplicateGradeError struct {
	DefenseID   string
	EvaluatorID string
}

func (err DuplicateGradeError) Error() string {
	return fmt.Sprintf("evaluator %s has already graded defense %s", err.EvaluatorID, err.DefenseID)
}

// NewGrade contains one evaluator's submission for a completed defense.
type NewGrade struct {
	EvaluatorID  string   `json:"evaluator_id" validate:"required"`
	Presentation *float64 `json:"presentation" validate:"omitempty,gte=0,lte=10"`
	Content      *float64 `json:"content" validate:"omitempty,gte=0,lte=10"`
	Performance  *float64 `json:"performance" validate:"omitempty,gte=0,lte=10"`
	Comments     string   `json:"comments"`
}

func (ng *NewGrade) Validate() error {
	ng.Comments = core.CleanString(ng.Comments)

	if err := core.Validate.Struct(ng); err != nil {
		return err
	}
	if ng.Presentation == nil && ng.Content == nil && ng.Performance == nil {
		return core.NewValidationError(errNoSubScores, core.FieldError{Field: "presentation", Error: errNoSubScores.Error()})
	}
	return nil
}
