package grade

import (
	"math"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/tfgestor/backend/core"
)

func TestComposite(t *testing.T) {
	tests := []struct {
		name   string
		scores []null.Float64
		want   float64
		wantOk bool
	}{
		{
			name:   "all set",
			scores: []null.Float64{null.Float64From(8), null.Float64From(9), null.Float64From(7)},
			want:   8, wantOk: true,
		},
		{
			name:   "one omitted",
			scores: []null.Float64{null.Float64From(6), null.Float64From(8), {}},
			want:   7, wantOk: true,
		},
		{
			name:   "single score",
			scores: []null.Float64{{}, null.Float64From(5.5), {}},
			want:   5.5, wantOk: true,
		},
		{
			name:   "none set",
			scores: []null.Float64{{}, {}, {}},
			want:   0, wantOk: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Composite(tt.scores...)
			if ok != tt.wantOk {
				t.Fatalf("Composite() ok = %v, want %v", ok, tt.wantOk)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Composite() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewGrade_Validate(t *testing.T) {
	score := func(v float64) *float64 { return &v }

	t.Run("valid", func(t *testing.T) {
		ng := NewGrade{EvaluatorID: "ev1", Presentation: score(8), Content: score(7.5)}
		if err := ng.Validate(); err != nil {
			t.Errorf("Validate() unexpected error = %v", err)
		}
	})

	t.Run("missing evaluator", func(t *testing.T) {
		ng := NewGrade{Presentation: score(8)}
		if err := ng.Validate(); err == nil {
			t.Error("Validate() expected error, got nil")
		}
	})

	t.Run("no sub-scores", func(t *testing.T) {
		ng := NewGrade{EvaluatorID: "ev1"}
		err := ng.Validate()
		if err == nil {
			t.Fatal("Validate() expected error, got nil")
		}
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("Validate() error type = %T, want *core.ValidationError", err)
		}
	})

	t.Run("score out of range", func(t *testing.T) {
		ng := NewGrade{EvaluatorID: "ev1", Content: score(10.5)}
		if err := ng.Validate(); err == nil {
			t.Error("Validate() expected error for score > 10, got nil")
		}
	})

	t.Run("negative score", func(t *testing.T) {
		ng := NewGrade{EvaluatorID: "ev1", Performance: score(-1)}
		if err := ng.Validate(); err == nil {
			t.Error("Validate() expected error for negative score, got nil")
		}
	})

	t.Run("boundary scores", func(t *testing.T) {
		ng := NewGrade{EvaluatorID: "ev1", Presentation: score(0), Content: score(10)}
		if err := ng.Validate(); err != nil {
			t.Errorf("Validate() unexpected error = %v", err)
		}
	})
}

func TestDuplicateGradeError(t *testing.T) {
	err := &DuplicateGradeError{DefenseID: "d1", EvaluatorID: "ev1"}
	want := "evaluator ev1 has already graded defense d1"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
