package defense

import (
	"time"

	"github.com/tfgestor/backend/core"
)

// Defense states
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// StateTable drives every defense state write. `completed` and `cancelled`
// are terminal.
var StateTable = core.StateTable{
	StatusScheduled: {StatusCompleted, StatusCancelled},
}

// DefaultDurationMins is used when the scheduler does not provide a duration.
const DefaultDurationMins = 30

type Defense struct {
	ID               string    `json:"id"`
	ThesisID         string    `json:"thesis_id"`
	TribunalID       string    `json:"tribunal_id"`
	StartsAt         time.Time `json:"starts_at"` // UTC
	DurationMins     int       `json:"duration_mins"`
	Room             string    `json:"room"`
	Status           string    `json:"status"`
	Observations     string    `json:"observations"`
	MinutesGenerated bool      `json:"minutes_generated"`
	CreatedAt        time.Time `json:"created_at"` // UTC
	UpdatedAt        time.Time `json:"updated_at"` // UTC
}

func (d *Defense) EndsAt() time.Time {
	return d.StartsAt.Add(time.Duration(d.DurationMins) * time.Minute)
}

// Overlaps reports whether two half-open windows [start, start+duration)
// intersect. A defense ending exactly when another starts does not overlap.
// Durations are minutes; non-positive durations are rejected by callers at
// the edge, not here.
func Overlaps(startA time.Time, durationA int, startB time.Time, durationB int) bool {
	endA := startA.Add(time.Duration(durationA) * time.Minute)
	endB := startB.Add(time.Duration(durationB) * time.Minute)
	return startA.Before(endB) && startB.Before(endA)
}

// NewDefense contains information needed to schedule a new Defense.
type NewDefense struct {
	ThesisID     string    `json:"thesis_id" validate:"required"`
	TribunalID   string    `json:"tribunal_id" validate:"required"`
	StartsAt     time.Time `json:"starts_at" validate:"required,future"`
	DurationMins int       `json:"duration_mins" validate:"omitempty,gt=0,lte=480"`
	Room         string    `json:"room" validate:"required"`
	Observations string    `json:"observations"`
}

func (nd *NewDefense) Validate() error {
	nd.Room = core.CleanString(nd.Room)
	nd.Observations = core.CleanString(nd.Observations)
	nd.StartsAt = nd.StartsAt.UTC()
	if nd.DurationMins == 0 {
		nd.DurationMins = DefaultDurationMins
	}
	return core.Validate.Struct(nd)
}

// UpdateDefense defines what may be modified on a scheduled Defense. Zero
// values mean "keep the current value".
type UpdateDefense struct {
	StartsAt     time.Time `json:"starts_at" validate:"omitempty,future"`
	DurationMins int       `json:"duration_mins" validate:"omitempty,gt=0,lte=480"`
	Room         string    `json:"room"`
	Observations *string   `json:"observations"`
}

// Validate cleans the input and resolves it against the current defense,
// returning the merged result and whether any slot field (time, duration or
// room) changed. Slot changes re-run the full conflict pass.
func (ud *UpdateDefense) Validate(orig Defense) (Defense, bool, error) {
	ud.Room = core.CleanString(ud.Room)
	if !ud.StartsAt.IsZero() {
		ud.StartsAt = ud.StartsAt.UTC()
	}
	if err := core.Validate.Struct(ud); err != nil {
		return Defense{}, false, err
	}

	merged := orig
	var slotChanged bool
	if !ud.StartsAt.IsZero() && !ud.StartsAt.Equal(orig.StartsAt) {
		merged.StartsAt = ud.StartsAt
		slotChanged = true
	}
	if ud.DurationMins != 0 && ud.DurationMins != orig.DurationMins {
		merged.DurationMins = ud.DurationMins
		slotChanged = true
	}
	if ud.Room != "" && ud.Room != orig.Room {
		merged.Room = ud.Room
		slotChanged = true
	}
	if ud.Observations != nil {
		merged.Observations = core.CleanString(*ud.Observations)
	}
	return merged, slotChanged, nil
}

// StateChange asks for a defense state transition.
type StateChange struct {
	Target  string `json:"target" validate:"required"`
	Comment string `json:"comment"`
}

func (sc *StateChange) Validate() error {
	sc.Target = core.CleanString(sc.Target, true /* lower */)
	sc.Comment = core.CleanString(sc.Comment)
	return core.Validate.Struct(sc)
}
