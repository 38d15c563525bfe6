package tribunal

import (
	"errors"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/tfgestor/backend/core"
)

// Tribunal member roles. Only the president/secretary/vocal triad evaluates;
// alternates are standby members and never vote.
type Role string

const (
	RolePresident  Role = "president"
	RoleSecretary  Role = "secretary"
	RoleVocal      Role = "vocal"
	RoleAlternate1 Role = "alternate1"
	RoleAlternate2 Role = "alternate2"
)

var VotingRoles = []Role{RolePresident, RoleSecretary, RoleVocal}

var errDuplicateMembers = errors.New("all occupied member slots must reference distinct persons")

type Tribunal struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	IsActive     bool        `json:"is_active"`
	PresidentID  string      `json:"president_id"`
	SecretaryID  string      `json:"secretary_id"`
	VocalID      string      `json:"vocal_id"`
	Alternate1ID null.String `json:"alternate1_id"`
	Alternate2ID null.String `json:"alternate2_id"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC
}

// Members returns the occupied slots keyed by role.
func (t *Tribunal) Members() map[Role]string {
	members := map[Role]string{
		RolePresident: t.PresidentID,
		RoleSecretary: t.SecretaryID,
		RoleVocal:     t.VocalID,
	}
	if t.Alternate1ID.Valid {
		members[RoleAlternate1] = t.Alternate1ID.String
	}
	if t.Alternate2ID.Valid {
		members[RoleAlternate2] = t.Alternate2ID.String
	}
	return members
}

func (t *Tribunal) MemberIDs() []string {
	members := t.Members()
	ids := make([]string, 0, len(members))
	for _, id := range members {
		ids = append(ids, id)
	}
	return ids
}

func (t *Tribunal) VotingMemberIDs() []string {
	return []string{t.PresidentID, t.SecretaryID, t.VocalID}
}

// IsVotingMember reports whether the person holds one of the three evaluating
// slots. Alternates do not count.
func (t *Tribunal) IsVotingMember(personID string) bool {
	for _, id := range t.VotingMemberIDs() {
		if id == personID {
			return true
		}
	}
	return false
}

// RoleOf returns the role the person holds on this tribunal, if any.
func (t *Tribunal) RoleOf(personID string) (Role, bool) {
	for role, id := range t.Members() {
		if id == personID {
			return role, true
		}
	}
	return "", false
}

// NewTribunal contains information needed to form a new Tribunal.
type NewTribunal struct {
	Name         string `json:"name" validate:"required"`
	PresidentID  string `json:"president_id" validate:"required"`
	SecretaryID  string `json:"secretary_id" validate:"required"`
	VocalID      string `json:"vocal_id" validate:"required"`
	Alternate1ID string `json:"alternate1_id"`
	Alternate2ID string `json:"alternate2_id"`
}

func (nt *NewTribunal) Validate() error {
	nt.Name = core.CleanString(nt.Name)

	if err := core.Validate.Struct(nt); err != nil {
		return err
	}

	seen := make(map[string]bool, 5)
	for _, id := range []string{nt.PresidentID, nt.SecretaryID, nt.VocalID, nt.Alternate1ID, nt.Alternate2ID} {
		if id == "" {
			continue
		}
		if seen[id] {
			return core.NewValidationError(errDuplicateMembers, core.FieldError{Field: "members", Error: errDuplicateMembers.Error()})
		}
		seen[id] = true
	}
	return nil
}
