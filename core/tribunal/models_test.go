package tribunal

import (
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/tfgestor/backend/core"
)

func TestTribunal_IsVotingMember(t *testing.T) {
	trib := Tribunal{
		PresidentID:  "p1",
		SecretaryID:  "s1",
		VocalID:      "v1",
		Alternate1ID: null.StringFrom("a1"),
	}

	tests := []struct {
		name     string
		personID string
		want     bool
	}{
		{name: "president", personID: "p1", want: true},
		{name: "secretary", personID: "s1", want: true},
		{name: "vocal", personID: "v1", want: true},
		{name: "alternate never votes", personID: "a1", want: false},
		{name: "stranger", personID: "x1", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trib.IsVotingMember(tt.personID); got != tt.want {
				t.Errorf("IsVotingMember(%q) = %v, want %v", tt.personID, got, tt.want)
			}
		})
	}
}

func TestTribunal_RoleOf(t *testing.T) {
	trib := Tribunal{
		PresidentID:  "p1",
		SecretaryID:  "s1",
		VocalID:      "v1",
		Alternate2ID: null.StringFrom("a2"),
	}

	if role, ok := trib.RoleOf("s1"); !ok || role != RoleSecretary {
		t.Errorf("RoleOf(s1) = %v, %v", role, ok)
	}
	if role, ok := trib.RoleOf("a2"); !ok || role != RoleAlternate2 {
		t.Errorf("RoleOf(a2) = %v, %v", role, ok)
	}
	if _, ok := trib.RoleOf("x1"); ok {
		t.Error("RoleOf(x1) ok = true, want false")
	}
}

func TestTribunal_MemberIDs(t *testing.T) {
	trib := Tribunal{PresidentID: "p1", SecretaryID: "s1", VocalID: "v1"}
	if got := len(trib.MemberIDs()); got != 3 {
		t.Errorf("len(MemberIDs()) = %d, want 3", got)
	}

	trib.Alternate1ID = null.StringFrom("a1")
	trib.Alternate2ID = null.StringFrom("a2")
	if got := len(trib.MemberIDs()); got != 5 {
		t.Errorf("len(MemberIDs()) = %d, want 5", got)
	}
	if got := len(trib.VotingMemberIDs()); got != 3 {
		t.Errorf("len(VotingMemberIDs()) = %d, want 3", got)
	}
}

func TestNewTribunal_Validate(t *testing.T) {
	valid := NewTribunal{
		Name:        "Tribunal A",
		PresidentID: "p1",
		SecretaryID: "s1",
		VocalID:     "v1",
	}

	t.Run("valid", func(t *testing.T) {
		nt := valid
		if err := nt.Validate(); err != nil {
			t.Errorf("Validate() unexpected error = %v", err)
		}
	})

	t.Run("valid with alternates", func(t *testing.T) {
		nt := valid
		nt.Alternate1ID = "a1"
		nt.Alternate2ID = "a2"
		if err := nt.Validate(); err != nil {
			t.Errorf("Validate() unexpected error = %v", err)
		}
	})

	t.Run("missing required member", func(t *testing.T) {
		nt := valid
		nt.VocalID = ""
		if err := nt.Validate(); err == nil {
			t.Error("Validate() expected error, got nil")
		}
	})

	t.Run("duplicate members", func(t *testing.T) {
		nt := valid
		nt.VocalID = "p1"
		err := nt.Validate()
		if err == nil {
			t.Fatal("Validate() expected error, got nil")
		}
		vErr, ok := err.(*core.ValidationError)
		if !ok {
			t.Fatalf("Validate() error type = %T, want *core.ValidationError", err)
		}
		if len(vErr.Fields) == 0 || vErr.Fields[0].Field != "members" {
			t.Errorf("Validate() fields = %+v", vErr.Fields)
		}
	})

	t.Run("duplicate alternate", func(t *testing.T) {
		nt := valid
		nt.Alternate1ID = "s1"
		if err := nt.Validate(); err == nil {
			t.Error("Validate() expected error, got nil")
		}
	})
}
