package main

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/tfgestor/backend/core/tribunal"
)

// addTribunal validates and persists a new tribunal.
func (cli *commandLine) addTribunal(name, presidentID, secretaryID, vocalID, alternate1ID, alternate2ID string) error {
	nt := tribunal.NewTribunal{
		Name:         name,
		PresidentID:  presidentID,
		SecretaryID:  secretaryID,
		VocalID:      vocalID,
		Alternate1ID: alternate1ID,
		Alternate2ID: alternate2ID,
	}
	if err := nt.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	trib := tribunal.Tribunal{
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
	_, err := cli.tribRepo.CreateTribunal(context.Background(), trib)
	return err
}
