package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tfgestor/backend/core/tribunal"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db       *sqlx.DB
	tribRepo tribunal.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a database migration command (up, down, status, ...)")
	fmt.Println("  addtribunal -name NAME -president ID -secretary ID -vocal ID [-alternate1 ID] [-alternate2 ID] - form a new tribunal")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addTribunalCmd := flag.NewFlagSet("addtribunal", flag.ExitOnError)
	addTribunalName := addTribunalCmd.String("name", "", "The tribunal's display name.")
	addTribunalPresident := addTribunalCmd.String("president", "", "The president's person id.")
	addTribunalSecretary := addTribunalCmd.String("secretary", "", "The secretary's person id.")
	addTribunalVocal := addTribunalCmd.String("vocal", "", "The vocal's person id.")
	addTribunalAlternate1 := addTribunalCmd.String("alternate1", "", "The first alternate's person id (optional).")
	addTribunalAlternate2 := addTribunalCmd.String("alternate2", "", "The second alternate's person id (optional).")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addtribunal":
		if err := addTribunalCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addTribunalName == "" || *addTribunalPresident == "" || *addTribunalSecretary == "" || *addTribunalVocal == "" {
			addTribunalCmd.Usage()
			return errHelp
		}
		return cli.addTribunal(
			*addTribunalName,
			*addTribunalPresident, *addTribunalSecretary, *addTribunalVocal,
			*addTribunalAlternate1, *addTribunalAlternate2,
		)
	default:
		cli.printUsage()
		return errHelp
	}
}
