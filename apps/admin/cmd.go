package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/progress"
	"github.com/trezcool/ratiba/core/user"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf        *core.Config
	db          *sqlx.DB
	validate    *validator.Validate
	usrSvc      user.Service
	progressSvc progress.Service
	out         io.Writer
}

func (cli *commandLine) stdout() io.Writer {
	if cli.out == nil {
		return os.Stdout
	}
	return cli.out
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, version, redo...)")
	fmt.Println("  adduser -name NAME -email EMAIL - create a user")
	fmt.Println("  token -email EMAIL - print a bearer token for a user")
	fmt.Println("  autolog [-date YYYY-MM-DD] - log the day's scheduled study time of every active user")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserName := addUserCmd.String("name", "", "The user's display name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email address.")

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenEmail := tokenCmd.String("email", "", "The email of the user to issue a token for.")

	autoLogCmd := flag.NewFlagSet("autolog", flag.ContinueOnError)
	autoLogDate := autoLogCmd.String("date", "", "The day to log (YYYY-MM-DD). Defaults to today.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserEmail)
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenEmail == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(*tokenEmail)
	case "autolog":
		if err := autoLogCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.autoLog(*autoLogDate)
	default:
		cli.printUsage()
		return errHelp
	}
}
