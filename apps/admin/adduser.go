package main

import (
	"context"
	"fmt"

	echoapi "github.com/trezcool/ratiba/apps/api/echo"
	"github.com/trezcool/ratiba/core/user"
)

func (cli *commandLine) addUser(name, email string) error {
	nu := user.NewUser{Name: name, Email: email}
	if err := nu.Validate(cli.validate); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Create(context.Background(), nu)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.stdout(), "user %s created: %s\n", usr.Email, usr.ID)
	return nil
}

// token prints a bearer token for an active user.
func (cli *commandLine) token(email string) error {
	usr, err := cli.usrSvc.GetByEmail(context.Background(), email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return fmt.Errorf("user %s is deactivated", usr.Email)
	}
	tkn, err := echoapi.GenerateToken(cli.conf, echoapi.GetUserClaims(cli.conf, usr))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cli.stdout(), tkn)
	return nil
}
