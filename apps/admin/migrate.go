package main

import "github.com/trezcool/ratiba/storage/database"

var gooseRunFunc = database.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db.DB, cli.conf.Database.Engine, arguments...)
}
