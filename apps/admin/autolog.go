package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

func (cli *commandLine) autoLog(date string) error {
	day := cli.conf.Today()
	if date != "" {
		var err error
		if day, err = core.ParseDate(date); err != nil {
			return errors.Wrap(err, "parsing -date")
		}
	}

	results, err := cli.progressSvc.AutoLogAll(context.Background(), day)
	if err != nil {
		return errors.Wrap(err, "auto-logging")
	}
	var total float64
	for _, res := range results {
		total += res.LoggedHours
		_, _ = fmt.Fprintf(cli.stdout(), "%s: %.2fh over %d slots\n", res.UserID, res.LoggedHours, len(res.Outcomes))
	}
	_, _ = fmt.Fprintf(cli.stdout(), "%s: %d users, %.2fh logged\n", day, len(results), total)
	return nil
}
