package core

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type (
	DBExecutor interface {
		sqlx.ExtContext

		Exec(query string, args ...interface{}) (sql.Result, error)
		Query(query string, args ...interface{}) (*sql.Rows, error)
		QueryRow(query string, args ...interface{}) *sql.Row
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}

	DB interface {
		DBExecutor

		BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	}
)

var (
	_ DBExecutor = (*sqlx.Tx)(nil)
	_ DB         = (*sqlx.DB)(nil)
)

// RunInTx runs fn inside a transaction, committing on success and rolling back on error.
// A rollback that fails on a live context leaves the connection in an unknown state and is
// reported as a shutdown error.
func RunInTx(ctx context.Context, db DB, fn func(tx DBExecutor) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			if ctx.Err() != nil { // already rolled back by database/sql
				return err
			}
			return NewShutdownError(fmt.Sprintf("rolling back transaction: %v (cause: %v)", rbErr, err))
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// CheckOrdering rejects orderings on fields outside allowed.
func CheckOrdering(ordering []DBOrdering, allowed []string) error {
	for _, ord := range ordering {
		ok := false
		for _, field := range allowed {
			if ord.Field == field {
				ok = true
				break
			}
		}
		if !ok {
			msg := fmt.Sprintf("cannot order by %q; use one of %s", ord.Field, strings.Join(allowed, ", "))
			return NewValidationError(errors.New(msg), FieldError{Field: "ordering", Error: msg})
		}
	}
	return nil
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

type Pagination struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// Clean clamps the pagination into a usable window.
func (p *Pagination) Clean() {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	} else if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}
