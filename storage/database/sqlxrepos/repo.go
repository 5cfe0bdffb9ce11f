package sqlxrepos

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

// repository holds what every sqlx repository shares. Queries are written with `?`
// placeholders and rebound for the executor's driver.
type repository struct {
	db core.DB
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.db
}

// trapNoRowsErr maps "no rows" to notFound.
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// mustAffect returns notFound when res touched no rows.
func mustAffect(res sql.Result, err, notFound error, msg string) error {
	if err != nil {
		return errors.Wrap(err, msg)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, msg)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// orderBy renders ordering through columns, which maps ordering fields to SQL columns.
// Unknown fields are dropped; fallback always closes the list.
func orderBy(ordering []core.DBOrdering, columns map[string]string, fallback string) string {
	list := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if col, ok := columns[ord.Field]; ok {
			list = append(list, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	list = append(list, fallback)
	return " ORDER BY " + strings.Join(list, ", ")
}

func paginate(page core.Pagination) string {
	page.Clean()
	return fmt.Sprintf(" LIMIT %d OFFSET %d", page.Limit, page.Offset)
}

// where accumulates AND-ed conditions and their arguments.
type where struct {
	conds []string
	args  []interface{}
}

func newWhere(cond string, args ...interface{}) *where {
	w := new(where)
	return w.and(cond, args...)
}

func (w *where) and(cond string, args ...interface{}) *where {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
	return w
}

func (w *where) String() string {
	return " WHERE " + strings.Join(w.conds, " AND ")
}
