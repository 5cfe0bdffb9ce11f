package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/ratiba/core"
)

var orderingParam = "ordering"

// Ordering is bound from `?ordering=field,-other`; a leading "-" sorts descending.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

func bindPagination(ctx echo.Context) (core.Pagination, error) {
	var page core.Pagination
	limit, err := queryInt(ctx, "limit")
	if err != nil {
		return page, err
	}
	offset, err := queryInt(ctx, "offset")
	if err != nil {
		return page, err
	}
	if limit != nil {
		page.Limit = *limit
	}
	if offset != nil {
		page.Offset = *offset
	}
	page.Clean()
	return page, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(ctx echo.Context, name string) (*bool, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: name, Error: "must be a boolean"})
	}
	return &b, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(ctx echo.Context, name string) (*int, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: name, Error: "must be an integer"})
	}
	return &i, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter; a zero Date means absent.
func queryDate(ctx echo.Context, name string) (core.Date, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, core.NewValidationError(err, core.FieldError{Field: name, Error: err.Error()})
	}
	return d, nil
}

// dateOrToday reads the optional "date" query parameter, defaulting to today's date.
func dateOrToday(ctx echo.Context, conf *core.Config) (core.Date, error) {
	d, err := queryDate(ctx, "date")
	if err != nil || !d.IsZero() {
		return d, err
	}
	return conf.Today(), nil
}
