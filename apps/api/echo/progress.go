package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/progress"
)

type progressApi struct {
	svc      progress.Service
	conf     *core.Config
	validate *validator.Validate
}

func registerProgressAPI(g *echo.Group, svc progress.Service, conf *core.Config, validate *validator.Validate) {
	api := progressApi{svc: svc, conf: conf, validate: validate}

	pg := g.Group("/progress")
	pg.GET("", api.query)
	pg.POST("", api.log)
	pg.GET("/overview", api.overview)
	pg.GET("/subject/:id", api.subjectStats)
	pg.POST("/auto-log-today", api.autoLog)

	// detail endpoints
	pg.GET("/:id", api.retrieve)
	pg.PUT("/:id", api.update)
	pg.DELETE("/:id", api.destroy)
}

// log answers 201 for a new entry and 200 when the hours were folded into an existing one.
func (api *progressApi) log(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data progress.NewEntry
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	entry, created, err := api.svc.Log(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "logging progress")
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	return ctx.JSON(code, entry)
}

func (api *progressApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	filter := progress.QueryFilter{SubjectID: ctx.QueryParam("subject_id")}
	if filter.From, err = queryDate(ctx, "from"); err != nil {
		return err
	}
	if filter.To, err = queryDate(ctx, "to"); err != nil {
		return err
	}
	page, err := bindPagination(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)
	filter.Ordering = ordering.Orderings

	entries, err := api.svc.Query(ctx.Request().Context(), usr.ID, filter, page)
	if err != nil {
		return errors.Wrap(err, "querying progress")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *progressApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	entry, err := api.svc.Get(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting progress entry")
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *progressApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data progress.UpdateEntry
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEntry")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	entry, err := api.svc.Update(ctx.Request().Context(), usr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating progress entry")
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *progressApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), usr.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting progress entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *progressApi) overview(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	ov, err := api.svc.Overview(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "building overview")
	}
	return ctx.JSON(http.StatusOK, ov)
}

func (api *progressApi) subjectStats(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	detail, err := api.svc.SubjectStats(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "building subject stats")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *progressApi) autoLog(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	day, err := dateOrToday(ctx, api.conf)
	if err != nil {
		return err
	}

	res, err := api.svc.AutoLogDay(ctx.Request().Context(), usr.ID, day)
	if err != nil {
		return errors.Wrap(err, "auto-logging day")
	}
	return ctx.JSON(http.StatusOK, res)
}
