package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/task"
)

type taskApi struct {
	svc      task.Service
	conf     *core.Config
	validate *validator.Validate
}

func registerTaskAPI(g *echo.Group, svc task.Service, conf *core.Config, validate *validator.Validate) {
	api := taskApi{svc: svc, conf: conf, validate: validate}

	tg := g.Group("/tasks")
	tg.GET("", api.query)
	tg.POST("", api.create)
	tg.GET("/today", api.today)

	// detail endpoints
	tg.GET("/:id", api.retrieve)
	tg.PUT("/:id", api.update)
	tg.PATCH("/:id/toggle", api.toggle)
	tg.DELETE("/:id", api.destroy)
}

func (api *taskApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data task.NewTask
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *taskApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	filter := task.QueryFilter{SubjectID: ctx.QueryParam("subject_id")}
	if filter.IsCompleted, err = queryBool(ctx, "is_completed"); err != nil {
		return err
	}
	created, err := queryDate(ctx, "created_date")
	if err != nil {
		return err
	}
	if !created.IsZero() {
		filter.CreatedDate = &created
	}
	page, err := bindPagination(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)
	filter.Ordering = ordering.Orderings

	tasks, err := api.svc.Query(ctx.Request().Context(), usr.ID, filter, page)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	return ctx.JSON(http.StatusOK, tasks)
}

// today derives the day's tasks from the weekly schedule on first access.
func (api *taskApi) today(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	day, err := dateOrToday(ctx, api.conf)
	if err != nil {
		return err
	}

	derived, err := api.svc.DeriveToday(ctx.Request().Context(), usr.ID, day)
	if err != nil {
		return errors.Wrap(err, "deriving day tasks")
	}
	return ctx.JSON(http.StatusOK, derived)
}

func (api *taskApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	t, err := api.svc.Get(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data task.UpdateTask
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTask")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Update(ctx.Request().Context(), usr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) toggle(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	t, err := api.svc.Toggle(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "toggling task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), usr.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}
