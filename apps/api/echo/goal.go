package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/goal"
)

type goalApi struct {
	svc      goal.Service
	validate *validator.Validate
}

func registerGoalAPI(g *echo.Group, svc goal.Service, validate *validator.Validate) {
	api := goalApi{svc: svc, validate: validate}

	gg := g.Group("/goals")
	gg.GET("", api.query)
	gg.POST("", api.create)
	gg.GET("/:id", api.retrieve)
	gg.PUT("/:id", api.update)
	gg.PATCH("/:id/toggle", api.toggle)
	gg.DELETE("/:id", api.destroy)
}

func (api *goalApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data goal.NewGoal
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGoal")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	gl, err := api.svc.Create(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating goal")
	}
	return ctx.JSON(http.StatusCreated, gl)
}

func (api *goalApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	filter := goal.QueryFilter{SubjectID: ctx.QueryParam("subject_id")}
	if filter.IsCompleted, err = queryBool(ctx, "is_completed"); err != nil {
		return err
	}
	page, err := bindPagination(ctx)
	if err != nil {
		return err
	}

	goals, err := api.svc.Query(ctx.Request().Context(), usr.ID, filter, page)
	if err != nil {
		return errors.Wrap(err, "querying goals")
	}
	return ctx.JSON(http.StatusOK, goals)
}

func (api *goalApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	gl, err := api.svc.Get(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting goal")
	}
	return ctx.JSON(http.StatusOK, gl)
}

func (api *goalApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data goal.UpdateGoal
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGoal")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	gl, err := api.svc.Update(ctx.Request().Context(), usr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating goal")
	}
	return ctx.JSON(http.StatusOK, gl)
}

func (api *goalApi) toggle(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	gl, err := api.svc.Toggle(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "toggling goal")
	}
	return ctx.JSON(http.StatusOK, gl)
}

func (api *goalApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), usr.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting goal")
	}
	return ctx.NoContent(http.StatusNoContent)
}
