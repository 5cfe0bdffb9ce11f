package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/planner"
)

type slotApi struct {
	svc      planner.Service
	validate *validator.Validate
}

func registerSlotAPI(g *echo.Group, svc planner.Service, validate *validator.Validate) {
	api := slotApi{svc: svc, validate: validate}

	sg := g.Group("/slots")
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.PUT("/bulk", api.bulkReschedule)
	sg.GET("/weekly-summary", api.weeklySummary)
	sg.GET("/day/:day", api.queryDay)

	// detail endpoints
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
}

type bulkRescheduleResponse struct {
	Results   []planner.MoveResult `json:"results"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
}

func (api *slotApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data planner.NewSlot
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSlot")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	slot, err := api.svc.Create(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating slot")
	}
	return ctx.JSON(http.StatusCreated, slot)
}

func (api *slotApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var filter planner.QueryFilter
	if filter.DayOfWeek, err = queryInt(ctx, "day_of_week"); err != nil {
		return err
	}
	if filter.IsActive, err = queryBool(ctx, "is_active"); err != nil {
		return err
	}
	page, err := bindPagination(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)
	filter.Ordering = ordering.Orderings

	slots, err := api.svc.Query(ctx.Request().Context(), usr.ID, filter, page)
	if err != nil {
		return errors.Wrap(err, "querying slots")
	}
	return ctx.JSON(http.StatusOK, slots)
}

func (api *slotApi) queryDay(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	day, err := strconv.Atoi(ctx.Param("day"))
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "day_of_week", Error: planner.ErrInvalidDay.Error()})
	}

	slots, err := api.svc.ByDay(ctx.Request().Context(), usr.ID, day)
	if err != nil {
		return errors.Wrap(err, "querying day slots")
	}
	return ctx.JSON(http.StatusOK, slots)
}

func (api *slotApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	slot, err := api.svc.Get(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting slot")
	}
	return ctx.JSON(http.StatusOK, slot)
}

func (api *slotApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data planner.UpdateSlot
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSlot")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	slot, err := api.svc.Update(ctx.Request().Context(), usr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating slot")
	}
	return ctx.JSON(http.StatusOK, slot)
}

func (api *slotApi) bulkReschedule(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data planner.BulkReschedule
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkReschedule")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	results, err := api.svc.BulkReschedule(ctx.Request().Context(), usr.ID, data.Moves)
	if err != nil {
		return errors.Wrap(err, "rescheduling slots")
	}
	resp := bulkRescheduleResponse{Results: results}
	for _, res := range results {
		if res.Success {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *slotApi) weeklySummary(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	summary, err := api.svc.WeeklySummary(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "building weekly summary")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *slotApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), usr.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting slot")
	}
	return ctx.NoContent(http.StatusNoContent)
}
