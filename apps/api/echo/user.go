package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func registerUserAPI(g *echo.Group) {
	g.GET("/users/me", retrieveMe)
}

func retrieveMe(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}
