package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core/dashboard"
)

type dashboardApi struct {
	baseAPI
	svc *dashboard.Service
}

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, b baseAPI, svc *dashboard.Service) {
	api := dashboardApi{baseAPI: b, svc: svc}

	dg := g.Group("/dashboard", jwt)
	dg.GET("/vava", api.vava)
	dg.GET("/nunu", api.nunu, coachMiddleware())
	dg.GET("/guardian", api.guardian, guardianMiddleware())
}

func (api *dashboardApi) vava(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	d, err := api.svc.Vava(api.reqCtx(ctx), usr)
	if err != nil {
		return errors.Wrap(err, "building vava dashboard")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *dashboardApi) nunu(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	d, err := api.svc.Nunu(api.reqCtx(ctx), usr)
	if err != nil {
		return errors.Wrap(err, "building nunu dashboard")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *dashboardApi) guardian(ctx echo.Context) error {
	stats, err := api.svc.Stats(api.reqCtx(ctx))
	if err != nil {
		return errors.Wrap(err, "building guardian stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}
