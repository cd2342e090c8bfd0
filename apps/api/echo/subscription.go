package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core/subscription"
)

type subscriptionApi struct {
	baseAPI
	svc *subscription.Service
}

func registerSubscriptionAPI(g *echo.Group, jwt echo.MiddlewareFunc, b baseAPI, svc *subscription.Service) {
	api := subscriptionApi{baseAPI: b, svc: svc}

	g.GET("/plans", api.plans)

	sg := g.Group("/subscription", jwt)
	sg.GET("", api.retrieve)
	sg.PUT("", api.switchPlan)
	sg.POST("/cancel", api.cancel)
}

func (api *subscriptionApi) plans(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, subscription.Plans)
}

func (api *subscriptionApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.Get(api.reqCtx(ctx), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "getting subscription")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *subscriptionApi) switchPlan(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data subscription.SwitchPlan
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SwitchPlan")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	sub, err := api.svc.SwitchPlan(api.reqCtx(ctx), claims.Subject, data.Plan)
	if err != nil {
		return errors.Wrap(err, "switching plan")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *subscriptionApi) cancel(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.Cancel(api.reqCtx(ctx), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "canceling subscription")
	}
	return ctx.JSON(http.StatusOK, sub)
}
