package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core/event"
)

type eventApi struct {
	baseAPI
	svc *event.Service
}

func registerEventAPI(g *echo.Group, jwt echo.MiddlewareFunc, b baseAPI, svc *event.Service) {
	api := eventApi{baseAPI: b, svc: svc}

	eg := g.Group("/events", jwt)
	eg.GET("", api.list)
	eg.GET("/:id", api.retrieve)
	eg.PUT("/:id/rsvp", api.respond)
	eg.GET("/:id/attendees", api.attendees)
	eg.POST("", api.create, guardianMiddleware())
	eg.PATCH("/:id", api.update, guardianMiddleware())
	eg.DELETE("/:id", api.destroy, guardianMiddleware())
}

func (api *eventApi) list(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	events, err := api.svc.Upcoming(api.reqCtx(ctx), claims.Subject, bindInt(ctx, limitParam))
	if err != nil {
		return errors.Wrap(err, "listing events")
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *eventApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	e, err := api.svc.Get(api.reqCtx(ctx), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting event")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *eventApi) create(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	var data event.NewEvent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	e, err := api.svc.Create(api.reqCtx(ctx), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *eventApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	e, err := api.svc.Get(api.reqCtx(ctx), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting event")
	}
	var data event.UpdateEvent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvent")
	}
	if err = data.Validate(e, api.validate); err != nil {
		return err
	}
	e, err = api.svc.Update(api.reqCtx(ctx), e, data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *eventApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(api.reqCtx(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *eventApi) respond(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	var data event.RSVP
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RSVP")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	e, err := api.svc.Respond(api.reqCtx(ctx), usr, ctx.Param("id"), data.Status)
	if err != nil {
		return errors.Wrap(err, "saving rsvp")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *eventApi) attendees(ctx echo.Context) error {
	as, err := api.svc.Attendees(api.reqCtx(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing attendees")
	}
	return ctx.JSON(http.StatusOK, as)
}
