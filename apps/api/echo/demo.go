package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core/demo"
)

// demoApi is public: visitors try the club without an account.
type demoApi struct {
	baseAPI
	store *demo.Store
}

func registerDemoAPI(g *echo.Group, b baseAPI, store *demo.Store) {
	api := demoApi{baseAPI: b, store: store}

	dg := g.Group("/demo/sessions")
	dg.POST("", api.create)
	dg.GET("/:id", api.retrieve)
	dg.DELETE("/:id", api.destroy)
	dg.POST("/:id/actions", api.dispatch)
}

func (api *demoApi) create(ctx echo.Context) error {
	s, err := api.store.Create(api.reqCtx(ctx))
	if err != nil {
		return errors.Wrap(err, "creating demo session")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *demoApi) retrieve(ctx echo.Context) error {
	s, err := api.store.Get(api.reqCtx(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting demo session")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *demoApi) destroy(ctx echo.Context) error {
	if err := api.store.Delete(api.reqCtx(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting demo session")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *demoApi) dispatch(ctx echo.Context) error {
	var a demo.Action
	if err := ctx.Bind(&a); err != nil {
		return errors.Wrap(err, "binding to Action")
	}
	if err := api.validate.Struct(a); err != nil {
		return err
	}
	s, err := api.store.Dispatch(api.reqCtx(ctx), ctx.Param("id"), a)
	switch {
	case errors.Is(err, demo.ErrLoggedOut):
		return echo.NewHTTPError(http.StatusForbidden, demo.ErrLoggedOut.Error())
	case errors.Is(err, demo.ErrUnknownAction):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return errors.Wrap(err, "dispatching demo action")
	}
	return ctx.JSON(http.StatusOK, s)
}
