package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/challenge"
)

type challengeApi struct {
	baseAPI
	svc *challenge.Service
}

type CompleteChallengeRequest struct {
	Submission string `json:"submission" validate:"max=5000"`
}

func registerChallengeAPI(g *echo.Group, jwt echo.MiddlewareFunc, b baseAPI, svc *challenge.Service) {
	api := challengeApi{baseAPI: b, svc: svc}

	cg := g.Group("/challenges", jwt)
	cg.GET("", api.list)
	cg.GET("/:id", api.retrieve)
	cg.POST("/:id/join", api.join)
	cg.POST("/:id/leave", api.leave)
	cg.POST("/:id/complete", api.complete)
	cg.GET("/:id/participants", api.participants)
	cg.POST("", api.create, guardianMiddleware())
	cg.PATCH("/:id", api.update, guardianMiddleware())
	cg.DELETE("/:id", api.destroy, guardianMiddleware())
}

// parseStatuses reads "?status=active,upcoming".
func parseStatuses(val string) ([]challenge.Status, error) {
	if val == "" {
		return nil, nil
	}
	var statuses []challenge.Status
	for _, s := range strings.Split(val, ",") {
		status := challenge.Status(strings.TrimSpace(s))
		if !status.Valid() {
			return nil, core.NewFieldError("status", "unknown status: "+string(status))
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func (api *challengeApi) list(ctx echo.Context) error {
	statuses, err := parseStatuses(ctx.QueryParam("status"))
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	chs, err := api.svc.List(api.reqCtx(ctx), claims.Subject, statuses...)
	if err != nil {
		return errors.Wrap(err, "listing challenges")
	}
	return ctx.JSON(http.StatusOK, chs)
}

func (api *challengeApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	ch, err := api.svc.Get(api.reqCtx(ctx), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting challenge")
	}
	return ctx.JSON(http.StatusOK, ch)
}

func (api *challengeApi) create(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	var data challenge.NewChallenge
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewChallenge")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	ch, err := api.svc.Create(api.reqCtx(ctx), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating challenge")
	}
	return ctx.JSON(http.StatusCreated, ch)
}

func (api *challengeApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	ch, err := api.svc.Get(api.reqCtx(ctx), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting challenge")
	}
	var data challenge.UpdateChallenge
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateChallenge")
	}
	if err = data.Validate(ch, api.validate); err != nil {
		return err
	}
	ch, err = api.svc.Update(api.reqCtx(ctx), ch, data)
	if err != nil {
		return errors.Wrap(err, "updating challenge")
	}
	return ctx.JSON(http.StatusOK, ch)
}

func (api *challengeApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(api.reqCtx(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting challenge")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *challengeApi) join(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	ch, err := api.svc.Join(api.reqCtx(ctx), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "joining challenge")
	}
	return ctx.JSON(http.StatusOK, ch)
}

func (api *challengeApi) leave(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	ch, err := api.svc.Leave(api.reqCtx(ctx), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "leaving challenge")
	}
	return ctx.JSON(http.StatusOK, ch)
}

func (api *challengeApi) complete(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	var data CompleteChallengeRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompleteChallengeRequest")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	p, err := api.svc.Complete(api.reqCtx(ctx), usr, ctx.Param("id"), data.Submission)
	if err != nil {
		return errors.Wrap(err, "completing challenge")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *challengeApi) participants(ctx echo.Context) error {
	ps, err := api.svc.Participants(api.reqCtx(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing participants")
	}
	return ctx.JSON(http.StatusOK, ps)
}
