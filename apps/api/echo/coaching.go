package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core/coaching"
)

const feedbackLimit = 50

type coachingApi struct {
	baseAPI
	svc *coaching.Service
}

func registerCoachingAPI(g *echo.Group, jwt echo.MiddlewareFunc, b baseAPI, svc *coaching.Service) {
	api := coachingApi{baseAPI: b, svc: svc}

	cg := g.Group("/coaching", jwt)
	cg.GET("/coach", api.myCoach)
	cg.GET("/feedback", api.myFeedback)
	cg.GET("/students", api.students, coachMiddleware())
	cg.GET("/feedback/given", api.feedbackGiven, coachMiddleware())
	cg.POST("/students/:id/feedback", api.leaveFeedback, coachMiddleware())
	cg.GET("/students/:id/feedback", api.studentFeedback, coachMiddleware())
	cg.POST("/assignments", api.assign, guardianMiddleware())
	cg.DELETE("/assignments/:id", api.unassign, guardianMiddleware())
}

func (api *coachingApi) myCoach(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	a, err := api.svc.CoachOf(api.reqCtx(ctx), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "getting coach")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *coachingApi) myFeedback(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	fs, err := api.svc.FeedbackFor(api.reqCtx(ctx), claims.Subject, feedbackLimit)
	if err != nil {
		return errors.Wrap(err, "listing feedback")
	}
	return ctx.JSON(http.StatusOK, fs)
}

func (api *coachingApi) students(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	students, err := api.svc.Students(api.reqCtx(ctx), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *coachingApi) feedbackGiven(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	fs, err := api.svc.FeedbackGiven(api.reqCtx(ctx), claims.Subject, feedbackLimit)
	if err != nil {
		return errors.Wrap(err, "listing feedback")
	}
	return ctx.JSON(http.StatusOK, fs)
}

func (api *coachingApi) leaveFeedback(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	var data coaching.NewFeedback
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeedback")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	f, err := api.svc.LeaveFeedback(api.reqCtx(ctx), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "leaving feedback")
	}
	return ctx.JSON(http.StatusCreated, f)
}

// studentFeedback is open to the student's coach and to guardians.
func (api *coachingApi) studentFeedback(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	studentID := ctx.Param("id")
	if !claims.IsGuardian {
		a, err := api.svc.CoachOf(api.reqCtx(ctx), studentID)
		if err != nil || a.Coach.ID != claims.Subject {
			return errHttpForbidden
		}
	}
	fs, err := api.svc.FeedbackFor(api.reqCtx(ctx), studentID, feedbackLimit)
	if err != nil {
		return errors.Wrap(err, "listing feedback")
	}
	return ctx.JSON(http.StatusOK, fs)
}

func (api *coachingApi) assign(ctx echo.Context) error {
	var data coaching.Assign
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Assign")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	a, err := api.svc.Assign(api.reqCtx(ctx), data)
	if err != nil {
		return errors.Wrap(err, "assigning coach")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *coachingApi) unassign(ctx echo.Context) error {
	if err := api.svc.Unassign(api.reqCtx(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "removing coach")
	}
	return ctx.NoContent(http.StatusNoContent)
}
