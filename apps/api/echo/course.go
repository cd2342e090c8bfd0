package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/course"
)

type courseApi struct {
	baseAPI
	svc   *course.Service
	media core.MediaStore
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, b baseAPI, deps *Deps) {
	api := courseApi{baseAPI: b, svc: deps.CourseSvc, media: deps.Media}

	cg := g.Group("/courses", jwt)
	cg.GET("", api.list)
	cg.GET("/progress", api.myProgress)
	cg.GET("/:id", api.retrieve)
	cg.POST("", api.create, guardianMiddleware())
	cg.PATCH("/:id", api.update, guardianMiddleware())
	cg.DELETE("/:id", api.destroy, guardianMiddleware())
	cg.POST("/:id/cover", api.uploadCover, guardianMiddleware())
	cg.POST("/:id/lessons", api.createLesson, guardianMiddleware())

	lg := g.Group("/lessons", jwt)
	lg.POST("/:id/complete", api.complete)
	lg.DELETE("/:id/complete", api.uncomplete)
	lg.PATCH("/:id", api.updateLesson, guardianMiddleware())
	lg.DELETE("/:id", api.destroyLesson, guardianMiddleware())
	lg.POST("/:id/video", api.uploadVideo, guardianMiddleware())
}

func (api *courseApi) list(ctx echo.Context) error {
	courses, err := api.svc.List(api.reqCtx(ctx), bindInt(ctx, "level"))
	if err != nil {
		return errors.Wrap(err, "listing courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	detail, err := api.svc.Detail(api.reqCtx(ctx), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *courseApi) myProgress(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	progress, err := api.svc.ProgressOf(api.reqCtx(ctx), usr.ID)
	if err != nil {
		return errors.Wrap(err, "listing progress")
	}
	return ctx.JSON(http.StatusOK, progress)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	c, err := api.svc.CreateCourse(api.reqCtx(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) update(ctx echo.Context) error {
	c, err := api.svc.GetCourse(api.reqCtx(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	c, err = api.svc.UpdateCourse(api.reqCtx(ctx), c, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteCourse(api.reqCtx(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) uploadCover(ctx echo.Context) error {
	c, err := api.svc.GetCourse(api.reqCtx(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	url, err := storeUpload(ctx, api.conf, api.media, "cover", "courses/"+c.ID)
	if err != nil {
		return err
	}
	c, err = api.svc.SetCourseCover(api.reqCtx(ctx), c, url)
	if err != nil {
		return errors.Wrap(err, "setting course cover")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) createLesson(ctx echo.Context) error {
	var data course.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	l, err := api.svc.CreateLesson(api.reqCtx(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *courseApi) setCompleted(ctx echo.Context, completed bool) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	progress, err := api.svc.SetLessonCompleted(api.reqCtx(ctx), usr, ctx.Param("id"), completed)
	if err != nil {
		return errors.Wrap(err, "setting lesson progress")
	}
	return ctx.JSON(http.StatusOK, progress)
}

func (api *courseApi) complete(ctx echo.Context) error {
	return api.setCompleted(ctx, true)
}

func (api *courseApi) uncomplete(ctx echo.Context) error {
	return api.setCompleted(ctx, false)
}

func (api *courseApi) updateLesson(ctx echo.Context) error {
	l, err := api.svc.GetLesson(api.reqCtx(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting lesson")
	}
	var data course.UpdateLesson
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLesson")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	l, err = api.svc.UpdateLesson(api.reqCtx(ctx), l, data)
	if err != nil {
		return errors.Wrap(err, "updating lesson")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *courseApi) destroyLesson(ctx echo.Context) error {
	if err := api.svc.DeleteLesson(api.reqCtx(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) uploadVideo(ctx echo.Context) error {
	l, err := api.svc.GetLesson(api.reqCtx(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting lesson")
	}
	url, err := storeUpload(ctx, api.conf, api.media, "video", "lessons/"+l.ID)
	if err != nil {
		return err
	}
	l, err = api.svc.SetLessonVideo(api.reqCtx(ctx), l, url)
	if err != nil {
		return errors.Wrap(err, "setting lesson video")
	}
	return ctx.JSON(http.StatusOK, l)
}
