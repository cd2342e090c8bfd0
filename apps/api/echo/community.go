package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core/community"
)

type communityApi struct {
	baseAPI
	svc *community.Service
}

type FireRequest struct {
	TargetType string `json:"target_type" validate:"required,oneof=post comment"`
	TargetID   string `json:"target_id" validate:"required"`
}

func registerCommunityAPI(g *echo.Group, jwt echo.MiddlewareFunc, b baseAPI, svc *community.Service) {
	api := communityApi{baseAPI: b, svc: svc}

	pg := g.Group("/posts", jwt)
	pg.GET("", api.listPosts)
	pg.POST("", api.createPost)
	pg.GET("/:id", api.retrievePost)
	pg.DELETE("/:id", api.destroyPost)
	pg.GET("/:id/comments", api.listComments)
	pg.POST("/:id/comments", api.addComment)

	g.DELETE("/comments/:id", api.destroyComment, jwt)
	g.POST("/fires", api.toggleFire, jwt)
}

func (api *communityApi) listPosts(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	posts, err := api.svc.ListPosts(api.reqCtx(ctx), usr, bindPage(ctx))
	if err != nil {
		return errors.Wrap(err, "listing posts")
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *communityApi) createPost(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	var data community.NewPost
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	post, err := api.svc.CreatePost(api.reqCtx(ctx), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	return ctx.JSON(http.StatusCreated, post)
}

func (api *communityApi) retrievePost(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	post, err := api.svc.GetPost(api.reqCtx(ctx), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting post")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *communityApi) destroyPost(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeletePost(api.reqCtx(ctx), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting post")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *communityApi) listComments(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	comments, err := api.svc.ListComments(api.reqCtx(ctx), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing comments")
	}
	return ctx.JSON(http.StatusOK, comments)
}

func (api *communityApi) addComment(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	var data community.NewComment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	comment, err := api.svc.AddComment(api.reqCtx(ctx), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding comment")
	}
	return ctx.JSON(http.StatusCreated, comment)
}

func (api *communityApi) destroyComment(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteComment(api.reqCtx(ctx), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting comment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *communityApi) toggleFire(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	var data FireRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FireRequest")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	res, err := api.svc.ToggleFire(api.reqCtx(ctx), usr, data.TargetType, data.TargetID)
	if err != nil {
		return errors.Wrap(err, "toggling fire")
	}
	return ctx.JSON(http.StatusOK, res)
}
