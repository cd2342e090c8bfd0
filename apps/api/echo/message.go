package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core/message"
)

type messageApi struct {
	baseAPI
	svc *message.Service
}

type CountResponse struct {
	Count int `json:"count"`
}

func registerMessageAPI(g *echo.Group, jwt echo.MiddlewareFunc, b baseAPI, svc *message.Service) {
	api := messageApi{baseAPI: b, svc: svc}

	mg := g.Group("/messages", jwt)
	mg.GET("", api.inbox)
	mg.POST("", api.send)
	mg.GET("/unread-count", api.unreadCount)
	mg.GET("/:userId", api.conversation)
	mg.POST("/:userId/read", api.markRead)
}

func (api *messageApi) inbox(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	convs, err := api.svc.Inbox(api.reqCtx(ctx), usr, bindPage(ctx))
	if err != nil {
		return errors.Wrap(err, "listing conversations")
	}
	return ctx.JSON(http.StatusOK, convs)
}

func (api *messageApi) send(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	var data message.NewMessage
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	m, err := api.svc.Send(api.reqCtx(ctx), usr, data)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *messageApi) unreadCount(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	n, err := api.svc.UnreadCount(api.reqCtx(ctx), usr)
	if err != nil {
		return errors.Wrap(err, "counting unread messages")
	}
	return ctx.JSON(http.StatusOK, CountResponse{Count: n})
}

func (api *messageApi) conversation(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	msgs, err := api.svc.Conversation(api.reqCtx(ctx), usr, ctx.Param("userId"), bindPage(ctx))
	if err != nil {
		return errors.Wrap(err, "listing conversation")
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *messageApi) markRead(ctx echo.Context) error {
	usr, err := api.ctxUser(ctx)
	if err != nil {
		return err
	}
	n, err := api.svc.MarkConversationRead(api.reqCtx(ctx), usr, ctx.Param("userId"))
	if err != nil {
		return errors.Wrap(err, "marking conversation read")
	}
	return ctx.JSON(http.StatusOK, CountResponse{Count: n})
}
