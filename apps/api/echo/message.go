package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Wrug-hu/school-portal/core/message"
	"github.com/Wrug-hu/school-portal/core/principal"
)

type messageApi struct {
	svc          message.Service
	principalSvc principal.Service
	validate     *validator.Validate
	translator   ut.Translator
}

func registerMessageAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := messageApi{
		svc:          deps.MessageSvc,
		principalSvc: deps.PrincipalSvc,
		validate:     deps.Validate,
		translator:   deps.Translator,
	}

	mg := g.Group("/messages", jwt)
	mg.GET("", api.query)
	mg.GET("/contacts", api.queryContacts)
	mg.POST("", api.create)
	mg.POST("/:id/read", api.markRead)
}

type MessageListResponse struct {
	Messages    []message.Message `json:"messages"`
	UnreadCount int               `json:"unread_count"`
}

// query returns the caller's latest messages, sent and received, with
// the number still unread.
func (api *messageApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	messages, err := api.svc.Feed(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying messages")
	}
	if messages == nil {
		messages = []message.Message{}
	}
	unread, err := api.svc.UnreadCount(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "counting unread messages")
	}
	return ctx.JSON(http.StatusOK, MessageListResponse{Messages: messages, UnreadCount: unread})
}

// queryContacts lists the principals the caller may message.
func (api *messageApi) queryContacts(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	contacts, err := api.principalSvc.Contacts(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying contacts")
	}
	if contacts == nil {
		contacts = []principal.Principal{}
	}
	return ctx.JSON(http.StatusOK, contacts)
}

func (api *messageApi) create(ctx echo.Context) error {
	var data message.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ident, err := mustIdentity(ctx, api.principalSvc)
	if err != nil {
		return err
	}

	m, err := api.svc.Send(ctx.Request().Context(), ident, data)
	if err != nil {
		if isBadRequest(errors.Cause(err)) {
			return err
		}
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusCreated, m)
}

// markRead flags a received message as read; recipients only, and a
// repeat call is a no-op.
func (api *messageApi) markRead(ctx echo.Context) error {
	ident, err := mustIdentity(ctx, api.principalSvc)
	if err != nil {
		return err
	}

	m, err := api.svc.MarkRead(ctx.Request().Context(), ident, ctx.Param("id"))
	if err != nil {
		switch cause := errors.Cause(err); {
		case cause == message.ErrNotFound:
			return errHttpNotFound
		case isBadRequest(cause):
			return err
		}
		return errors.Wrap(err, "marking message read")
	}
	return ctx.JSON(http.StatusOK, m)
}
