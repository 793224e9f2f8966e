package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Wrug-hu/school-portal/core/announcement"
	"github.com/Wrug-hu/school-portal/core/principal"
)

type announcementApi struct {
	svc          announcement.Service
	principalSvc principal.Service
	validate     *validator.Validate
	translator   ut.Translator
}

func registerAnnouncementAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := announcementApi{
		svc:          deps.AnnouncementSvc,
		principalSvc: deps.PrincipalSvc,
		validate:     deps.Validate,
		translator:   deps.Translator,
	}

	ag := g.Group("/announcements", jwt)
	ag.GET("", api.query)
	ag.POST("", api.create, roleMiddleware(principal.RoleTeacher, principal.RoleAdmin))
}

// query returns the latest announcements addressed to the caller's role.
func (api *announcementApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	feed, err := api.svc.Feed(ctx.Request().Context(), principal.Role(claims.Role))
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	if feed == nil {
		feed = []announcement.Announcement{}
	}
	return ctx.JSON(http.StatusOK, feed)
}

func (api *announcementApi) create(ctx echo.Context) error {
	var data announcement.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ident, err := mustIdentity(ctx, api.principalSvc)
	if err != nil {
		return err
	}

	a, err := api.svc.Create(ctx.Request().Context(), ident, data)
	if err != nil {
		if isBadRequest(errors.Cause(err)) {
			return err
		}
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, a)
}
