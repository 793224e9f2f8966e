package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Wrug-hu/school-portal/core/dashboard"
	"github.com/Wrug-hu/school-portal/core/principal"
)

type dashboardApi struct {
	svc          dashboard.Service
	principalSvc principal.Service
}

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := dashboardApi{
		svc:          deps.DashboardSvc,
		principalSvc: deps.PrincipalSvc,
	}
	g.GET("/dashboard", api.retrieve, jwt)
}

func (api *dashboardApi) retrieve(ctx echo.Context) error {
	ident, provisioned, err := getContextIdentity(ctx, api.principalSvc)
	if err != nil {
		return err
	}
	if !provisioned {
		// account exists but its profile (or a parent's first child link)
		// is missing; render the empty state instead of failing
		return ctx.JSON(http.StatusOK, dashboard.View{Role: ident.Role()})
	}

	var child ChildSelection
	child.Bind(ctx)

	view, err := api.svc.ForIdentity(ctx.Request().Context(), ident, child.ChildID)
	if err != nil {
		if errors.Cause(err) == principal.ErrChildNotLinked {
			return errHttpNotFound
		}
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, view)
}
