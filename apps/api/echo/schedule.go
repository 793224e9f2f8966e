package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Wrug-hu/school-portal/core/principal"
	"github.com/Wrug-hu/school-portal/core/schedule"
)

type scheduleApi struct {
	svc          schedule.Service
	principalSvc principal.Service
	validate     *validator.Validate
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := scheduleApi{
		svc:          deps.ScheduleSvc,
		principalSvc: deps.PrincipalSvc,
		validate:     deps.Validate,
	}
	sg := g.Group("/schedules", jwt)
	sg.GET("", api.query)
	sg.POST("", api.create, roleMiddleware(principal.RoleAdmin))
}

// ScheduleListResponse echoes the resolved child so a parent switching
// children can drop stale responses.
type ScheduleListResponse struct {
	ChildID string           `json:"child_id,omitempty"`
	Entries []schedule.Entry `json:"entries"`
}

func (api *scheduleApi) query(ctx echo.Context) error {
	sp, ok, err := studentScope(ctx, api.principalSvc)
	if err != nil {
		return err
	}
	if !ok {
		return ctx.JSON(http.StatusOK, ScheduleListResponse{Entries: []schedule.Entry{}})
	}

	entries, err := api.svc.ForStudent(ctx.Request().Context(), sp)
	if err != nil {
		return errors.Wrap(err, "querying schedule")
	}
	if entries == nil {
		entries = []schedule.Entry{}
	}

	resp := ScheduleListResponse{Entries: entries}
	if claims, err := getContextClaims(ctx); err == nil && claims.IsParent {
		resp.ChildID = sp.ID
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *scheduleApi) create(ctx echo.Context) error {
	var data schedule.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ident, err := mustIdentity(ctx, api.principalSvc)
	if err != nil {
		return err
	}

	entry, err := api.svc.Create(ctx.Request().Context(), ident, data)
	if err != nil {
		if isBadRequest(errors.Cause(err)) {
			return err
		}
		return errors.Wrap(err, "creating schedule entry")
	}
	return ctx.JSON(http.StatusCreated, entry)
}
