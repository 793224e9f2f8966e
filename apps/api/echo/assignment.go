package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Wrug-hu/school-portal/core/assignment"
	"github.com/Wrug-hu/school-portal/core/principal"
)

type assignmentApi struct {
	svc          assignment.Service
	principalSvc principal.Service
	validate     *validator.Validate
	translator   ut.Translator
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := assignmentApi{
		svc:          deps.AssignmentSvc,
		principalSvc: deps.PrincipalSvc,
		validate:     deps.Validate,
		translator:   deps.Translator,
	}

	ag := g.Group("/assignments", jwt)
	ag.GET("", api.query)
	ag.POST("", api.create, roleMiddleware(principal.RoleTeacher))
	ag.POST("/:id/submissions", api.submit, roleMiddleware(principal.RoleStudent))

	g.GET("/submissions", api.querySubmissions, jwt)
}

type AssignmentListResponse struct {
	ChildID     string                  `json:"child_id,omitempty"`
	Assignments []assignment.Assignment `json:"assignments"`
}

type SubmissionListResponse struct {
	ChildID     string                  `json:"child_id,omitempty"`
	Submissions []assignment.Submission `json:"submissions"`
}

// query lists assignments for the caller: broadcast-scoped for students
// and parents, own authored ones for teachers.
func (api *assignmentApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if claims.IsTeacher || claims.IsAdmin {
		assignments, err := api.svc.ForTeacher(ctx.Request().Context(), claims.Subject)
		if err != nil {
			return errors.Wrap(err, "querying assignments")
		}
		if assignments == nil {
			assignments = []assignment.Assignment{}
		}
		return ctx.JSON(http.StatusOK, AssignmentListResponse{Assignments: assignments})
	}

	sp, ok, err := studentScope(ctx, api.principalSvc)
	if err != nil {
		return err
	}
	if !ok {
		return ctx.JSON(http.StatusOK, AssignmentListResponse{Assignments: []assignment.Assignment{}})
	}

	assignments, err := api.svc.ForStudent(ctx.Request().Context(), sp)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []assignment.Assignment{}
	}

	resp := AssignmentListResponse{Assignments: assignments}
	if claims.IsParent {
		resp.ChildID = sp.ID
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
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
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentApi) submit(ctx echo.Context) error {
	data := assignment.NewSubmission{AssignmentID: ctx.Param("id")}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	data.AssignmentID = ctx.Param("id") // path wins over body
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ident, err := mustIdentity(ctx, api.principalSvc)
	if err != nil {
		return err
	}

	s, err := api.svc.Submit(ctx.Request().Context(), ident, data)
	if err != nil {
		switch cause := errors.Cause(err); {
		case cause == assignment.ErrNotFound:
			return errHttpNotFound
		case isBadRequest(cause):
			return err
		}
		return errors.Wrap(err, "creating submission")
	}
	return ctx.JSON(http.StatusCreated, s)
}

// querySubmissions lists the student's (or selected child's) own
// submissions.
func (api *assignmentApi) querySubmissions(ctx echo.Context) error {
	sp, ok, err := studentScope(ctx, api.principalSvc)
	if err != nil {
		return err
	}
	if !ok {
		return ctx.JSON(http.StatusOK, SubmissionListResponse{Submissions: []assignment.Submission{}})
	}

	submissions, err := api.svc.SubmissionsForStudent(ctx.Request().Context(), sp)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if submissions == nil {
		submissions = []assignment.Submission{}
	}

	resp := SubmissionListResponse{Submissions: submissions}
	if claims, err := getContextClaims(ctx); err == nil && claims.IsParent {
		resp.ChildID = sp.ID
	}
	return ctx.JSON(http.StatusOK, resp)
}
