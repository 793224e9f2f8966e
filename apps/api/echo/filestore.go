package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Wrug-hu/school-portal/core/filestore"
	"github.com/Wrug-hu/school-portal/core/principal"
)

type fileApi struct {
	svc          filestore.Service
	principalSvc principal.Service
	validate     *validator.Validate
	translator   ut.Translator
}

func registerFileAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := fileApi{
		svc:          deps.FileSvc,
		principalSvc: deps.PrincipalSvc,
		validate:     deps.Validate,
		translator:   deps.Translator,
	}

	fg := g.Group("/files", jwt)
	fg.GET("", api.query)
	fg.POST("", api.create, roleMiddleware(principal.RoleTeacher))
}

type FileListResponse struct {
	ChildID string           `json:"child_id,omitempty"`
	Files   []filestore.File `json:"files"`
}

// query lists study files for the caller: broadcast-scoped for students
// and parents, own uploads for teachers.
func (api *fileApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if claims.IsTeacher || claims.IsAdmin {
		files, err := api.svc.ForUploader(ctx.Request().Context(), claims.Subject)
		if err != nil {
			return errors.Wrap(err, "querying files")
		}
		if files == nil {
			files = []filestore.File{}
		}
		return ctx.JSON(http.StatusOK, FileListResponse{Files: files})
	}

	sp, ok, err := studentScope(ctx, api.principalSvc)
	if err != nil {
		return err
	}
	if !ok {
		return ctx.JSON(http.StatusOK, FileListResponse{Files: []filestore.File{}})
	}

	files, err := api.svc.ForStudent(ctx.Request().Context(), sp)
	if err != nil {
		return errors.Wrap(err, "querying files")
	}
	if files == nil {
		files = []filestore.File{}
	}

	resp := FileListResponse{Files: files}
	if claims.IsParent {
		resp.ChildID = sp.ID
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *fileApi) create(ctx echo.Context) error {
	var data filestore.NewFile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFile")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ident, err := mustIdentity(ctx, api.principalSvc)
	if err != nil {
		return err
	}

	f, err := api.svc.Upload(ctx.Request().Context(), ident, data)
	if err != nil {
		if isBadRequest(errors.Cause(err)) {
			return err
		}
		return errors.Wrap(err, "uploading file")
	}
	return ctx.JSON(http.StatusCreated, f)
}
