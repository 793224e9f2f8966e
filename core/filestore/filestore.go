// Package filestore manages study file records: links to material
// teachers share with a grade/section broadcast scope. The bytes live in
// external storage; the portal stores and scopes the references.
package filestore

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/Wrug-hu/school-portal/core"
	"github.com/Wrug-hu/school-portal/core/access"
	"github.com/Wrug-hu/school-portal/core/principal"
)

var ErrNotFound = errors.New("file not found")

type File struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description null.String         `json:"description,omitempty"`
	Subject     string              `json:"subject"`
	FileURL     string              `json:"file_url"`
	FileName    null.String         `json:"file_name,omitempty"`
	Scope       core.BroadcastScope `json:"scope"`
	UploaderID  string              `json:"uploaded_by"` // authoring principal
	CreatedAt   time.Time           `json:"created_at"`  // UTC
}

// Visible reports whether the file is shared with the student's grade
// and section.
func (f File) Visible(sp principal.StudentProfile) bool {
	return f.Scope.Matches(sp.GradeLevel, sp.Section)
}

type NewFile struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Subject     string `json:"subject" validate:"required"`
	FileURL     string `json:"file_url" validate:"required,url"`
	FileName    string `json:"file_name"`

	// empty grade/section broadcast across that dimension
	GradeLevel string `json:"grade_level"`
	Section    string `json:"section"`
}

func (nf *NewFile) Validate(validate *validator.Validate) error {
	nf.Title = core.CleanString(nf.Title)
	nf.Description = core.CleanString(nf.Description)
	nf.Subject = core.CleanString(nf.Subject)
	nf.FileURL = core.CleanString(nf.FileURL)
	nf.FileName = core.CleanString(nf.FileName)
	nf.GradeLevel = core.CleanString(nf.GradeLevel)
	nf.Section = core.CleanString(nf.Section, true /* lower */)
	return validate.Struct(nf)
}

// QueryFilter scopes file reads; both lists come back newest first.
type QueryFilter struct {
	UploaderID string
	VisibleTo  *principal.StudentProfile
}

type (
	Repository interface {
		CreateFile(ctx context.Context, f File) (File, error)
		QueryFiles(ctx context.Context, filter QueryFilter) ([]File, error)
	}

	Service interface {
		// Upload records a study file shared by the caller.
		Upload(ctx context.Context, ident principal.Identity, nf NewFile) (File, error)
		// ForStudent returns files shared with the student's grade/section.
		ForStudent(ctx context.Context, sp principal.StudentProfile) ([]File, error)
		// ForUploader returns the caller's own uploads.
		ForUploader(ctx context.Context, uploaderID string) ([]File, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Upload(ctx context.Context, ident principal.Identity, nf NewFile) (File, error) {
	err := access.Authorize(ident, access.Request{
		Action: access.ActionFileUpload,
		Owner:  ident.Principal.ID,
	})
	if err != nil {
		return File{}, err
	}
	f := File{
		Title:       nf.Title,
		Description: null.NewString(nf.Description, nf.Description != ""),
		Subject:     nf.Subject,
		FileURL:     nf.FileURL,
		FileName:    null.NewString(nf.FileName, nf.FileName != ""),
		Scope:       core.NewBroadcastScope(nf.GradeLevel, nf.Section),
		UploaderID:  ident.Principal.ID,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateFile(ctx, f)
}

func (svc *service) ForStudent(ctx context.Context, sp principal.StudentProfile) ([]File, error) {
	return svc.repo.QueryFiles(ctx, QueryFilter{VisibleTo: &sp})
}

func (svc *service) ForUploader(ctx context.Context, uploaderID string) ([]File, error) {
	return svc.repo.QueryFiles(ctx, QueryFilter{UploaderID: uploaderID})
}
