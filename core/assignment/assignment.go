// Package assignment manages teacher-authored assignments and the
// submissions students file against them. An assignment is broadcast to a
// grade/section scope; students see only what their profile matches.
package assignment

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

var (
	// errors
	ErrNotFound         = errors.New("assignment not found")
	ErrAlreadySubmitted = errors.New("assignment already submitted")
)

type Assignment struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description null.String         `json:"description,omitempty"`
	Subject     string              `json:"subject"`
	DueDate     null.Time           `json:"due_date,omitempty"`
	Scope       core.BroadcastScope `json:"scope"`
	TeacherID   string              `json:"teacher_id"` // authoring principal
	CreatedAt   time.Time           `json:"created_at"` // UTC
}

// Visible reports whether the assignment is broadcast to the student's
// grade and section.
func (a Assignment) Visible(sp principal.StudentProfile) bool {
	return a.Scope.Matches(sp.GradeLevel, sp.Section)
}

type NewAssignment struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Subject     string    `json:"subject" validate:"required"`
	DueDate     null.Time `json:"due_date"`

	// empty grade/section broadcast across that dimension
	GradeLevel string `json:"grade_level"`
	Section    string `json:"section"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.Subject = core.CleanString(na.Subject)
	na.GradeLevel = core.CleanString(na.GradeLevel)
	na.Section = core.CleanString(na.Section, true /* lower */)
	return validate.Struct(na)
}

// Submission is a student's answer to an assignment. Grade and GradedAt
// stay null until a teacher grades it out of band.
type Submission struct {
	ID           string      `json:"id"`
	AssignmentID string      `json:"assignment_id"`
	StudentID    string      `json:"student_id"` // student profile
	Text         null.String `json:"text,omitempty"`
	FileURL      null.String `json:"file_url,omitempty"`
	Grade        null.String `json:"grade,omitempty"`
	SubmittedAt  time.Time   `json:"submitted_at"` // UTC
	GradedAt     null.Time   `json:"graded_at,omitempty"`
}

type NewSubmission struct {
	AssignmentID string `json:"assignment_id" validate:"required"`
	Text         string `json:"text"`
	FileURL      string `json:"file_url" validate:"omitempty,url"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.AssignmentID = core.CleanString(ns.AssignmentID)
	ns.Text = core.CleanString(ns.Text)
	ns.FileURL = core.CleanString(ns.FileURL)
	return validate.Struct(ns)
}

// QueryFilter scopes assignment reads. TeacherID limits to one author
// (newest first); VisibleTo applies the broadcast scope for a student
// (due date ascending, undated last).
type QueryFilter struct {
	TeacherID string
	VisibleTo *principal.StudentProfile
}

type SubmissionFilter struct {
	AssignmentID string
	StudentID    string
}

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		QueryAssignments(ctx context.Context, filter QueryFilter) ([]Assignment, error)

		CreateSubmission(ctx context.Context, s Submission) (Submission, error)
		// QuerySubmissions returns matches newest first.
		QuerySubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error)
	}

	Service interface {
		// Create publishes an assignment authored by the caller.
		Create(ctx context.Context, ident principal.Identity, na NewAssignment) (Assignment, error)
		// ForStudent returns assignments broadcast to the student's
		// grade/section, due date ascending with undated ones last.
		ForStudent(ctx context.Context, sp principal.StudentProfile) ([]Assignment, error)
		// ForTeacher returns the caller's own assignments, newest first.
		ForTeacher(ctx context.Context, teacherID string) ([]Assignment, error)

		// Submit files the caller's submission; one per student per
		// assignment, and only against assignments visible to them.
		Submit(ctx context.Context, ident principal.Identity, ns NewSubmission) (Submission, error)
		SubmissionsForStudent(ctx context.Context, sp principal.StudentProfile) ([]Submission, error)

		// Counts returns the number of assignments visible to the student
		// and the number of submissions they have filed. Submissions
		// against assignments no longer broadcast to them still count, so
		// submitted may exceed total.
		Counts(ctx context.Context, sp principal.StudentProfile) (total, submitted int, err error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, ident principal.Identity, na NewAssignment) (Assignment, error) {
	err := access.Authorize(ident, access.Request{
		Action: access.ActionAssignmentCreate,
		Owner:  ident.Principal.ID,
	})
	if err != nil {
		return Assignment{}, err
	}
	a := Assignment{
		Title:       na.Title,
		Description: null.NewString(na.Description, na.Description != ""),
		Subject:     na.Subject,
		DueDate:     na.DueDate,
		Scope:       core.NewBroadcastScope(na.GradeLevel, na.Section),
		TeacherID:   ident.Principal.ID,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateAssignment(ctx, a)
}

func (svc *service) ForStudent(ctx context.Context, sp principal.StudentProfile) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, QueryFilter{VisibleTo: &sp})
}

func (svc *service) ForTeacher(ctx context.Context, teacherID string) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, QueryFilter{TeacherID: teacherID})
}

func (svc *service) Submit(ctx context.Context, ident principal.Identity, ns NewSubmission) (Submission, error) {
	sp := ident.Student
	owner := ""
	if sp != nil {
		owner = sp.ID
	}
	err := access.Authorize(ident, access.Request{
		Action: access.ActionSubmissionCreate,
		Owner:  owner,
	})
	if err != nil {
		return Submission{}, err
	}

	a, err := svc.repo.GetAssignment(ctx, ns.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if !a.Visible(*sp) {
		return Submission{}, core.NewPermissionError("assignment is not addressed to this student")
	}

	s := Submission{
		AssignmentID: a.ID,
		StudentID:    sp.ID,
		Text:         null.NewString(ns.Text, ns.Text != ""),
		FileURL:      null.NewString(ns.FileURL, ns.FileURL != ""),
		SubmittedAt:  time.Now().UTC(),
	}
	s, err = svc.repo.CreateSubmission(ctx, s)
	if err != nil {
		if err == ErrAlreadySubmitted {
			return Submission{}, core.NewValidationError(err,
				core.FieldError{Field: "assignment_id", Error: err.Error()})
		}
		return Submission{}, err
	}
	return s, nil
}

func (svc *service) SubmissionsForStudent(ctx context.Context, sp principal.StudentProfile) ([]Submission, error) {
	return svc.repo.QuerySubmissions(ctx, SubmissionFilter{StudentID: sp.ID})
}

func (svc *service) Counts(ctx context.Context, sp principal.StudentProfile) (total, submitted int, err error) {
	visible, err := svc.ForStudent(ctx, sp)
	if err != nil {
		return 0, 0, err
	}
	subs, err := svc.SubmissionsForStudent(ctx, sp)
	if err != nil {
		return 0, 0, err
	}
	return len(visible), len(subs), nil
}
