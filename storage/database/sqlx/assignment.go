package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Wrug-hu/school-portal/core"
	"github.com/Wrug-hu/school-portal/core/assignment"
)

// broadcastScopeCond matches rows broadcast to a student's grade/section;
// a NULL column is a wildcard across that dimension.
const broadcastScopeCond = `(grade_level = ? OR grade_level IS NULL) AND (section = ? OR section IS NULL)`

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

type assignmentRow struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	Subject     string      `db:"subject"`
	DueDate     null.Time   `db:"due_date"`
	GradeLevel  null.String `db:"grade_level"`
	Section     null.String `db:"section"`
	TeacherID   string      `db:"teacher_id"`
	CreatedAt   time.Time   `db:"created_at"`
}

func toAssignmentRow(a assignment.Assignment) assignmentRow {
	return assignmentRow{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Subject:     a.Subject,
		DueDate:     a.DueDate,
		GradeLevel:  a.Scope.Grade,
		Section:     a.Scope.Section,
		TeacherID:   a.TeacherID,
		CreatedAt:   a.CreatedAt.UTC(),
	}
}

func (row assignmentRow) assignment() assignment.Assignment {
	return assignment.Assignment{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Subject:     row.Subject,
		DueDate:     row.DueDate,
		Scope:       core.BroadcastScope{Grade: row.GradeLevel, Section: row.Section},
		TeacherID:   row.TeacherID,
		CreatedAt:   row.CreatedAt,
	}
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	a.ID = uuid.New().String()
	row := toAssignmentRow(a)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO assignment (id, title, description, subject, due_date, grade_level, section, teacher_id, created_at)
		VALUES (:id, :title, :description, :subject, :due_date, :grade_level, :section, :teacher_id, :created_at)`,
		row,
	)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return row.assignment(), nil
}

func (repo assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	var row assignmentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM assignment WHERE id = $1`, id); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound, "getting assignment")
	}
	return row.assignment(), nil
}

func (repo assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	var (
		q    string
		args []interface{}
	)
	switch {
	case filter.VisibleTo != nil:
		q = `SELECT * FROM assignment WHERE ` + broadcastScopeCond + ` ORDER BY due_date ASC NULLS LAST, created_at DESC`
		args = []interface{}{filter.VisibleTo.GradeLevel, filter.VisibleTo.Section}
	case filter.TeacherID != "":
		q = `SELECT * FROM assignment WHERE teacher_id = ? ORDER BY created_at DESC`
		args = []interface{}{filter.TeacherID}
	default:
		q = `SELECT * FROM assignment ORDER BY created_at DESC`
	}

	var rows []assignmentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	assignments := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.assignment())
	}
	return assignments, nil
}

type submissionRow struct {
	ID           string      `db:"id"`
	AssignmentID string      `db:"assignment_id"`
	StudentID    string      `db:"student_id"`
	Text         null.String `db:"body"`
	FileURL      null.String `db:"file_url"`
	Grade        null.String `db:"grade"`
	SubmittedAt  time.Time   `db:"submitted_at"`
	GradedAt     null.Time   `db:"graded_at"`
}

func (row submissionRow) submission() assignment.Submission {
	return assignment.Submission(row)
}

func (repo assignmentRepository) CreateSubmission(ctx context.Context, s assignment.Submission) (assignment.Submission, error) {
	s.ID = uuid.New().String()
	row := submissionRow(s)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO submission (id, assignment_id, student_id, body, file_url, grade, submitted_at, graded_at)
		VALUES (:id, :assignment_id, :student_id, :body, :file_url, :grade, :submitted_at, :graded_at)`,
		row,
	)
	if err != nil {
		if isUniqueViolation(errors.Cause(err)) {
			return assignment.Submission{}, assignment.ErrAlreadySubmitted
		}
		return assignment.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return row.submission(), nil
}

func (repo assignmentRepository) QuerySubmissions(ctx context.Context, filter assignment.SubmissionFilter) ([]assignment.Submission, error) {
	q := `SELECT * FROM submission WHERE 1=1`
	var args []interface{}
	if filter.AssignmentID != "" {
		q += ` AND assignment_id = ?`
		args = append(args, filter.AssignmentID)
	}
	if filter.StudentID != "" {
		q += ` AND student_id = ?`
		args = append(args, filter.StudentID)
	}
	q += ` ORDER BY submitted_at DESC`

	var rows []submissionRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	submissions := make([]assignment.Submission, 0, len(rows))
	for _, row := range rows {
		submissions = append(submissions, row.submission())
	}
	return submissions, nil
}
