package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Wrug-hu/school-portal/core/principal"
)

const pqUniqueViolation = "23505"

type principalRepository struct {
	db *sqlx.DB
}

var _ principal.Repository = (*principalRepository)(nil) // interface compliance check

func NewPrincipalRepository(db *sqlx.DB) *principalRepository {
	return &principalRepository{db: db}
}

type principalRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	FullName     string    `db:"full_name"`
	Role         string    `db:"role"`
	IsActive     null.Bool `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func toPrincipalRow(p principal.Principal) principalRow {
	return principalRow{
		ID:           p.ID,
		Email:        p.Email,
		FullName:     p.FullName,
		Role:         p.Role.String(),
		IsActive:     null.BoolFromPtr(p.IsActive),
		PasswordHash: p.PasswordHash,
		CreatedAt:    p.CreatedAt.UTC(),
		UpdatedAt:    p.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(p.LastLogin.UTC(), !p.LastLogin.IsZero()),
	}
}

func (row principalRow) principal() principal.Principal {
	return principal.Principal{
		ID:           row.ID,
		Email:        row.Email,
		FullName:     row.FullName,
		Role:         principal.Role(row.Role),
		IsActive:     row.IsActive.Ptr(),
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		LastLogin:    row.LastLogin.Time,
	}
}

// trapNoRowsErr maps psql "no rows" err to the domain's not-found error
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == pqUniqueViolation
}

func (repo principalRepository) CheckEmailUniqueness(ctx context.Context, email string, excluded ...principal.Principal) error {
	q := `SELECT EXISTS (SELECT 1 FROM principal WHERE email = ?`
	args := []interface{}{email}
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, p := range excluded {
			ids = append(ids, p.ID)
		}
		inq, inargs, err := sqlx.In(` AND id NOT IN (?)`, ids)
		if err != nil {
			return errors.Wrap(err, "checking email uniqueness")
		}
		q += inq
		args = append(args, inargs...)
	}
	q += `)`

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return principal.ErrEmailExists
	}
	return nil
}

func (repo principalRepository) CreatePrincipal(ctx context.Context, p principal.Principal) (principal.Principal, error) {
	p.ID = uuid.New().String()
	row := toPrincipalRow(p)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO principal (id, email, full_name, role, is_active, password_hash, created_at, updated_at, last_login)
		VALUES (:id, :email, :full_name, :role, :is_active, :password_hash, :created_at, :updated_at, :last_login)`,
		row,
	)
	if err != nil {
		if isUniqueViolation(errors.Cause(err)) {
			return principal.Principal{}, principal.ErrEmailExists
		}
		return principal.Principal{}, errors.Wrap(err, "inserting principal")
	}
	return row.principal(), nil
}

func (repo principalRepository) GetPrincipal(ctx context.Context, filter principal.GetFilter) (principal.Principal, error) {
	var (
		row principalRow
		err error
	)
	switch {
	case filter.ID != "":
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM principal WHERE id = $1`, filter.ID)
	case filter.Email != "":
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM principal WHERE email = $1`, filter.Email)
	default:
		return principal.Principal{}, principal.ErrNotFound
	}
	if err != nil {
		return principal.Principal{}, trapNoRowsErr(err, principal.ErrNotFound, "getting principal")
	}
	return row.principal(), nil
}

func (repo principalRepository) QueryContacts(ctx context.Context, excludeID string) ([]principal.Principal, error) {
	var rows []principalRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT * FROM principal
		WHERE id <> $1 AND (is_active IS NULL OR is_active)
		ORDER BY full_name`,
		excludeID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying contacts")
	}
	principals := make([]principal.Principal, 0, len(rows))
	for _, row := range rows {
		principals = append(principals, row.principal())
	}
	return principals, nil
}

func (repo principalRepository) UpdatePrincipal(ctx context.Context, p principal.Principal) (principal.Principal, error) {
	row := toPrincipalRow(p)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE principal
		SET email = :email, full_name = :full_name, role = :role, is_active = :is_active,
		    password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return principal.Principal{}, errors.Wrap(err, "updating principal")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return principal.Principal{}, principal.ErrNotFound
	}
	return row.principal(), nil
}

type studentProfileRow struct {
	ID          string    `db:"id"`
	PrincipalID string    `db:"principal_id"`
	GradeLevel  string    `db:"grade_level"`
	Section     string    `db:"section"`
	StudentNo   string    `db:"student_no"`
	CreatedAt   time.Time `db:"created_at"`
}

func (row studentProfileRow) profile() principal.StudentProfile {
	return principal.StudentProfile(row)
}

type teacherProfileRow struct {
	ID          string      `db:"id"`
	PrincipalID string      `db:"principal_id"`
	Subject     null.String `db:"subject"`
	Department  null.String `db:"department"`
	CreatedAt   time.Time   `db:"created_at"`
}

func (row teacherProfileRow) profile() principal.TeacherProfile {
	return principal.TeacherProfile(row)
}

func (repo principalRepository) CreateStudentProfile(ctx context.Context, sp principal.StudentProfile) (principal.StudentProfile, error) {
	sp.ID = uuid.New().String()
	row := studentProfileRow(sp)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO student_profile (id, principal_id, grade_level, section, student_no, created_at)
		VALUES (:id, :principal_id, :grade_level, :section, :student_no, :created_at)`,
		row,
	)
	if err != nil {
		if isUniqueViolation(errors.Cause(err)) {
			return principal.StudentProfile{}, principal.ErrStudentExists
		}
		return principal.StudentProfile{}, errors.Wrap(err, "inserting student profile")
	}
	return row.profile(), nil
}

func (repo principalRepository) CreateTeacherProfile(ctx context.Context, tp principal.TeacherProfile) (principal.TeacherProfile, error) {
	tp.ID = uuid.New().String()
	row := teacherProfileRow(tp)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO teacher_profile (id, principal_id, subject, department, created_at)
		VALUES (:id, :principal_id, :subject, :department, :created_at)`,
		row,
	)
	if err != nil {
		return principal.TeacherProfile{}, errors.Wrap(err, "inserting teacher profile")
	}
	return row.profile(), nil
}

func (repo principalRepository) GetStudentProfile(ctx context.Context, filter principal.ProfileFilter) (principal.StudentProfile, error) {
	var (
		row studentProfileRow
		err error
	)
	switch {
	case filter.ID != "":
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM student_profile WHERE id = $1`, filter.ID)
	case filter.PrincipalID != "":
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM student_profile WHERE principal_id = $1`, filter.PrincipalID)
	case filter.StudentNo != "":
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM student_profile WHERE student_no = $1`, filter.StudentNo)
	default:
		return principal.StudentProfile{}, principal.ErrNotFound
	}
	if err != nil {
		return principal.StudentProfile{}, trapNoRowsErr(err, principal.ErrNotFound, "getting student profile")
	}
	return row.profile(), nil
}

func (repo principalRepository) GetTeacherProfile(ctx context.Context, filter principal.ProfileFilter) (principal.TeacherProfile, error) {
	var (
		row teacherProfileRow
		err error
	)
	switch {
	case filter.ID != "":
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM teacher_profile WHERE id = $1`, filter.ID)
	case filter.PrincipalID != "":
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM teacher_profile WHERE principal_id = $1`, filter.PrincipalID)
	default:
		return principal.TeacherProfile{}, principal.ErrNotFound
	}
	if err != nil {
		return principal.TeacherProfile{}, trapNoRowsErr(err, principal.ErrNotFound, "getting teacher profile")
	}
	return row.profile(), nil
}

func (repo principalRepository) LinkParent(ctx context.Context, parentID, studentID string) error {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO parent_link (parent_id, student_id, created_at)
		VALUES ($1, $2, $3)`,
		parentID, studentID, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(errors.Cause(err)) {
			return principal.ErrAlreadyLinked
		}
		return errors.Wrap(err, "linking parent")
	}
	return nil
}

func (repo principalRepository) QueryChildren(ctx context.Context, parentID string) ([]principal.StudentProfile, error) {
	var rows []studentProfileRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT sp.* FROM student_profile sp
		JOIN parent_link pl ON pl.student_id = sp.id
		WHERE pl.parent_id = $1
		ORDER BY pl.created_at`,
		parentID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying children")
	}
	children := make([]principal.StudentProfile, 0, len(rows))
	for _, row := range rows {
		children = append(children, row.profile())
	}
	return children, nil
}
