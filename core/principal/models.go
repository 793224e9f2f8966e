package principal

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/Wrug-hu/school-portal/core"
)

// Role is the closed set of portal roles. It is assigned at sign-up and
// immutable afterwards; there is no role-change flow.
type Role string

const (
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

var (
	AllRoles = []Role{RoleStudent, RoleParent, RoleTeacher, RoleAdmin}

	// SignupRoles are the roles a visitor may register as; admins are
	// provisioned out of band.
	SignupRoles = []Role{RoleStudent, RoleParent, RoleTeacher}
)

func (r Role) String() string { return string(r) }

func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type Principal struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	IsActive     *bool     `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (p *Principal) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.PasswordHash = hash
	return nil
}

func (p *Principal) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(p.PasswordHash, []byte(pwd))
}

func (p *Principal) Active() bool {
	return p.IsActive == nil || *p.IsActive
}

func (p *Principal) SetActive(active bool) {
	p.IsActive = &active
}

func (p *Principal) IsStudent() bool { return p.Role == RoleStudent }
func (p *Principal) IsParent() bool  { return p.Role == RoleParent }
func (p *Principal) IsTeacher() bool { return p.Role == RoleTeacher }
func (p *Principal) IsAdmin() bool   { return p.Role == RoleAdmin }

// StudentProfile is the domain entity linked to a student principal and
// read by any parent linked to it. GradeLevel and Section drive the
// broadcast-scope visibility of assignments and study files.
type StudentProfile struct {
	ID          string    `json:"id"`
	PrincipalID string    `json:"principal_id"`
	GradeLevel  string    `json:"grade_level"`
	Section     string    `json:"section"`
	StudentNo   string    `json:"student_no"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

type TeacherProfile struct {
	ID          string      `json:"id"`
	PrincipalID string      `json:"principal_id"`
	Subject     null.String `json:"subject"`
	Department  null.String `json:"department"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
}

// Identity is a resolved principal: the account plus its linked domain
// entity. Exactly one of Student/Teacher/Children is populated for
// non-admin roles; all are empty for admins.
type Identity struct {
	Principal Principal        `json:"principal"`
	Student   *StudentProfile  `json:"student,omitempty"`
	Teacher   *TeacherProfile  `json:"teacher,omitempty"`
	Children  []StudentProfile `json:"children,omitempty"`
}

func (ident Identity) Role() Role { return ident.Principal.Role }

// Child returns the parent's selected child, defaulting to the first linked
// child when no ID is supplied. An ID that does not resolve to a linked
// child yields ErrChildNotLinked: a parent can never address another
// family's student.
func (ident Identity) Child(studentID string) (StudentProfile, error) {
	if len(ident.Children) == 0 {
		return StudentProfile{}, ErrChildNotLinked
	}
	if studentID == "" {
		return ident.Children[0], nil
	}
	for _, child := range ident.Children {
		if child.ID == studentID {
			return child, nil
		}
	}
	return StudentProfile{}, ErrChildNotLinked
}

// NewPrincipal contains the information needed to register an account:
// credentials, a sign-up role and the role-specific profile fields.
type NewPrincipal struct {
	FullName        string `json:"full_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            Role   `json:"role" validate:"required,signuprole"`

	// student profile fields
	GradeLevel string `json:"grade_level,omitempty"`
	Section    string `json:"section,omitempty"`
	StudentNo  string `json:"student_no,omitempty"`

	// teacher profile fields (optional)
	Subject    string `json:"subject,omitempty"`
	Department string `json:"department,omitempty"`
}

func (np *NewPrincipal) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	np.FullName = core.CleanString(np.FullName)
	np.Email = core.CleanString(np.Email, true /* lower */)
	np.GradeLevel = core.CleanString(np.GradeLevel)
	np.Section = core.CleanString(np.Section, true /* lower */)
	np.StudentNo = core.CleanString(np.StudentNo)
	np.Subject = core.CleanString(np.Subject)
	np.Department = core.CleanString(np.Department)

	if err := validate.Struct(np); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(ctx, np.Email)
}

type ResetPrincipalPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetPrincipalPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

type GetFilter struct {
	ID    string
	Email string
}

type ProfileFilter struct {
	ID          string
	PrincipalID string
	StudentNo   string
}
