package principal

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Wrug-hu/school-portal/core"
)

var (
	// errors
	ErrNotFound       = errors.New("account not found")
	ErrEmailExists    = errors.New("an account with this email already exists")
	ErrStudentExists  = errors.New("a student with this student number already exists")
	ErrChildNotLinked = errors.New("student is not linked to this parent")
	ErrAlreadyLinked  = errors.New("student is already linked to this parent")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excluded ...Principal) error
		CreatePrincipal(ctx context.Context, p Principal) (Principal, error)
		GetPrincipal(ctx context.Context, filter GetFilter) (Principal, error)
		// QueryContacts returns all active principals but the excluded one,
		// ordered by full_name; the portal's recipient picker.
		QueryContacts(ctx context.Context, excludeID string) ([]Principal, error)
		UpdatePrincipal(ctx context.Context, p Principal) (Principal, error)

		CreateStudentProfile(ctx context.Context, sp StudentProfile) (StudentProfile, error)
		CreateTeacherProfile(ctx context.Context, tp TeacherProfile) (TeacherProfile, error)
		GetStudentProfile(ctx context.Context, filter ProfileFilter) (StudentProfile, error)
		GetTeacherProfile(ctx context.Context, filter ProfileFilter) (TeacherProfile, error)
		LinkParent(ctx context.Context, parentID, studentID string) error
		// QueryChildren returns the students linked to a parent, oldest link first.
		QueryChildren(ctx context.Context, parentID string) ([]StudentProfile, error)
	}

	Service interface {
		Register(ctx context.Context, np NewPrincipal) (Principal, error)
		GetByID(ctx context.Context, id string) (Principal, error)
		GetByEmail(ctx context.Context, email string) (Principal, error)
		Contacts(ctx context.Context, excludeID string) ([]Principal, error)
		CheckEmailUniqueness(ctx context.Context, email string, excluded ...Principal) error
		SetLastLogin(ctx context.Context, p Principal) (Principal, error)

		// Resolve loads the identity for a principal: role plus linked domain
		// entity. A non-admin principal without its profile row (or a parent
		// with no linked children) resolves with a NotProvisioned error and a
		// partial identity that still carries the account.
		Resolve(ctx context.Context, principalID string) (Identity, error)

		LinkParent(ctx context.Context, parentEmail, studentNo string) error

		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetPrincipalPassword) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService) Service {
	return &service{repo: repo, mailSvc: mailSvc}
}

func (svc *service) CheckEmailUniqueness(ctx context.Context, email string, excluded ...Principal) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, excluded...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Register(ctx context.Context, np NewPrincipal) (Principal, error) {
	now := time.Now().UTC()
	p := Principal{
		Email:     np.Email,
		FullName:  np.FullName,
		Role:      np.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.SetPassword(np.Password); err != nil {
		return Principal{}, err
	}

	p, err := svc.repo.CreatePrincipal(ctx, p)
	if err != nil {
		return Principal{}, err
	}

	// provision the role's linked profile; parents are linked to their
	// children later by an administrator
	switch np.Role {
	case RoleStudent:
		sp := StudentProfile{
			PrincipalID: p.ID,
			GradeLevel:  np.GradeLevel,
			Section:     np.Section,
			StudentNo:   np.StudentNo,
			CreatedAt:   now,
		}
		if _, err = svc.repo.CreateStudentProfile(ctx, sp); err != nil {
			if err == ErrStudentExists {
				return Principal{}, core.NewValidationError(err, core.FieldError{Field: "student_no", Error: err.Error()})
			}
			return Principal{}, err
		}
	case RoleTeacher:
		tp := TeacherProfile{
			PrincipalID: p.ID,
			Subject:     nullString(np.Subject),
			Department:  nullString(np.Department),
			CreatedAt:   now,
		}
		if _, err = svc.repo.CreateTeacherProfile(ctx, tp); err != nil {
			return Principal{}, err
		}
	}

	svc.sendWelcomeMail(p)
	return p, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Principal, error) {
	return svc.repo.GetPrincipal(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (Principal, error) {
	return svc.repo.GetPrincipal(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) Contacts(ctx context.Context, excludeID string) ([]Principal, error) {
	return svc.repo.QueryContacts(ctx, excludeID)
}

func (svc *service) SetLastLogin(ctx context.Context, p Principal) (Principal, error) {
	p.LastLogin = time.Now().UTC()
	return svc.repo.UpdatePrincipal(ctx, p)
}

func (svc *service) Resolve(ctx context.Context, principalID string) (Identity, error) {
	p, err := svc.repo.GetPrincipal(ctx, GetFilter{ID: principalID})
	if err != nil {
		return Identity{}, err
	}
	ident := Identity{Principal: p}

	switch p.Role {
	case RoleStudent:
		sp, err := svc.repo.GetStudentProfile(ctx, ProfileFilter{PrincipalID: p.ID})
		if err != nil {
			if err == ErrNotFound {
				return ident, core.NewNotProvisionedError(RoleStudent.String())
			}
			return ident, pkgerrors.Wrap(err, "resolving student profile")
		}
		ident.Student = &sp
	case RoleTeacher:
		tp, err := svc.repo.GetTeacherProfile(ctx, ProfileFilter{PrincipalID: p.ID})
		if err != nil {
			if err == ErrNotFound {
				return ident, core.NewNotProvisionedError(RoleTeacher.String())
			}
			return ident, pkgerrors.Wrap(err, "resolving teacher profile")
		}
		ident.Teacher = &tp
	case RoleParent:
		children, err := svc.repo.QueryChildren(ctx, p.ID)
		if err != nil {
			return ident, pkgerrors.Wrap(err, "resolving linked children")
		}
		if len(children) == 0 {
			return ident, core.NewNotProvisionedError(RoleParent.String())
		}
		ident.Children = children
	}
	return ident, nil
}

func (svc *service) LinkParent(ctx context.Context, parentEmail, studentNo string) error {
	parent, err := svc.GetByEmail(ctx, parentEmail)
	if err != nil {
		return err
	}
	if !parent.IsParent() {
		return core.NewValidationError(nil, core.FieldError{Field: "email", Error: "account is not a parent"})
	}
	student, err := svc.repo.GetStudentProfile(ctx, ProfileFilter{StudentNo: core.CleanString(studentNo)})
	if err != nil {
		return err
	}
	return svc.repo.LinkParent(ctx, parent.ID, student.ID)
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	p, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	go svc.sendPasswordResetMail(p)
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, rp ResetPrincipalPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	p, err := svc.GetByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err = verifyToken(p, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err = p.SetPassword(rp.Password); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdatePrincipal(ctx, p)
	return err
}

func (svc *service) sendWelcomeMail(p Principal) {
	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: p.FullName, Address: p.Email}},
		Subject: "Welcome to " + core.Conf.AppName,
		BodyStr: fmt.Sprintf(
			"Hi %s,\n\nYour %s account has been created.\n\nSign in at %s to get started.",
			p.FullName, p.Role, core.Conf.FrontendBaseURL,
		),
	}
	svc.mailSvc.SendMessages(msg)
}

func (svc *service) sendPasswordResetMail(p Principal) {
	token, err := MakeToken(p)
	if err != nil {
		return
	}
	q := make(url.Values)
	q.Set("uid", EncodeUID(p))
	q.Set("token", token)
	link := core.Conf.FrontendBaseURL + "/password-reset?" + q.Encode()

	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: p.FullName, Address: p.Email}},
		Subject: "Password Reset",
		BodyStr: fmt.Sprintf(
			"Hi %s,\n\nFollow the link below to reset your password:\n\n%s\n\n"+
				"If you did not request a password reset, you can safely ignore this email.",
			p.FullName, link,
		),
	}
	svc.mailSvc.SendMessages(msg)
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}
