package principal

import (
	"context"

	"github.com/Wrug-hu/school-portal/core"
)

// NewServiceMock returns a Service for tests; emails that are normally
// sent in the background are sent synchronously.
func NewServiceMock(repo Repository, mailSvc core.EmailService) Service {
	return &serviceMock{service{repo: repo, mailSvc: mailSvc}}
}

type serviceMock struct {
	service
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	p, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	svc.sendPasswordResetMail(p)
	return nil
}
