package message

import (
	"context"

	"github.com/Wrug-hu/school-portal/core"
	"github.com/Wrug-hu/school-portal/core/principal"
)

// NewServiceMock returns a Service for tests; the new-message
// notification is sent synchronously.
func NewServiceMock(repo Repository, principalSvc principal.Service, mailSvc core.EmailService) Service {
	return &serviceMock{service{repo: repo, principalSvc: principalSvc, mailSvc: mailSvc}}
}

type serviceMock struct {
	service
}

func (svc *serviceMock) Send(ctx context.Context, ident principal.Identity, nm NewMessage) (Message, error) {
	return svc.send(ctx, ident, nm, false /* async */)
}
