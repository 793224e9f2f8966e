package dashboard

import (
	"time"

	"github.com/Wrug-hu/school-portal/core/announcement"
	"github.com/Wrug-hu/school-portal/core/assignment"
	"github.com/Wrug-hu/school-portal/core/filestore"
	"github.com/Wrug-hu/school-portal/core/message"
	"github.com/Wrug-hu/school-portal/core/schedule"
)

// NewServiceMock returns a Service with a fixed clock for tests.
func NewServiceMock(
	scheduleSvc schedule.Service,
	assignmentSvc assignment.Service,
	fileSvc filestore.Service,
	announcementSvc announcement.Service,
	messageSvc message.Service,
	now time.Time,
) Service {
	svc := NewService(scheduleSvc, assignmentSvc, fileSvc, announcementSvc, messageSvc).(*service)
	svc.now = func() time.Time { return now }
	return svc
}
