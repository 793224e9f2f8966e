// Package dashboard aggregates the portal's landing view: one query per
// role pulling together today's schedule, pending work, unread messages
// and the announcement feed.
package dashboard

import (
	"context"
	"time"

	"github.com/Wrug-hu/school-portal/core/announcement"
	"github.com/Wrug-hu/school-portal/core/assignment"
	"github.com/Wrug-hu/school-portal/core/filestore"
	"github.com/Wrug-hu/school-portal/core/message"
	"github.com/Wrug-hu/school-portal/core/principal"
	"github.com/Wrug-hu/school-portal/core/schedule"
)

// View is the role-shaped dashboard; exactly one of the role sections is
// populated, matching the identity it was built for. Provisioned is
// false on the empty state served to accounts with no profile or child
// link yet.
type View struct {
	Role        principal.Role `json:"role"`
	Provisioned bool           `json:"provisioned"`
	Student     *StudentView   `json:"student,omitempty"`
	Parent      *ParentView    `json:"parent,omitempty"`
	Teacher     *TeacherView   `json:"teacher,omitempty"`
	Admin       *AdminView     `json:"admin,omitempty"`
}

// StudentView carries the assignment counters; PendingAssignments is
// clamped at zero since stale submissions can outnumber what is still
// broadcast to the student.
type StudentView struct {
	Profile            principal.StudentProfile    `json:"profile"`
	TodaySchedule      []schedule.Entry            `json:"today_schedule"`
	TotalAssignments   int                         `json:"total_assignments"`
	SubmittedCount     int                         `json:"submitted_count"`
	PendingAssignments int                         `json:"pending_assignments"`
	UnreadMessages     int                         `json:"unread_messages"`
	Announcements      []announcement.Announcement `json:"announcements"`
}

// ParentView is a student view seen through a linked child. Child echoes
// the profile the numbers were computed for, so a caller switching
// children can drop stale responses.
type ParentView struct {
	Child                 principal.StudentProfile    `json:"child"`
	Children              []principal.StudentProfile  `json:"children"`
	TodaySchedule         []schedule.Entry            `json:"today_schedule"`
	WeeklyClassCount      int                         `json:"weekly_class_count"`
	ActiveAssignmentCount int                         `json:"active_assignment_count"`
	PendingAssignments    int                         `json:"pending_assignments"`
	UnreadMessages        int                         `json:"unread_messages"`
	Announcements         []announcement.Announcement `json:"announcements"`
}

type TeacherView struct {
	Profile              principal.TeacherProfile    `json:"profile"`
	AssignmentsPublished int                         `json:"assignments_published"`
	FilesShared          int                         `json:"files_shared"`
	UnreadMessages       int                         `json:"unread_messages"`
	Announcements        []announcement.Announcement `json:"announcements"`
}

type AdminView struct {
	UnreadMessages int                         `json:"unread_messages"`
	Announcements  []announcement.Announcement `json:"announcements"`
}

type (
	Service interface {
		// ForIdentity builds the dashboard for the caller. childID selects a
		// parent's child; ignored for other roles.
		ForIdentity(ctx context.Context, ident principal.Identity, childID string) (View, error)
	}

	service struct {
		scheduleSvc     schedule.Service
		assignmentSvc   assignment.Service
		fileSvc         filestore.Service
		announcementSvc announcement.Service
		messageSvc      message.Service

		now func() time.Time // mockable
	}
)

var _ Service = (*service)(nil)

func NewService(
	scheduleSvc schedule.Service,
	assignmentSvc assignment.Service,
	fileSvc filestore.Service,
	announcementSvc announcement.Service,
	messageSvc message.Service,
) Service {
	return &service{
		scheduleSvc:     scheduleSvc,
		assignmentSvc:   assignmentSvc,
		fileSvc:         fileSvc,
		announcementSvc: announcementSvc,
		messageSvc:      messageSvc,
		now:             time.Now,
	}
}

func (svc *service) ForIdentity(ctx context.Context, ident principal.Identity, childID string) (View, error) {
	view := View{Role: ident.Role(), Provisioned: true}

	switch ident.Role() {
	case principal.RoleStudent:
		sv, err := svc.studentView(ctx, ident, *ident.Student)
		if err != nil {
			return View{}, err
		}
		view.Student = &sv
	case principal.RoleParent:
		child, err := ident.Child(childID)
		if err != nil {
			return View{}, err
		}
		sv, err := svc.studentView(ctx, ident, child)
		if err != nil {
			return View{}, err
		}
		week, err := svc.scheduleSvc.ForStudent(ctx, child)
		if err != nil {
			return View{}, err
		}
		view.Parent = &ParentView{
			Child:                 child,
			Children:              ident.Children,
			TodaySchedule:         sv.TodaySchedule,
			WeeklyClassCount:      len(week),
			ActiveAssignmentCount: sv.TotalAssignments,
			PendingAssignments:    sv.PendingAssignments,
			UnreadMessages:        sv.UnreadMessages,
			Announcements:         sv.Announcements,
		}
	case principal.RoleTeacher:
		tv, err := svc.teacherView(ctx, ident)
		if err != nil {
			return View{}, err
		}
		view.Teacher = &tv
	case principal.RoleAdmin:
		av, err := svc.adminView(ctx, ident)
		if err != nil {
			return View{}, err
		}
		view.Admin = &av
	}
	return view, nil
}

// studentView computes the child-scoped numbers; for a parent the unread
// count and announcement feed still belong to the parent's own account.
func (svc *service) studentView(ctx context.Context, ident principal.Identity, sp principal.StudentProfile) (StudentView, error) {
	today, err := svc.scheduleSvc.TodayForStudent(ctx, sp, svc.now())
	if err != nil {
		return StudentView{}, err
	}
	total, submitted, err := svc.assignmentSvc.Counts(ctx, sp)
	if err != nil {
		return StudentView{}, err
	}
	pending := total - submitted
	if pending < 0 {
		pending = 0
	}
	unread, err := svc.messageSvc.UnreadCount(ctx, ident.Principal.ID)
	if err != nil {
		return StudentView{}, err
	}
	feed, err := svc.announcementSvc.Feed(ctx, ident.Role())
	if err != nil {
		return StudentView{}, err
	}
	return StudentView{
		Profile:            sp,
		TodaySchedule:      today,
		TotalAssignments:   total,
		SubmittedCount:     submitted,
		PendingAssignments: pending,
		UnreadMessages:     unread,
		Announcements:      feed,
	}, nil
}

func (svc *service) teacherView(ctx context.Context, ident principal.Identity) (TeacherView, error) {
	assignments, err := svc.assignmentSvc.ForTeacher(ctx, ident.Principal.ID)
	if err != nil {
		return TeacherView{}, err
	}
	files, err := svc.fileSvc.ForUploader(ctx, ident.Principal.ID)
	if err != nil {
		return TeacherView{}, err
	}
	unread, err := svc.messageSvc.UnreadCount(ctx, ident.Principal.ID)
	if err != nil {
		return TeacherView{}, err
	}
	feed, err := svc.announcementSvc.Feed(ctx, ident.Role())
	if err != nil {
		return TeacherView{}, err
	}
	return TeacherView{
		Profile:              *ident.Teacher,
		AssignmentsPublished: len(assignments),
		FilesShared:          len(files),
		UnreadMessages:       unread,
		Announcements:        feed,
	}, nil
}

func (svc *service) adminView(ctx context.Context, ident principal.Identity) (AdminView, error) {
	unread, err := svc.messageSvc.UnreadCount(ctx, ident.Principal.ID)
	if err != nil {
		return AdminView{}, err
	}
	feed, err := svc.announcementSvc.Feed(ctx, ident.Role())
	if err != nil {
		return AdminView{}, err
	}
	return AdminView{UnreadMessages: unread, Announcements: feed}, nil
}
