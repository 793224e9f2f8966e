// Package schedule manages the weekly class timetable. Entries belong to
// exactly one student, are provisioned by administrators and read-only
// for everyone else.
package schedule

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/Wrug-hu/school-portal/core"
	"github.com/Wrug-hu/school-portal/core/access"
	"github.com/Wrug-hu/school-portal/core/principal"
)

// Day is a school day. Weekends carry no schedule rows.
type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
)

var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday}

func (d Day) String() string { return string(d) }

func (d Day) Valid() bool {
	for _, day := range Days {
		if d == day {
			return true
		}
	}
	return false
}

// Order returns the position of the day within the school week, used for
// sorting. Invalid days sort last.
func (d Day) Order() int {
	for i, day := range Days {
		if d == day {
			return i
		}
	}
	return len(Days)
}

// Today maps the current weekday to a school day. On weekends it returns
// "" and ok=false; callers render an empty timetable.
func Today(now time.Time) (Day, bool) {
	switch now.Weekday() {
	case time.Monday:
		return Monday, true
	case time.Tuesday:
		return Tuesday, true
	case time.Wednesday:
		return Wednesday, true
	case time.Thursday:
		return Thursday, true
	case time.Friday:
		return Friday, true
	}
	return "", false
}

// Entry is one timetable slot. StartTime and EndTime are wall-clock
// "HH:MM" strings; zero-padded so lexical order is chronological order.
type Entry struct {
	ID        string      `json:"id"`
	StudentID string      `json:"student_id"`           // owning student profile
	TeacherID null.String `json:"teacher_id,omitempty"` // teaching teacher profile
	Subject   string      `json:"subject"`
	Day       Day         `json:"day_of_week"`
	StartTime string      `json:"start_time"`
	EndTime   string      `json:"end_time"`
	Room      string      `json:"room,omitempty"`
	CreatedAt time.Time   `json:"created_at"` // UTC
}

type NewEntry struct {
	StudentID string `json:"student_id" validate:"required"`
	TeacherID string `json:"teacher_id"`
	Subject   string `json:"subject" validate:"required"`
	Day       Day    `json:"day_of_week" validate:"required,schoolday"`
	StartTime string `json:"start_time" validate:"required,walltime"`
	EndTime   string `json:"end_time" validate:"required,walltime"`
	Room      string `json:"room"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.StudentID = core.CleanString(ne.StudentID)
	ne.TeacherID = core.CleanString(ne.TeacherID)
	ne.Subject = core.CleanString(ne.Subject)
	ne.Day = Day(core.CleanString(ne.Day.String(), true /* lower */))
	ne.StartTime = core.CleanString(ne.StartTime)
	ne.EndTime = core.CleanString(ne.EndTime)
	ne.Room = core.CleanString(ne.Room)
	return validate.Struct(ne)
}

// QueryFilter scopes timetable reads to one student; Day limits the
// result to a single school day.
type QueryFilter struct {
	StudentID string
	Day       Day
}

type (
	Repository interface {
		CreateEntry(ctx context.Context, entry Entry) (Entry, error)
		// QueryEntries returns matching entries ordered by day then start_time.
		QueryEntries(ctx context.Context, filter QueryFilter) ([]Entry, error)
	}

	Service interface {
		// Create provisions a timetable slot; administrators only.
		Create(ctx context.Context, ident principal.Identity, ne NewEntry) (Entry, error)
		// ForStudent returns the student's full week.
		ForStudent(ctx context.Context, sp principal.StudentProfile) ([]Entry, error)
		// TodayForStudent returns the current day's slots; empty on weekends.
		TodayForStudent(ctx context.Context, sp principal.StudentProfile, now time.Time) ([]Entry, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, ident principal.Identity, ne NewEntry) (Entry, error) {
	err := access.Authorize(ident, access.Request{
		Action: access.ActionScheduleCreate,
		Owner:  ident.Principal.ID,
	})
	if err != nil {
		return Entry{}, err
	}
	if ne.EndTime <= ne.StartTime {
		return Entry{}, core.NewValidationError(nil,
			core.FieldError{Field: "end_time", Error: "end_time must be after start_time"})
	}
	entry := Entry{
		StudentID: ne.StudentID,
		TeacherID: null.NewString(ne.TeacherID, ne.TeacherID != ""),
		Subject:   ne.Subject,
		Day:       ne.Day,
		StartTime: ne.StartTime,
		EndTime:   ne.EndTime,
		Room:      ne.Room,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateEntry(ctx, entry)
}

func (svc *service) ForStudent(ctx context.Context, sp principal.StudentProfile) ([]Entry, error) {
	return svc.repo.QueryEntries(ctx, QueryFilter{StudentID: sp.ID})
}

func (svc *service) TodayForStudent(ctx context.Context, sp principal.StudentProfile, now time.Time) ([]Entry, error) {
	day, ok := Today(now)
	if !ok {
		return nil, nil
	}
	return svc.repo.QueryEntries(ctx, QueryFilter{
		StudentID: sp.ID,
		Day:       day,
	})
}
