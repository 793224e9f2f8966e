// Package inmemdb is an in-memory implementation of the repositories,
// used by tests and local development without a postgres instance.
package inmemdb

import (
	"sync"
	"time"

	"github.com/Wrug-hu/school-portal/core/announcement"
	"github.com/Wrug-hu/school-portal/core/assignment"
	"github.com/Wrug-hu/school-portal/core/filestore"
	"github.com/Wrug-hu/school-portal/core/message"
	"github.com/Wrug-hu/school-portal/core/principal"
	"github.com/Wrug-hu/school-portal/core/schedule"
)

type parentLink struct {
	parentID  string
	studentID string
	createdAt time.Time
}

type DB struct {
	mutex sync.RWMutex

	principals      map[string]*principal.Principal
	studentProfiles map[string]*principal.StudentProfile
	teacherProfiles map[string]*principal.TeacherProfile
	parentLinks     []parentLink

	schedules     map[string]*schedule.Entry
	assignments   map[string]*assignment.Assignment
	submissions   map[string]*assignment.Submission
	files         map[string]*filestore.File
	announcements map[string]*announcement.Announcement
	messages      map[string]*message.Message
}

func NewDB() *DB {
	return &DB{
		principals:      make(map[string]*principal.Principal),
		studentProfiles: make(map[string]*principal.StudentProfile),
		teacherProfiles: make(map[string]*principal.TeacherProfile),
		schedules:       make(map[string]*schedule.Entry),
		assignments:     make(map[string]*assignment.Assignment),
		submissions:     make(map[string]*assignment.Submission),
		files:           make(map[string]*filestore.File),
		announcements:   make(map[string]*announcement.Announcement),
		messages:        make(map[string]*message.Message),
	}
}
