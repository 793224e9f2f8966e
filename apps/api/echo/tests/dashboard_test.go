package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/Wrug-hu/school-portal/core/announcement"
	"github.com/Wrug-hu/school-portal/core/dashboard"
	"github.com/Wrug-hu/school-portal/core/principal"
	"github.com/Wrug-hu/school-portal/core/schedule"
	testutil "github.com/Wrug-hu/school-portal/tests"
)

func Test_dashboardApi_retrieve(t *testing.T) {
	app := setup(t)

	student := testutil.CreatePrincipal(t, principalRepo, "Stu Dent", "stu@test.cd", "", principal.RoleStudent, true)
	sp := testutil.CreateStudent(t, principalRepo, student, "ADM-001", "Grade 5", "a")
	sibling := testutil.CreatePrincipal(t, principalRepo, "Si Bling", "sib@test.cd", "", principal.RoleStudent, true)
	sibSp := testutil.CreateStudent(t, principalRepo, sibling, "ADM-002", "Grade 3", "b")

	parent := testutil.CreatePrincipal(t, principalRepo, "Pa Rent", "parent@test.cd", "", principal.RoleParent, true)
	testutil.LinkParent(t, principalRepo, parent, sp)
	testutil.LinkParent(t, principalRepo, parent, sibSp)

	teacher := testutil.CreatePrincipal(t, principalRepo, "Tea Cher", "tea@test.cd", "", principal.RoleTeacher, true)
	tp := testutil.CreateTeacher(t, principalRepo, teacher, "Mathematics", "")
	admin := testutil.CreatePrincipal(t, principalRepo, "Big Boss", "boss@test.cd", "", principal.RoleAdmin, true)

	ghost := testutil.CreatePrincipal(t, principalRepo, "Gho St", "ghost@test.cd", "", principal.RoleStudent, true) // no profile row
	lonely := testutil.CreatePrincipal(t, principalRepo, "Lone Ly", "lonely@test.cd", "", principal.RoleParent, true)

	outsider := testutil.CreatePrincipal(t, principalRepo, "Out Sider", "out@test.cd", "", principal.RoleStudent, true)
	outSp := testutil.CreateStudent(t, principalRepo, outsider, "ADM-009", "Grade 5", "a")

	// boardNow is a Wednesday
	wedMath := testutil.CreateScheduleEntry(t, scheduleRepo, sp.ID, schedule.Wednesday, "08:00", "08:45", "Mathematics")
	testutil.CreateScheduleEntry(t, scheduleRepo, sp.ID, schedule.Monday, "08:00", "08:45", "English")
	testutil.CreateScheduleEntry(t, scheduleRepo, outSp.ID, schedule.Wednesday, "08:00", "08:45", "Biology")

	// two assignments visible to Grade 5/a, one already submitted
	pending := testutil.CreateAssignment(t, assignmentRepo, teacher.ID, "Fractions", "Mathematics", "Grade 5", "a", null.Time{})
	done := testutil.CreateAssignment(t, assignmentRepo, teacher.ID, "Essay", "English", "Grade 5", "", null.Time{})
	testutil.CreateAssignment(t, assignmentRepo, teacher.ID, "Cells", "Biology", "Grade 6", "a", null.Time{})
	testutil.CreateSubmission(t, assignmentRepo, done.ID, sp.ID)
	_ = pending

	testutil.CreateFile(t, fileRepo, teacher.ID, "Notes", "Mathematics", "https://files.test/notes.pdf", "Grade 5", "a")

	// unread messages
	testutil.CreateMessage(t, messageRepo, teacher.ID, student.ID, "See me after class")
	testutil.CreateMessage(t, messageRepo, teacher.ID, parent.ID, "About your child")
	testutil.CreateMessage(t, messageRepo, student.ID, teacher.ID, "Okay!")

	annStudents := testutil.CreateAnnouncement(t, announcementRepo, admin.ID, "Sports day", "Friday.", []principal.Role{principal.RoleStudent, principal.RoleParent})
	annStaff := testutil.CreateAnnouncement(t, announcementRepo, admin.ID, "Staff meeting", "Monday.", []principal.Role{principal.RoleTeacher, principal.RoleAdmin})

	studentFeed := []announcement.Announcement{annStudents}
	staffFeed := []announcement.Announcement{annStaff}

	studentView := dashboard.StudentView{
		Profile:            sp,
		TodaySchedule:      []schedule.Entry{wedMath},
		TotalAssignments:   2,
		SubmittedCount:     1,
		PendingAssignments: 1,
		UnreadMessages:     1,
		Announcements:      studentFeed,
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "student board", token: getToken(t, student), wantCode: http.StatusOK,
			wantData: marchallObj(t, dashboard.View{Role: principal.RoleStudent, Provisioned: true, Student: &studentView}),
		},
		{
			name: "parent board defaults to first child", token: getToken(t, parent), wantCode: http.StatusOK,
			wantData: marchallObj(t, dashboard.View{Role: principal.RoleParent, Provisioned: true, Parent: &dashboard.ParentView{
				Child:                 sp,
				Children:              []principal.StudentProfile{sp, sibSp},
				TodaySchedule:         []schedule.Entry{wedMath},
				WeeklyClassCount:      2,
				ActiveAssignmentCount: 2,
				PendingAssignments:    1,
				UnreadMessages:        1,
				Announcements:         studentFeed,
			}}),
		},
		{
			name: "parent board for selected child", path: "/v1/dashboard?child=" + sibSp.ID,
			token: getToken(t, parent), wantCode: http.StatusOK,
			wantData: marchallObj(t, dashboard.View{Role: principal.RoleParent, Provisioned: true, Parent: &dashboard.ParentView{
				Child:              sibSp,
				Children:           []principal.StudentProfile{sp, sibSp},
				TodaySchedule:      []schedule.Entry{},
				PendingAssignments: 0,
				UnreadMessages:     1,
				Announcements:      studentFeed,
			}}),
		},
		{
			name: "parent cannot address another family's student", path: "/v1/dashboard?child=" + outSp.ID,
			token: getToken(t, parent), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "teacher board", token: getToken(t, teacher), wantCode: http.StatusOK,
			wantData: marchallObj(t, dashboard.View{Role: principal.RoleTeacher, Provisioned: true, Teacher: &dashboard.TeacherView{
				Profile:              tp,
				AssignmentsPublished: 3,
				FilesShared:          1,
				UnreadMessages:       1,
				Announcements:        staffFeed,
			}}),
		},
		{
			name: "admin board", token: getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, dashboard.View{Role: principal.RoleAdmin, Provisioned: true, Admin: &dashboard.AdminView{
				UnreadMessages: 0,
				Announcements:  staffFeed,
			}}),
		},
		{
			name: "unprovisioned student gets the empty state", token: getToken(t, ghost), wantCode: http.StatusOK,
			wantData: marchallObj(t, dashboard.View{Role: principal.RoleStudent}),
		},
		{
			name: "parent with no linked children gets the empty state", token: getToken(t, lonely), wantCode: http.StatusOK,
			wantData: marchallObj(t, dashboard.View{Role: principal.RoleParent}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.path == "" {
			tt.path = "/v1/dashboard"
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// A student's submissions survive a grade/section move; the pending
// counter must clamp at zero instead of going negative.
func Test_dashboardApi_pendingClamp(t *testing.T) {
	app := setup(t)

	student := testutil.CreatePrincipal(t, principalRepo, "Stu Dent", "stu@test.cd", "", principal.RoleStudent, true)
	sp := testutil.CreateStudent(t, principalRepo, student, "ADM-001", "Grade 5", "a")
	teacher := testutil.CreatePrincipal(t, principalRepo, "Tea Cher", "tea@test.cd", "", principal.RoleTeacher, true)
	testutil.CreateTeacher(t, principalRepo, teacher, "Mathematics", "")

	visible := testutil.CreateAssignment(t, assignmentRepo, teacher.ID, "Fractions", "Mathematics", "Grade 5", "a", null.Time{})
	oldClass1 := testutil.CreateAssignment(t, assignmentRepo, teacher.ID, "Cells", "Biology", "Grade 6", "a", null.Time{})
	oldClass2 := testutil.CreateAssignment(t, assignmentRepo, teacher.ID, "Osmosis", "Biology", "Grade 6", "a", null.Time{})
	testutil.CreateSubmission(t, assignmentRepo, visible.ID, sp.ID)
	testutil.CreateSubmission(t, assignmentRepo, oldClass1.ID, sp.ID)
	testutil.CreateSubmission(t, assignmentRepo, oldClass2.ID, sp.ID)

	req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard", getToken(t, student))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var view dashboard.View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if view.Student == nil {
		t.Fatal("failed! no student board in response")
	}
	sv := view.Student
	if sv.TotalAssignments != 1 || sv.SubmittedCount != 3 || sv.PendingAssignments != 0 {
		t.Errorf("counts = (%d, %d, %d), want (1, 3, 0)", sv.TotalAssignments, sv.SubmittedCount, sv.PendingAssignments)
	}
}
