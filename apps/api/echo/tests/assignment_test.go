package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	echoapi "github.com/Wrug-hu/school-portal/apps/api/echo"
	"github.com/Wrug-hu/school-portal/core/assignment"
	"github.com/Wrug-hu/school-portal/core/principal"
	testutil "github.com/Wrug-hu/school-portal/tests"
)

func Test_assignmentApi_query(t *testing.T) {
	app := setup(t)

	student := testutil.CreatePrincipal(t, principalRepo, "Stu Dent", "stu@test.cd", "", principal.RoleStudent, true)
	sp := testutil.CreateStudent(t, principalRepo, student, "ADM-001", "Grade 5", "a")
	parent := testutil.CreatePrincipal(t, principalRepo, "Pa Rent", "parent@test.cd", "", principal.RoleParent, true)
	testutil.LinkParent(t, principalRepo, parent, sp)
	teacher := testutil.CreatePrincipal(t, principalRepo, "Tea Cher", "tea@test.cd", "", principal.RoleTeacher, true)
	testutil.CreateTeacher(t, principalRepo, teacher, "Mathematics", "")
	teacher2 := testutil.CreatePrincipal(t, principalRepo, "Other Teacher", "tea2@test.cd", "", principal.RoleTeacher, true)
	testutil.CreateTeacher(t, principalRepo, teacher2, "English", "")
	ghost := testutil.CreatePrincipal(t, principalRepo, "Gho St", "ghost@test.cd", "", principal.RoleStudent, true) // no profile row

	t0 := time.Date(2026, time.August, 24, 8, 0, 0, 0, time.UTC)
	due := func(day int) null.Time {
		return null.TimeFrom(time.Date(2026, time.September, day, 23, 59, 0, 0, time.UTC))
	}

	aDue1 := testutil.CreateAssignment(t, assignmentRepo, teacher.ID, "Fractions worksheet", "Mathematics", "Grade 5", "a", due(1), t0)
	aDue2 := testutil.CreateAssignment(t, assignmentRepo, teacher.ID, "Long division drill", "Mathematics", "Grade 5", "", due(5), t0.Add(time.Hour))
	aUndated := testutil.CreateAssignment(t, assignmentRepo, teacher.ID, "Reading log", "Mathematics", "", "", null.Time{}, t0.Add(2*time.Hour))
	aOther := testutil.CreateAssignment(t, assignmentRepo, teacher.ID, "Algebra intro", "Mathematics", "Grade 6", "a", due(2), t0.Add(3*time.Hour))
	aEssay := testutil.CreateAssignment(t, assignmentRepo, teacher2.ID, "Holiday essay", "English", "Grade 5", "a", due(3), t0.Add(4*time.Hour))

	// due date ascending, undated last
	forStudent := []assignment.Assignment{aDue1, aEssay, aDue2, aUndated}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Student sees broadcast scope in due order", token: getToken(t, student), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.AssignmentListResponse{Assignments: forStudent}),
		},
		{
			name: "Parent sees child's assignments", token: getToken(t, parent), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.AssignmentListResponse{ChildID: sp.ID, Assignments: forStudent}),
		},
		{
			name: "Teacher sees own, newest first", token: getToken(t, teacher), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.AssignmentListResponse{
				Assignments: []assignment.Assignment{aOther, aUndated, aDue2, aDue1},
			}),
		},
		{
			name: "Unprovisioned student gets empty list", token: getToken(t, ghost), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.AssignmentListResponse{Assignments: []assignment.Assignment{}}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/assignments"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_assignmentApi_create(t *testing.T) {
	app := setup(t)

	student := testutil.CreatePrincipal(t, principalRepo, "Stu Dent", "stu@test.cd", "", principal.RoleStudent, true)
	testutil.CreateStudent(t, principalRepo, student, "ADM-001", "Grade 5", "a")
	teacher := testutil.CreatePrincipal(t, principalRepo, "Tea Cher", "tea@test.cd", "", principal.RoleTeacher, true)
	testutil.CreateTeacher(t, principalRepo, teacher, "Mathematics", "")

	body := marchallObj(t, assignment.NewAssignment{
		Title:      "Fractions worksheet",
		Subject:    "Mathematics",
		GradeLevel: "Grade 5",
		Section:    "A",
	})

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Teachers only", token: getToken(t, student), body: body, wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Title and subject required", token: getToken(t, teacher), wantCode: http.StatusBadRequest,
			body: marchallObj(t, assignment.NewAssignment{}),
			wantData: marchallObj(t, map[string]string{
				"title":   "this field is required",
				"subject": "this field is required",
			}),
		},
		{name: "Assignment created", token: getToken(t, teacher), body: body, wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/assignments"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var a assignment.Assignment
				if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if a.ID == "" || a.TeacherID != teacher.ID {
					t.Errorf("failed! assignment = %+v", a)
				}
				if !a.Scope.Matches("Grade 5", "a") || a.Scope.Matches("Grade 5", "b") {
					t.Errorf("failed! scope = %+v", a.Scope)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_assignmentApi_submit(t *testing.T) {
	app := setup(t)

	student := testutil.CreatePrincipal(t, principalRepo, "Stu Dent", "stu@test.cd", "", principal.RoleStudent, true)
	sp := testutil.CreateStudent(t, principalRepo, student, "ADM-001", "Grade 5", "a")
	outsider := testutil.CreatePrincipal(t, principalRepo, "Out Sider", "out@test.cd", "", principal.RoleStudent, true)
	testutil.CreateStudent(t, principalRepo, outsider, "ADM-002", "Grade 6", "a")
	ghost := testutil.CreatePrincipal(t, principalRepo, "Gho St", "ghost@test.cd", "", principal.RoleStudent, true) // no profile row
	teacher := testutil.CreatePrincipal(t, principalRepo, "Tea Cher", "tea@test.cd", "", principal.RoleTeacher, true)
	testutil.CreateTeacher(t, principalRepo, teacher, "Mathematics", "")

	a := testutil.CreateAssignment(t, assignmentRepo, teacher.ID, "Fractions worksheet", "Mathematics", "Grade 5", "a", null.Time{})
	done := testutil.CreateAssignment(t, assignmentRepo, teacher.ID, "Long division drill", "Mathematics", "Grade 5", "a", null.Time{})
	testutil.CreateSubmission(t, assignmentRepo, done.ID, sp.ID)

	path := "/v1/assignments/" + a.ID + "/submissions"

	tests := []httpTest{
		{name: "Auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Students only", path: path, token: getToken(t, teacher), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Unprovisioned student refused", path: path, token: getToken(t, ghost), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Unknown assignment", path: "/v1/assignments/" + uuid.New().String() + "/submissions",
			token: getToken(t, student), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "Out of broadcast scope", path: path, token: getToken(t, outsider), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "assignment is not addressed to this student"}),
		},
		{
			name: "Already submitted", path: "/v1/assignments/" + done.ID + "/submissions",
			token: getToken(t, student), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"assignment_id": assignment.ErrAlreadySubmitted.Error()}),
		},
		{
			name: "Bad file link", path: path, token: getToken(t, student), wantCode: http.StatusBadRequest,
			body:     marchallObj(t, assignment.NewSubmission{AssignmentID: a.ID, FileURL: "not-a-url"}),
			wantData: marchallObj(t, map[string]string{"file_url": "file_url must be a valid URL"}),
		},
		{
			name: "Path id wins over body", path: path, token: getToken(t, student), wantCode: http.StatusCreated,
			body: marchallObj(t, assignment.NewSubmission{AssignmentID: done.ID, Text: "here you go"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var s assignment.Submission
				if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if s.AssignmentID != a.ID || s.StudentID != sp.ID || s.Text.String != "here you go" {
					t.Errorf("failed! submission = %+v", s)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_assignmentApi_querySubmissions(t *testing.T) {
	app := setup(t)

	student := testutil.CreatePrincipal(t, principalRepo, "Stu Dent", "stu@test.cd", "", principal.RoleStudent, true)
	sp := testutil.CreateStudent(t, principalRepo, student, "ADM-001", "Grade 5", "a")
	parent := testutil.CreatePrincipal(t, principalRepo, "Pa Rent", "parent@test.cd", "", principal.RoleParent, true)
	testutil.LinkParent(t, principalRepo, parent, sp)
	classmate := testutil.CreatePrincipal(t, principalRepo, "Class Mate", "mate@test.cd", "", principal.RoleStudent, true)
	mateSp := testutil.CreateStudent(t, principalRepo, classmate, "ADM-002", "Grade 5", "a")
	teacher := testutil.CreatePrincipal(t, principalRepo, "Tea Cher", "tea@test.cd", "", principal.RoleTeacher, true)
	testutil.CreateTeacher(t, principalRepo, teacher, "Mathematics", "")

	a := testutil.CreateAssignment(t, assignmentRepo, teacher.ID, "Fractions worksheet", "Mathematics", "Grade 5", "a", null.Time{})
	sub := testutil.CreateSubmission(t, assignmentRepo, a.ID, sp.ID)
	testutil.CreateSubmission(t, assignmentRepo, a.ID, mateSp.ID) // not theirs

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Student sees own submissions only", token: getToken(t, student), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.SubmissionListResponse{Submissions: []assignment.Submission{sub}}),
		},
		{
			name: "Parent sees child's submissions", token: getToken(t, parent), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.SubmissionListResponse{ChildID: sp.ID, Submissions: []assignment.Submission{sub}}),
		},
		{
			name: "Teacher gets empty list", token: getToken(t, teacher), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.SubmissionListResponse{Submissions: []assignment.Submission{}}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/submissions"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
