package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	echoapi "github.com/Wrug-hu/school-portal/apps/api/echo"
	"github.com/Wrug-hu/school-portal/core/filestore"
	"github.com/Wrug-hu/school-portal/core/principal"
	testutil "github.com/Wrug-hu/school-portal/tests"
)

func Test_fileApi_query(t *testing.T) {
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

	fG5a := testutil.CreateFile(t, fileRepo, teacher.ID, "Fractions notes", "Mathematics", "https://files.test.cd/fractions.pdf", "Grade 5", "a")
	fAll := testutil.CreateFile(t, fileRepo, teacher.ID, "School handbook", "General", "https://files.test.cd/handbook.pdf", "", "")
	testutil.CreateFile(t, fileRepo, teacher.ID, "Algebra notes", "Mathematics", "https://files.test.cd/algebra.pdf", "Grade 6", "a")
	fEssay := testutil.CreateFile(t, fileRepo, teacher2.ID, "Essay rubric", "English", "https://files.test.cd/rubric.pdf", "Grade 5", "")

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Student sees files in broadcast scope, newest first", token: getToken(t, student), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.FileListResponse{Files: []filestore.File{fEssay, fAll, fG5a}}),
		},
		{
			name: "Parent sees child's files", token: getToken(t, parent), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.FileListResponse{ChildID: sp.ID, Files: []filestore.File{fEssay, fAll, fG5a}}),
		},
		{
			name: "Teacher sees own uploads", token: getToken(t, teacher2), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.FileListResponse{Files: []filestore.File{fEssay}}),
		},
		{
			name: "Unprovisioned student gets empty list", token: getToken(t, ghost), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.FileListResponse{Files: []filestore.File{}}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/files"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_fileApi_create(t *testing.T) {
	app := setup(t)

	student := testutil.CreatePrincipal(t, principalRepo, "Stu Dent", "stu@test.cd", "", principal.RoleStudent, true)
	testutil.CreateStudent(t, principalRepo, student, "ADM-001", "Grade 5", "a")
	teacher := testutil.CreatePrincipal(t, principalRepo, "Tea Cher", "tea@test.cd", "", principal.RoleTeacher, true)
	testutil.CreateTeacher(t, principalRepo, teacher, "Mathematics", "")

	body := marchallObj(t, filestore.NewFile{
		Title:      "Fractions notes",
		Subject:    "Mathematics",
		FileURL:    "https://files.test.cd/fractions.pdf",
		FileName:   "fractions.pdf",
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
			name: "File URL must be valid", token: getToken(t, teacher), wantCode: http.StatusBadRequest,
			body: marchallObj(t, filestore.NewFile{
				Title: "Fractions notes", Subject: "Mathematics", FileURL: "not-a-url",
			}),
			wantData: marchallObj(t, map[string]string{"file_url": "file_url must be a valid URL"}),
		},
		{name: "File recorded", token: getToken(t, teacher), body: body, wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/files"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var f filestore.File
				if err := json.Unmarshal(rec.Body.Bytes(), &f); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if f.ID == "" || f.UploaderID != teacher.ID || f.FileName.String != "fractions.pdf" {
					t.Errorf("failed! file = %+v", f)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}
