package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	echoapi "github.com/Wrug-hu/school-portal/apps/api/echo"
	"github.com/Wrug-hu/school-portal/core"
	"github.com/Wrug-hu/school-portal/core/principal"
	emailsvc "github.com/Wrug-hu/school-portal/services/email"
	testutil "github.com/Wrug-hu/school-portal/tests"
)

func Test_authApi_register(t *testing.T) {
	app := setup(t)

	existing := testutil.CreatePrincipal(t, principalRepo, "Al Ready", "taken@test.cd", "", principal.RoleTeacher, true)

	reqBody := func(role, fullName, email, pwd string, profile map[string]string) []byte {
		body := map[string]string{
			"full_name":        fullName,
			"email":            email,
			"password":         pwd,
			"password_confirm": pwd,
			"role":             role,
		}
		for k, v := range profile {
			body[k] = v
		}
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json.Marshal() failed: %v", err)
		}
		return data
	}
	studentProfile := map[string]string{"grade_level": "Grade 5", "section": "A", "student_no": "ADM-001"}
	required := "this field is required"

	type extraTest struct {
		created   bool
		studentNo string
	}
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"full_name": required, "email": required, "password": required,
				"password_confirm": required, "role": required,
			}),
		},
		{
			name: "admin sign-up refused", wantCode: http.StatusBadRequest,
			body:     reqBody("admin", "Big Boss", "boss@test.cd", "s3cretW0rd!", nil),
			wantData: marchallObj(t, map[string]string{"role": "invalid role"}),
		},
		{
			name: "student profile fields required", wantCode: http.StatusBadRequest,
			body: reqBody("student", "Stu Dent", "stu@test.cd", "s3cretW0rd!", nil),
			wantData: marchallObj(t, map[string]string{
				"grade_level": required, "section": required, "student_no": required,
			}),
		},
		{
			name: "password too short", wantCode: http.StatusBadRequest,
			body:     reqBody("teacher", "Tea Cher", "tea@test.cd", "short", nil),
			wantData: marchallObj(t, map[string]string{"password": "password must contain at least 8 characters"}),
		},
		{
			name: "password all numeric", wantCode: http.StatusBadRequest,
			body:     reqBody("teacher", "Tea Cher", "tea@test.cd", "123456789", nil),
			wantData: marchallObj(t, map[string]string{"password": "password cannot be entirely numeric"}),
		},
		{
			name: "password not complex enough", wantCode: http.StatusBadRequest,
			body:     reqBody("teacher", "Tea Cher", "tea@test.cd", "longpassword", nil),
			wantData: marchallObj(t, map[string]string{"password": "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"}),
		},
		{
			name: "password similar to email", wantCode: http.StatusBadRequest,
			body:     reqBody("teacher", "Tea Cher", "john.doe@test.cd", "John.doe1@test.cd", nil),
			wantData: marchallObj(t, map[string]string{"password": "password cannot be similar to account attributes"}),
		},
		{
			name: "email taken", wantCode: http.StatusBadRequest,
			body:     reqBody("teacher", "Copy Cat", existing.Email, "s3cretW0rd!", nil),
			wantData: marchallObj(t, map[string]string{"email": "an account with this email already exists"}),
		},
		{
			name: "teacher registered", wantCode: http.StatusCreated,
			body:  reqBody("teacher", "Tea Cher", "tea@test.cd", "s3cretW0rd!", map[string]string{"subject": "Mathematics"}),
			extra: extraTest{created: true},
		},
		{
			name: "parent registered", wantCode: http.StatusCreated,
			body:  reqBody("parent", "Pa Rent", "parent@test.cd", "s3cretW0rd!", nil),
			extra: extraTest{created: true},
		},
		{
			name: "student registered", wantCode: http.StatusCreated,
			body:  reqBody("student", "Stu Dent", "stu@test.cd", "s3cretW0rd!", studentProfile),
			extra: extraTest{created: true, studentNo: "ADM-001"},
		},
		{
			name: "student number taken", wantCode: http.StatusBadRequest,
			body:     reqBody("student", "Copy Cat", "stu2@test.cd", "s3cretW0rd!", studentProfile),
			wantData: marchallObj(t, map[string]string{"student_no": "a student with this student number already exists"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/auth/register"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.SentMessages = nil // reset

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			extra, _ := tt.extra.(extraTest)
			if !extra.created {
				checkCodeAndData(t, tt, rec)
				return
			}

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			var respData echoapi.LoginResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
				t.Errorf("json.Unmarshal() failed! err %v", err)
			}
			if respData.Token == "" {
				t.Error("failed! empty token")
			}
			if len(emailsvc.SentMessages) != 1 {
				t.Errorf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
			}
			if extra.studentNo != "" {
				sp, err := principalRepo.GetStudentProfile(context.Background(), principal.ProfileFilter{StudentNo: extra.studentNo})
				if err != nil {
					t.Fatalf("GetStudentProfile() failed: %v", err)
				}
				if sp.GradeLevel != "Grade 5" || sp.Section != "a" {
					t.Errorf("profile = %+v; want Grade 5/a", sp)
				}
			}
		})
	}
}

func Test_authApi_login(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreatePrincipal(t, principalRepo, "Tea Cher", "tea@test.cd", "s3cretW0rd!", principal.RoleTeacher, true)
	naughty := testutil.CreatePrincipal(t, principalRepo, "N Dog", "ndog@test.cd", "s3cretW0rd!", principal.RoleStudent, false) // 😂

	reqBody := func(email, pwd string) []byte {
		return marchallObj(t, echoapi.LoginRequest{Email: email, Password: pwd})
	}

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown email", wantCode: http.StatusBadRequest,
			body:     reqBody("lol@test.cd", "s3cretW0rd!"),
			wantData: marchallObj(t, httpErr{Error: "invalid credentials"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     reqBody(teacher.Email, "lol"),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", wantCode: http.StatusForbidden,
			body:     reqBody(naughty.Email, "s3cretW0rd!"),
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "logged in", wantCode: http.StatusOK, body: reqBody(" Tea@Test.CD ", "s3cretW0rd!")},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/auth/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				// login stamps last_login
				p, err := principalRepo.GetPrincipal(context.Background(), principal.GetFilter{ID: teacher.ID})
				if err != nil {
					t.Fatalf("GetPrincipal() failed: %v", err)
				}
				if p.LastLogin.IsZero() {
					t.Error("failed! last_login not set")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_authApi_refreshToken(t *testing.T) {
	app := setup(t)

	student := testutil.CreatePrincipal(t, principalRepo, "Stu Dent", "stu@test.cd", "", principal.RoleStudent, true)
	naughty := testutil.CreatePrincipal(t, principalRepo, "N Dog", "ndog@test.cd", "", principal.RoleStudent, false) // 😂

	now := time.Now()
	unrefreshableClaims := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   student.ID,
			Audience:  "SchoolPortal",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * core.Conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		Role:         student.Role.String(),
		IsStudent:    true,
	}
	unrefreshableToken, err := echoapi.GenerateToken(unrefreshableClaims)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Inactive account not allowed", token: getToken(t, naughty), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
		{name: "Token refreshed", token: getToken(t, student), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/auth/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_authApi_resetPassword(t *testing.T) {
	app := setup(t)

	student := testutil.CreatePrincipal(t, principalRepo, "Stu Dent", "stu@test.cd", "", principal.RoleStudent, true)
	successData := marchallObj(t, echoapi.SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	type extraTest struct {
		emailSent bool
		to        mail.Address
	}
	tests := []httpTest{
		{name: "required fields", wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": "this field is required"})},
		{
			name: "invalid email", wantCode: http.StatusBadRequest, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol@test.cd"}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: student.Email}),
			wantData: successData, extra: extraTest{emailSent: true, to: mail.Address{Name: student.FullName, Address: student.Email}},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/auth/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.SentMessages = nil // reset

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if extra, ok := tt.extra.(extraTest); ok {
				if extra.emailSent {
					if len(emailsvc.SentMessages) != 1 {
						t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
					}
					msg := emailsvc.SentMessages[0]
					if msg.To[0] != extra.to {
						t.Errorf("failed! To = %v; want %v", msg.To[0], extra.to)
					}
					if !strings.Contains(msg.TextContent, "/password-reset?") {
						t.Error("failed! text content does not contain a reset link")
					}
				} else if len(emailsvc.SentMessages) > 0 {
					t.Errorf("failed! len(SentMessages) = %d; want 0", len(emailsvc.SentMessages))
				}
			}
		})
	}
}

func Test_authApi_confirmPasswordReset(t *testing.T) {
	app := setup(t)

	student := testutil.CreatePrincipal(t, principalRepo, "Stu Dent", "stu@test.cd", "lol", principal.RoleStudent, true)
	validUID := principal.EncodeUID(student)
	validToken, err := principal.MakeToken(student)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}

	// generate an expired token
	dayLate := core.Conf.PasswordResetTimeoutDelta + (24 * time.Hour)
	principal.NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := principal.MakeToken(student)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}
	principal.NowFunc = time.Now // reset

	reqBody := func(uid, token, pwd string) []byte {
		return marchallObj(t, principal.ResetPrincipalPassword{
			UID: uid, Token: token, Password: pwd, PasswordConfirm: pwd,
		})
	}

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"uid": "this field is required", "token": "this field is required",
				"password": "this field is required", "password_confirm": "this field is required",
			}),
		},
		{
			name: "invalid uid", wantCode: http.StatusBadRequest,
			body:     reqBody("lol", validToken, "n3wS3cret!"),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "tampered token", wantCode: http.StatusBadRequest,
			body:     reqBody(validUID, "NRXWY-sigsig-sig", "n3wS3cret!"),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "expired token", wantCode: http.StatusBadRequest,
			body:     reqBody(validUID, expiredToken, "n3wS3cret!"),
			wantData: marchallObj(t, httpErr{Error: "token expired"}),
		},
		{
			name: "password reset", wantCode: http.StatusOK,
			body:     reqBody(validUID, validToken, "n3wS3cret!"),
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."}),
		},
		{
			name: "token single use", wantCode: http.StatusBadRequest,
			body:     reqBody(validUID, validToken, "n3wS3cret!"),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/auth/password-reset-confirm"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the new password works
	p, err := principalRepo.GetPrincipal(context.Background(), principal.GetFilter{ID: student.ID})
	if err != nil {
		t.Fatalf("GetPrincipal() failed: %v", err)
	}
	if err := p.CheckPassword("n3wS3cret!"); err != nil {
		t.Error("failed! new password not set")
	}
}

func Test_authApi_me(t *testing.T) {
	app := setup(t)

	student := testutil.CreatePrincipal(t, principalRepo, "Stu Dent", "stu@test.cd", "", principal.RoleStudent, true)
	sp := testutil.CreateStudent(t, principalRepo, student, "ADM-001", "Grade 5", "a")
	ghost := testutil.CreatePrincipal(t, principalRepo, "Gho St", "ghost@test.cd", "", principal.RoleStudent, true) // no profile row

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "resolved identity", token: getToken(t, student), wantCode: http.StatusOK,
			wantData: marchallObj(t, principal.Identity{Principal: student, Student: &sp}),
		},
		{
			name: "unprovisioned account still gets its principal", token: getToken(t, ghost), wantCode: http.StatusOK,
			wantData: marchallObj(t, principal.Identity{Principal: ghost}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/auth/me"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
