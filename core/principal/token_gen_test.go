package principal

import (
	"testing"
	"time"

	"github.com/Wrug-hu/school-portal/core"
)

func TestMakeVerifyToken(t *testing.T) {
	core.Conf = &core.Config{
		SecretKey:                 []byte("secret"),
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	}

	now := time.Now()
	p := Principal{
		ID:        "af8e98b0-dd15-4c06-af4f-psy-duck",
		FullName:  "T",
		Email:     "t@test.test",
		Role:      RoleTeacher,
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: now,
	}
	_ = p.SetPassword("pwd")

	validToken, err := MakeToken(p)
	if err != nil {
		t.Fatalf("MakeToken() failed: %v", err)
	}

	// generate an expired token
	dayLate := core.Conf.PasswordResetTimeoutDelta + (24 * time.Hour)
	NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := MakeToken(p)
	if err != nil {
		t.Fatalf("MakeToken() failed: %v", err)
	}
	NowFunc = time.Now // reset

	tests := []struct {
		name    string
		p       Principal
		token   string
		wantErr error
	}{
		{name: "no token", p: p, wantErr: errInvalidToken},
		{name: "invalid parts len", p: p, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", p: p, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", p: p, token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid token", p: p, token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "expired token", p: p, token: expiredToken, wantErr: errTokenExpired},
		{name: "valid token", p: p, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := verifyToken(tt.p, tt.token); err != tt.wantErr {
				t.Errorf("verifyToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
