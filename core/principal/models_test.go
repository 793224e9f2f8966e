package principal

import "testing"

func TestIdentityChild(t *testing.T) {
	first := StudentProfile{ID: "sp1", StudentNo: "ADM-001"}
	second := StudentProfile{ID: "sp2", StudentNo: "ADM-002"}
	ident := Identity{
		Principal: Principal{ID: "p1", Role: RoleParent},
		Children:  []StudentProfile{first, second},
	}

	tests := []struct {
		name      string
		ident     Identity
		studentID string
		want      string
		wantErr   error
	}{
		{name: "no children", ident: Identity{Principal: ident.Principal}, wantErr: ErrChildNotLinked},
		{name: "default to first child", ident: ident, want: "sp1"},
		{name: "explicit child", ident: ident, studentID: "sp2", want: "sp2"},
		{name: "unlinked child", ident: ident, studentID: "sp9", wantErr: ErrChildNotLinked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			child, err := tt.ident.Child(tt.studentID)
			if err != tt.wantErr {
				t.Fatalf("Child() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && child.ID != tt.want {
				t.Errorf("Child() = %s, want %s", child.ID, tt.want)
			}
		})
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range AllRoles {
		if !role.Valid() {
			t.Errorf("Valid(%s) = false, want true", role)
		}
	}
	if Role("principal").Valid() {
		t.Error(`Valid("principal") = true, want false`)
	}
}
