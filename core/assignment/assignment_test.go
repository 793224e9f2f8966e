package assignment

import (
	"testing"

	"github.com/Wrug-hu/school-portal/core"
	"github.com/Wrug-hu/school-portal/core/principal"
)

func TestAssignmentVisible(t *testing.T) {
	sp := principal.StudentProfile{ID: "sp1", GradeLevel: "Grade 5", Section: "a"}

	tests := []struct {
		name           string
		grade, section string // empty means all
		want           bool
	}{
		{name: "own class", grade: "Grade 5", section: "a", want: true},
		{name: "whole grade", grade: "Grade 5", want: true},
		{name: "every section a", section: "a", want: true},
		{name: "whole school", want: true},
		{name: "other grade", grade: "Grade 6", section: "a"},
		{name: "other section", grade: "Grade 5", section: "b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Assignment{Scope: core.NewBroadcastScope(tt.grade, tt.section)}
			if got := a.Visible(sp); got != tt.want {
				t.Errorf("Visible() = %v, want %v", got, tt.want)
			}
		})
	}
}
