package core

import "github.com/volatiletech/null/v8"

// BroadcastScope is the grade/section targeting convention shared by
// broadcast-scoped collections (assignments, study files). A null dimension
// means "applies to all"; the two dimensions are independent wildcards, so a
// row targeting only section "B" is visible to every grade's section B.
// The empty string is never a wildcard; targeting fields must be persisted
// as NULL when unset.
type BroadcastScope struct {
	Grade   null.String
	Section null.String
}

// NewBroadcastScope builds a scope from raw form input, mapping empty
// strings to the NULL wildcard.
func NewBroadcastScope(grade, section string) BroadcastScope {
	return BroadcastScope{
		Grade:   null.NewString(grade, grade != ""),
		Section: null.NewString(section, section != ""),
	}
}

// Matches reports whether a row with this scope is visible to a student in
// the given grade and section. Each dimension matches on equality or NULL.
func (s BroadcastScope) Matches(grade, section string) bool {
	gradeOK := !s.Grade.Valid || s.Grade.String == grade
	sectionOK := !s.Section.Valid || s.Section.String == section
	return gradeOK && sectionOK
}
