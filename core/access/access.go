// Package access is the portal's authorization gate. Every mutating
// operation names an Action; services build a Request and pass it through
// Authorize before touching storage. Read visibility is not decided here:
// list operations scope their queries to the caller instead.
package access

import (
	"github.com/Wrug-hu/school-portal/core"
	"github.com/Wrug-hu/school-portal/core/principal"
)

const (
	ActionAnnouncementCreate = "announcement.create"
	ActionAssignmentCreate   = "assignment.create"
	ActionFileUpload         = "file.upload"
	ActionMessageSend        = "message.send"
	ActionMessageMarkRead    = "message.mark_read"
	ActionSubmissionCreate   = "submission.create"
	ActionScheduleCreate     = "schedule.create"
)

// Request is one authorization check. Owner is the ID the action is
// performed as: the authoring principal for announcements, assignments,
// files and messages; the recipient principal for mark-read; the student
// profile for submissions. Services set Owner from the record themselves,
// never from client input.
type Request struct {
	Action string
	Owner  string
}

type rule struct {
	roles []principal.Role
	// ownerOf extracts the only ID the identity may act as, or "" when the
	// role owns nothing for this action.
	ownerOf func(ident principal.Identity) string
}

func ownPrincipal(ident principal.Identity) string { return ident.Principal.ID }

func ownStudentProfile(ident principal.Identity) string {
	if ident.Student == nil {
		return ""
	}
	return ident.Student.ID
}

var rules = map[string]rule{
	ActionAnnouncementCreate: {
		roles:   []principal.Role{principal.RoleTeacher, principal.RoleAdmin},
		ownerOf: ownPrincipal,
	},
	ActionAssignmentCreate: {
		roles:   []principal.Role{principal.RoleTeacher},
		ownerOf: ownPrincipal,
	},
	ActionFileUpload: {
		roles:   []principal.Role{principal.RoleTeacher},
		ownerOf: ownPrincipal,
	},
	ActionMessageSend: {
		roles:   principal.AllRoles,
		ownerOf: ownPrincipal,
	},
	ActionMessageMarkRead: {
		roles:   principal.AllRoles,
		ownerOf: ownPrincipal,
	},
	ActionSubmissionCreate: {
		roles:   []principal.Role{principal.RoleStudent},
		ownerOf: ownStudentProfile,
	},
	ActionScheduleCreate: {
		roles:   []principal.Role{principal.RoleAdmin},
		ownerOf: ownPrincipal,
	},
}

// Authorize decides whether ident may perform req. It returns a
// PermissionError on any refusal; the caller needs no further checks.
func Authorize(ident principal.Identity, req Request) error {
	if !ident.Principal.Active() {
		return core.NewPermissionError("account is deactivated")
	}

	r, ok := rules[req.Action]
	if !ok {
		return core.NewPermissionError("unknown action " + req.Action)
	}

	allowed := false
	for _, role := range r.roles {
		if ident.Role() == role {
			allowed = true
			break
		}
	}
	if !allowed {
		return core.NewPermissionError(ident.Role().String() + " cannot " + req.Action)
	}

	owner := r.ownerOf(ident)
	if owner == "" {
		// role admitted but the linked profile is missing; the account is
		// not provisioned for this action yet
		return core.NewPermissionError("account is not provisioned for " + req.Action)
	}
	if req.Owner != owner {
		return core.NewPermissionError("cannot " + req.Action + " on behalf of another account")
	}
	return nil
}
