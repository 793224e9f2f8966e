package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Wrug-hu/school-portal/core/principal"
)

// studentScope resolves the student profile a read is scoped to: the
// caller's own profile for students, the selected child for parents.
// ok is false for other roles and for unprovisioned accounts; handlers
// then render an empty state.
func studentScope(ctx echo.Context, svc principal.Service) (sp principal.StudentProfile, ok bool, err error) {
	ident, provisioned, err := getContextIdentity(ctx, svc)
	if err != nil {
		return principal.StudentProfile{}, false, err
	}
	if !provisioned {
		return principal.StudentProfile{}, false, nil
	}

	switch ident.Role() {
	case principal.RoleStudent:
		return *ident.Student, true, nil
	case principal.RoleParent:
		var child ChildSelection
		child.Bind(ctx)
		sp, err := ident.Child(child.ChildID)
		if err != nil {
			// a parent can never address another family's student
			return principal.StudentProfile{}, false, errHttpNotFound
		}
		return sp, true, nil
	}
	return principal.StudentProfile{}, false, nil
}

// mustIdentity is for mutating endpoints: an unprovisioned account is
// refused instead of getting an empty state.
func mustIdentity(ctx echo.Context, svc principal.Service) (principal.Identity, error) {
	ident, provisioned, err := getContextIdentity(ctx, svc)
	if err != nil {
		return principal.Identity{}, err
	}
	if !provisioned {
		return principal.Identity{}, errors.Wrap(errHttpForbidden, "account is not provisioned")
	}
	return ident, nil
}
