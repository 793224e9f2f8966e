package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/Wrug-hu/school-portal/core"
)

var childParam = "child"

// ChildSelection binds the `?child=` query param a parent uses to switch
// between linked children. Empty means "default child".
type ChildSelection struct {
	ChildID string
}

func (cs *ChildSelection) Bind(ctx echo.Context) {
	cs.ChildID = core.CleanString(ctx.QueryParam(childParam))
}
