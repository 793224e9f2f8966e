package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Wrug-hu/school-portal/core"
	"github.com/Wrug-hu/school-portal/core/principal"
)

func (cli *commandLine) linkParent(parentEmail, studentNo string) error {
	ctx := context.Background()

	parent, err := cli.principalRepo.GetPrincipal(ctx, principal.GetFilter{Email: core.CleanString(parentEmail, true /* lower */)})
	if err != nil {
		return err
	}
	if !parent.IsParent() {
		return errors.Errorf("%s is not a parent account", parent.Email)
	}
	sp, err := cli.principalRepo.GetStudentProfile(ctx, principal.ProfileFilter{StudentNo: core.CleanString(studentNo)})
	if err != nil {
		return err
	}
	return cli.principalRepo.LinkParent(ctx, parent.ID, sp.ID)
}
