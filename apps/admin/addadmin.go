package main

import (
	"context"

	"github.com/Wrug-hu/school-portal/core"
	"github.com/Wrug-hu/school-portal/core/principal"
)

// addAdmin updates or creates an administrator account.
func (cli *commandLine) addAdmin(email, name, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)

	p, err := cli.principalRepo.GetPrincipal(ctx, principal.GetFilter{Email: email})
	if err != nil {
		if err != principal.ErrNotFound {
			return err
		}
		p = principal.Principal{
			Email:    email,
			FullName: name,
		}
	}
	p.Role = principal.RoleAdmin
	p.SetActive(true)
	if err := p.SetPassword(pwd); err != nil {
		return err
	}
	if p.ID == "" {
		_, err = cli.principalRepo.CreatePrincipal(ctx, p)
	} else {
		_, err = cli.principalRepo.UpdatePrincipal(ctx, p)
	}
	return err
}
