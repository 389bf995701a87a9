package main

import (
	"context"
	"fmt"

	"github.com/trezcool/mentora/core/vip"
)

func (cli *commandLine) addVip(name, email string) error {
	nv := vip.NewVip{Name: name, Email: email}
	if err := nv.Validate(cli.validate); err != nil {
		return err
	}
	prov, err := cli.vipSvc.Provision(context.Background(), nv)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Learner %s <%s> created, starting at %q.\n", prov.User.Name, prov.User.Email, prov.Progress.CurrentLessonID)
	fmt.Fprintf(cli.out, "Temporary password: %s\n", prov.TempPassword)
	return nil
}
