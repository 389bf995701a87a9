package main

import (
	"context"
	"time"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, found, err := cli.findUser(ctx, uname, email)
	if err != nil {
		return err
	}
	if !found {
		now := time.Now().UTC()
		usr = user.User{
			Name:      uname,
			Username:  uname,
			Email:     email,
			CreatedAt: now,
		}
		if usr.Name == "" {
			usr.Name = email
		}
	} else {
		if uname != "" {
			usr.Username = uname
		}
		if email != "" {
			usr.Email = email
		}
	}
	if isAdmin {
		usr.Roles = user.AdminRoles
	}
	usr.IsActive = true
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()

	if found {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	return err
}

// findUser looks a user up by username, then by email.
func (cli *commandLine) findUser(ctx context.Context, uname, email string) (user.User, bool, error) {
	for _, filter := range []user.GetFilter{{Username: uname}, {Email: email}} {
		if filter.Username == "" && filter.Email == "" {
			continue
		}
		usr, err := cli.usrRepo.GetUser(ctx, filter)
		if err == nil {
			return usr, true, nil
		}
		if err != user.ErrNotFound {
			return user.User{}, false, err
		}
	}
	return user.User{}, false, nil
}
