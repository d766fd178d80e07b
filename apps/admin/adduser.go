package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/user"
)

// addUser updates or creates an active user.User
func (cli *commandLine) addUser(name, email, role, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	role = core.CleanString(role, true /* lower */)
	if !user.IsValidRole(role) {
		return errors.Errorf("invalid role %q", role)
	}

	now := time.Now().UTC()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	create := false
	if err != nil {
		if !core.IsNotFound(err) {
			return err
		}
		create = true
		usr = user.User{Email: email, CreatedAt: now}
	}
	usr.FullName = name
	usr.Role = role
	usr.IsActive = true
	usr.UpdatedAt = now
	if usr.IsParticipant() && usr.UniqueID == "" {
		usr.UniqueID = user.NewUniqueID()
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if create {
		usr, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		usr, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s> saved as %s\n", usr.FullName, usr.Email, usr.Role)
	return nil
}
