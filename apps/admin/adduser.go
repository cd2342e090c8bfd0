package main

import (
	"context"
	"fmt"

	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/user"
	"github.com/nuvatw/nuva-club/storage/database/sqlxrepos"
)

var roleFamilies = map[string][]string{
	"guardian": user.GuardianRoles,
	"nunu":     user.NunuRoles,
	"vava":     user.VavaRoles,
}

// addUser updates or creates a user.User. New members start on the free plan.
func (cli *commandLine) addUser(name, uname, email, pwd, role string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	var roles []string
	if role != "" {
		var ok bool
		if roles, ok = roleFamilies[role]; !ok {
			return fmt.Errorf("unknown role %q", role)
		}
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Username: uname})
	isNew := core.IsNotFound(err)
	if err != nil && !isNew {
		return err
	}

	var excluded []string
	if !isNew {
		excluded = append(excluded, usr.ID)
	}
	if err = cli.usrRepo.CheckUsernameUniqueness(ctx, uname, email, excluded...); err != nil {
		return err
	}

	now := core.NowFunc()
	usr.Username = uname
	usr.Email = email
	usr.IsActive = true
	usr.UpdatedAt = now
	if name = core.CleanString(name); name != "" {
		usr.Name = name
	}
	if roles != nil {
		usr.Roles = append([]string(nil), roles...)
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if !isNew {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
		return err
	}

	usr.CreatedAt = now
	usr.Level = user.MinLevel
	if len(usr.Roles) == 0 {
		usr.Roles = []string{user.RoleVava}
	}
	return sqlxrepos.NewTransactor(cli.db).InTx(ctx, func(ctx context.Context) error {
		created, err := cli.usrRepo.CreateUser(ctx, usr)
		if err != nil {
			return err
		}
		_, err = cli.subSvc.StartFree(ctx, created.ID)
		return err
	})
}
