package main

import (
	"context"
	"fmt"

	"github.com/nuvatw/nuva-club/core/coaching"
	"github.com/nuvatw/nuva-club/core/user"
)

func (cli *commandLine) assignCoach(student, coach string) error {
	ctx := context.Background()
	vava, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: student})
	if err != nil {
		return err
	}
	nunu, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: coach})
	if err != nil {
		return err
	}
	a, err := cli.coachSvc.Assign(ctx, coaching.Assign{StudentID: vava.ID, CoachID: nunu.ID})
	if err != nil {
		return err
	}
	fmt.Printf("%s is now coached by %s\n", a.Student.Username, a.Coach.Username)
	return nil
}
