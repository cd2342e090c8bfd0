package main

import (
	"context"

	"github.com/nuvatw/nuva-club/storage/database"
)

func (cli *commandLine) migrate(args []string) error {
	return database.RunGoose(context.Background(), cli.db, args[0], args[1:]...)
}
