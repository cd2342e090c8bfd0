package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nuvatw/nuva-club/apps/api/di"
	"github.com/nuvatw/nuva-club/core"
	emailsvc "github.com/nuvatw/nuva-club/services/email"
	logsvc "github.com/nuvatw/nuva-club/services/logger"
	"github.com/nuvatw/nuva-club/storage/cache"
	"github.com/nuvatw/nuva-club/storage/database"
	"github.com/nuvatw/nuva-club/storage/database/sqlxrepos"
)

func main() {
	conf, err := core.NewConfig()
	errAndDie(err)

	logger := logsvc.NewRollbarLogger(os.Stderr, conf)
	logger.Enable(false)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(database.Ping(context.Background(), db))

	// set up services
	deps := di.NewDeps(conf, di.Infra{
		DB:     db,
		Cache:  cache.NewMemory(),
		Mail:   emailsvc.NewConsoleService(conf, os.Stdout, logger),
		Logger: logger,
	})

	// start CLI
	cli := commandLine{
		db:       db,
		usrRepo:  sqlxrepos.NewUserRepository(db),
		subSvc:   deps.SubscriptionSvc,
		coachSvc: deps.CoachingSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		_ = db.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "admin: %v\n", err)
		os.Exit(1)
	}
}
