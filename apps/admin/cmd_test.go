package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuvatw/nuva-club/apps/api/di"
	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/subscription"
	"github.com/nuvatw/nuva-club/core/user"
	emailsvc "github.com/nuvatw/nuva-club/services/email"
	"github.com/nuvatw/nuva-club/storage/cache"
	"github.com/nuvatw/nuva-club/storage/database"
	"github.com/nuvatw/nuva-club/storage/database/sqlxrepos"
	testutil "github.com/nuvatw/nuva-club/tests"
)

func setup(t *testing.T) *commandLine {
	t.Helper()
	conf := core.NewTestConfig()
	db := testutil.PrepareDB(t)
	deps := di.NewDeps(conf, di.Infra{
		DB:     db,
		Cache:  cache.NewMemory(),
		Mail:   emailsvc.NewConsoleServiceMock(conf),
		Logger: core.NopLogger(),
	})

	origRead := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = origRead })

	return &commandLine{
		db:       db,
		usrRepo:  sqlxrepos.NewUserRepository(db),
		subSvc:   deps.SubscriptionSvc,
		coachSvc: deps.CoachingSvc,
	}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(tt.pwd)
			err := cli.run(append([]string{"admin"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrStr != "":
				assert.EqualError(t, err, tt.wantErrStr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_run(t *testing.T) {
	cli := setup(t)
	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "migrate without command", args: []string{"migrate"}, wantErr: errHelp},
	})
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	origRun := database.GooseRunFunc
	t.Cleanup(func() { database.GooseRunFunc = origRun })

	var ran []string
	database.GooseRunFunc = func(_ context.Context, command string, _ *sql.DB, _ string, args ...string) error {
		switch command {
		case "up", "down", "status", "version", "redo", "reset":
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s needs a version", command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		ran = append(ran, command)
		return nil
	}

	runCLITests(t, cli, []cliTest{
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: `running goose lol: "lol": no such command`},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "running goose up-to: up-to needs a version"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "running goose down-to: version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "status", args: []string{"migrate", "status"}},
	})
	assert.Equal(t, []string{"up", "up-to", "status"}, ran)
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()
	testutil.CreateUser(t, cli.usrRepo, "Taken", "taken", "taken@nuva.club", "secret", user.VavaRoles, true)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no email", args: []string{"adduser", "-username", "ann"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "ann", "-email", "ann@nuva.club"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"adduser", "-username", "ann", "-email", "ann@nuva.club", "-role", "wizard"}, pwd: "pwd", wantErrStr: `unknown role "wizard"`},
	})

	t.Run("email taken", func(t *testing.T) {
		mockPassword("pwd")
		err := cli.run([]string{"admin", "adduser", "-username", "ann", "-email", "taken@nuva.club"})
		assert.ErrorIs(t, err, user.ErrEmailExists)
	})

	t.Run("create", func(t *testing.T) {
		mockPassword("s3cret")
		err := cli.run([]string{"admin", "adduser", "-username", " Ann ", "-email", "ANN@nuva.club", "-name", "Ann"})
		require.NoError(t, err)

		usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Username: "ann"})
		require.NoError(t, err)
		assert.Equal(t, "ann@nuva.club", usr.Email)
		assert.Equal(t, "Ann", usr.Name)
		assert.Equal(t, []string{user.RoleVava}, usr.Roles)
		assert.Equal(t, user.MinLevel, usr.Level)
		assert.True(t, usr.IsActive)
		assert.NoError(t, usr.CheckPassword("s3cret"))

		sub, err := cli.subSvc.Get(ctx, usr.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.PlanFree, sub.Plan)
		assert.False(t, sub.StartedAt.IsZero())
	})

	t.Run("promote existing", func(t *testing.T) {
		mockPassword("n3w")
		err := cli.run([]string{"admin", "adduser", "-username", "ann", "-email", "ann@nuva.club", "-role", "guardian"})
		require.NoError(t, err)

		usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Username: "ann"})
		require.NoError(t, err)
		assert.Equal(t, "Ann", usr.Name)
		assert.ElementsMatch(t, user.GuardianRoles, usr.Roles)
		assert.NoError(t, usr.CheckPassword("n3w"))
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	usr := testutil.CreateUser(t, cli.usrRepo, "User", "awe", "awe@nuva.club", "mdr", nil, true)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, pwd: "lol"},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, pwd: "lmao"},
	})

	refreshed, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.NoError(t, refreshed.CheckPassword("lmao"))
}

func Test_commandLine_assignCoach(t *testing.T) {
	cli := setup(t)
	vava := testutil.CreateUser(t, cli.usrRepo, "Vava", "vava", "vava@nuva.club", "pwd", user.VavaRoles, true)
	nunu := testutil.CreateUser(t, cli.usrRepo, "Nunu", "nunu", "nunu@nuva.club", "pwd", user.NunuRoles, true)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"assigncoach"}, wantErr: errHelp},
		{name: "no coach", args: []string{"assigncoach", "-student", "vava"}, wantErr: errHelp},
		{name: "unknown student", args: []string{"assigncoach", "-student", "lol", "-coach", "nunu"}, wantErr: user.ErrNotFound},
		{name: "unknown coach", args: []string{"assigncoach", "-student", "vava", "-coach", "lol"}, wantErr: user.ErrNotFound},
		{name: "assign", args: []string{"assigncoach", "-student", "vava@nuva.club", "-coach", "nunu"}},
	})

	a, err := cli.coachSvc.CoachOf(context.Background(), vava.ID)
	require.NoError(t, err)
	assert.Equal(t, nunu.ID, a.Coach.ID)

	err = cli.run([]string{"admin", "assigncoach", "-student", "nunu", "-coach", "vava"})
	assert.Error(t, err)
}
