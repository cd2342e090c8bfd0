package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/nuvatw/nuva-club/core/coaching"
	"github.com/nuvatw/nuva-club/core/subscription"
	"github.com/nuvatw/nuva-club/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sqlx.DB
	usrRepo  user.Repository
	subSvc   *subscription.Service
	coachSvc *coaching.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -username USERNAME -email EMAIL [-name NAME] [-role guardian|nunu|vava] - create or update a member")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset a member's password")
	fmt.Println("  assigncoach -student USERNAME|EMAIL -coach USERNAME|EMAIL - pair a vava with a nunu")
	fmt.Println("  migrate COMMAND [ARGS...] - run a goose command (up, down, status, ...)")
}

// promptPassword reads a password without echoing it. An empty password prints usage.
func promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The member's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The member's email.")
	addUserName := addUserCmd.String("name", "", "The member's display name.")
	addUserRole := addUserCmd.String("role", "", "One of guardian, nunu or vava. Keeps the current roles when empty.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The member's username or email. The password will be prompted next.")

	assignCoachCmd := flag.NewFlagSet("assigncoach", flag.ContinueOnError)
	assignStudent := assignCoachCmd.String("student", "", "The vava's username or email.")
	assignCoach := assignCoachCmd.String("coach", "", "The nunu's username or email.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, pwd, *addUserRole)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "assigncoach":
		if err := assignCoachCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *assignStudent == "" || *assignCoach == "" {
			assignCoachCmd.Usage()
			return errHelp
		}
		return cli.assignCoach(*assignStudent, *assignCoach)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	default:
		cli.printUsage()
		return errHelp
	}
}
