package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/darasapp/darasa/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sql.DB
	usrRepo user.Repository
	usrSvc  user.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -username USERNAME -email EMAIL [-admin] - create or update a user")
	fmt.Println("  provision -admin USERNAME|EMAIL -name NAME -username USERNAME -email EMAIL -role ROLE - provision an account on an admin's behalf")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Println("  migrate COMMAND [args] - run DB migrations")
}

func (cli *commandLine) promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserIsAdmin := addUserCmd.Bool("admin", false, "Grant the admin role.")

	provisionCmd := flag.NewFlagSet("provision", flag.ExitOnError)
	provisionAdmin := provisionCmd.String("admin", "", "The provisioning admin's username or email. Both passwords will be prompted next.")
	provisionName := provisionCmd.String("name", "", "The new user's full name.")
	provisionUname := provisionCmd.String("username", "", "The new user's username.")
	provisionEmail := provisionCmd.String("email", "", "The new user's email.")
	provisionRole := provisionCmd.String("role", user.RoleStudent, "The new user's role: student, teacher or admin.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" && *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserUname, *addUserEmail, pwd, *addUserIsAdmin)

	case "provision":
		if err := provisionCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *provisionAdmin == "" || (*provisionUname == "" && *provisionEmail == "") {
			provisionCmd.Usage()
			return errHelp
		}
		adminPwd, err := cli.promptPassword("Enter admin password:")
		if err != nil {
			return err
		}
		pwd, err := cli.promptPassword("Enter new user's password:")
		if err != nil {
			return err
		}
		if adminPwd == "" || pwd == "" {
			provisionCmd.Usage()
			return errHelp
		}
		return cli.provision(*provisionAdmin, adminPwd, *provisionName, *provisionUname, *provisionEmail, pwd, *provisionRole)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

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
