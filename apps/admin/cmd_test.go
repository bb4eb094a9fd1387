package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/darasapp/darasa/core/user"
	authsvc "github.com/darasapp/darasa/services/auth"
	emailsvc "github.com/darasapp/darasa/services/email"
	inmemdb "github.com/darasapp/darasa/storage/database/inmem"
	testutil "github.com/darasapp/darasa/tests"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	t.Helper()

	db := inmemdb.NewDB()
	usrRepo = inmemdb.NewUserRepository(db)

	// start CLI
	return &commandLine{
		usrRepo: usrRepo,
		usrSvc:  user.NewServiceMock(usrRepo, emailsvc.NewConsoleServiceMock()),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "attendance", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "aweawe", "awe@test.cd", "mdr", user.RoleStudent, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				if err != nil {
					t.Fatalf("GetUser() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"adduser", "-username", "kinzaza"}, wantErr: errHelp},
		{name: "create student", args: []string{"adduser", "-username", "kinzaza", "-email", "kin@test.cd"}, extra: extra{pwd: "lol"}},
		{name: "promote to admin", args: []string{"adduser", "-username", "kinzaza", "-email", "kin@test.cd", "-admin"}, extra: extra{pwd: "lol"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Username: "kinzaza"})
			if err != nil {
				t.Fatalf("GetUser() failed, %v", err)
			}
			if !usr.Active() {
				t.Error("user should be active")
			}
		})
	}

	usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Username: "kinzaza"})
	if err != nil {
		t.Fatalf("GetUser() failed, %v", err)
	}
	if usr.Role != user.RoleAdmin {
		t.Errorf("user role = %s, want %s", usr.Role, user.RoleAdmin)
	}
}

func Test_commandLine_provision(t *testing.T) {
	cli := setup(t)

	adminPwd := "s3cretW0rd!"
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", adminPwd, user.RoleAdmin, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "studen1", "student@test.cd", adminPwd, user.RoleStudent, true)

	newUserArgs := []string{"-name", "Teacher One", "-username", "teach1", "-email", "teacher@test.cd", "-role", user.RoleTeacher}

	type extra struct {
		pwds []string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"provision"}, wantErr: errHelp},
		{
			name:    "missing admin",
			args:    append([]string{"provision"}, newUserArgs...),
			wantErr: errHelp,
		},
		{
			name:    "admin not found",
			args:    append([]string{"provision", "-admin", "lol"}, newUserArgs...),
			extra:   extra{pwds: []string{"lol", "lol"}},
			wantErr: authsvc.ErrInvalidCredentials,
		},
		{
			name:    "wrong admin password",
			args:    append([]string{"provision", "-admin", admin.Username}, newUserArgs...),
			extra:   extra{pwds: []string{"wrong", "lol"}},
			wantErr: authsvc.ErrInvalidCredentials,
		},
		{
			name:    "not an admin",
			args:    append([]string{"provision", "-admin", student.Username}, newUserArgs...),
			extra:   extra{pwds: []string{adminPwd, "lol"}},
			wantErr: errNotAdmin,
		},
		{
			name:  "provision teacher",
			args:  append([]string{"provision", "-admin", admin.Username}, newUserArgs...),
			extra: extra{pwds: []string{adminPwd, "G00d.Pass!"}},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		call := 0
		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok && call < len(extra.pwds) {
				pwd := extra.pwds[call]
				call++
				return []byte(pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Username: "teach1"})
			if err != nil {
				t.Fatalf("GetUser() failed, %v", err)
			}
			if usr.Role != user.RoleTeacher {
				t.Errorf("user role = %s, want %s", usr.Role, user.RoleTeacher)
			}
			if !usr.Active() {
				t.Error("user should be active")
			}
		})
	}
}
