package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/darasapp/darasa/core"
	"github.com/darasapp/darasa/core/session"
	authsvc "github.com/darasapp/darasa/services/auth"
)

var errNotAdmin = errors.New("admin privileges required")

// provision creates an account on an admin's behalf. Account creation
// signs the new account in, so the whole workflow runs inside
// Manager.Transition: the admin's session stays anchored until the admin
// is signed back in and the transition ends.
func (cli *commandLine) provision(adminUname, adminPwd, name, uname, email, pwd, role string) error {
	ctx := context.Background()

	broker := authsvc.NewBroker(cli.usrSvc)
	resolver := session.NewResolver(authsvc.NewProfileStore(cli.usrRepo), core.Conf.Session.RoleResolveTimeout, nil)
	mgr := session.NewManager(broker, resolver)
	mgr.Start(ctx)
	defer mgr.Stop()

	admin, err := broker.SignIn(ctx, adminUname, adminPwd)
	if err != nil {
		return err
	}
	usr, err := cli.usrSvc.GetByID(ctx, admin.UID)
	if err != nil {
		return err
	}
	if !usr.IsAdmin() {
		return errNotAdmin
	}

	err = mgr.Transition(ctx, func(ctx context.Context) error {
		if _, err := broker.CreateAccount(ctx, name, uname, email, pwd, role); err != nil {
			return err
		}
		_, err := broker.SignIn(ctx, adminUname, adminPwd)
		return err
	})
	if err != nil {
		return err
	}
	return broker.SignOut(ctx)
}
