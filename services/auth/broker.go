// Package authsvc provides the in-process identity source backing the
// session guard: credential sign-in/sign-out and account creation over the
// user service, with identity-change fan-out to subscribers.
package authsvc

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/darasapp/darasa/core/session"
	"github.com/darasapp/darasa/core/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid username/email or password")
	ErrAccountDeactivated = errors.New("account deactivated")
)

type Broker struct {
	usrSvc user.Service

	mu        sync.Mutex
	cur       *session.Identity
	subs      map[int]func(*session.Identity)
	nextSubID int
}

var _ session.Source = (*Broker)(nil)

func NewBroker(usrSvc user.Service) *Broker {
	return &Broker{
		usrSvc: usrSvc,
		subs:   make(map[int]func(*session.Identity)),
	}
}

// Subscribe registers fn and calls it with the current identity right away.
func (b *Broker) Subscribe(fn func(*session.Identity)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextSubID
	b.nextSubID++
	b.subs[id] = fn
	cur := b.cur
	b.mu.Unlock()

	fn(cur)
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *Broker) Current() *session.Identity {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cur
}

func (b *Broker) SignIn(ctx context.Context, uname, pwd string) (*session.Identity, error) {
	usr, err := b.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !usr.Active() {
		return nil, ErrAccountDeactivated
	}

	if usr, err = b.usrSvc.SetLastLogin(ctx, usr); err != nil {
		return nil, err
	}
	id := &session.Identity{UID: usr.ID, Email: usr.Email}
	b.set(id)
	return id, nil
}

func (b *Broker) SignOut(_ context.Context) error {
	b.set(nil)
	return nil
}

// CreateAccount creates the user and signs the new account in. Callers
// provisioning on someone else's behalf run this inside Manager.Transition
// and sign the original account back in before the workflow ends.
func (b *Broker) CreateAccount(ctx context.Context, name, uname, email, pwd, role string) (*session.Identity, error) {
	nu := user.NewUser{
		Name:            name,
		Username:        uname,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
		Role:            role,
	}
	if err := nu.Validate(ctx, b.usrSvc); err != nil {
		return nil, err
	}
	usr, err := b.usrSvc.Create(ctx, nu)
	if err != nil {
		return nil, err
	}

	id := &session.Identity{UID: usr.ID, Email: usr.Email}
	b.set(id)
	return id, nil
}

func (b *Broker) set(id *session.Identity) {
	b.mu.Lock()
	b.cur = id
	subs := make([]func(*session.Identity), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(id)
	}
}

// ProfileStore resolves session roles from the user repository; the user
// table is the profile record store.
type ProfileStore struct {
	repo user.Repository
}

var _ session.ProfileStore = (*ProfileStore)(nil)

func NewProfileStore(repo user.Repository) *ProfileStore {
	return &ProfileStore{repo: repo}
}

func (ps *ProfileStore) GetProfile(ctx context.Context, uid string) (session.ProfileRecord, error) {
	usr, err := ps.repo.GetUser(ctx, user.GetFilter{ID: uid})
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return session.ProfileRecord{}, session.ErrProfileNotFound
		}
		return session.ProfileRecord{}, err
	}
	return session.ProfileRecord{UID: usr.ID, Role: usr.Role}, nil
}
