// Package session implements the session & access guard: it tracks the
// signed-in identity and its resolved role, decides which routes are
// reachable, and shields navigation from identity churn caused by
// administrative provisioning workflows.
package session

import (
	"context"
	"errors"
)

// ErrProfileNotFound is returned by a ProfileStore when no profile record
// exists for an identity.
var ErrProfileNotFound = errors.New("profile not found")

// Identity is the signed-in principal as reported by the identity source.
// It is opaque to this package; only UID is inspected, for staleness checks.
type Identity struct {
	UID   string
	Email string
}

// Source is the external identity provider. Each of SignIn, SignOut and
// CreateAccount triggers a Subscribe callback as a side effect;
// CreateAccount signs the new account in, which is exactly the side effect
// Manager.Transition suppresses reactions to.
type Source interface {
	// Subscribe registers fn to be called with the current identity
	// (nil when signed out) on every change, starting with the current value.
	// The returned func unsubscribes.
	Subscribe(fn func(*Identity)) (unsubscribe func())

	// Current reports the identity currently in effect, nil when signed out.
	Current() *Identity

	SignIn(ctx context.Context, username, password string) (*Identity, error)
	SignOut(ctx context.Context) error
	CreateAccount(ctx context.Context, name, username, email, password, role string) (*Identity, error)
}

// ProfileRecord is the subset of a profile the guard cares about.
// Role is a freeform string; it is only validated by ParseRole.
type ProfileRecord struct {
	UID  string
	Role string
}

// ProfileStore looks up the profile record backing an identity.
// Used only by the Resolver; a single round trip per resolution.
type ProfileStore interface {
	GetProfile(ctx context.Context, uid string) (ProfileRecord, error)
}
