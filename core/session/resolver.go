package session

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/darasapp/darasa/core"
)

const defaultResolveTimeout = 8 * time.Second

// Resolver resolves the role attribute of an identity from its profile
// record, one lookup per identity change.
type Resolver struct {
	store   ProfileStore
	timeout time.Duration
	logger  core.Logger
}

func NewResolver(store ProfileStore, timeout time.Duration, logger core.Logger) *Resolver {
	if timeout <= 0 {
		timeout = defaultResolveTimeout
	}
	return &Resolver{store: store, timeout: timeout, logger: logger}
}

// Resolve fails closed: any error, a missing profile record or a foreign
// role string all yield RoleUnresolved. It never returns an error to the
// navigation layer.
func (r *Resolver) Resolve(ctx context.Context, id Identity) Role {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rec, err := r.store.GetProfile(ctx, id.UID)
	if err != nil {
		if errors.Cause(err) != ErrProfileNotFound && r.logger != nil {
			r.logger.Warn("resolving role", errors.Wrap(err, "getting profile"))
		}
		return RoleUnresolved
	}
	return ParseRole(rec.Role)
}
