package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type sourceMock struct {
	mu   sync.Mutex
	cur  *Identity
	subs []func(*Identity)
}

func (s *sourceMock) Subscribe(fn func(*Identity)) (unsubscribe func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	cur := s.cur
	s.mu.Unlock()
	fn(cur)
	return func() {}
}

func (s *sourceMock) Current() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// set swaps the current identity and notifies subscribers, the way a real
// source reacts to sign-in and sign-out.
func (s *sourceMock) set(id *Identity) {
	s.mu.Lock()
	s.cur = id
	subs := append([]func(*Identity){}, s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(id)
	}
}

func (s *sourceMock) SignIn(_ context.Context, _, _ string) (*Identity, error) {
	return nil, errors.New("not implemented")
}
func (s *sourceMock) SignOut(_ context.Context) error { s.set(nil); return nil }
func (s *sourceMock) CreateAccount(_ context.Context, _, _, _, _, _ string) (*Identity, error) {
	return nil, errors.New("not implemented")
}

type profileStoreMock struct {
	mu    sync.Mutex
	roles map[string]string
	// when set, GetProfile for that UID blocks until released
	gates map[string]chan struct{}
}

func (ps *profileStoreMock) GetProfile(ctx context.Context, uid string) (ProfileRecord, error) {
	ps.mu.Lock()
	gate := ps.gates[uid]
	ps.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ProfileRecord{}, ctx.Err()
		}
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	role, ok := ps.roles[uid]
	if !ok {
		return ProfileRecord{}, ErrProfileNotFound
	}
	return ProfileRecord{UID: uid, Role: role}, nil
}

func newTestManager(roles map[string]string) (*Manager, *sourceMock, *profileStoreMock) {
	src := &sourceMock{}
	store := &profileStoreMock{roles: roles, gates: make(map[string]chan struct{})}
	return NewManager(src, NewResolver(store, time.Second, nil)), src, store
}

// waitFor blocks until the manager publishes a state satisfying pred.
func waitFor(t *testing.T, m *Manager, pred func(State) bool) State {
	t.Helper()

	done := make(chan State, 1)
	var once sync.Once
	unsub := m.Subscribe(func(st State) {
		if pred(st) {
			once.Do(func() { done <- st })
		}
	})
	defer unsub()

	if st := m.State(); pred(st) {
		return st
	}
	select {
	case st := <-done:
		return st
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for state, last: %+v", m.State())
		return State{}
	}
}

func TestManagerResolvesRoleOnSignIn(t *testing.T) {
	m, src, _ := newTestManager(map[string]string{alice.UID: RawRoleTeacher})
	m.Start(context.Background())
	defer m.Stop()

	if st := m.State(); !st.Ready || st.Identity != nil {
		t.Fatalf("after start: state = %+v, want ready and signed out", st)
	}

	src.set(&alice)
	st := waitFor(t, m, func(st State) bool { return !st.Resolving })
	if st.Role != RoleTeacher {
		t.Errorf("Role = %v, want %v", st.Role, RoleTeacher)
	}

	src.set(nil)
	st = waitFor(t, m, func(st State) bool { return st.Identity == nil })
	if st.Role != RoleUnresolved {
		t.Errorf("Role after sign out = %v, want %v", st.Role, RoleUnresolved)
	}
}

func TestManagerMissingProfileFailsClosed(t *testing.T) {
	m, src, _ := newTestManager(map[string]string{})
	m.Start(context.Background())
	defer m.Stop()

	src.set(&alice)
	st := waitFor(t, m, func(st State) bool { return st.Identity != nil && !st.Resolving })
	if st.Role != RoleUnresolved {
		t.Errorf("Role = %v, want %v", st.Role, RoleUnresolved)
	}
}

func TestManagerDiscardsStaleResolution(t *testing.T) {
	m, src, store := newTestManager(map[string]string{
		alice.UID: RawRoleAdmin,
		bob.UID:   RawRoleStudent,
	})
	gate := make(chan struct{})
	store.gates[alice.UID] = gate

	m.Start(context.Background())
	defer m.Stop()

	// alice's resolution is in flight and stuck at the gate
	src.set(&alice)
	// bob takes over before it lands
	src.set(&bob)
	st := waitFor(t, m, func(st State) bool { return st.Identity != nil && !st.Resolving })
	if st.Role != RoleStudent {
		t.Fatalf("Role = %v, want %v", st.Role, RoleStudent)
	}

	// alice's late result must be discarded, not applied to bob's session
	close(gate)
	time.Sleep(50 * time.Millisecond)
	if st := m.State(); st.Role != RoleStudent || st.Identity.UID != bob.UID {
		t.Errorf("state after stale resolution = %+v, want bob as %v", st, RoleStudent)
	}
}

func TestManagerTransitionAnchorsIdentity(t *testing.T) {
	m, src, _ := newTestManager(map[string]string{
		alice.UID: RawRoleAdmin,
		bob.UID:   RawRoleStudent,
	})
	m.Start(context.Background())
	defer m.Stop()

	src.set(&alice)
	waitFor(t, m, func(st State) bool { return st.Role == RoleAdmin })

	err := m.Transition(context.Background(), func(ctx context.Context) error {
		// account creation signs the new user in; the session must not follow
		src.set(&bob)
		if st := m.State(); st.Identity.UID != alice.UID || st.Role != RoleAdmin {
			t.Errorf("state during transition = %+v, want alice anchored as admin", st)
		}
		// the workflow restores the original identity before finishing
		src.set(&alice)
		return nil
	})
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}

	st := m.State()
	if st.Transitioning {
		t.Error("Transitioning still set after Transition returned")
	}
	if st.Identity == nil || st.Identity.UID != alice.UID || st.Role != RoleAdmin {
		t.Errorf("state after transition = %+v, want alice as admin with no re-resolution", st)
	}
}

func TestManagerTransitionResyncsToNewIdentity(t *testing.T) {
	m, src, _ := newTestManager(map[string]string{
		alice.UID: RawRoleAdmin,
		bob.UID:   RawRoleStudent,
	})
	m.Start(context.Background())
	defer m.Stop()

	src.set(&alice)
	waitFor(t, m, func(st State) bool { return st.Role == RoleAdmin })

	// the workflow ends without signing the original user back in
	_ = m.Transition(context.Background(), func(ctx context.Context) error {
		src.set(&bob)
		return nil
	})

	st := waitFor(t, m, func(st State) bool { return !st.Resolving })
	if st.Identity == nil || st.Identity.UID != bob.UID || st.Role != RoleStudent {
		t.Errorf("state after transition = %+v, want bob as %v", st, RoleStudent)
	}
}

func TestManagerTransitionReleasesOnErrorAndPanic(t *testing.T) {
	m, src, _ := newTestManager(map[string]string{alice.UID: RawRoleAdmin})
	m.Start(context.Background())
	defer m.Stop()

	src.set(&alice)
	waitFor(t, m, func(st State) bool { return st.Role == RoleAdmin })

	wantErr := errors.New("boom")
	if err := m.Transition(context.Background(), func(ctx context.Context) error {
		return wantErr
	}); err != wantErr {
		t.Errorf("Transition() error = %v, want %v", err, wantErr)
	}
	if st := m.State(); st.Transitioning {
		t.Error("Transitioning still set after an error return")
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected the panic to propagate")
			}
		}()
		_ = m.Transition(context.Background(), func(ctx context.Context) error {
			panic("boom")
		})
	}()
	if st := m.State(); st.Transitioning {
		t.Error("Transitioning still set after a panic")
	}
	if st := m.State(); st.Identity == nil || st.Identity.UID != alice.UID {
		t.Errorf("state after panic = %+v, want alice still signed in", m.State())
	}
}
