package session

import (
	"context"
	"sync"
)

// Manager owns the single session State instance. It is the only mutator:
// identity source callbacks and resolver completions enter through it, go
// through Reduce, and every change publishes a new immutable snapshot to
// all subscribers. Everything else only ever reads snapshots.
type Manager struct {
	src      Source
	resolver *Resolver

	mu           sync.Mutex
	state        State
	subs         map[int]func(State)
	nextSubID    int
	resolvingUID string
	unsubscribe  func()
}

func NewManager(src Source, resolver *Resolver) *Manager {
	return &Manager{
		src:      src,
		resolver: resolver,
		subs:     make(map[int]func(State)),
	}
}

// Start subscribes to the identity source. ctx bounds all role resolutions
// issued by the manager.
func (m *Manager) Start(ctx context.Context) {
	m.unsubscribe = m.src.Subscribe(func(id *Identity) {
		st := m.dispatch(IdentityChanged{Identity: id})
		m.maybeResolve(ctx, st)
	})
}

func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// State returns the current snapshot.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn to be called with every published snapshot.
// The returned func unsubscribes.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Transition runs fn with session reactions to identity changes
// suppressed: the pre-transition identity stays anchored and guard
// decisions are frozen until fn returns. The flag is released on every
// exit path, including error returns and panics, and the state is then
// resynchronized to whatever the identity source currently reports; a
// forgotten release cannot happen by construction.
func (m *Manager) Transition(ctx context.Context, fn func(context.Context) error) error {
	m.dispatch(TransitionStarted{})
	defer func() {
		st := m.dispatch(TransitionEnded{Identity: m.src.Current()})
		m.maybeResolve(ctx, st)
	}()
	return fn(ctx)
}

// dispatch reduces ev into the state and notifies subscribers on change.
func (m *Manager) dispatch(ev Event) State {
	m.mu.Lock()
	prev := m.state
	next := Reduce(prev, ev)
	m.state = next

	var subs []func(State)
	if next != prev {
		subs = make([]func(State), 0, len(m.subs))
		for _, fn := range m.subs {
			subs = append(subs, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// maybeResolve issues exactly one role resolution per new identity.
// Completions are dispatched as RoleResolved; Reduce discards any that
// arrive after their identity stopped being current.
func (m *Manager) maybeResolve(ctx context.Context, st State) {
	if !st.Resolving || st.Identity == nil {
		m.mu.Lock()
		m.resolvingUID = ""
		m.mu.Unlock()
		return
	}

	id := *st.Identity
	m.mu.Lock()
	if m.resolvingUID == id.UID {
		m.mu.Unlock()
		return
	}
	m.resolvingUID = id.UID
	m.mu.Unlock()

	go func() {
		role := m.resolver.Resolve(ctx, id)

		m.mu.Lock()
		if m.resolvingUID == id.UID {
			m.resolvingUID = ""
		}
		m.mu.Unlock()

		m.dispatch(RoleResolved{UID: id.UID, Role: role})
	}()
}
