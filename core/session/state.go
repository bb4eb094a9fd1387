package session

// State is an immutable snapshot of the current session.
// The zero value is the pre-boot state: the identity source has not yet
// reported anything (Ready is false).
type State struct {
	// Identity currently presented to the user; nil when signed out.
	// While Transitioning it stays anchored to the pre-transition identity
	// regardless of what the identity source reports.
	Identity *Identity

	// Role resolved for Identity. Whenever Identity is nil, Role is
	// RoleUnresolved; no role survives a sign-out.
	Role Role

	// Resolving is true only while a role resolution for the current
	// identity is outstanding.
	Resolving bool

	// Transitioning is true while an administrative workflow is running
	// inside Manager.Transition.
	Transitioning bool

	// Ready flips to true once the identity source has reported its first
	// value; before that the guard renders a loading placeholder.
	Ready bool
}

type (
	// Event mutates session state through Reduce and nothing else.
	Event interface{ isEvent() }

	// IdentityChanged is dispatched for every identity source callback.
	IdentityChanged struct{ Identity *Identity }

	// RoleResolved carries the outcome of a role resolution for UID.
	// Results for an identity that is no longer current are discarded.
	RoleResolved struct {
		UID  string
		Role Role
	}

	// TransitionStarted freezes the state; TransitionEnded resynchronizes
	// it to whatever the identity source reports at that point.
	TransitionStarted struct{}
	TransitionEnded   struct{ Identity *Identity }
)

func (IdentityChanged) isEvent()   {}
func (RoleResolved) isEvent()      {}
func (TransitionStarted) isEvent() {}
func (TransitionEnded) isEvent()   {}

// Reduce returns the next session state for ev. It is a pure function of
// its inputs; callback nesting or dispatch order beyond arrival order has
// no bearing on the outcome.
func Reduce(st State, ev Event) State {
	switch e := ev.(type) {
	case IdentityChanged:
		if st.Transitioning {
			// frozen: the pre-transition identity remains current
			return st
		}
		if e.Identity == nil {
			// signed out: role reset in the same update
			return State{Ready: true}
		}
		return State{Identity: e.Identity, Role: RoleUnresolved, Resolving: true, Ready: true}

	case RoleResolved:
		if st.Transitioning {
			return st
		}
		if st.Identity == nil || st.Identity.UID != e.UID {
			// stale resolution: identity changed mid-flight, discard
			return st
		}
		next := st
		next.Role = e.Role
		next.Resolving = false
		return next

	case TransitionStarted:
		next := st
		next.Transitioning = true
		return next

	case TransitionEnded:
		if e.Identity == nil {
			return State{Ready: true}
		}
		if st.Identity != nil && st.Identity.UID == e.Identity.UID {
			// the anchored identity was restored; keep its resolved role
			next := st
			next.Transitioning = false
			return next
		}
		return State{Identity: e.Identity, Role: RoleUnresolved, Resolving: true, Ready: true}
	}
	return st
}
