package session

// DecisionKind tells the navigation layer what to do with a request.
type DecisionKind int

const (
	// DecisionPending means access cannot be confirmed yet; render a
	// loading placeholder, do not redirect.
	DecisionPending DecisionKind = iota
	DecisionAllow
	DecisionRedirect
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionAllow:
		return "allow"
	case DecisionRedirect:
		return "redirect"
	}
	return "pending"
}

// Decision is the outcome of evaluating one navigation request.
type Decision struct {
	Kind       DecisionKind
	RedirectTo string
}

func Pending() Decision { return Decision{Kind: DecisionPending} }
func Allow() Decision   { return Decision{Kind: DecisionAllow} }
func RedirectTo(to string) Decision {
	return Decision{Kind: DecisionRedirect, RedirectTo: to}
}

// Decide evaluates a navigation request against the current session state
// and the route classification table.
//
// It is a pure, total function of its inputs: it never suspends, keeps no
// redirect history, and repeated evaluation of its own redirect targets
// converges to Allow instead of looping.
func Decide(st State, path string, routes RouteTable) Decision {
	rule := routes.Classify(path)

	// awaiting the first identity report
	if !st.Ready {
		return Pending()
	}

	if st.Identity == nil {
		if st.Transitioning {
			// a transition anchored on a signed-out session; hold
			return Pending()
		}
		if rule.Class == RoutePublic {
			return Allow()
		}
		return RedirectTo(LoginPath)
	}

	if rule.Class == RoutePublic && path != RootPath {
		return Allow()
	}

	// awaiting role: keep the current route displayed to avoid a bounce,
	// but hold role-scoped routes since access cannot be confirmed yet
	if !st.Role.Resolved() {
		if rule.Class == RouteRoleScoped {
			return Pending()
		}
		return Allow()
	}

	// at the literal root, the role's dedicated dashboard wins over the
	// shared classification; past root, shared always wins
	if path == RootPath {
		return RedirectTo(st.Role.HomePath())
	}

	if rule.Class == RouteRoleScoped && rule.Role != st.Role {
		return RedirectTo(st.Role.HomePath())
	}
	return Allow()
}
