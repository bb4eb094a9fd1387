package session

import "strings"

// well-known routes
const (
	RootPath        = "/"
	LoginPath       = "/login"
	StudentHomePath = "/dashboard"
	TeacherHomePath = "/teacher"
	AdminHomePath   = "/admin"
)

// RouteClass is the visibility policy of a route.
type RouteClass int

const (
	// RoutePublic routes need no session at all.
	RoutePublic RouteClass = iota
	// RouteShared routes are visible to any signed-in role.
	RouteShared
	// RouteRoleScoped routes are visible to exactly one role.
	RouteRoleScoped
)

// RouteRule classifies every path under Prefix. A Prefix of "/" matches
// the literal root only.
type RouteRule struct {
	Prefix string
	Class  RouteClass
	Role   Role // set only for RouteRoleScoped
}

// RouteTable is the static route classification supplied by the
// surrounding application; the guard consumes it read-only.
type RouteTable []RouteRule

// Classify returns the rule with the longest matching prefix.
// Routes absent from the table are Public: the guard fails open on
// visibility, the page content stays responsible for its own data access.
func (t RouteTable) Classify(path string) RouteRule {
	best := RouteRule{Class: RoutePublic}
	bestLen := -1
	for _, rule := range t {
		if matchesPrefix(path, rule.Prefix) && len(rule.Prefix) > bestLen {
			best = rule
			bestLen = len(rule.Prefix)
		}
	}
	return best
}

func matchesPrefix(path, prefix string) bool {
	if prefix == RootPath {
		return path == RootPath
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// DefaultRouteTable classifies the application's navigable areas.
func DefaultRouteTable() RouteTable {
	return RouteTable{
		{Prefix: RootPath, Class: RouteShared},
		{Prefix: LoginPath, Class: RoutePublic},
		{Prefix: "/password-reset", Class: RoutePublic},
		{Prefix: StudentHomePath, Class: RouteShared},
		{Prefix: "/profile", Class: RouteShared},
		{Prefix: "/announcements", Class: RouteShared},
		{Prefix: "/chat", Class: RouteShared},
		{Prefix: "/timetable", Class: RouteShared},
		{Prefix: TeacherHomePath, Class: RouteRoleScoped, Role: RoleTeacher},
		{Prefix: AdminHomePath, Class: RouteRoleScoped, Role: RoleAdmin},
	}
}
