package session

import (
	"github.com/darasapp/darasa/core"
)

// Role is the access tier resolved from a user profile.
// It is only ever constructed through ParseRole; RoleUnresolved means
// resolution is in flight, failed, or the profile carried a foreign value.
// It is distinct from "known to have no role".
type Role int

const (
	RoleUnresolved Role = iota
	RoleStudent
	RoleTeacher
	RoleAdmin
)

// raw role strings as stored in profile records
const (
	RawRoleStudent = "student"
	RawRoleTeacher = "teacher"
	RawRoleAdmin   = "admin"
)

// ParseRole maps a freeform profile role string to a Role.
// Input is case/whitespace-normalized; anything outside the three known
// roles maps to RoleUnresolved, never to a guessed role.
func ParseRole(raw string) Role {
	switch core.CleanString(raw, true /* lower */) {
	case RawRoleStudent:
		return RoleStudent
	case RawRoleTeacher:
		return RoleTeacher
	case RawRoleAdmin:
		return RoleAdmin
	}
	return RoleUnresolved
}

func (r Role) String() string {
	switch r {
	case RoleStudent:
		return RawRoleStudent
	case RoleTeacher:
		return RawRoleTeacher
	case RoleAdmin:
		return RawRoleAdmin
	}
	return "unresolved"
}

func (r Role) Resolved() bool { return r != RoleUnresolved }

// HomePath returns the dedicated landing route for a role.
func (r Role) HomePath() string {
	switch r {
	case RoleTeacher:
		return TeacherHomePath
	case RoleAdmin:
		return AdminHomePath
	}
	return StudentHomePath
}
