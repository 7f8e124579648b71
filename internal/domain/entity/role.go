package entity

import "strings"

// Role is the coarse authorization tag of an identity. Values are always lowercase.
type Role string

const (
	// RoleStudent posts tuition requests and pays tutors.
	RoleStudent Role = "student"
	// RoleTutor applies to tuition posts.
	RoleTutor Role = "tutor"
	// RoleAdmin manages users and content.
	RoleAdmin Role = "admin"
	// RoleUnknown is used when no role is known for an identity.
	RoleUnknown Role = "unknown"
)

// ParseRole normalizes a role produced by the backend. Casing and surrounding
// whitespace are ignored; anything unrecognized becomes RoleUnknown.
func ParseRole(s string) Role {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if role.IsValid() {
		return role
	}

	return RoleUnknown
}

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is one of the known values.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleTutor, RoleAdmin, RoleUnknown:
		return true
	default:
		return false
	}
}

// Matches compares two roles case-insensitively.
func (r Role) Matches(required Role) bool {
	return ParseRole(string(r)) == ParseRole(string(required))
}

// DashboardPath returns the landing page for the role.
func (r Role) DashboardPath() string {
	switch ParseRole(string(r)) {
	case RoleStudent:
		return "/dashboard/student"
	case RoleTutor:
		return "/dashboard/tutor"
	case RoleAdmin:
		return "/dashboard/admin"
	default:
		return "/dashboard/profile"
	}
}
