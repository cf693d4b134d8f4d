package roles

import "strings"

// Role is the coarse page-access tag attached to a user profile. All role
// comparisons in the codebase go through this type; handlers must not keep
// their own string sets.
type Role string

const (
	RoleCEO          Role = "ceo"
	RoleCFO          Role = "cfo"
	RoleCMO          Role = "cmo"
	RoleCTO          Role = "cto"
	RoleAdmin        Role = "admin"
	RoleStaff        Role = "staff"
	RoleHIPAAOfficer Role = "hipaa_officer"
)

// DefaultRole is assigned when a user has no profile row or the stored
// role string is unknown.
const DefaultRole = RoleStaff

var known = map[Role]struct{}{
	RoleCEO:          {},
	RoleCFO:          {},
	RoleCMO:          {},
	RoleCTO:          {},
	RoleAdmin:        {},
	RoleStaff:        {},
	RoleHIPAAOfficer: {},
}

// Parse normalizes a stored role string. Comparison is case-insensitive;
// unknown values fall back to DefaultRole.
func Parse(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := known[r]; ok {
		return r
	}
	return DefaultRole
}

func (r Role) String() string {
	return string(r)
}

// In reports whether r is a member of the given set.
func (r Role) In(set ...Role) bool {
	for _, s := range set {
		if r == s {
			return true
		}
	}
	return false
}

// LandingPath is where a user is sent when they request a page their role
// cannot see, and where the home page redirects them after login.
func (r Role) LandingPath() string {
	switch r {
	case RoleCEO, RoleCFO, RoleCMO:
		return "/ceo"
	default:
		return "/cto"
	}
}
