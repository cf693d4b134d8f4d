package accessgate

import (
	"strings"

	"github.com/commandos-health/commandos/internal/roles"
)

// RouteAccess maps a URL path prefix to the roles allowed under it. The
// table is compiled in; it is not user-editable.
type RouteAccess struct {
	Prefix  string
	Allowed []roles.Role
}

// routeTable gates the dashboard page subtrees. When more than one prefix
// matches a request path, the longest prefix wins. Paths matching no
// prefix are allowed for any authenticated role.
var routeTable = []RouteAccess{
	{Prefix: "/ceo", Allowed: []roles.Role{roles.RoleCEO, roles.RoleCFO, roles.RoleCMO, roles.RoleAdmin}},
	{Prefix: "/cto", Allowed: []roles.Role{roles.RoleCTO, roles.RoleAdmin, roles.RoleStaff}},
	{Prefix: "/admin", Allowed: []roles.Role{roles.RoleAdmin}},
	{Prefix: "/compliance", Allowed: []roles.Role{roles.RoleAdmin, roles.RoleHIPAAOfficer}},
	{Prefix: "/marketing", Allowed: []roles.Role{roles.RoleCMO, roles.RoleCEO, roles.RoleAdmin}},
	{Prefix: "/finance", Allowed: []roles.Role{roles.RoleCFO, roles.RoleCEO, roles.RoleAdmin}},
}

// publicPrefixes are reachable without a session.
var publicPrefixes = []string{
	"/login",
	"/api/v1/auth",
	"/api/v1/health",
	"/api/v1/ping",
	"/api/v1/verify-passcode",
	"/api/v1/security-audit",
	"/openapi.yml",
	"/swagger",
	"/static",
	"/files",
	"/favicon.ico",
}

// IsPublic reports whether the path bypasses the gate entirely.
func IsPublic(path string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Classify returns the route-table entry governing a path, picking the
// longest matching prefix. ok is false when no prefix matches, which
// means the path is open to any authenticated role.
func Classify(path string) (RouteAccess, bool) {
	var best RouteAccess
	found := false
	for _, entry := range routeTable {
		if !strings.HasPrefix(path, entry.Prefix) {
			continue
		}
		if !found || len(entry.Prefix) > len(best.Prefix) {
			best = entry
			found = true
		}
	}
	return best, found
}

// Allowed reports whether a role may access the given path.
func Allowed(role roles.Role, path string) bool {
	entry, ok := Classify(path)
	if !ok {
		return true
	}
	return role.In(entry.Allowed...)
}
