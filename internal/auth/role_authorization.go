package auth

import (
	"log/slog"
	"net/http"

	"github.com/commandos-health/commandos/internal/roles"
)

// RoleAuthorization gates API routes on the caller's resolved role. Each
// route group declares its own allow-list; the per-surface divergences
// (export vs upload) are intentional and must not be unified here.
type RoleAuthorization struct {
	logger *slog.Logger
}

func NewRoleAuthorization(logger *slog.Logger) *RoleAuthorization {
	return &RoleAuthorization{logger: logger}
}

// Require returns middleware that rejects callers whose role is outside
// the allowed set. Runs after AuthMiddleware so the user is in context.
func (ra *RoleAuthorization) Require(allowed ...roles.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				ra.logger.Warn("role check failed: user not found in context")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !user.Role.In(allowed...) {
				ra.logger.WarnContext(r.Context(), "access denied: role not allowed",
					"user_id", user.ID,
					"role", user.Role,
					"allowed_roles", allowed)
				http.Error(w, "Forbidden: insufficient role", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is a convenience wrapper for admin-only routes.
func (ra *RoleAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.Require(roles.RoleAdmin)
}
