package accessgate

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/commandos-health/commandos/internal/auth"
	"github.com/commandos-health/commandos/internal/roles"
)

// SessionValidator answers "who is this" for an opaque session token.
type SessionValidator interface {
	ValidateAccessToken(tokenString string) (*auth.Claims, error)
}

// RoleResolver looks up the dashboard role for a user id.
type RoleResolver interface {
	Resolve(ctx context.Context, userID int64) (roles.Role, string, error)
}

// LoginPath is where unauthenticated page requests are sent. The original
// path rides along as a query parameter so login can bounce back.
const LoginPath = "/login"

// Gate is the request gate applied to dashboard page routes. API routes
// use the bearer-token middleware instead; the gate's job is redirect
// semantics for browser navigation.
type Gate struct {
	sessions SessionValidator
	resolver RoleResolver
	logger   *slog.Logger
}

func NewGate(sessions SessionValidator, resolver RoleResolver, logger *slog.Logger) *Gate {
	return &Gate{
		sessions: sessions,
		resolver: resolver,
		logger:   logger,
	}
}

// Middleware enforces the route table on every inbound page request.
//
// Order of checks: public allow-list, session presence, role lookup, path
// classification. A missing session redirects to login with the original
// path preserved. A role outside the matched prefix's allow-list redirects
// to that role's landing page. A role-lookup backend error fails open: the
// dashboard stays reachable during database hiccups, the error is logged,
// and no retry is attempted.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || IsPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := g.sessionToken(r)
		if token == "" {
			g.redirectToLogin(w, r)
			return
		}

		claims, err := g.sessions.ValidateAccessToken(token)
		if err != nil {
			g.logger.Info("gate: session invalid, redirecting to login",
				"path", r.URL.Path, "error", err)
			g.redirectToLogin(w, r)
			return
		}

		userID, err := strconv.ParseInt(claims.UserID, 10, 64)
		if err != nil {
			g.logger.Warn("gate: malformed user id in session", "value", claims.UserID)
			g.redirectToLogin(w, r)
			return
		}

		role, displayName, err := g.resolver.Resolve(r.Context(), userID)
		if err != nil {
			// Fail open.
			g.logger.Warn("gate: role resolution failed, forwarding request",
				"user_id", userID, "path", r.URL.Path, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		// Lazily correct the client-visible cookies.
		auth.SetRoleCookies(w, role, displayName)

		if !Allowed(role, r.URL.Path) {
			g.logger.Info("gate: role not allowed for path, redirecting",
				"user_id", userID, "role", role, "path", r.URL.Path)
			http.Redirect(w, r, role.LandingPath(), http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (g *Gate) sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(auth.SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

func (g *Gate) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := LoginPath + "?redirect=" + url.QueryEscape(r.URL.Path)
	http.Redirect(w, r, target, http.StatusFound)
}
