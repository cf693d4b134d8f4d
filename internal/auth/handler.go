package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/commandos-health/commandos/internal/roles"
	"github.com/commandos-health/commandos/internal/transport"
	"github.com/commandos-health/commandos/pkg/logger"
)

// RoleResolver looks up the dashboard role and display name for a user.
// Implemented by the profile service; absence of a row resolves to the
// default role instead of an error.
type RoleResolver interface {
	Resolve(ctx context.Context, userID int64) (roles.Role, string, error)
}

type Handler struct {
	*transport.BaseHandler
	Service  ServiceAPI
	Resolver RoleResolver
}

func NewHandler(svc ServiceAPI, resolver RoleResolver) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Resolver:    resolver,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.Service.Authenticate(dto)
	if err != nil {
		h.Logger.Error("authentication failed", "error", err)

		switch err {
		case ErrInvalidCredentials:
			h.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		case ErrUserInactive:
			h.WriteError(w, http.StatusUnauthorized, "user is inactive")
		default:
			if _, ok := err.(ValidationError); ok {
				h.WriteError(w, http.StatusBadRequest, err.Error())
			} else {
				h.WriteError(w, http.StatusInternalServerError, "internal server error")
			}
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	// Best effort: refresh the role cookies right away so the first page
	// request after login skips a profile query.
	if claims, err := h.Service.ValidateAccessToken(tokens.AccessToken); err == nil {
		if uid, perr := strconv.ParseInt(claims.UserID, 10, 64); perr == nil {
			if role, displayName, rerr := h.Resolver.Resolve(r.Context(), uid); rerr == nil {
				SetRoleCookies(w, role, displayName)
			}
		}
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.Service.RefreshTokens(dto.RefreshToken)
	if err != nil {
		h.Logger.Error("token refresh failed", "error", err)

		switch err {
		case ErrInvalidToken, ErrTokenExpired:
			h.WriteError(w, http.StatusUnauthorized, "invalid refresh token")
		case ErrUserInactive:
			h.WriteError(w, http.StatusUnauthorized, "user is inactive")
		default:
			h.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ClearSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

// SessionToken extracts the access token from the Authorization header or,
// failing that, from the session cookie set at login.
func (h *Handler) SessionToken(r *http.Request) string {
	if token := h.ExtractTokenFromHeader(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.SessionToken(r)
		if token == "" {
			h.Logger.Warn("auth middleware: missing session token", "path", r.URL.Path)
			h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.Logger.Error("token validation failed", "error", err)
			h.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		var uid int64
		if claims.UserID != "" {
			if parsed, perr := strconv.ParseInt(claims.UserID, 10, 64); perr == nil {
				uid = parsed
			} else {
				h.Logger.Warn("failed to parse user id from token claims", "value", claims.UserID, "error", perr)
			}
		}

		user, err := h.Service.GetUser(uid)
		if err != nil {
			h.Logger.Error("auth middleware: failed to load user", "user_id", uid, "error", err)
			h.WriteError(w, http.StatusUnauthorized, "user not found")
			return
		}

		// Role lookup is fail-open: a resolver error keeps the account's
		// stored role and the request proceeds.
		if role, displayName, rerr := h.Resolver.Resolve(r.Context(), uid); rerr == nil {
			user.Role = role
			if displayName != "" {
				user.DisplayName = displayName
			}
		} else {
			h.Logger.Warn("auth middleware: role resolution failed, keeping account role",
				"user_id", uid, "error", rerr)
		}

		ctx := ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetRoleCookies writes the client-visible role cookies. The role cookie is
// httpOnly; the display-name cookie is readable by page scripts.
func SetRoleCookies(w http.ResponseWriter, role roles.Role, displayName string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RoleCookie,
		Value:    role.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     DisplayNameCookie,
		Value:    displayName,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookies expires the session and role cookies.
func ClearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{SessionCookie, RoleCookie, DisplayNameCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
