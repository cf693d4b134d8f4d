package passcode

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/commandos-health/commandos/internal/audit"
	"github.com/commandos-health/commandos/internal/ratelimit"
	"github.com/commandos-health/commandos/internal/transport"
	"github.com/commandos-health/commandos/pkg/logger"
)

// AuditRecorder logs failed passcode attempts for the alert rules.
type AuditRecorder interface {
	Record(ctx context.Context, dto audit.LogDTO, userID *int64, ipAddress, userAgent string) (*audit.Entry, bool, error)
}

type VerifyDTO struct {
	Passcode string `json:"passcode"`
}

// Handler verifies the shared compliance passcode. Attempts are throttled
// per caller address and failures are audit-logged.
type Handler struct {
	*transport.BaseHandler
	passcode string
	limiter  ratelimit.Limiter
	recorder AuditRecorder
}

func NewHandler(passcode string, limiter ratelimit.Limiter, recorder AuditRecorder) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		passcode:    passcode,
		limiter:     limiter,
		recorder:    recorder,
	}
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	ip := audit.ClientIP(r)

	if !h.limiter.Allow("passcode:" + ip) {
		h.Logger.Warn("passcode verification throttled", "ip", ip)
		h.WriteJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"valid":   false,
			"message": "too many attempts, try again later",
		})
		return
	}

	var dto VerifyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if h.passcode == "" {
		h.Logger.Error("passcode verification requested but no passcode configured")
		h.WriteError(w, http.StatusInternalServerError, "passcode verification unavailable")
		return
	}

	valid := subtle.ConstantTimeCompare([]byte(dto.Passcode), []byte(h.passcode)) == 1

	if !valid {
		if _, _, err := h.recorder.Record(r.Context(), audit.LogDTO{
			EventType: audit.EventPasscodeFailed,
			Action:    "passcode verification failed",
		}, nil, ip, r.UserAgent()); err != nil {
			h.Logger.Warn("failed to audit passcode failure", "error", err)
		}

		h.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"valid":   false,
			"message": "invalid passcode",
		})
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"valid":   true,
		"message": "passcode accepted",
	})
}
