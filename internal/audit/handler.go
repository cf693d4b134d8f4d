package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/commandos-health/commandos/internal/auth"
	"github.com/commandos-health/commandos/internal/transport"
	"github.com/commandos-health/commandos/pkg/logger"
)

type ServiceAPI interface {
	Record(ctx context.Context, dto LogDTO, userID *int64, ipAddress, userAgent string) (*Entry, bool, error)
	ListRecent(limit, offset int) ([]*Entry, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) LogEvent(w http.ResponseWriter, r *http.Request) {
	var dto LogDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("LogEvent: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var userID *int64
	if user, ok := auth.UserFromContext(r.Context()); ok && user != nil {
		userID = &user.ID
	}

	entry, triggered, err := h.Service.Record(r.Context(), dto, userID, ClientIP(r), r.UserAgent())
	if err != nil {
		var validationErr ValidationError
		if errors.As(err, &validationErr) {
			h.Logger.Warn("LogEvent: validation error", "error", err, "event_type", dto.EventType)
			h.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Logger.Error("LogEvent: service error", "error", err, "event_type", dto.EventType)
		h.WriteError(w, http.StatusInternalServerError, "failed to record audit event")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"data":            map[string]interface{}{"id": entry.ID},
		"alert_triggered": triggered,
	})
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	entries, err := h.Service.ListRecent(limit, offset)
	if err != nil {
		h.Logger.Error("ListEvents: service error", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to list audit events")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"events": entries,
		"limit":  limit,
		"offset": offset,
	})
}
