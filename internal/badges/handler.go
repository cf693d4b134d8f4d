package badges

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/commandos-health/commandos/internal/auth"
	"github.com/commandos-health/commandos/internal/transport"
	"github.com/commandos-health/commandos/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	ListForUser(userID int64) ([]*Badge, error)
	Upsert(userID int64, dto UpsertBadgeDTO) (*Badge, error)
	Clear(userID int64, key string) error
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

func (h *Handler) ListBadges(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	badges, err := h.Service.ListForUser(user.ID)
	if err != nil {
		h.Logger.Error("ListBadges: service error", "error", err, "user_id", user.ID)
		h.WriteError(w, http.StatusInternalServerError, "failed to list badges")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"badges": badges})
}

func (h *Handler) UpsertBadge(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto UpsertBadgeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	badge, err := h.Service.Upsert(user.ID, dto)
	if err != nil {
		h.Logger.Error("UpsertBadge: service error", "error", err, "user_id", user.ID)
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.WriteJSON(w, http.StatusOK, badge)
}

func (h *Handler) ClearBadge(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	key := chi.URLParam(r, "key")
	if err := h.Service.Clear(user.ID, key); err != nil {
		h.Logger.Error("ClearBadge: service error", "error", err, "user_id", user.ID, "key", key)
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
