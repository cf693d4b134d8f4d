package links

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/commandos-health/commandos/internal/auth"
	"github.com/commandos-health/commandos/internal/transport"
	"github.com/commandos-health/commandos/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	ListForUser(userID int64) ([]*ExternalLink, error)
	Create(userID int64, dto CreateLinkDTO) (*ExternalLink, error)
	Update(id, userID int64, dto UpdateLinkDTO) (*ExternalLink, error)
	Delete(id, userID int64) error
	Reorder(userID int64, dto ReorderDTO) error
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

func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	links, err := h.Service.ListForUser(user.ID)
	if err != nil {
		h.Logger.Error("ListLinks: service error", "error", err, "user_id", user.ID)
		h.WriteError(w, http.StatusInternalServerError, "failed to list links")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"links": links})
}

func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateLinkDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	link, err := h.Service.Create(user.ID, dto)
	if err != nil {
		h.Logger.Error("CreateLink: service error", "error", err, "user_id", user.ID)
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.WriteJSON(w, http.StatusCreated, link)
}

func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.linkID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid link ID")
		return
	}

	var dto UpdateLinkDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	link, err := h.Service.Update(id, user.ID, dto)
	if err != nil {
		h.Logger.Error("UpdateLink: service error", "error", err, "link_id", id, "user_id", user.ID)
		h.writeLinkError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, link)
}

func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.linkID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid link ID")
		return
	}

	if err := h.Service.Delete(id, user.ID); err != nil {
		h.Logger.Error("DeleteLink: service error", "error", err, "link_id", id, "user_id", user.ID)
		h.writeLinkError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ReorderLinks(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto ReorderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.Reorder(user.ID, dto); err != nil {
		h.Logger.Error("ReorderLinks: service error", "error", err, "user_id", user.ID)
		h.writeLinkError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "reordered"})
}

func (h *Handler) linkID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) writeLinkError(w http.ResponseWriter, err error) {
	switch err {
	case ErrLinkNotFound:
		h.WriteError(w, http.StatusNotFound, "link not found")
	case ErrOwnerMismatch:
		h.WriteError(w, http.StatusForbidden, "link is owned by another user")
	default:
		h.WriteError(w, http.StatusBadRequest, err.Error())
	}
}
