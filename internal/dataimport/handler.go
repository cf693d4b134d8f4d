package dataimport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/commandos-health/commandos/internal/audit"
	"github.com/commandos-health/commandos/internal/auth"
	"github.com/commandos-health/commandos/internal/transport"
	"github.com/commandos-health/commandos/pkg/logger"
)

type ServiceAPI interface {
	Import(ctx context.Context, dto ImportDTO, userID int64, ipAddress, userAgent string) (*ImportResult, error)
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

func (h *Handler) ImportData(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("ImportData: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto ImportDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("ImportData: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.Logger.Error("ImportData: validation error", "error", err)
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.Service.Import(r.Context(), dto, user.ID, audit.ClientIP(r), r.UserAgent())
	if err != nil {
		h.Logger.Error("ImportData: service error", "error", err, "user_id", user.ID, "table", dto.TargetTable)
		h.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.Logger.Info("ImportData: batch staged",
		"batch_id", result.BatchID,
		"table", dto.TargetTable,
		"imported", result.RowsImported,
		"failed", result.RowsFailed,
		"user_id", user.ID)

	h.WriteJSON(w, http.StatusOK, result)
}
