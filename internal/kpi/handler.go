package kpi

import (
	"log/slog"
	"net/http"

	"github.com/commandos-health/commandos/internal/transport"
	"github.com/commandos-health/commandos/pkg/logger"
)

type ServiceAPI interface {
	ListByPeriod(period string) ([]*Record, error)
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

func (h *Handler) ListKPIs(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")

	records, err := h.Service.ListByPeriod(period)
	if err != nil {
		h.Logger.Error("ListKPIs: service error", "error", err, "period", period)
		h.WriteError(w, http.StatusInternalServerError, "failed to load KPI records")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"kpis": records})
}
