package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/soar/internal/pkg/logger"
	"github.com/pratik-mahalle/soar/internal/pkg/utils"
	"github.com/pratik-mahalle/soar/internal/services"
)

type DashboardHandler struct {
	service *services.DashboardService
	logger  *logger.Logger
}

func NewDashboardHandler(service *services.DashboardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  log,
	}
}

// Get returns the running incident metrics
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.logger.ErrorWithErr(err, "Failed to load dashboard")
		writeError(w, err, "Failed to load dashboard")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, snap)
}
