package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/soar/internal/api/dto"
	"github.com/pratik-mahalle/soar/internal/domain/isolation"
	"github.com/pratik-mahalle/soar/internal/pkg/logger"
	"github.com/pratik-mahalle/soar/internal/pkg/utils"
	"github.com/pratik-mahalle/soar/internal/services"
)

type IsolationHandler struct {
	orchestrator *services.Orchestrator
	logger       *logger.Logger
}

func NewIsolationHandler(orch *services.Orchestrator, log *logger.Logger) *IsolationHandler {
	return &IsolationHandler{
		orchestrator: orch,
		logger:       log,
	}
}

// Strategy previews the isolation strategy for an incident
func (h *IsolationHandler) Strategy(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitIncidentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "Invalid request body")
		return
	}

	_, _, strategy, err := h.orchestrator.Preview(req)
	if err != nil {
		writeError(w, err, "Failed to derive isolation strategy")
		return
	}

	methods := strategy.Methods()
	if methods == nil {
		methods = []isolation.Method{}
	}
	utils.WriteSuccess(w, http.StatusOK, dto.IsolationStrategyResponse{
		Strategy: strategy,
		Methods:  methods,
	})
}
