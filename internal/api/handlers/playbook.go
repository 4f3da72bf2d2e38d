package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pratik-mahalle/soar/internal/api/dto"
	"github.com/pratik-mahalle/soar/internal/pkg/errors"
	"github.com/pratik-mahalle/soar/internal/pkg/logger"
	"github.com/pratik-mahalle/soar/internal/pkg/utils"
	"github.com/pratik-mahalle/soar/internal/services"
)

type PlaybookHandler struct {
	orchestrator *services.Orchestrator
	logger       *logger.Logger
}

func NewPlaybookHandler(orch *services.Orchestrator, log *logger.Logger) *PlaybookHandler {
	return &PlaybookHandler{
		orchestrator: orch,
		logger:       log,
	}
}

// List returns the catalog in name order
func (h *PlaybookHandler) List(w http.ResponseWriter, r *http.Request) {
	playbooks := h.orchestrator.Catalog().All()
	dtos := make([]dto.PlaybookSummaryDTO, len(playbooks))
	for i, p := range playbooks {
		dtos[i] = dto.ToPlaybookSummaryDTO(p)
	}
	utils.WriteSuccess(w, http.StatusOK, dtos)
}

// Get returns one playbook with its actions
func (h *PlaybookHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p, ok := h.orchestrator.Catalog().Get(name)
	if !ok {
		utils.WriteError(w, errors.NotFound("Playbook"))
		return
	}
	utils.WriteSuccess(w, http.StatusOK, p)
}

// Score previews playbook selection for an incident without executing it
func (h *PlaybookHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitIncidentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "Invalid request body")
		return
	}

	inc, scores, _, err := h.orchestrator.Preview(req)
	if err != nil {
		writeError(w, err, "Failed to score playbooks")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewScoreResponse(inc, scores))
}
