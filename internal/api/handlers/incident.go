package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pratik-mahalle/soar/internal/api/dto"
	"github.com/pratik-mahalle/soar/internal/api/middleware"
	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/pratik-mahalle/soar/internal/pkg/errors"
	"github.com/pratik-mahalle/soar/internal/pkg/logger"
	"github.com/pratik-mahalle/soar/internal/pkg/utils"
	"github.com/pratik-mahalle/soar/internal/services"
)

type IncidentHandler struct {
	orchestrator *services.Orchestrator
	incidents    *services.IncidentService
	logger       *logger.Logger
}

func NewIncidentHandler(orch *services.Orchestrator, incidents *services.IncidentService, log *logger.Logger) *IncidentHandler {
	return &IncidentHandler{
		orchestrator: orch,
		incidents:    incidents,
		logger:       log,
	}
}

// Submit processes an incident end to end. Incidents that no playbook
// matches still return 200 with status FAILED.
func (h *IncidentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitIncidentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "Invalid request body")
		return
	}

	result, err := h.orchestrator.Process(r.Context(), req)
	if err != nil {
		if appErr, ok := errors.As(err); !ok || appErr.StatusCode >= http.StatusInternalServerError {
			h.logger.ErrorWithErr(err, "Failed to process incident")
		}
		writeError(w, err, "Failed to process incident")
		return
	}

	middleware.AddLogField(w, "incident_id", result.IncidentID)
	utils.WriteSuccess(w, http.StatusOK, result)
}

// List returns stored incidents, newest first
func (h *IncidentHandler) List(w http.ResponseWriter, r *http.Request) {
	params := utils.ParsePaginationParams(r)

	filter, err := parseIncidentFilter(r)
	if err != nil {
		writeError(w, err, "Invalid filter")
		return
	}

	records, total, err := h.incidents.List(r.Context(), filter, params.PageSize, params.Offset)
	if err != nil {
		writeError(w, err, "Failed to list incidents")
		return
	}

	dtos := make([]dto.IncidentSummaryDTO, len(records))
	for i, rec := range records {
		dtos[i] = dto.ToIncidentSummaryDTO(rec)
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dtos, params.Page, params.PageSize, total))
}

// Get returns a single stored incident with its response actions
func (h *IncidentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.incidents.GetByID(r.Context(), id)
	if err != nil {
		if appErr, ok := errors.As(err); !ok || appErr.Code != errors.ErrCodeNotFound {
			h.logger.ErrorWithErr(err, "Failed to get incident")
		}
		writeError(w, err, "Failed to get incident")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.ToIncidentDTO(rec))
}

// Stats counts stored incidents per status
func (h *IncidentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.incidents.CountByStatus(r.Context())
	if err != nil {
		h.logger.ErrorWithErr(err, "Failed to count incidents")
		writeError(w, err, "Failed to count incidents")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.NewIncidentStatsDTO(counts))
}

func parseIncidentFilter(r *http.Request) (incident.Filter, error) {
	q := r.URL.Query()
	var filter incident.Filter

	if s := q.Get("severity"); s != "" {
		sev, err := incident.ParseSeverity(s)
		if err != nil {
			return filter, errors.BadRequest(err.Error())
		}
		filter.Severity = sev
	}
	if s := q.Get("status"); s != "" {
		status := incident.Status(s)
		if !status.IsValid() {
			return filter, errors.BadRequest("status must be COMPLETED or FAILED")
		}
		filter.Status = status
	}
	filter.SourceSystem = q.Get("source_system")
	return filter, nil
}
