package dto

import (
	"encoding/json"
	"time"

	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/pratik-mahalle/soar/internal/domain/isolation"
	"github.com/pratik-mahalle/soar/internal/domain/playbook"
)

// SubmitIncidentRequest is the body of POST /api/v1/incidents and of the
// preview endpoints
type SubmitIncidentRequest = incident.NewIncident

// IncidentDTO is a stored incident in API responses
type IncidentDTO struct {
	IncidentID      string               `json:"incident_id"`
	Timestamp       time.Time            `json:"timestamp"`
	Severity        incident.Severity    `json:"severity"`
	SourceSystem    string               `json:"source_system"`
	AffectedAssets  []string             `json:"affected_assets"`
	Indicators      incident.Indicators  `json:"indicators"`
	ThreatIntel     *incident.Enrichment `json:"threat_intel,omitempty"`
	ResponseActions json.RawMessage      `json:"response_actions,omitempty"`
	MTTRMinutes     float64              `json:"mttr_minutes"`
	Status          incident.Status      `json:"status"`
	ErrorKind       string               `json:"error_kind,omitempty"`
	Error           string               `json:"error,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

// IncidentSummaryDTO is one row of the incident list
type IncidentSummaryDTO struct {
	IncidentID   string            `json:"incident_id"`
	Timestamp    time.Time         `json:"timestamp"`
	Severity     incident.Severity `json:"severity"`
	SourceSystem string            `json:"source_system"`
	MTTRMinutes  float64           `json:"mttr_minutes"`
	Status       incident.Status   `json:"status"`
	ErrorKind    string            `json:"error_kind,omitempty"`
}

// IncidentStatsDTO counts stored incidents per status
type IncidentStatsDTO struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// ToIncidentDTO converts a stored record
func ToIncidentDTO(r *incident.Record) IncidentDTO {
	return IncidentDTO{
		IncidentID:      r.IncidentID,
		Timestamp:       r.Timestamp,
		Severity:        r.Severity,
		SourceSystem:    r.SourceSystem,
		AffectedAssets:  r.AffectedAssets,
		Indicators:      r.Indicators,
		ThreatIntel:     r.ThreatIntel,
		ResponseActions: r.ResponseActions,
		MTTRMinutes:     r.MTTRMinutes,
		Status:          r.Status,
		ErrorKind:       r.ErrorKind,
		Error:           r.ErrorMessage,
		CreatedAt:       r.CreatedAt,
	}
}

// ToIncidentSummaryDTO converts a stored record to a list row
func ToIncidentSummaryDTO(r *incident.Record) IncidentSummaryDTO {
	return IncidentSummaryDTO{
		IncidentID:   r.IncidentID,
		Timestamp:    r.Timestamp,
		Severity:     r.Severity,
		SourceSystem: r.SourceSystem,
		MTTRMinutes:  r.MTTRMinutes,
		Status:       r.Status,
		ErrorKind:    r.ErrorKind,
	}
}

// NewIncidentStatsDTO folds per-status counts
func NewIncidentStatsDTO(counts map[incident.Status]int) IncidentStatsDTO {
	stats := IncidentStatsDTO{
		Completed: counts[incident.StatusCompleted],
		Failed:    counts[incident.StatusFailed],
	}
	stats.Total = stats.Completed + stats.Failed
	return stats
}

// PlaybookSummaryDTO is one row of the playbook list
type PlaybookSummaryDTO struct {
	Name              string                   `json:"name"`
	Description       string                   `json:"description,omitempty"`
	Severity          incident.Severity        `json:"severity"`
	AutomationLevel   playbook.AutomationLevel `json:"automation_level"`
	TriggerKeywords   []string                 `json:"trigger_keywords"`
	ActionCount       int                      `json:"action_count"`
	MTTRTargetMinutes float64                  `json:"mttr_target_minutes"`
}

// ToPlaybookSummaryDTO converts a catalog playbook
func ToPlaybookSummaryDTO(p *playbook.Playbook) PlaybookSummaryDTO {
	return PlaybookSummaryDTO{
		Name:              p.Name,
		Description:       p.Description,
		Severity:          p.Severity,
		AutomationLevel:   p.AutomationLevel,
		TriggerKeywords:   p.TriggerKeywords,
		ActionCount:       len(p.Actions),
		MTTRTargetMinutes: p.MTTRTarget.Minutes(),
	}
}

// ScoreResponse previews playbook selection for an incident request
type ScoreResponse struct {
	Severity incident.Severity `json:"severity"`
	Selected string            `json:"selected,omitempty"`
	Scores   []playbook.Score  `json:"scores"`
}

// NewScoreResponse reports the top score as selected when it is positive
func NewScoreResponse(inc *incident.Incident, scores []playbook.Score) ScoreResponse {
	resp := ScoreResponse{Severity: inc.Severity, Scores: scores}
	if len(scores) > 0 && scores[0].Score > 0 {
		resp.Selected = scores[0].Playbook
	}
	return resp
}

// IsolationStrategyResponse previews the isolation strategy for an incident request
type IsolationStrategyResponse struct {
	Strategy isolation.Strategy `json:"strategy"`
	Methods  []isolation.Method `json:"methods"`
}
