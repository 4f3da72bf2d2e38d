package client

import (
	"encoding/json"
	"time"
)

// IncidentRequest is a raw security event to process
type IncidentRequest struct {
	Severity          string                 `json:"severity,omitempty" yaml:"severity"`
	SourceSystem      string                 `json:"source_system,omitempty" yaml:"source_system"`
	AffectedAssets    []string               `json:"affected_assets,omitempty" yaml:"affected_assets"`
	Indicators        map[string]interface{} `json:"indicators,omitempty" yaml:"indicators"`
	AutomatedResponse *bool                  `json:"automated_response,omitempty" yaml:"automated_response"`
}

// SourceResult is one threat intel source's answer
type SourceResult struct {
	Source string                 `json:"source"`
	Status string                 `json:"status"`
	Data   map[string]interface{} `json:"data,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// ThreatIntel is the enrichment attached to an incident
type ThreatIntel struct {
	Sources         map[string]SourceResult `json:"sources"`
	ConfidenceScore float64                 `json:"confidence_score"`
	EnrichedAt      time.Time               `json:"enriched_at"`
}

// IsolationAction is one executed isolation method
type IsolationAction struct {
	Method    string    `json:"method"`
	Targets   []string  `json:"targets"`
	Result    string    `json:"result"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// IsolationResult is the outcome of the isolation phase
type IsolationResult struct {
	Status    string              `json:"status"`
	Strategy  map[string][]string `json:"strategy"`
	StartedAt time.Time           `json:"started_at"`
	EndedAt   time.Time           `json:"ended_at"`
	Actions   []IsolationAction   `json:"actions"`
}

// PlaybookScore is one playbook's relevance to an incident
type PlaybookScore struct {
	Playbook        string   `json:"playbook"`
	Score           float64  `json:"score"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
	SeverityMatch   bool     `json:"severity_match"`
	AssetBonus      bool     `json:"asset_bonus"`
}

// ActionLogEntry is the outcome of one executed playbook action
type ActionLogEntry struct {
	Step       int       `json:"step"`
	Action     string    `json:"action"`
	Parallel   bool      `json:"parallel"`
	Status     string    `json:"status"`
	Result     string    `json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
}

// PlaybookExecution is the outcome of running the selected playbook
type PlaybookExecution struct {
	Playbook        string           `json:"playbook"`
	Score           float64          `json:"score"`
	Scores          []PlaybookScore  `json:"scores,omitempty"`
	MTTRTarget      float64          `json:"mttr_target"`
	ActionsLog      []ActionLogEntry `json:"actions_log"`
	StartedAt       time.Time        `json:"started_at"`
	EndedAt         time.Time        `json:"ended_at"`
	MTTRRealized    float64          `json:"mttr_realized"`
	MTTRPerformance float64          `json:"mttr_performance"`
}

// Performance compares the realized MTTR with the objective
type Performance struct {
	MTTRTarget       float64 `json:"mttr_target"`
	MTTRAchieved     float64 `json:"mttr_achieved"`
	PerformanceRatio float64 `json:"performance_ratio"`
}

// IncidentResult is the response to a submitted incident
type IncidentResult struct {
	IncidentID      string             `json:"incident_id"`
	Severity        string             `json:"severity"`
	SourceSystem    string             `json:"source_system"`
	Status          string             `json:"status"`
	Error           string             `json:"error,omitempty"`
	ErrorKind       string             `json:"error_kind,omitempty"`
	MTTRMinutes     float64            `json:"mttr_minutes"`
	ThreatIntel     *ThreatIntel       `json:"threat_intel,omitempty"`
	IsolationResult *IsolationResult   `json:"isolation_result,omitempty"`
	PlaybookResult  *PlaybookExecution `json:"playbook_result,omitempty"`
	Performance     *Performance       `json:"performance,omitempty"`
}

// Incident is a stored incident
type Incident struct {
	IncidentID      string                 `json:"incident_id"`
	Timestamp       time.Time              `json:"timestamp"`
	Severity        string                 `json:"severity"`
	SourceSystem    string                 `json:"source_system"`
	AffectedAssets  []string               `json:"affected_assets"`
	Indicators      map[string]interface{} `json:"indicators"`
	ThreatIntel     *ThreatIntel           `json:"threat_intel,omitempty"`
	ResponseActions json.RawMessage        `json:"response_actions,omitempty"`
	MTTRMinutes     float64                `json:"mttr_minutes"`
	Status          string                 `json:"status"`
	ErrorKind       string                 `json:"error_kind,omitempty"`
	Error           string                 `json:"error,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

// IncidentSummary is one row of the incident list
type IncidentSummary struct {
	IncidentID   string    `json:"incident_id"`
	Timestamp    time.Time `json:"timestamp"`
	Severity     string    `json:"severity"`
	SourceSystem string    `json:"source_system"`
	MTTRMinutes  float64   `json:"mttr_minutes"`
	Status       string    `json:"status"`
	ErrorKind    string    `json:"error_kind,omitempty"`
}

// IncidentStats counts stored incidents per status
type IncidentStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// PlaybookSummary is one row of the playbook list
type PlaybookSummary struct {
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	Severity          string   `json:"severity"`
	AutomationLevel   string   `json:"automation_level"`
	TriggerKeywords   []string `json:"trigger_keywords"`
	ActionCount       int      `json:"action_count"`
	MTTRTargetMinutes float64  `json:"mttr_target_minutes"`
}

// PlaybookAction is one step template of a playbook
type PlaybookAction struct {
	Step              int     `json:"step"`
	Action            string  `json:"action"`
	TimeoutSeconds    float64 `json:"timeout_seconds"`
	CriticalPath      bool    `json:"critical_path"`
	ParallelExecution bool    `json:"parallel_execution"`
	AIOptimized       bool    `json:"ai_optimized"`
	Condition         string  `json:"condition,omitempty"`
}

// Playbook is a full catalog entry
type Playbook struct {
	Name                string           `json:"name"`
	Description         string           `json:"description,omitempty"`
	TriggerKeywords     []string         `json:"trigger_keywords"`
	Severity            string           `json:"severity"`
	AutomationLevel     string           `json:"automation_level"`
	MaxExecutionSeconds float64          `json:"max_execution_seconds"`
	MTTRTargetMinutes   float64          `json:"mttr_target_minutes"`
	Actions             []PlaybookAction `json:"actions"`
}

// ScoreResult previews playbook selection
type ScoreResult struct {
	Severity string          `json:"severity"`
	Selected string          `json:"selected,omitempty"`
	Scores   []PlaybookScore `json:"scores"`
}

// IsolationStrategy previews the isolation strategy
type IsolationStrategy struct {
	Strategy map[string][]string `json:"strategy"`
	Methods  []string            `json:"methods"`
}

// Dashboard is the running incident metrics view
type Dashboard struct {
	Incidents struct {
		Total          int64   `json:"total"`
		AvgMTTRMinutes float64 `json:"avg_mttr_minutes"`
		SuccessRate    float64 `json:"success_rate"`
		AutomationRate float64 `json:"automation_rate"`
	} `json:"incidents"`
	Performance struct {
		MTTRTarget      float64 `json:"mttr_target"`
		MTTRCurrent     float64 `json:"mttr_current"`
		MTTRPerformance float64 `json:"mttr_performance"`
	} `json:"performance"`
	Status      string    `json:"status"`
	LastUpdated time.Time `json:"last_updated"`
}

// ListOptions contains common options for list operations
type ListOptions struct {
	Page     int `json:"page,omitempty"`      // Page number (1-based)
	PageSize int `json:"page_size,omitempty"` // Items per page
}

// Page is a paginated list response
type Page[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}
