package incident

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Severity represents incident severity
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// DefaultSeverity applies when an incident arrives without one
const DefaultSeverity = SeverityMedium

// DefaultSourceSystem applies when an incident arrives without a source
const DefaultSourceSystem = "Unknown"

// IsValid checks if the severity is one of the known levels
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// ParseSeverity parses a severity case-insensitively. An empty string yields
// DefaultSeverity.
func ParseSeverity(s string) (Severity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSeverity, nil
	}
	sev := Severity(strings.ToUpper(s))
	if !sev.IsValid() {
		return "", fmt.Errorf("invalid severity %q", s)
	}
	return sev, nil
}

// Indicators holds free-form observables attached to an incident
type Indicators map[string]interface{}

// String renders the indicators deterministically as "{key: value, ...}"
// with keys sorted, so both keys and values are searchable.
func (i Indicators) String() string {
	keys := make([]string, 0, len(i))
	for k := range i {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for n, k := range keys {
		if n > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", k, i[k])
	}
	b.WriteByte('}')
	return b.String()
}

// Lookup returns the indicator's value as a string if present and non-empty
func (i Indicators) Lookup(key string) (string, bool) {
	v, ok := i[key]
	if !ok || v == nil {
		return "", false
	}
	s := fmt.Sprintf("%v", v)
	if s == "" {
		return "", false
	}
	return s, true
}

// Value returns the indicator's value as a string whenever the key is
// present. A null value renders as "".
func (i Indicators) Value(key string) (string, bool) {
	v, ok := i[key]
	if !ok {
		return "", false
	}
	if v == nil {
		return "", true
	}
	return fmt.Sprintf("%v", v), true
}

// Has reports whether the indicator key is present with a non-empty value
func (i Indicators) Has(key string) bool {
	_, ok := i.Lookup(key)
	return ok
}

// Fingerprint returns a stable key for the indicator set
func (i Indicators) Fingerprint() string {
	data, err := json.Marshal(map[string]interface{}(i))
	if err != nil {
		return i.String()
	}
	// encoding/json sorts map keys
	return string(data)
}

// SourceStatus reports the outcome of one threat intel lookup
type SourceStatus string

const (
	SourceStatusOK      SourceStatus = "ok"
	SourceStatusError   SourceStatus = "error"
	SourceStatusSkipped SourceStatus = "skipped"
)

// SourceResult is one threat intel source's contribution
type SourceResult struct {
	Source string                 `json:"source"`
	Status SourceStatus           `json:"status"`
	Data   map[string]interface{} `json:"data,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// Enrichment is the threat intel record attached to an incident
type Enrichment struct {
	Sources         map[string]SourceResult `json:"sources"`
	ConfidenceScore float64                 `json:"confidence_score"`
	EnrichedAt      time.Time               `json:"enriched_at"`
}

// Incident is an ingested security incident. It is immutable after
// construction except for the enrichment record.
type Incident struct {
	ID                string      `json:"incident_id"`
	Timestamp         time.Time   `json:"timestamp"`
	Severity          Severity    `json:"severity"`
	SourceSystem      string      `json:"source_system"`
	AffectedAssets    []string    `json:"affected_assets"`
	Indicators        Indicators  `json:"indicators"`
	Enrichment        *Enrichment `json:"threat_intel,omitempty"`
	AutomatedResponse bool        `json:"automated_response"`
}

// NewIncident is the ingestion payload
type NewIncident struct {
	Severity          string                 `json:"severity" yaml:"severity"`
	SourceSystem      string                 `json:"source_system" yaml:"source_system" validate:"max=128"`
	AffectedAssets    []string               `json:"affected_assets" yaml:"affected_assets" validate:"max=1000,dive,required,max=256"`
	Indicators        map[string]interface{} `json:"indicators" yaml:"indicators"`
	AutomatedResponse *bool                  `json:"automated_response,omitempty" yaml:"automated_response"`
}

// New builds an incident from an ingestion payload
func New(req NewIncident, now time.Time) (*Incident, error) {
	sev, err := ParseSeverity(req.Severity)
	if err != nil {
		return nil, err
	}

	source := strings.TrimSpace(req.SourceSystem)
	if source == "" {
		source = DefaultSourceSystem
	}

	assets := make([]string, len(req.AffectedAssets))
	copy(assets, req.AffectedAssets)

	indicators := make(Indicators, len(req.Indicators))
	for k, v := range req.Indicators {
		indicators[k] = v
	}

	automated := true
	if req.AutomatedResponse != nil {
		automated = *req.AutomatedResponse
	}

	return &Incident{
		ID:                NewID(now),
		Timestamp:         now,
		Severity:          sev,
		SourceSystem:      source,
		AffectedAssets:    assets,
		Indicators:        indicators,
		AutomatedResponse: automated,
	}, nil
}

// NewID generates an incident identifier of the form INC-<unix>-<suffix>
func NewID(now time.Time) string {
	return fmt.Sprintf("INC-%d-%s", now.Unix(), uuid.New().String()[:8])
}

// WithEnrichment returns a copy of the incident carrying the enrichment record
func (i *Incident) WithEnrichment(e *Enrichment) *Incident {
	cp := *i
	cp.Enrichment = e
	return &cp
}

// ConfidenceScore returns the enrichment confidence, or zero when unenriched
func (i *Incident) ConfidenceScore() float64 {
	if i.Enrichment == nil {
		return 0
	}
	return i.Enrichment.ConfidenceScore
}

// Status represents the terminal processing status of an incident
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Record is the persisted outcome of a processed incident
type Record struct {
	IncidentID      string          `json:"incident_id"`
	Timestamp       time.Time       `json:"timestamp"`
	Severity        Severity        `json:"severity"`
	SourceSystem    string          `json:"source_system"`
	AffectedAssets  []string        `json:"affected_assets"`
	Indicators      Indicators      `json:"indicators"`
	ThreatIntel     *Enrichment     `json:"threat_intel,omitempty"`
	ResponseActions json.RawMessage `json:"response_actions,omitempty"`
	MTTRMinutes     float64         `json:"mttr_minutes"`
	Status          Status          `json:"status"`
	ErrorKind       string          `json:"error_kind,omitempty"`
	ErrorMessage    string          `json:"error,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Filter contains incident record filtering options
type Filter struct {
	Severity     Severity
	Status       Status
	SourceSystem string
	From         *time.Time
	To           *time.Time
}
