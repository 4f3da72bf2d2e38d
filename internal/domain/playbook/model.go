package playbook

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pratik-mahalle/soar/internal/domain/incident"
)

// AutomationLevel controls how much of a playbook runs unattended
type AutomationLevel string

const (
	AutomationFull           AutomationLevel = "full"
	AutomationPartial        AutomationLevel = "partial"
	AutomationManualApproval AutomationLevel = "manual_approval"
)

// IsValid checks if the automation level is known
func (l AutomationLevel) IsValid() bool {
	switch l {
	case AutomationFull, AutomationPartial, AutomationManualApproval:
		return true
	}
	return false
}

// HaltsOnFailure reports whether the first failed sequential action stops
// the remaining sequential actions
func (l AutomationLevel) HaltsOnFailure() bool {
	return l == AutomationManualApproval
}

// Action is a read-only playbook step template
type Action struct {
	Step              int           `json:"step"`
	Name              string        `json:"action"`
	Timeout           time.Duration `json:"-"`
	CriticalPath      bool          `json:"critical_path"`
	ParallelExecution bool          `json:"parallel_execution"`
	AIOptimized       bool          `json:"ai_optimized"`
	Condition         string        `json:"condition,omitempty"`
}

// MarshalJSON renders the timeout in seconds
func (a Action) MarshalJSON() ([]byte, error) {
	type alias Action
	return json.Marshal(struct {
		alias
		TimeoutSeconds float64 `json:"timeout_seconds"`
	}{alias: alias(a), TimeoutSeconds: a.Timeout.Seconds()})
}

// Playbook is a named static template of remediation actions
type Playbook struct {
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	TriggerKeywords  []string          `json:"trigger_keywords"`
	Severity         incident.Severity `json:"severity"`
	AutomationLevel  AutomationLevel   `json:"automation_level"`
	MaxExecutionTime time.Duration     `json:"-"`
	MTTRTarget       time.Duration     `json:"-"`
	Actions          []Action          `json:"actions"`
}

// MarshalJSON renders durations as seconds and minutes
func (p Playbook) MarshalJSON() ([]byte, error) {
	type alias Playbook
	return json.Marshal(struct {
		alias
		MaxExecutionSeconds float64 `json:"max_execution_seconds"`
		MTTRTargetMinutes   float64 `json:"mttr_target_minutes"`
	}{
		alias:               alias(p),
		MaxExecutionSeconds: p.MaxExecutionTime.Seconds(),
		MTTRTargetMinutes:   p.MTTRTarget.Minutes(),
	})
}

// Validate enforces the structural rules every catalog playbook must meet
func (p *Playbook) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("playbook name is required")
	}
	if len(p.TriggerKeywords) == 0 {
		return fmt.Errorf("playbook %s: at least one trigger keyword is required", p.Name)
	}
	for _, kw := range p.TriggerKeywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("playbook %s: empty trigger keyword", p.Name)
		}
	}
	if !p.Severity.IsValid() {
		return fmt.Errorf("playbook %s: invalid severity %q", p.Name, p.Severity)
	}
	if !p.AutomationLevel.IsValid() {
		return fmt.Errorf("playbook %s: invalid automation level %q", p.Name, p.AutomationLevel)
	}
	if len(p.Actions) == 0 {
		return fmt.Errorf("playbook %s: at least one action is required", p.Name)
	}

	steps := make(map[int]bool, len(p.Actions))
	for _, a := range p.Actions {
		if a.Step < 1 {
			return fmt.Errorf("playbook %s: action %s has invalid step %d", p.Name, a.Name, a.Step)
		}
		if steps[a.Step] {
			return fmt.Errorf("playbook %s: duplicate step %d", p.Name, a.Step)
		}
		steps[a.Step] = true
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("playbook %s: step %d has no action name", p.Name, a.Step)
		}
		if a.Timeout <= 0 {
			return fmt.Errorf("playbook %s: action %s must have a positive timeout", p.Name, a.Name)
		}
		if a.Condition != "" {
			if _, err := ParseCondition(a.Condition); err != nil {
				return fmt.Errorf("playbook %s: action %s: %w", p.Name, a.Name, err)
			}
		}
	}
	return nil
}

// Clone returns a deep copy so callers never share catalog state
func (p *Playbook) Clone() *Playbook {
	cp := *p
	cp.TriggerKeywords = append([]string(nil), p.TriggerKeywords...)
	cp.Actions = append([]Action(nil), p.Actions...)
	return &cp
}
