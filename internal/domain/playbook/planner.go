package playbook

import (
	"math"
	"sort"
	"time"

	"github.com/pratik-mahalle/soar/internal/domain/incident"
)

// DefaultUrgencyFactor shortens timeouts on CRITICAL incidents
const DefaultUrgencyFactor = 0.7

// MinActionTimeout floors scaled timeouts
const MinActionTimeout = time.Second

// Planner orders and tunes a playbook's actions for one incident
type Planner struct {
	UrgencyFactor float64
}

// NewPlanner creates a planner. A non-positive factor uses DefaultUrgencyFactor.
func NewPlanner(urgencyFactor float64) Planner {
	if urgencyFactor <= 0 || urgencyFactor > 1 {
		urgencyFactor = DefaultUrgencyFactor
	}
	return Planner{UrgencyFactor: urgencyFactor}
}

// Plan returns a fresh action list with critical-path actions first (stable)
// and, for CRITICAL incidents, timeouts scaled by the urgency factor.
func (pl Planner) Plan(p *Playbook, inc *incident.Incident) []Action {
	actions := append([]Action(nil), p.Actions...)

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].CriticalPath && !actions[j].CriticalPath
	})

	if inc.Severity == incident.SeverityCritical {
		for i := range actions {
			secs := math.Floor(roundScore(actions[i].Timeout.Seconds() * pl.UrgencyFactor))
			scaled := time.Duration(secs) * time.Second
			if scaled < MinActionTimeout {
				scaled = MinActionTimeout
			}
			actions[i].Timeout = scaled
		}
	}

	return actions
}
