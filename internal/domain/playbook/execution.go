package playbook

import "time"

// ActionStatus is the outcome of one scheduled action
type ActionStatus string

const (
	ActionCompleted ActionStatus = "completed"
	ActionFailed    ActionStatus = "failed"
	ActionSkipped   ActionStatus = "skipped"
)

// Reasons recorded on failed or skipped log entries
const (
	ReasonTimeout   = "timeout"
	ReasonCancelled = "cancelled"
	ReasonHalted    = "halted"
	ReasonCondition = "condition_not_met"
)

// LogEntry records one action's execution
type LogEntry struct {
	Step       int          `json:"step"`
	Action     string       `json:"action"`
	Parallel   bool         `json:"parallel"`
	Status     ActionStatus `json:"status"`
	Result     string       `json:"result,omitempty"`
	Error      string       `json:"error,omitempty"`
	ErrorKind  string       `json:"error_kind,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	DurationMS int64        `json:"duration_ms"`
}

// Failed reports whether the entry records a failure
func (e LogEntry) Failed() bool {
	return e.Status == ActionFailed
}

// Execution is the outcome of running a selected playbook
type Execution struct {
	Playbook        string     `json:"playbook"`
	Score           float64    `json:"score"`
	Scores          []Score    `json:"scores,omitempty"`
	MTTRTarget      float64    `json:"mttr_target"`
	ActionsLog      []LogEntry `json:"actions_log"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         time.Time  `json:"ended_at"`
	MTTRRealized    float64    `json:"mttr_realized"`
	MTTRPerformance float64    `json:"mttr_performance"`
}

// AllCompleted reports whether no action failed
func (e *Execution) AllCompleted() bool {
	for _, entry := range e.ActionsLog {
		if entry.Failed() {
			return false
		}
	}
	return true
}

// Counts tallies the log by status
func (e *Execution) Counts() map[ActionStatus]int {
	out := make(map[ActionStatus]int, 3)
	for _, entry := range e.ActionsLog {
		out[entry.Status]++
	}
	return out
}
