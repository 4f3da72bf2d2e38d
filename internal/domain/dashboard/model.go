package dashboard

import (
	"math"
	"time"
)

// Persisted metric names
const (
	MetricTotalIncidents      = "total_incidents"
	MetricSuccessfulIncidents = "successful_incidents"
	MetricAutomatedIncidents  = "automated_incidents"
	MetricTotalMTTRMinutes    = "total_mttr_minutes"
)

// StatusOperational is reported while the engine accepts incidents
const StatusOperational = "OPERATIONAL"

// Counters are the running tallies behind the dashboard
type Counters struct {
	TotalIncidents      int64
	SuccessfulIncidents int64
	AutomatedIncidents  int64
	TotalMTTRMinutes    float64
	UpdatedAt           time.Time
}

// Outcome is one processed incident as seen by the dashboard
type Outcome struct {
	Success     bool
	Automated   bool
	MTTRMinutes float64
}

// Apply folds an outcome into the counters
func (c *Counters) Apply(o Outcome, now time.Time) {
	c.TotalIncidents++
	if o.Success {
		c.SuccessfulIncidents++
		c.TotalMTTRMinutes += o.MTTRMinutes
		if o.Automated {
			c.AutomatedIncidents++
		}
	}
	c.UpdatedAt = now
}

// AvgMTTR is the mean MTTR over successful incidents
func (c Counters) AvgMTTR() float64 {
	if c.SuccessfulIncidents == 0 {
		return 0
	}
	return c.TotalMTTRMinutes / float64(c.SuccessfulIncidents)
}

// SuccessRate is the fraction of incidents that completed
func (c Counters) SuccessRate() float64 {
	if c.TotalIncidents == 0 {
		return 0
	}
	return float64(c.SuccessfulIncidents) / float64(c.TotalIncidents)
}

// AutomationRate is the fraction of incidents whose actions all completed
func (c Counters) AutomationRate() float64 {
	if c.TotalIncidents == 0 {
		return 0
	}
	return float64(c.AutomatedIncidents) / float64(c.TotalIncidents)
}

// IncidentStats is the incident section of the dashboard
type IncidentStats struct {
	Total          int64   `json:"total"`
	AvgMTTRMinutes float64 `json:"avg_mttr_minutes"`
	SuccessRate    float64 `json:"success_rate"`
	AutomationRate float64 `json:"automation_rate"`
}

// Performance compares MTTR against the target
type Performance struct {
	MTTRTarget      float64 `json:"mttr_target"`
	MTTRCurrent     float64 `json:"mttr_current"`
	MTTRPerformance float64 `json:"mttr_performance"`
}

// Snapshot is the dashboard view
type Snapshot struct {
	Incidents   IncidentStats `json:"incidents"`
	Performance Performance   `json:"performance"`
	Status      string        `json:"status"`
	LastUpdated time.Time     `json:"last_updated"`
}

// NewSnapshot renders counters against an MTTR target in minutes. Rates are
// percentages rounded to one decimal.
func NewSnapshot(c Counters, targetMinutes float64, now time.Time) Snapshot {
	avg := c.AvgMTTR()
	perf := 100.0
	if avg > 0 {
		perf = targetMinutes / math.Max(avg, 0.1) * 100
	}
	return Snapshot{
		Incidents: IncidentStats{
			Total:          c.TotalIncidents,
			AvgMTTRMinutes: round(avg, 2),
			SuccessRate:    round(c.SuccessRate()*100, 1),
			AutomationRate: round(c.AutomationRate()*100, 1),
		},
		Performance: Performance{
			MTTRTarget:      targetMinutes,
			MTTRCurrent:     avg,
			MTTRPerformance: perf,
		},
		Status:      StatusOperational,
		LastUpdated: now,
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
