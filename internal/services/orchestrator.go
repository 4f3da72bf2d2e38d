package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pratik-mahalle/soar/internal/domain/dashboard"
	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/pratik-mahalle/soar/internal/domain/isolation"
	"github.com/pratik-mahalle/soar/internal/domain/playbook"
	"github.com/pratik-mahalle/soar/internal/events"
	"github.com/pratik-mahalle/soar/internal/pkg/errors"
	"github.com/pratik-mahalle/soar/internal/pkg/logger"
	"github.com/pratik-mahalle/soar/internal/pkg/metrics"
	"github.com/pratik-mahalle/soar/internal/pkg/validator"
)

// PerformanceSummary compares the realized MTTR with the objective
type PerformanceSummary struct {
	MTTRTarget       float64 `json:"mttr_target"`
	MTTRAchieved     float64 `json:"mttr_achieved"`
	PerformanceRatio float64 `json:"performance_ratio"`
}

// IncidentResult is the outcome of processing one incident
type IncidentResult struct {
	IncidentID      string               `json:"incident_id"`
	Severity        incident.Severity    `json:"severity"`
	SourceSystem    string               `json:"source_system"`
	Status          incident.Status      `json:"status"`
	Error           string               `json:"error,omitempty"`
	ErrorKind       string               `json:"error_kind,omitempty"`
	MTTRMinutes     float64              `json:"mttr_minutes"`
	ThreatIntel     *incident.Enrichment `json:"threat_intel,omitempty"`
	IsolationResult *isolation.Result    `json:"isolation_result,omitempty"`
	PlaybookResult  *playbook.Execution  `json:"playbook_result,omitempty"`
	Performance     *PerformanceSummary  `json:"performance,omitempty"`
}

// responseActions is the persisted response_actions column
type responseActions struct {
	Isolation *isolation.Result   `json:"isolation,omitempty"`
	Playbook  *playbook.Execution `json:"playbook,omitempty"`
}

// OrchestratorOptions wires the orchestrator's collaborators
type OrchestratorOptions struct {
	Catalog    *playbook.Catalog
	Planner    playbook.Planner
	Scheduler  *Scheduler
	Intel      *IntelService
	Isolation  *IsolationService
	Incidents  incident.Repository
	Dashboard  *DashboardService
	Publisher  events.Publisher
	MTTRTarget time.Duration
	Logger     *logger.Logger
}

// Orchestrator runs the end-to-end incident response pipeline
type Orchestrator struct {
	catalog    *playbook.Catalog
	planner    playbook.Planner
	scheduler  *Scheduler
	intel      *IntelService
	isolation  *IsolationService
	incidents  incident.Repository
	dashboard  *DashboardService
	publisher  events.Publisher
	mttrTarget time.Duration
	logger     *logger.Logger
	now        func() time.Time
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	if opts.MTTRTarget <= 0 {
		opts.MTTRTarget = DefaultMTTRTarget
	}
	if opts.Planner.UrgencyFactor == 0 {
		opts.Planner = playbook.NewPlanner(0)
	}
	return &Orchestrator{
		catalog:    opts.Catalog,
		planner:    opts.Planner,
		scheduler:  opts.Scheduler,
		intel:      opts.Intel,
		isolation:  opts.Isolation,
		incidents:  opts.Incidents,
		dashboard:  opts.Dashboard,
		publisher:  opts.Publisher,
		mttrTarget: opts.MTTRTarget,
		logger:     opts.Logger.WithComponent("orchestrator"),
		now:        time.Now,
	}
}

// Catalog returns the playbook catalog in use
func (o *Orchestrator) Catalog() *playbook.Catalog {
	return o.catalog
}

// NewIncident validates a request and builds the incident
func NewIncident(req incident.NewIncident, now time.Time) (*incident.Incident, error) {
	if errs := validator.Validate(req); len(errs) > 0 {
		return nil, errors.ValidationError("Invalid incident", errs)
	}
	inc, err := incident.New(req, now)
	if err != nil {
		return nil, errors.BadRequest(err.Error())
	}
	return inc, nil
}

// Process ingests, enriches, isolates and remediates one incident. An
// incident no playbook matches is recorded as FAILED and returned without
// error. Validation, storage and internal executor errors are returned.
func (o *Orchestrator) Process(ctx context.Context, req incident.NewIncident) (*IncidentResult, error) {
	start := o.now()

	inc, err := NewIncident(req, start)
	if err != nil {
		return nil, err
	}

	log := o.logger.WithFields(map[string]interface{}{
		"incident_id": inc.ID,
		"severity":    inc.Severity,
	})
	log.Info("Incident received")

	inc, err = o.intel.Enrich(ctx, inc)
	if err != nil {
		return nil, errors.Internal("Threat intel enrichment failed", err)
	}

	isoResult, err := o.isolation.Execute(ctx, inc)
	if err != nil {
		return nil, errors.Internal("Isolation failed", err)
	}

	result := &IncidentResult{
		IncidentID:      inc.ID,
		Severity:        inc.Severity,
		SourceSystem:    inc.SourceSystem,
		ThreatIntel:     inc.Enrichment,
		IsolationResult: isoResult,
	}

	sel, err := playbook.Select(o.catalog, inc)
	if err != nil {
		if !errors.IsKind(err, errors.KindNoPlaybookMatched) {
			return nil, err
		}
		log.Warn("No playbook matched incident")
		result.Status = incident.StatusFailed
		result.ErrorKind = string(errors.KindNoPlaybookMatched)
		result.Error = err.Error()
		result.MTTRMinutes = o.now().Sub(start).Minutes()
		if err := o.finish(ctx, inc, result, false); err != nil {
			return nil, err
		}
		return result, nil
	}
	metrics.RecordPlaybookSelection(sel.Playbook.Name)

	exec, runErr := o.execute(ctx, inc, sel)
	result.PlaybookResult = exec
	result.MTTRMinutes = o.now().Sub(start).Minutes()

	if runErr != nil {
		log.ErrorWithErr(runErr, "Playbook execution failed")
		result.Status = incident.StatusFailed
		result.ErrorKind = string(errors.KindInternal)
		result.Error = runErr.Error()
		if err := o.finish(ctx, inc, result, false); err != nil {
			log.ErrorWithErr(err, "Failed to record failed incident")
		}
		return nil, errors.Internal("Playbook execution failed", runErr)
	}

	result.Status = incident.StatusCompleted
	target := o.mttrTarget.Minutes()
	result.Performance = &PerformanceSummary{
		MTTRTarget:       target,
		MTTRAchieved:     result.MTTRMinutes,
		PerformanceRatio: ratio(target, result.MTTRMinutes),
	}

	automated := inc.AutomatedResponse && exec.AllCompleted()
	if err := o.finish(ctx, inc, result, automated); err != nil {
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"playbook":     exec.Playbook,
		"mttr_minutes": result.MTTRMinutes,
	}).Info("Incident processed")

	return result, nil
}

// execute plans and runs the selected playbook. Actions still pending when
// the playbook's MaxExecutionTime elapses are cancelled.
func (o *Orchestrator) execute(ctx context.Context, inc *incident.Incident, sel *playbook.Selection) (*playbook.Execution, error) {
	pb := sel.Playbook
	exec := &playbook.Execution{
		Playbook:   pb.Name,
		Score:      sel.Score,
		Scores:     sel.Scores,
		MTTRTarget: pb.MTTRTarget.Minutes(),
		StartedAt:  o.now(),
	}

	runCtx := ctx
	if pb.MaxExecutionTime > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, pb.MaxExecutionTime)
		defer cancel()
	}

	actions := o.planner.Plan(pb, inc)
	entries, err := o.scheduler.Run(runCtx, inc, pb.AutomationLevel, actions)
	if ctx.Err() == nil && runCtx.Err() != nil {
		o.logger.WithFields(map[string]interface{}{
			"incident_id":        inc.ID,
			"playbook":           pb.Name,
			"max_execution_time": pb.MaxExecutionTime.String(),
		}).Warn("Playbook exceeded its maximum execution time")
	}
	exec.ActionsLog = entries
	exec.EndedAt = o.now()
	exec.MTTRRealized = exec.EndedAt.Sub(exec.StartedAt).Minutes()
	exec.MTTRPerformance = ratio(exec.MTTRTarget, exec.MTTRRealized)
	return exec, err
}

// finish persists the record, publishes the event and updates the dashboard
func (o *Orchestrator) finish(ctx context.Context, inc *incident.Incident, result *IncidentResult, automated bool) error {
	actionsJSON, err := json.Marshal(responseActions{
		Isolation: result.IsolationResult,
		Playbook:  result.PlaybookResult,
	})
	if err != nil {
		return errors.Internal("Failed to encode response actions", err)
	}

	rec := &incident.Record{
		IncidentID:      inc.ID,
		Timestamp:       inc.Timestamp,
		Severity:        inc.Severity,
		SourceSystem:    inc.SourceSystem,
		AffectedAssets:  inc.AffectedAssets,
		Indicators:      inc.Indicators,
		ThreatIntel:     inc.Enrichment,
		ResponseActions: actionsJSON,
		MTTRMinutes:     result.MTTRMinutes,
		Status:          result.Status,
		ErrorKind:       result.ErrorKind,
		ErrorMessage:    result.Error,
		CreatedAt:       o.now(),
	}
	if err := o.incidents.Create(ctx, rec); err != nil {
		return errors.DatabaseError("Failed to save incident", err)
	}

	if err := o.publisher.PublishIncident(ctx, eventFor(result)); err != nil {
		o.logger.WithError(err).With("incident_id", inc.ID).Warn("Failed to publish incident event")
	}

	success := result.Status == incident.StatusCompleted
	if err := o.dashboard.Record(ctx, dashboard.Outcome{
		Success:     success,
		Automated:   automated,
		MTTRMinutes: result.MTTRMinutes,
	}); err != nil {
		return errors.DatabaseError("Failed to update dashboard metrics", err)
	}

	metrics.RecordIncident(string(inc.Severity), string(result.Status), result.MTTRMinutes)
	return nil
}

func eventFor(r *IncidentResult) events.IncidentProcessed {
	evt := events.IncidentProcessed{
		IncidentID:   r.IncidentID,
		Severity:     string(r.Severity),
		SourceSystem: r.SourceSystem,
		Status:       string(r.Status),
		ErrorKind:    r.ErrorKind,
		MTTRMinutes:  r.MTTRMinutes,
		ProcessedAt:  time.Now().UTC(),
	}
	if r.PlaybookResult != nil {
		evt.Playbook = r.PlaybookResult.Playbook
		evt.Score = r.PlaybookResult.Score
		evt.ActionsTotal = len(r.PlaybookResult.ActionsLog)
		evt.ActionsFailed = r.PlaybookResult.Counts()[playbook.ActionFailed]
	}
	return evt
}

// ratio is target/achieved, or 1 when nothing was measured
func ratio(target, achieved float64) float64 {
	if achieved <= 0 {
		return 1.0
	}
	return target / achieved
}

// Preview scores the catalog and derives the isolation strategy for a
// request without executing anything
func (o *Orchestrator) Preview(req incident.NewIncident) (*incident.Incident, []playbook.Score, isolation.Strategy, error) {
	inc, err := NewIncident(req, o.now())
	if err != nil {
		return nil, nil, nil, err
	}
	return inc, playbook.ScoreAll(o.catalog, inc), isolation.Select(inc), nil
}
