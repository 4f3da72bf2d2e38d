package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/pratik-mahalle/soar/internal/domain/playbook"
	"github.com/pratik-mahalle/soar/internal/pkg/errors"
	"github.com/pratik-mahalle/soar/internal/pkg/logger"
	"github.com/pratik-mahalle/soar/internal/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxParallel bounds the parallel batch when no limit is configured
const DefaultMaxParallel = 16

// Scheduler runs a planned action list: sequential actions one at a time in
// order, then the parallel batch concurrently with a bounded pool. A failed
// action never cancels its siblings.
type Scheduler struct {
	executor    ActionExecutor
	maxParallel int
	logger      *logger.Logger
	now         func() time.Time
}

// NewScheduler creates a scheduler
func NewScheduler(executor ActionExecutor, maxParallel int, log *logger.Logger) *Scheduler {
	if maxParallel <= 0 {
		maxParallel = DefaultMaxParallel
	}
	return &Scheduler{
		executor:    executor,
		maxParallel: maxParallel,
		logger:      log.WithComponent("scheduler"),
		now:         time.Now,
	}
}

// Run executes the actions and returns one log entry per action: sequential
// entries in input order followed by parallel entries in completion order.
// An internal executor error is logged against its action and returned once
// every other action has finished.
func (s *Scheduler) Run(ctx context.Context, inc *incident.Incident, level playbook.AutomationLevel, actions []playbook.Action) ([]playbook.LogEntry, error) {
	var sequential, parallel []playbook.Action
	for _, a := range actions {
		if a.ParallelExecution {
			parallel = append(parallel, a)
		} else {
			sequential = append(sequential, a)
		}
	}

	entries := make([]playbook.LogEntry, 0, len(actions))
	var internalErr error

	halted := false
	for _, a := range sequential {
		switch {
		case ctx.Err() != nil:
			entries = append(entries, s.notStarted(a, playbook.ActionFailed, playbook.ReasonCancelled))
			continue
		case halted:
			entries = append(entries, s.notStarted(a, playbook.ActionSkipped, playbook.ReasonHalted))
			continue
		}

		entry, err := s.runAction(ctx, inc, a)
		entries = append(entries, entry)
		if err != nil && internalErr == nil {
			internalErr = err
		}
		if entry.Failed() && level.HaltsOnFailure() {
			s.logger.WithFields(map[string]interface{}{
				"incident_id": inc.ID,
				"action":      a.Name,
			}).Warn("Sequential action failed, halting remaining sequential actions for approval")
			halted = true
		}
	}

	if len(parallel) > 0 {
		var (
			mu sync.Mutex
			g  errgroup.Group
		)
		g.SetLimit(s.maxParallel)

		for _, a := range parallel {
			a := a
			g.Go(func() error {
				var entry playbook.LogEntry
				var err error
				if ctx.Err() != nil {
					entry = s.notStarted(a, playbook.ActionFailed, playbook.ReasonCancelled)
				} else {
					entry, err = s.runAction(ctx, inc, a)
				}

				mu.Lock()
				entries = append(entries, entry)
				if err != nil && internalErr == nil {
					internalErr = err
				}
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}

	if internalErr != nil {
		return entries, internalErr
	}
	return entries, nil
}

// runAction executes one action under its own timeout. The returned error is
// non-nil only for internal executor failures.
func (s *Scheduler) runAction(ctx context.Context, inc *incident.Incident, a playbook.Action) (playbook.LogEntry, error) {
	entry := playbook.LogEntry{
		Step:     a.Step,
		Action:   a.Name,
		Parallel: a.ParallelExecution,
	}

	if !a.ShouldRun(inc) {
		now := s.now()
		entry.Status = playbook.ActionSkipped
		entry.Reason = playbook.ReasonCondition
		entry.Result = fmt.Sprintf("condition %q not met", a.Condition)
		entry.StartedAt, entry.FinishedAt = now, now
		metrics.RecordAction(string(entry.Status), 0)
		return entry, nil
	}

	actx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	done := metrics.ActionStarted()
	entry.StartedAt = s.now()
	result, err := s.execute(actx, inc, a)
	entry.FinishedAt = s.now()
	done()
	entry.DurationMS = entry.FinishedAt.Sub(entry.StartedAt).Milliseconds()

	timedOut := ctx.Err() == nil && stderrors.Is(actx.Err(), context.DeadlineExceeded)

	var internalErr error
	switch {
	case timedOut:
		s.fail(&entry, errors.ActionFailed(a.Name, fmt.Errorf("timed out after %s", a.Timeout)), playbook.ReasonTimeout)
	case err != nil && ctx.Err() != nil:
		s.fail(&entry, errors.ActionFailed(a.Name, ctx.Err()), playbook.ReasonCancelled)
	case err != nil && isInternal(err):
		entry.Status = playbook.ActionFailed
		entry.Error = err.Error()
		entry.ErrorKind = string(errors.KindInternal)
		internalErr = fmt.Errorf("action %s: %w", a.Name, err)
	case err != nil:
		s.fail(&entry, errors.ActionFailed(a.Name, err), "")
	default:
		entry.Status = playbook.ActionCompleted
		entry.Result = result
	}

	log := s.logger.WithFields(map[string]interface{}{
		"incident_id": inc.ID,
		"step":        a.Step,
		"action":      a.Name,
		"status":      entry.Status,
		"duration_ms": entry.DurationMS,
	})
	if entry.Failed() {
		log.Warnf("Action failed: %s", entry.Error)
	} else {
		log.Debug("Action completed")
	}

	metrics.RecordAction(string(entry.Status), entry.FinishedAt.Sub(entry.StartedAt))
	return entry, internalErr
}

// execute calls the executor, converting a panic into an internal error so
// the action is logged and its siblings keep running
func (s *Scheduler) execute(ctx context.Context, inc *incident.Incident, a playbook.Action) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(map[string]interface{}{
				"incident_id": inc.ID,
				"action":      a.Name,
				"panic":       fmt.Sprint(r),
				"stack":       string(debug.Stack()),
			}).Error("Action executor panicked")
			result, err = "", errors.Internal(fmt.Sprintf("action %s panicked", a.Name), fmt.Errorf("%v", r))
		}
	}()
	return s.executor.Execute(ctx, inc, a)
}

func (s *Scheduler) fail(entry *playbook.LogEntry, err *errors.AppError, reason string) {
	entry.Status = playbook.ActionFailed
	entry.Error = err.Error()
	entry.ErrorKind = string(err.Kind())
	entry.Reason = reason
}

func (s *Scheduler) notStarted(a playbook.Action, status playbook.ActionStatus, reason string) playbook.LogEntry {
	now := s.now()
	entry := playbook.LogEntry{
		Step:       a.Step,
		Action:     a.Name,
		Parallel:   a.ParallelExecution,
		Status:     status,
		Reason:     reason,
		StartedAt:  now,
		FinishedAt: now,
	}
	if status == playbook.ActionFailed {
		entry.Error = fmt.Sprintf("action %s not started: %s", a.Name, reason)
		entry.ErrorKind = string(errors.KindActionFailed)
	}
	metrics.RecordAction(string(status), 0)
	return entry
}

// isInternal reports whether an executor error is a hard failure rather
// than an action failure
func isInternal(err error) bool {
	appErr, ok := errors.As(err)
	return ok && appErr.Code == errors.ErrCodeInternal
}
