package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/pratik-mahalle/soar/internal/pkg/logger"
	"github.com/pratik-mahalle/soar/internal/pkg/metrics"
	"github.com/robfig/cron/v3"
)

// RetentionWorker periodically deletes stored incidents older than MaxAge
type RetentionWorker struct {
	repo     incident.Repository
	schedule string
	maxAge   time.Duration
	logger   *logger.Logger
	now      func() time.Time

	mu        sync.Mutex
	scheduler *cron.Cron
}

// NewRetentionWorker creates a retention worker. schedule is a standard
// five-field cron expression.
func NewRetentionWorker(repo incident.Repository, schedule string, maxAge time.Duration, log *logger.Logger) (*RetentionWorker, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("retention max age must be positive")
	}
	return &RetentionWorker{
		repo:     repo,
		schedule: schedule,
		maxAge:   maxAge,
		logger:   log.WithComponent("retention"),
		now:      time.Now,
	}, nil
}

// Start schedules pruning until ctx is cancelled or Stop is called
func (w *RetentionWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.scheduler != nil {
		return fmt.Errorf("retention worker is already running")
	}

	w.scheduler = cron.New()
	if _, err := w.scheduler.AddFunc(w.schedule, func() {
		if _, err := w.Prune(ctx); err != nil {
			w.logger.ErrorWithErr(err, "Incident retention run failed")
		}
	}); err != nil {
		w.scheduler = nil
		return fmt.Errorf("failed to schedule retention: %w", err)
	}
	w.scheduler.Start()

	w.logger.WithFields(map[string]interface{}{
		"schedule": w.schedule,
		"max_age":  w.maxAge.String(),
	}).Info("Retention worker started")

	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}

// Stop halts scheduling and waits for a running prune to finish
func (w *RetentionWorker) Stop() {
	w.mu.Lock()
	scheduler := w.scheduler
	w.scheduler = nil
	w.mu.Unlock()

	if scheduler == nil {
		return
	}
	<-scheduler.Stop().Done()
	w.logger.Info("Retention worker stopped")
}

// Prune deletes incidents created before now minus MaxAge
func (w *RetentionWorker) Prune(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.maxAge)
	n, err := w.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete incidents before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	metrics.RecordRetention(n)

	w.logger.WithFields(map[string]interface{}{
		"deleted": n,
		"cutoff":  cutoff.Format(time.RFC3339),
	}).Info("Pruned stored incidents")
	return n, nil
}
