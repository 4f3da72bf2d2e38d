package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pratik-mahalle/soar/internal/domain/dashboard"
	"github.com/pratik-mahalle/soar/internal/pkg/logger"
)

// DefaultMTTRTarget is the dashboard's response time objective
const DefaultMTTRTarget = 15 * time.Minute

// DashboardService maintains the running incident counters
type DashboardService struct {
	repo   dashboard.Repository
	target time.Duration
	logger *logger.Logger
	now    func() time.Time

	mu       sync.Mutex
	counters dashboard.Counters
	loaded   bool
}

// NewDashboardService creates a dashboard service
func NewDashboardService(repo dashboard.Repository, target time.Duration, log *logger.Logger) *DashboardService {
	if target <= 0 {
		target = DefaultMTTRTarget
	}
	return &DashboardService{
		repo:   repo,
		target: target,
		logger: log.WithComponent("dashboard"),
		now:    time.Now,
	}
}

// Record folds an incident outcome into the counters and persists them
func (s *DashboardService) Record(ctx context.Context, o dashboard.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	next := s.counters
	next.Apply(o, s.now())
	if err := s.repo.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save dashboard metrics: %w", err)
	}
	s.counters = next
	return nil
}

// Snapshot returns the current dashboard view
func (s *DashboardService) Snapshot(ctx context.Context) (dashboard.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return dashboard.Snapshot{}, err
	}
	return dashboard.NewSnapshot(s.counters, s.target.Minutes(), s.now()), nil
}

// Target returns the MTTR objective
func (s *DashboardService) Target() time.Duration {
	return s.target
}

func (s *DashboardService) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	c, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dashboard metrics: %w", err)
	}
	s.counters = c
	s.loaded = true
	s.logger.WithFields(map[string]interface{}{
		"total_incidents": c.TotalIncidents,
	}).Debug("Dashboard metrics loaded")
	return nil
}
