package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/pratik-mahalle/soar/internal/domain/isolation"
	"github.com/pratik-mahalle/soar/internal/pkg/logger"
	"github.com/pratik-mahalle/soar/internal/pkg/metrics"
)

// Isolator applies one isolation method to its targets
type Isolator interface {
	Isolate(ctx context.Context, method isolation.Method, targets []string) (string, error)
}

// IsolationService selects and executes isolation strategies
type IsolationService struct {
	isolator Isolator
	logger   *logger.Logger
	now      func() time.Time
}

// NewIsolationService creates an isolation service
func NewIsolationService(isolator Isolator, log *logger.Logger) *IsolationService {
	return &IsolationService{
		isolator: isolator,
		logger:   log.WithComponent("isolation"),
		now:      time.Now,
	}
}

// Strategy derives the isolation strategy without executing it
func (s *IsolationService) Strategy(inc *incident.Incident) isolation.Strategy {
	return isolation.Select(inc)
}

// Execute applies every method of the incident's strategy in execution
// order. A failed method marks the result FAILED but the remaining methods
// still run. Only context cancellation is returned as an error.
func (s *IsolationService) Execute(ctx context.Context, inc *incident.Incident) (*isolation.Result, error) {
	strategy := isolation.Select(inc)
	result := &isolation.Result{
		Status:    isolation.StatusCompleted,
		Strategy:  strategy,
		StartedAt: s.now(),
		Actions:   make([]isolation.ActionRecord, 0, len(strategy)),
	}

	for _, method := range strategy.Methods() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		targets := strategy[method]
		record := isolation.ActionRecord{Method: method, Targets: targets}

		msg, err := s.isolator.Isolate(ctx, method, targets)
		record.Timestamp = s.now()
		if err != nil {
			record.Error = err.Error()
			record.Result = fmt.Sprintf("%s isolation failed", method)
			result.Status = isolation.StatusFailed
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"incident_id": inc.ID,
				"method":      method,
			}).Warn("Isolation method failed")
			metrics.RecordIsolation(string(method), string(isolation.StatusFailed))
		} else {
			record.Result = msg
			metrics.RecordIsolation(string(method), string(isolation.StatusCompleted))
		}
		result.Actions = append(result.Actions, record)
	}

	result.EndedAt = s.now()

	s.logger.WithFields(map[string]interface{}{
		"incident_id": inc.ID,
		"methods":     len(result.Actions),
		"status":      result.Status,
	}).Info("Isolation finished")

	return result, nil
}

// SimulatedIsolator stands in for firewall, EDR and directory integrations
type SimulatedIsolator struct {
	// PerTarget is the simulated delay per isolated target before scaling
	PerTarget time.Duration
	TimeScale float64
}

// NewSimulatedIsolator creates a simulated isolator with the default per-target delay
func NewSimulatedIsolator(timeScale float64) *SimulatedIsolator {
	return &SimulatedIsolator{PerTarget: 100 * time.Millisecond, TimeScale: timeScale}
}

// Isolate waits per target and describes what was isolated
func (s *SimulatedIsolator) Isolate(ctx context.Context, method isolation.Method, targets []string) (string, error) {
	if !method.IsValid() {
		return "", fmt.Errorf("unsupported isolation method %q", method)
	}

	delay := time.Duration(float64(s.PerTarget) * s.TimeScale * float64(len(targets)))
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	joined := strings.Join(targets, ", ")
	switch method {
	case isolation.MethodNetwork:
		return "blocked IPs: " + joined, nil
	case isolation.MethodSystem:
		return "quarantined systems: " + joined, nil
	case isolation.MethodProcess:
		return "terminated processes: " + joined, nil
	case isolation.MethodUser:
		return "disabled accounts: " + joined, nil
	default:
		return "isolated IoT devices: " + joined, nil
	}
}
