package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/pratik-mahalle/soar/internal/domain/playbook"
)

// ActionExecutor performs one playbook action. Implementations must return
// promptly once ctx is done.
type ActionExecutor interface {
	Execute(ctx context.Context, inc *incident.Incident, action playbook.Action) (string, error)
}

// maxSimulatedDelay caps the simulated work of a single action
const maxSimulatedDelay = time.Second

// SimulatedExecutor stands in for real remediation integrations. It waits a
// fraction of the action's timeout and reports success.
type SimulatedExecutor struct {
	// TimeScale multiplies every simulated delay; zero means no delay
	TimeScale float64
}

// NewSimulatedExecutor creates a simulated executor
func NewSimulatedExecutor(timeScale float64) *SimulatedExecutor {
	if timeScale < 0 {
		timeScale = 0
	}
	return &SimulatedExecutor{TimeScale: timeScale}
}

// Execute waits min(timeout/20, 1s) scaled by TimeScale
func (e *SimulatedExecutor) Execute(ctx context.Context, _ *incident.Incident, action playbook.Action) (string, error) {
	delay := action.Timeout / 20
	if delay > maxSimulatedDelay {
		delay = maxSimulatedDelay
	}
	delay = time.Duration(float64(delay) * e.TimeScale)

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return fmt.Sprintf("action %s executed successfully", action.Name), nil
}

// ExecutorFunc adapts a function to ActionExecutor
type ExecutorFunc func(ctx context.Context, inc *incident.Incident, action playbook.Action) (string, error)

// Execute calls f
func (f ExecutorFunc) Execute(ctx context.Context, inc *incident.Incident, action playbook.Action) (string, error) {
	return f(ctx, inc, action)
}
