package services

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/pratik-mahalle/soar/internal/domain/dashboard"
	"github.com/pratik-mahalle/soar/internal/pkg/logger"
	"github.com/pratik-mahalle/soar/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_Record(t *testing.T) {
	repo := testutil.NewMockMetricsRepository()
	repo.Counters = dashboard.Counters{TotalIncidents: 2, SuccessfulIncidents: 2, AutomatedIncidents: 1, TotalMTTRMinutes: 4}
	svc := NewDashboardService(repo, 0, logger.Nop())
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, dashboard.Outcome{Success: true, Automated: true, MTTRMinutes: 2}))
	require.NoError(t, svc.Record(ctx, dashboard.Outcome{Success: false}))

	assert.Equal(t, int64(4), repo.Counters.TotalIncidents)
	assert.Equal(t, int64(3), repo.Counters.SuccessfulIncidents)
	assert.Equal(t, int64(2), repo.Counters.AutomatedIncidents)
	assert.Equal(t, 2, repo.Saves)

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), snap.Incidents.Total)
	assert.Equal(t, 2.0, snap.Incidents.AvgMTTRMinutes)
	assert.Equal(t, 75.0, snap.Incidents.SuccessRate)
	assert.Equal(t, 50.0, snap.Incidents.AutomationRate)
	assert.Equal(t, 15.0, snap.Performance.MTTRTarget)
	assert.InDelta(t, 750.0, snap.Performance.MTTRPerformance, 1e-9)
	assert.Equal(t, dashboard.StatusOperational, snap.Status)
}

func TestDashboardService_Errors(t *testing.T) {
	repo := testutil.NewMockMetricsRepository()
	repo.LoadError = stderrors.New("db locked")
	svc := NewDashboardService(repo, 0, logger.Nop())

	_, err := svc.Snapshot(context.Background())
	assert.ErrorContains(t, err, "db locked")

	repo.LoadError = nil
	repo.SaveError = stderrors.New("disk full")
	err = svc.Record(context.Background(), dashboard.Outcome{Success: true})
	assert.ErrorContains(t, err, "disk full")

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.Incidents.Total, "failed save leaves counters untouched")
}
