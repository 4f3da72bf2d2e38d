package worker

import (
	"context"
	"testing"
	"time"

	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/pratik-mahalle/soar/internal/pkg/logger"
	"github.com/pratik-mahalle/soar/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRetentionWorker_Rejects(t *testing.T) {
	repo := testutil.NewMockIncidentRepository()

	_, err := NewRetentionWorker(repo, "not a cron", time.Hour, logger.Nop())
	assert.Error(t, err)

	_, err = NewRetentionWorker(repo, "0 3 * * *", 0, logger.Nop())
	assert.Error(t, err)
}

func TestRetentionWorker_Prune(t *testing.T) {
	repo := testutil.NewMockIncidentRepository()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for id, age := range map[string]time.Duration{
		"INC-old-1": 40 * 24 * time.Hour,
		"INC-old-2": 31 * 24 * time.Hour,
		"INC-new-1": 2 * time.Hour,
	} {
		require.NoError(t, repo.Create(context.Background(), &incident.Record{
			IncidentID: id,
			Status:     incident.StatusCompleted,
			CreatedAt:  now.Add(-age),
		}))
	}

	w, err := NewRetentionWorker(repo, "0 3 * * *", 30*24*time.Hour, logger.Nop())
	require.NoError(t, err)
	w.now = func() time.Time { return now }

	n, err := w.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Len(t, repo.Records, 1)
	assert.Contains(t, repo.Records, "INC-new-1")
}

func TestRetentionWorker_PruneError(t *testing.T) {
	repo := testutil.NewMockIncidentRepository()
	repo.DeleteError = assert.AnError

	w, err := NewRetentionWorker(repo, "@daily", time.Hour, logger.Nop())
	require.NoError(t, err)

	_, err = w.Prune(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRetentionWorker_StartStop(t *testing.T) {
	w, err := NewRetentionWorker(testutil.NewMockIncidentRepository(), "0 3 * * *", time.Hour, logger.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, w.Start(ctx))
	assert.Error(t, w.Start(ctx), "second start must fail")

	w.Stop()
	w.Stop()
	require.NoError(t, w.Start(ctx), "restart after stop")
	cancel()
}
