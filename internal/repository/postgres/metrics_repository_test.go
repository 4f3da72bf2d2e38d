package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pratik-mahalle/soar/internal/domain/dashboard"
	"github.com/pratik-mahalle/soar/internal/testutil"
)

func TestMetricsRepository_LoadSave(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewMetricsRepository(db, DriverSQLite)
	ctx := context.Background()

	empty, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if empty.TotalIncidents != 0 || empty.TotalMTTRMinutes != 0 {
		t.Errorf("Load() on empty table = %+v", empty)
	}

	now := time.Now().UTC().Truncate(time.Second)
	for _, c := range []dashboard.Counters{
		{TotalIncidents: 1, SuccessfulIncidents: 1, AutomatedIncidents: 1, TotalMTTRMinutes: 0.5, UpdatedAt: now},
		{TotalIncidents: 3, SuccessfulIncidents: 2, AutomatedIncidents: 1, TotalMTTRMinutes: 1.25, UpdatedAt: now.Add(time.Minute)},
	} {
		if err := repo.Save(ctx, c); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.TotalIncidents != 3 || got.SuccessfulIncidents != 2 || got.AutomatedIncidents != 1 {
		t.Errorf("Load() = %+v", got)
	}
	if got.TotalMTTRMinutes != 1.25 {
		t.Errorf("TotalMTTRMinutes = %v, want 1.25", got.TotalMTTRMinutes)
	}
	if !got.UpdatedAt.Equal(now.Add(time.Minute)) {
		t.Errorf("UpdatedAt = %v", got.UpdatedAt)
	}
}

func TestRunMigrations(t *testing.T) {
	db := testutil.NewEmptyDB(t)
	defer testutil.CleanupDB(db)

	ctx := context.Background()
	applied, err := RunMigrations(ctx, db, migrationsFS())
	if err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	if len(applied) != 2 {
		t.Fatalf("RunMigrations() applied = %v, want 2 files", applied)
	}

	again, err := RunMigrations(ctx, db, migrationsFS())
	if err != nil {
		t.Fatalf("RunMigrations() second run error = %v", err)
	}
	if len(again) != 0 {
		t.Errorf("RunMigrations() second run applied = %v", again)
	}

	if _, err := NewIncidentRepository(db, DriverSQLite).CountByStatus(ctx); err != nil {
		t.Errorf("incidents table missing after migration: %v", err)
	}
}
