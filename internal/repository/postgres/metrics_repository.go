package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pratik-mahalle/soar/internal/domain/dashboard"
)

// MetricsRepository implements dashboard.Repository over the metrics table
type MetricsRepository struct {
	db     *sql.DB
	driver string
}

// NewMetricsRepository creates a new metrics repository
func NewMetricsRepository(db *sql.DB, driver string) *MetricsRepository {
	return &MetricsRepository{db: db, driver: driver}
}

// Load reads the dashboard counters. Missing metrics read as zero.
func (r *MetricsRepository) Load(ctx context.Context) (dashboard.Counters, error) {
	defer observe("metrics", "select", time.Now())

	rows, err := r.db.QueryContext(ctx, `SELECT metric_name, metric_value, updated_at FROM metrics`)
	if err != nil {
		return dashboard.Counters{}, fmt.Errorf("failed to load metrics: %w", err)
	}
	defer rows.Close()

	var c dashboard.Counters
	for rows.Next() {
		var (
			name      string
			value     float64
			updatedAt time.Time
		)
		if err := rows.Scan(&name, &value, &updatedAt); err != nil {
			return dashboard.Counters{}, fmt.Errorf("failed to scan metric: %w", err)
		}

		switch name {
		case dashboard.MetricTotalIncidents:
			c.TotalIncidents = int64(value)
		case dashboard.MetricSuccessfulIncidents:
			c.SuccessfulIncidents = int64(value)
		case dashboard.MetricAutomatedIncidents:
			c.AutomatedIncidents = int64(value)
		case dashboard.MetricTotalMTTRMinutes:
			c.TotalMTTRMinutes = value
		}
		if updatedAt.After(c.UpdatedAt) {
			c.UpdatedAt = updatedAt
		}
	}
	return c, rows.Err()
}

// Save upserts every counter in a single transaction
func (r *MetricsRepository) Save(ctx context.Context, c dashboard.Counters) error {
	defer observe("metrics", "upsert", time.Now())

	updatedAt := c.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	values := []struct {
		name  string
		value float64
	}{
		{dashboard.MetricTotalIncidents, float64(c.TotalIncidents)},
		{dashboard.MetricSuccessfulIncidents, float64(c.SuccessfulIncidents)},
		{dashboard.MetricAutomatedIncidents, float64(c.AutomatedIncidents)},
		{dashboard.MetricTotalMTTRMinutes, c.TotalMTTRMinutes},
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin metrics transaction: %w", err)
	}

	query := Rebind(r.driver, `
		INSERT INTO metrics (metric_name, metric_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (metric_name) DO UPDATE
		SET metric_value = excluded.metric_value, updated_at = excluded.updated_at
	`)
	for _, v := range values {
		if _, err := tx.ExecContext(ctx, query, v.name, v.value, updatedAt.UTC()); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to save metric %s: %w", v.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit metrics: %w", err)
	}
	return nil
}
