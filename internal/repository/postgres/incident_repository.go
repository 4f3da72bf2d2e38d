package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/pratik-mahalle/soar/internal/pkg/errors"
	"github.com/pratik-mahalle/soar/internal/pkg/metrics"
)

const incidentColumns = `incident_id, timestamp, severity, source_system, affected_assets,
	indicators, threat_intel, response_actions, mttr_minutes, status,
	error_kind, error_message, created_at`

// IncidentRepository implements incident.Repository for PostgreSQL/SQLite
type IncidentRepository struct {
	db     *sql.DB
	driver string
}

// NewIncidentRepository creates a new incident repository
func NewIncidentRepository(db *sql.DB, driver string) *IncidentRepository {
	return &IncidentRepository{db: db, driver: driver}
}

// Create stores a processed incident record
func (r *IncidentRepository) Create(ctx context.Context, rec *incident.Record) error {
	defer observe("incidents", "insert", time.Now())

	assetsJSON, err := json.Marshal(rec.AffectedAssets)
	if err != nil {
		return fmt.Errorf("failed to marshal affected assets: %w", err)
	}
	indicatorsJSON, err := json.Marshal(rec.Indicators)
	if err != nil {
		return fmt.Errorf("failed to marshal indicators: %w", err)
	}
	var intelJSON []byte
	if rec.ThreatIntel != nil {
		if intelJSON, err = json.Marshal(rec.ThreatIntel); err != nil {
			return fmt.Errorf("failed to marshal threat intel: %w", err)
		}
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO incidents (` + incidentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, Rebind(r.driver, query),
		rec.IncidentID,
		rec.Timestamp.UTC(),
		string(rec.Severity),
		rec.SourceSystem,
		string(assetsJSON),
		string(indicatorsJSON),
		nullString(intelJSON),
		nullString(rec.ResponseActions),
		rec.MTTRMinutes,
		string(rec.Status),
		rec.ErrorKind,
		rec.ErrorMessage,
		rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// GetByID retrieves an incident record by ID
func (r *IncidentRepository) GetByID(ctx context.Context, id string) (*incident.Record, error) {
	defer observe("incidents", "select", time.Now())

	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE incident_id = ?`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, Rebind(r.driver, query), id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("Incident")
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List lists incident records newest first with filtering
func (r *IncidentRepository) List(ctx context.Context, filter incident.Filter, limit, offset int) ([]*incident.Record, int64, error) {
	defer observe("incidents", "select", time.Now())

	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM incidents WHERE 1=1`
	var args []interface{}

	if filter.Severity != "" {
		query += " AND severity = ?"
		countQuery += " AND severity = ?"
		args = append(args, string(filter.Severity))
	}
	if filter.Status != "" {
		query += " AND status = ?"
		countQuery += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.SourceSystem != "" {
		query += " AND source_system = ?"
		countQuery += " AND source_system = ?"
		args = append(args, filter.SourceSystem)
	}
	if filter.From != nil {
		query += " AND created_at >= ?"
		countQuery += " AND created_at >= ?"
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		query += " AND created_at <= ?"
		countQuery += " AND created_at <= ?"
		args = append(args, filter.To.UTC())
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, Rebind(r.driver, countQuery), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count incidents: %w", err)
	}

	query += " ORDER BY created_at DESC, incident_id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, Rebind(r.driver, query), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	var records []*incident.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate incidents: %w", err)
	}

	return records, total, nil
}

// CountByStatus counts incident records per status
func (r *IncidentRepository) CountByStatus(ctx context.Context) (map[incident.Status]int, error) {
	defer observe("incidents", "select", time.Now())

	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM incidents GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count incidents: %w", err)
	}
	defer rows.Close()

	counts := make(map[incident.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan incident count: %w", err)
		}
		counts[incident.Status(status)] = n
	}
	return counts, rows.Err()
}

// DeleteBefore removes records created before cutoff
func (r *IncidentRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	defer observe("incidents", "delete", time.Now())

	result, err := r.db.ExecContext(ctx, Rebind(r.driver, `DELETE FROM incidents WHERE created_at < ?`), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete incidents: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*incident.Record, error) {
	var (
		rec                        incident.Record
		severity, status           string
		assetsJSON, indicatorsJSON string
		intelJSON, responseJSON    sql.NullString
	)

	err := row.Scan(
		&rec.IncidentID,
		&rec.Timestamp,
		&severity,
		&rec.SourceSystem,
		&assetsJSON,
		&indicatorsJSON,
		&intelJSON,
		&responseJSON,
		&rec.MTTRMinutes,
		&status,
		&rec.ErrorKind,
		&rec.ErrorMessage,
		&rec.CreatedAt,
	)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan incident: %w", err)
	}

	rec.Severity = incident.Severity(severity)
	rec.Status = incident.Status(status)

	if err := json.Unmarshal([]byte(assetsJSON), &rec.AffectedAssets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal affected assets: %w", err)
	}
	if err := json.Unmarshal([]byte(indicatorsJSON), &rec.Indicators); err != nil {
		return nil, fmt.Errorf("failed to unmarshal indicators: %w", err)
	}
	if intelJSON.Valid && intelJSON.String != "" {
		rec.ThreatIntel = &incident.Enrichment{}
		if err := json.Unmarshal([]byte(intelJSON.String), rec.ThreatIntel); err != nil {
			return nil, fmt.Errorf("failed to unmarshal threat intel: %w", err)
		}
	}
	if responseJSON.Valid && responseJSON.String != "" {
		rec.ResponseActions = json.RawMessage(responseJSON.String)
	}

	return &rec, nil
}

func nullString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

func observe(table, operation string, start time.Time) {
	metrics.RecordDBQuery(operation, table, time.Since(start))
}
