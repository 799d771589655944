package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AdapterInvocation records metadata for a single recognition adapter
// invocation.
type AdapterInvocation struct {
	Source         string
	Status         string
	FallbackReason string
	ErrorCode      string
	LatencyMS      int64
	Timestamp      time.Time
}

// Store handles persistence of adapter invocations to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves one invocation to the database.
func (s *Store) Record(ctx context.Context, inv AdapterInvocation) error {
	ts := inv.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO adapter_invocations (source, status, fallback_reason, error_code, latency_ms, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		inv.Source, inv.Status, inv.FallbackReason, inv.ErrorCode, inv.LatencyMS, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to record adapter invocation: %w", err)
	}
	return nil
}

// DailySummary represents invocation totals for a single day.
type DailySummary struct {
	Date         string
	Invocations  int
	Fallbacks    int
	Errors       int
	AvgLatencyMS float64
}

// GetDailySummary retrieves per-day invocation totals for the last N days.
func (s *Store) GetDailySummary(ctx context.Context, days int) ([]DailySummary, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := s.db.QueryContext(ctx, `
		SELECT date(timestamp) AS day,
		       COUNT(*),
		       SUM(CASE WHEN fallback_reason != '' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN error_code != '' THEN 1 ELSE 0 END),
		       AVG(latency_ms)
		FROM adapter_invocations
		WHERE timestamp >= ?
		GROUP BY day
		ORDER BY day DESC`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily summary: %w", err)
	}
	defer rows.Close()

	var results []DailySummary
	for rows.Next() {
		var d DailySummary
		var avg sql.NullFloat64
		if err := rows.Scan(&d.Date, &d.Invocations, &d.Fallbacks, &d.Errors, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan daily summary row: %w", err)
		}
		if avg.Valid {
			d.AvgLatencyMS = avg.Float64
		}
		results = append(results, d)
	}
	return results, rows.Err()
}

// Cleanup removes invocations older than the specified number of days and
// returns how many rows were deleted.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM adapter_invocations WHERE timestamp < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up invocations: %w", err)
	}
	return result.RowsAffected()
}
