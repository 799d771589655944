package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Archive is the append-only SQLite store for completed analyses. The full
// record is kept as JSON; the indexed columns exist only for lookups.
type Archive struct {
	db *sql.DB
}

// NewArchive creates an Archive over an existing database connection.
func NewArchive(db *sql.DB) *Archive {
	return &Archive{db: db}
}

// Save inserts one completed record.
func (a *Archive) Save(ctx context.Context, rec AnalysisRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis record: %w", err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO analyses (id, user_id, idempotency_key, status, source, dish_title, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.IdempotencyKey, rec.Status, rec.Source, rec.DishTitle, string(data), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis record: %w", err)
	}
	return nil
}

// Get retrieves one record by its primary id. Returns nil when absent.
func (a *Archive) Get(ctx context.Context, userID, analysisID string) (*AnalysisRecord, error) {
	return a.queryOne(ctx,
		`SELECT data FROM analyses WHERE user_id = ? AND id = ?`, userID, analysisID)
}

// FindByKey retrieves one record by its idempotency key. Returns nil when
// absent.
func (a *Archive) FindByKey(ctx context.Context, userID, key string) (*AnalysisRecord, error) {
	return a.queryOne(ctx,
		`SELECT data FROM analyses WHERE user_id = ? AND idempotency_key = ?`, userID, key)
}

func (a *Archive) queryOne(ctx context.Context, query string, args ...interface{}) (*AnalysisRecord, error) {
	var data string
	err := a.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis record: %w", err)
	}

	var rec AnalysisRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis record: %w", err)
	}
	return &rec, nil
}

// ListRecent returns the newest records for a user, newest first.
func (a *Archive) ListRecent(ctx context.Context, userID string, limit int) ([]AnalysisRecord, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT data FROM analyses WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis records: %w", err)
	}
	defer rows.Close()

	var records []AnalysisRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}
		var rec AnalysisRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			fmt.Printf("Warning: skipping unparseable analysis record: %v\n", err)
			continue
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
