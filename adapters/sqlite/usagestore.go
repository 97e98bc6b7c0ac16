package sqlite

import (
	"context"
	"time"

	"github.com/wordcoach/wordcoach/domain/billing"
	"github.com/wordcoach/wordcoach/domain/usage"
	"github.com/wordcoach/wordcoach/ports"
)

// UsageStore implements ports.UsageStore using SQLite.
type UsageStore struct {
	db *DB
}

// NewUsageStore creates a new SQLite usage store.
func NewUsageStore(db *DB) *UsageStore {
	return &UsageStore{db: db}
}

// Record stores a usage event.
func (s *UsageStore) Record(ctx context.Context, e usage.Event) error {
	active := 0
	if e.Active {
		active = 1
	}
	// Store timestamp in UTC for consistent querying
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_events (id, user_id, word_count, active, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.ID, e.UserID, e.WordCount, active, e.CreatedAt.UTC())
	return err
}

// ListRange returns active events for a user with start <= created_at < end.
func (s *UsageStore) ListRange(ctx context.Context, userID string, start, end time.Time) ([]usage.Event, error) {
	// Format times as ISO8601 strings for SQLite comparison
	// Convert to UTC since timestamps are stored in UTC
	startStr := start.UTC().Format("2006-01-02 15:04:05")
	endStr := end.UTC().Format("2006-01-02 15:04:05")
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, word_count, created_at
		FROM usage_events
		WHERE user_id = ? AND active = 1
		  AND datetime(created_at) >= datetime(?) AND datetime(created_at) < datetime(?)
		ORDER BY created_at ASC, id ASC
	`, userID, startStr, endStr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []usage.Event
	for rows.Next() {
		var e usage.Event
		if err := rows.Scan(&e.ID, &e.UserID, &e.WordCount, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Active = true
		events = append(events, e)
	}
	return events, rows.Err()
}

// Deactivate marks an event inactive. Events are never deleted.
func (s *UsageStore) Deactivate(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE usage_events SET active = 0 WHERE id = ?
	`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return billing.ErrNotFound
	}
	return nil
}

// Ensure interface compliance.
var _ ports.UsageStore = (*UsageStore)(nil)
