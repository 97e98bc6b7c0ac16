// Package usage provides recording usage events and pure report aggregation.
package usage

import "time"

// Event is a single recording's word usage (immutable value type). Events are
// append-only: they are never deleted, only marked inactive.
type Event struct {
	ID        string
	UserID    string
	WordCount int64
	Active    bool
	CreatedAt time.Time
}

// NewEvent creates a usage event for a recording.
func NewEvent(id, userID string, wordCount int64, createdAt time.Time) Event {
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return Event{
		ID:        id,
		UserID:    userID,
		WordCount: wordCount,
		Active:    true,
		CreatedAt: createdAt,
	}
}
