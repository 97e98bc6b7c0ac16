package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wordcoach/wordcoach/domain/billing"
	"github.com/wordcoach/wordcoach/domain/usage"
	"github.com/wordcoach/wordcoach/ports"
)

// UsageStore is an in-memory implementation of ports.UsageStore.
type UsageStore struct {
	mu     sync.RWMutex
	events map[string]usage.Event // by ID
}

// NewUsageStore creates a new in-memory usage store.
func NewUsageStore() *UsageStore {
	return &UsageStore{
		events: make(map[string]usage.Event),
	}
}

// Record stores a usage event.
func (s *UsageStore) Record(ctx context.Context, e usage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[e.ID] = e
	return nil
}

// ListRange returns active events in [start, end) ordered ascending by
// creation time.
func (s *UsageStore) ListRange(ctx context.Context, userID string, start, end time.Time) ([]usage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []usage.Event
	for _, e := range s.events {
		if e.UserID != userID || !e.Active {
			continue
		}
		if e.CreatedAt.Before(start) || !e.CreatedAt.Before(end) {
			continue
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Deactivate marks an event inactive.
func (s *UsageStore) Deactivate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return billing.ErrNotFound
	}
	e.Active = false
	s.events[id] = e
	return nil
}

// Ensure interface compliance.
var _ ports.UsageStore = (*UsageStore)(nil)
