// Package memory provides in-memory implementations of storage ports and a
// scripted fake payment provider, used in tests and local development.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/wordcoach/wordcoach/domain/billing"
	"github.com/wordcoach/wordcoach/ports"
)

// UserStore is an in-memory implementation of ports.UserStore.
type UserStore struct {
	mu      sync.RWMutex
	users   map[string]ports.User // by ID
	byEmail map[string]string     // email -> ID
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		users:   make(map[string]ports.User),
		byEmail: make(map[string]string),
	}
}

// Get retrieves a user by ID.
func (s *UserStore) Get(ctx context.Context, id string) (ports.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return ports.User{}, billing.ErrNotFound
	}
	return u, nil
}

// GetByEmail retrieves a user by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (ports.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return ports.User{}, billing.ErrNotFound
	}
	return s.users[id], nil
}

// Create stores a new user.
func (s *UserStore) Create(ctx context.Context, u ports.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[u.Email]; exists {
		return errors.New("email already exists")
	}

	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID
	return nil
}

// Update modifies an existing user.
func (s *UserStore) Update(ctx context.Context, u ports.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.users[u.ID]
	if !ok {
		return billing.ErrNotFound
	}

	if old.Email != u.Email {
		delete(s.byEmail, old.Email)
		s.byEmail[u.Email] = u.ID
	}

	s.users[u.ID] = u
	return nil
}

// Ensure interface compliance.
var _ ports.UserStore = (*UserStore)(nil)
