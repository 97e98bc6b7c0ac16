package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/wordcoach/wordcoach/domain/billing"
	"github.com/wordcoach/wordcoach/ports"
)

// ErrDuplicate is returned when a unique constraint is violated.
var ErrDuplicate = errors.New("already exists")

// UserStore implements ports.UserStore using SQLite.
type UserStore struct {
	db *DB
}

// NewUserStore creates a new SQLite user store.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Get retrieves a user by ID.
func (s *UserStore) Get(ctx context.Context, id string) (ports.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, customer_id, subscription_id, status, created_at, updated_at
		FROM users
		WHERE id = ?
	`, id)
	return scanUser(row)
}

// GetByEmail retrieves a user by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (ports.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, customer_id, subscription_id, status, created_at, updated_at
		FROM users
		WHERE email = ?
	`, email)
	return scanUser(row)
}

// Create stores a new user.
func (s *UserStore) Create(ctx context.Context, u ports.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, customer_id, subscription_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.Name, nullString(u.CustomerID), nullString(u.SubscriptionID), u.Status, u.CreatedAt, u.UpdatedAt)

	if err != nil && isUniqueConstraintError(err) {
		return ErrDuplicate
	}
	return err
}

// Update modifies an existing user.
func (s *UserStore) Update(ctx context.Context, u ports.User) error {
	u.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET email = ?, name = ?, customer_id = ?, subscription_id = ?, status = ?, updated_at = ?
		WHERE id = ?
	`, u.Email, u.Name, nullString(u.CustomerID), nullString(u.SubscriptionID), u.Status, u.UpdatedAt, u.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicate
		}
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

func scanUser(row *sql.Row) (ports.User, error) {
	var u ports.User
	var customerID, subscriptionID sql.NullString

	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &customerID, &subscriptionID, &u.Status, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.User{}, billing.ErrNotFound
	}
	if err != nil {
		return ports.User{}, err
	}

	if customerID.Valid {
		u.CustomerID = customerID.String
	}
	if subscriptionID.Valid {
		u.SubscriptionID = subscriptionID.String
	}
	return u, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Ensure interface compliance.
var _ ports.UserStore = (*UserStore)(nil)
