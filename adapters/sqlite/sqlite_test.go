package sqlite_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/wordcoach/wordcoach/adapters/sqlite"
	"github.com/wordcoach/wordcoach/domain/billing"
	"github.com/wordcoach/wordcoach/domain/usage"
	"github.com/wordcoach/wordcoach/ports"
)

func setupTestDB(t *testing.T) (*sqlite.DB, func()) {
	t.Helper()

	// Create temp file for test database
	f, err := os.CreateTemp("", "wordcoach-test-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := f.Name()
	f.Close()

	db, err := sqlite.Open(path)
	if err != nil {
		os.Remove(path)
		t.Fatalf("open database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		os.Remove(path)
		t.Fatalf("migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(path)
	}

	return db, cleanup
}

// -----------------------------------------------------------------------------
// UserStore Tests
// -----------------------------------------------------------------------------

func TestUserStore_CreateAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUserStore(db)
	ctx := context.Background()

	user := ports.User{
		ID:     "user-1",
		Email:  "dana@example.com",
		Name:   "Dana",
		Status: "active",
	}
	if err := store.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "dana@example.com" {
		t.Errorf("email = %q, want dana@example.com", got.Email)
	}
	if got.CustomerID != "" {
		t.Errorf("customer id = %q, want empty", got.CustomerID)
	}

	byEmail, err := store.GetByEmail(ctx, "dana@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != "user-1" {
		t.Errorf("id = %q, want user-1", byEmail.ID)
	}
}

func TestUserStore_Update(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUserStore(db)
	ctx := context.Background()

	user := ports.User{ID: "user-1", Email: "dana@example.com", Status: "active"}
	if err := store.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}

	user.CustomerID = "cus_1"
	user.SubscriptionID = "sub_1"
	if err := store.Update(ctx, user); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CustomerID != "cus_1" || got.SubscriptionID != "sub_1" {
		t.Errorf("got customer %q subscription %q", got.CustomerID, got.SubscriptionID)
	}

	if err := store.Update(ctx, ports.User{ID: "user-missing"}); !errors.Is(err, billing.ErrNotFound) {
		t.Errorf("update missing: err = %v, want ErrNotFound", err)
	}
}

func TestUserStore_DuplicateEmail(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUserStore(db)
	ctx := context.Background()

	if err := store.Create(ctx, ports.User{ID: "user-1", Email: "dana@example.com", Status: "active"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := store.Create(ctx, ports.User{ID: "user-2", Email: "dana@example.com", Status: "active"})
	if !errors.Is(err, sqlite.ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestUserStore_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUserStore(db)
	ctx := context.Background()

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, billing.ErrNotFound) {
		t.Errorf("get: err = %v, want ErrNotFound", err)
	}
	if _, err := store.GetByEmail(ctx, "nope@example.com"); !errors.Is(err, billing.ErrNotFound) {
		t.Errorf("get by email: err = %v, want ErrNotFound", err)
	}
}

// -----------------------------------------------------------------------------
// UsageStore Tests
// -----------------------------------------------------------------------------

func TestUsageStore_RecordAndListRange(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUsageStore(db)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	events := []usage.Event{
		{ID: "ev-2", UserID: "user-1", WordCount: 20, Active: true, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "ev-1", UserID: "user-1", WordCount: 10, Active: true, CreatedAt: base.Add(time.Hour)},
		{ID: "ev-3", UserID: "user-1", WordCount: 30, Active: true, CreatedAt: base.AddDate(0, 1, 0)},
		{ID: "ev-other", UserID: "user-2", WordCount: 99, Active: true, CreatedAt: base.Add(time.Hour)},
	}
	for _, e := range events {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("record %s: %v", e.ID, err)
		}
	}

	got, err := store.ListRange(ctx, "user-1", base, base.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (end exclusive, other user filtered)", len(got))
	}
	if got[0].ID != "ev-1" || got[1].ID != "ev-2" {
		t.Errorf("order = %s,%s, want ev-1,ev-2", got[0].ID, got[1].ID)
	}
	if got[0].WordCount != 10 {
		t.Errorf("word count = %d, want 10", got[0].WordCount)
	}
}

func TestUsageStore_Deactivate(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUsageStore(db)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := store.Record(ctx, usage.Event{ID: "ev-1", UserID: "user-1", WordCount: 10, Active: true, CreatedAt: base}); err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := store.Deactivate(ctx, "ev-1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	got, err := store.ListRange(ctx, "user-1", base.Add(-time.Hour), base.Add(time.Hour))
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0 after deactivate", len(got))
	}

	if err := store.Deactivate(ctx, "ev-missing"); !errors.Is(err, billing.ErrNotFound) {
		t.Errorf("deactivate missing: err = %v, want ErrNotFound", err)
	}
}
