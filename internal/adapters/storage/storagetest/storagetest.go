// Package storagetest opens migrated in-memory databases for tests.
package storagetest

import (
	"context"
	"testing"

	"outreach/internal/adapters/storage"
)

// Open returns a migrated in-memory SQLite database closed at test cleanup.
func Open(t testing.TB) *storage.DB {
	t.Helper()
	raw, dialect, err := storage.Open(context.Background(), "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	db := storage.New(raw, dialect)
	if err := storage.MigrateDB(context.Background(), db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
