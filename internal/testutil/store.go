// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"testing"

	"github.com/cctv-report/backend/internal/db"
)

// NewStore creates an in-memory SQLite store with the full schema.
// The store is closed when the test completes.
func NewStore(t *testing.T) *db.SQLite {
	t.Helper()
	store, err := db.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("testutil.NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("testutil.NewStore schema: %v", err)
	}
	return store
}
