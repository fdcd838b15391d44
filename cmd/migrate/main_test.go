package main

import (
	"path/filepath"
	"testing"

	"github.com/spennies/spennies/internal/store"
)

func TestMigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	if err := store.RunMigrations(dbPath); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	// A second run must be a no-op, not an error.
	if err := store.RunMigrations(dbPath); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
}
