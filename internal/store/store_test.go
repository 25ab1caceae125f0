// ABOUTME: Tests for SQLite store initialization and schema migrations.
// ABOUTME: Verifies database setup, table creation and idempotent reopening.

package store

import (
	"path/filepath"
	"testing"
)

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "leadscore.db")

	s, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	tables := []string{"schema_migrations", "request_logs", "datasets"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}

	version, err := s.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("SchemaVersion() = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestNewStore_ReopenDoesNotReapplyMigrations(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "leadscore.db")

	first, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	first.Close()

	second, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("second New() error = %v", err)
	}
	defer second.Close()

	var applied int
	if err := second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != CurrentSchemaVersion {
		t.Errorf("schema_migrations rows = %d, want %d", applied, CurrentSchemaVersion)
	}
}

func TestNewStore_BadPath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "dir", "leadscore.db"), nil)
	if err == nil {
		t.Fatal("New() with a missing parent directory should fail")
	}
}
