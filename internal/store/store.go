// ABOUTME: Core SQLite store for the lead scoring dashboard.
// ABOUTME: Handles database initialization, migrations, and connection management.

package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Migration version constants
const (
	MigrationV1 = 1 // Initial schema with request_logs table
	MigrationV2 = 2 // Add performance indexes for aggregation and filtering queries
	MigrationV3 = 3 // Add datasets table for memoized lead snapshots
)

// CurrentSchemaVersion is the target version for the database schema
const CurrentSchemaVersion = MigrationV3

type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// New opens (or creates) the database at dbPath and applies pending migrations.
func New(dbPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Every in-memory connection is its own database
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs all pending migrations
func (s *Store) migrate() error {
	if err := s.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := s.getCurrentMigrationVersion()
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	s.logger.Debug("database schema version",
		zap.Int("current", currentVersion),
		zap.Int("target", CurrentSchemaVersion))

	steps := []struct {
		version int
		run     func() error
	}{
		{MigrationV1, s.migrateV1},
		{MigrationV2, s.migrateV2},
		{MigrationV3, s.migrateV3},
	}
	for _, step := range steps {
		if currentVersion >= step.version {
			continue
		}
		if err := step.run(); err != nil {
			return fmt.Errorf("migration v%d failed: %w", step.version, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration.
func (s *Store) SchemaVersion() (int, error) {
	return s.getCurrentMigrationVersion()
}

func (s *Store) createMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			description TEXT
		)
	`)
	return err
}

func (s *Store) getCurrentMigrationVersion() (int, error) {
	var version int
	err := s.db.QueryRow(`
		SELECT COALESCE(MAX(version), 0) FROM schema_migrations
	`).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (s *Store) recordMigration(version int, description string) error {
	_, err := s.db.Exec(`
		INSERT INTO schema_migrations (version, description)
		VALUES (?, ?)
	`, version, description)
	if err != nil {
		return err
	}
	s.logger.Info("applied migration", zap.Int("version", version), zap.String("description", description))
	return nil
}

// migrateV1 creates the request_logs table and its basic indexes
func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS request_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		section TEXT DEFAULT '',
		method TEXT NOT NULL,
		path TEXT NOT NULL,
		status_code INTEGER,
		duration_ms INTEGER,
		session_id TEXT,
		ip_address TEXT,
		user_agent TEXT,
		request_body TEXT,
		response_body TEXT,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_request_logs_timestamp ON request_logs(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_request_logs_path ON request_logs(path);
	CREATE INDEX IF NOT EXISTS idx_request_logs_status ON request_logs(status_code);
	CREATE INDEX IF NOT EXISTS idx_request_logs_section ON request_logs(section);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.recordMigration(MigrationV1, "Create request_logs table and indexes")
}

// migrateV2 adds composite indexes for the log browser queries
func (s *Store) migrateV2() error {
	indexes := []string{
		// GetTopEndpoints groups by path
		"CREATE INDEX IF NOT EXISTS idx_request_logs_path_count ON request_logs(path, status_code)",
		// GetSectionRequestCount and GetSectionErrorRate filter by section and time
		"CREATE INDEX IF NOT EXISTS idx_request_logs_section_timestamp ON request_logs(section, timestamp DESC)",
		"CREATE INDEX IF NOT EXISTS idx_request_logs_section_method_status ON request_logs(section, method, status_code)",
		"CREATE INDEX IF NOT EXISTS idx_request_logs_session_id ON request_logs(session_id) WHERE session_id != ''",
		"CREATE INDEX IF NOT EXISTS idx_request_logs_timestamp_status ON request_logs(timestamp DESC, status_code)",
	}

	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return s.recordMigration(MigrationV2, "Add composite indexes for aggregation and filtering queries")
}

// migrateV3 creates the datasets snapshot table
func (s *Store) migrateV3() error {
	schema := `
	CREATE TABLE IF NOT EXISTS datasets (
		session TEXT NOT NULL,
		seed INTEGER NOT NULL,
		record_count INTEGER NOT NULL,
		generated_at TIMESTAMP NOT NULL,
		records TEXT NOT NULL,
		PRIMARY KEY (session, seed, record_count)
	);

	CREATE INDEX IF NOT EXISTS idx_datasets_generated_at ON datasets(generated_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.recordMigration(MigrationV3, "Create datasets table")
}
