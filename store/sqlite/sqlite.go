/*
Package sqlite provides a SQL-backed implementation of the engine's data sources.

PURPOSE:
  Persists facilities, rosters, usage and billing records, and the history
  of monthly verification runs. The engine packages never see SQL: the
  store implements staffing.Source, verification.UsageSource and
  verification.BillingSource.

DRIVERS:
  sqlite3  (default) github.com/mattn/go-sqlite3, WAL mode
  postgres github.com/lib/pq

  Queries are written with ? placeholders and passed through sqlx Rebind,
  so the same statements run on both drivers.

KEY TABLES:
  facilities:        Facility profiles (region grade, held additions, ...)
  staff:             Raw staff records per facility
  children:          Child roster with beneficiary number and income category
  usage_records:     Daily service-provision records
  billing_records:   Monthly billing per child
  verification_runs: One row per facility and verified month

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. With PostgreSQL the database
  handles this as well; the mutex keeps sqlite writers serialized.

USAGE:
  store, err := sqlite.New("./data/kasan.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := verification.NewService(store, store)

MIGRATION:
  Schema is auto-migrated on open. Statements are idempotent
  (CREATE ... IF NOT EXISTS).

SEE ALSO:
  - store/memory: In-memory implementation for tests
  - api/scheduler.go: Writes verification_runs
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Store implements the engine's source interfaces over SQL.
type Store struct {
	db *sqlx.DB
	mu sync.RWMutex
}

// New opens (or creates) a SQLite database at path.
// Use ":memory:" for an in-memory database.
func New(path string) (*Store, error) {
	return Open(DriverSQLite, path)
}

// Open connects with the given driver and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite && strings.HasPrefix(dsn, ":memory:") {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// NewWithDB wraps an existing connection without migrating. Used with
// sqlmock in tests.
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_foreign_keys=on&_journal_mode=WAL"
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS facilities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		service_type TEXT NOT NULL,
		region_grade INTEGER NOT NULL,
		capacity INTEGER NOT NULL DEFAULT 0,
		base_units INTEGER NOT NULL DEFAULT 0,
		standard_weekly_hours TEXT,
		held_additions TEXT NOT NULL DEFAULT '[]',
		career_path_level INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS staff (
		facility_id TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		work_style TEXT NOT NULL,
		contracted_weekly_hours TEXT NOT NULL,
		qualifications TEXT NOT NULL DEFAULT '[]',
		years_of_experience INTEGER NOT NULL DEFAULT 0,
		personnel_type TEXT NOT NULL,
		PRIMARY KEY (facility_id, id)
	)`,

	`CREATE TABLE IF NOT EXISTS children (
		facility_id TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		beneficiary_number TEXT NOT NULL DEFAULT '',
		income_category TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (facility_id, id)
	)`,

	`CREATE TABLE IF NOT EXISTS usage_records (
		id TEXT PRIMARY KEY,
		facility_id TEXT NOT NULL,
		child_id TEXT NOT NULL,
		service_date TEXT NOT NULL,
		billing_target TEXT NOT NULL,
		actual_start_time TEXT,
		actual_end_time TEXT
	)`,

	// Hot path: one facility, one month
	`CREATE INDEX IF NOT EXISTS idx_usage_facility_date
		ON usage_records(facility_id, service_date)`,

	`CREATE TABLE IF NOT EXISTS billing_records (
		id TEXT PRIMARY KEY,
		facility_id TEXT NOT NULL,
		child_id TEXT NOT NULL,
		year_month TEXT NOT NULL,
		income_category TEXT NOT NULL,
		total_cost INTEGER NOT NULL,
		copay_amount INTEGER NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_billing_facility_month
		ON billing_records(facility_id, year_month)`,

	`CREATE TABLE IF NOT EXISTS verification_runs (
		id TEXT PRIMARY KEY,
		facility_id TEXT NOT NULL,
		year_month TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		error_count INTEGER NOT NULL DEFAULT 0,
		warning_count INTEGER NOT NULL DEFAULT 0,
		info_count INTEGER NOT NULL DEFAULT 0,
		blocks_submission BOOLEAN NOT NULL DEFAULT FALSE,
		error TEXT NOT NULL DEFAULT '',
		started_at TEXT,
		completed_at TEXT,
		created_at TEXT NOT NULL
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_verification_runs_unique
		ON verification_runs(facility_id, year_month)`,
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"verification_runs", "billing_records", "usage_records", "children", "staff", "facilities"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}

func (s *Store) exec(ctx context.Context, ext sqlx.ExecerContext, query string, args ...any) error {
	_, err := ext.ExecContext(ctx, s.db.Rebind(query), args...)
	return err
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullPtr(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func ptrFromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }
