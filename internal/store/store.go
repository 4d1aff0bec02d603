// Package store is the SQLite implementation of the entry store, the tenant
// policy lookups and the durable timer session. It re-validates everything
// it is asked to persist and is the authority on entry state.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sadopc/sheetr/internal/timesheet"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

type Store struct {
	db    *sql.DB
	now   func() time.Time
	rules timesheet.Rules

	busyTimeout int
}

type Option func(*Store)

// WithClock replaces time.Now for timestamps and the future-date check.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRules sets the thresholds used by server-side validation.
func WithRules(r timesheet.Rules) Option {
	return func(s *Store) { s.rules = r }
}

// WithBusyTimeout sets the SQLite busy timeout in milliseconds.
func WithBusyTimeout(ms int) Option {
	return func(s *Store) {
		if ms > 0 {
			s.busyTimeout = ms
		}
	}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string, opts ...Option) (*Store, error) {
	s := &Store{
		now:         time.Now,
		rules:       timesheet.DefaultRules(),
		busyTimeout: 5000,
	}
	for _, opt := range opts {
		opt(s)
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		fmt.Sprintf("PRAGMA busy_timeout=%d", s.busyTimeout),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s.db = db
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory(opts ...Option) (*Store, error) {
	return New(":memory:", opts...)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS projects (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		name         TEXT NOT NULL UNIQUE,
		client       TEXT NOT NULL DEFAULT '',
		color        TEXT NOT NULL DEFAULT '#6C63FF',
		category     TEXT NOT NULL DEFAULT 'work',
		billable     INTEGER NOT NULL DEFAULT 1,
		billing_rate TEXT,
		archived     INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id  INTEGER NOT NULL REFERENCES projects(id),
		name        TEXT NOT NULL,
		tags        TEXT NOT NULL DEFAULT '',
		archived    INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		UNIQUE(project_id, name)
	);

	CREATE TABLE IF NOT EXISTS timesheet_entries (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		work_date        TEXT NOT NULL,
		project_id       INTEGER REFERENCES projects(id),
		task_id          INTEGER REFERENCES tasks(id),
		hours            TEXT NOT NULL,
		description      TEXT NOT NULL DEFAULT '',
		is_billable      INTEGER NOT NULL DEFAULT 0,
		billing_rate     TEXT,
		billing_amount   TEXT,
		activity_type    TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL DEFAULT 'DRAFT'
		                 CHECK (status IN ('DRAFT','SUBMITTED','APPROVED','REJECTED')),
		submitted_at     TEXT,
		approved_at      TEXT,
		approved_by      TEXT NOT NULL DEFAULT '',
		rejection_reason TEXT NOT NULL DEFAULT '',
		is_auto_approved INTEGER NOT NULL DEFAULT 0,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_user_date ON timesheet_entries(user_id, work_date);
	CREATE INDEX IF NOT EXISTS idx_entries_status    ON timesheet_entries(status);

	CREATE TABLE IF NOT EXISTS timer_sessions (
		user_id    TEXT PRIMARY KEY,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('allow_future_timesheets', 'false'),
		('root_level_users',        '');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) stamp() string {
	return formatTime(s.now())
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(v string) time.Time {
	t, _ := time.Parse(time.RFC3339, v)
	return t
}

func parseNullTime(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	t := parseTime(v.String)
	return &t
}

// DefaultDBPath returns ~/.config/sheetr/sheetr.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "sheetr", "sheetr.db"), nil
}
