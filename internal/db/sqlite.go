package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// sqliteTimeLayout is fixed-width UTC so stored values sort lexically in
// time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLite - embedded store backed by modernc.org/sqlite. It serves the same
// repository methods as Postgres.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and applies pragmas.
// ":memory:" gives a private in-memory database.
func NewSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	// single writer; also keeps ":memory:" on one connection
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	return &SQLite{db: conn}, nil
}

// DB returns the underlying *sql.DB for direct queries.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// Tx executes fn within a database transaction. The transaction is
// committed if fn returns nil, rolled back otherwise.
func (s *SQLite) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
		}
		return err
	}

	return tx.Commit()
}

// EnsureSchema - creates every table the service needs
func (s *SQLite) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS devices (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			sn         TEXT NOT NULL DEFAULT '',
			model      TEXT NOT NULL DEFAULT '',
			ip         TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS devices_name_key ON devices(name)`,
		`CREATE TABLE IF NOT EXISTS incidents (
			id            TEXT PRIMARY KEY,
			incident_time TEXT NOT NULL,
			device        TEXT NOT NULL,
			ip            TEXT NOT NULL DEFAULT '',
			alert_source  TEXT NOT NULL DEFAULT '',
			status        TEXT NOT NULL DEFAULT 'Open',
			reason        TEXT NOT NULL DEFAULT '',
			resolution    TEXT NOT NULL DEFAULT '',
			sn            TEXT NOT NULL DEFAULT '',
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS incidents_incident_time_idx ON incidents(incident_time DESC)`,
		`CREATE TABLE IF NOT EXISTS admin_account (
			singleton           INTEGER PRIMARY KEY CHECK (singleton = 1),
			login_id            TEXT NOT NULL,
			password_hash       TEXT NOT NULL,
			password_changed_at TEXT NOT NULL,
			created_at          TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS admin_sessions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			token_hash TEXT NOT NULL UNIQUE,
			expires_at TEXT NOT NULL,
			revoked_at TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS admin_sessions_expires_idx ON admin_sessions(expires_at)`,
		`CREATE TABLE IF NOT EXISTS incident_webhooks (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT NOT NULL DEFAULT '',
			url        TEXT NOT NULL,
			method     TEXT NOT NULL DEFAULT 'POST',
			headers    TEXT NOT NULL DEFAULT '[]',
			body       TEXT NOT NULL DEFAULT '',
			events     TEXT NOT NULL DEFAULT '[]',
			enabled    INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}
	return s.Tx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("ensure sqlite schema: %w", err)
			}
		}
		return nil
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

func nowText() string {
	return formatTime(time.Now())
}
