// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mnemo-dev/mnemo/internal/store"
	mnemoerr "github.com/mnemo-dev/mnemo/pkg/errors"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// ResolveFunc maps a raw identifier to a display name. Resolution failure
// is expressed by returning the identifier unchanged, never by an error.
type ResolveFunc func(ctx context.Context, identifier string) string

// Store implements store.Store backed by a single SQLite database holding
// the contacts, messages, weekly_summaries, and identity_summaries tables.
type Store struct {
	db      *sql.DB
	dbPath  string
	resolve ResolveFunc
	now     func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the wall clock used for first_seen/last_updated
// stamps. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New opens (or creates) the pipeline database at dbPath and runs
// migrations. The resolver is consulted only on first insert of a contact
// (and on explicit refresh); nil means identifiers resolve to themselves.
func New(dbPath string, resolve ResolveFunc, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, mnemoerr.Errorf(mnemoerr.CodeStoreDatabaseFailure, "opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, mnemoerr.Errorf(mnemoerr.CodeStoreDatabaseFailure, "pinging sqlite db: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, mnemoerr.Errorf(mnemoerr.CodeStoreDatabaseFailure, "migrating pipeline tables: %w", err)
	}

	if resolve == nil {
		resolve = func(_ context.Context, identifier string) string { return identifier }
	}

	s := &Store{db: db, dbPath: dbPath, resolve: resolve, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS contacts (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	identifier   TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL DEFAULT '',
	first_seen   TEXT NOT NULL,
	last_updated TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	contact_id    INTEGER NOT NULL,
	sent_at       TEXT NOT NULL,
	text          TEXT NOT NULL,
	is_from_me    INTEGER NOT NULL DEFAULT 0,
	chat_id       TEXT NOT NULL DEFAULT '',
	is_group_chat INTEGER NOT NULL DEFAULT 0,
	processed     INTEGER NOT NULL DEFAULT 0,
	FOREIGN KEY (contact_id) REFERENCES contacts(id)
);

CREATE INDEX IF NOT EXISTS idx_messages_identity  ON messages(contact_id, sent_at, text);
CREATE INDEX IF NOT EXISTS idx_messages_sent_at   ON messages(sent_at);
CREATE INDEX IF NOT EXISTS idx_messages_processed ON messages(processed);

CREATE TABLE IF NOT EXISTS weekly_summaries (
	id         TEXT PRIMARY KEY,
	contact_id INTEGER NOT NULL,
	week_start TEXT NOT NULL,
	week_end   TEXT NOT NULL,
	summary    TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	FOREIGN KEY (contact_id) REFERENCES contacts(id)
);

CREATE INDEX IF NOT EXISTS idx_weekly_contact ON weekly_summaries(contact_id, week_start);

CREATE TABLE IF NOT EXISTS identity_summaries (
	id           TEXT PRIMARY KEY,
	contact_id   INTEGER NOT NULL,
	summary      TEXT NOT NULL DEFAULT '',
	traits       TEXT NOT NULL DEFAULT '{}',
	relationship TEXT NOT NULL DEFAULT '{}',
	topics       TEXT NOT NULL DEFAULT '{}',
	confidence   TEXT NOT NULL DEFAULT '{}',
	created_at   TEXT NOT NULL,
	FOREIGN KEY (contact_id) REFERENCES contacts(id)
);

CREATE INDEX IF NOT EXISTS idx_identity_contact_created ON identity_summaries(contact_id, created_at);
`
	_, err := db.Exec(ddl)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// formatTime serialises a time.Time to second-precision RFC3339 in UTC.
// Fixed precision keeps the stored strings lexicographically ordered, which
// the range and high-water-mark queries rely on.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// parseTime deserialises a time string stored in the database.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
