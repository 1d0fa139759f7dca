// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mnemo-dev/mnemo/internal/store"
)

// UpsertContact returns the id for identifier, creating the contact row on
// first sight. The display name is resolved only on that first insert;
// later calls never touch the directory.
func (s *Store) UpsertContact(ctx context.Context, identifier string) (int64, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return 0, fmt.Errorf("empty identifier: %w", store.ErrInvalidInput)
	}

	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM contacts WHERE identifier = ?`, identifier,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("looking up contact %s: %w", identifier, err)
	}

	// First sight. Resolve the display name before opening the transaction;
	// the directory lookup may block and never needs to hold the write lock.
	name := s.resolve(ctx, identifier)
	now := formatTime(s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO contacts (identifier, display_name, first_seen, last_updated)
VALUES (?, ?, ?, ?)`,
		identifier, name, now, now,
	); err != nil {
		return 0, fmt.Errorf("inserting contact %s: %w", identifier, err)
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM contacts WHERE identifier = ?`, identifier,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("reading back contact %s: %w", identifier, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing contact insert: %w", err)
	}
	return id, nil
}

// RefreshContactName re-resolves the display name for an existing contact.
func (s *Store) RefreshContactName(ctx context.Context, id int64) error {
	var identifier string
	err := s.db.QueryRowContext(ctx,
		`SELECT identifier FROM contacts WHERE id = ?`, id,
	).Scan(&identifier)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("contact %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("looking up contact %d: %w", id, err)
	}

	name := s.resolve(ctx, identifier)
	if _, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET display_name = ?, last_updated = ? WHERE id = ?`,
		name, formatTime(s.now()), id,
	); err != nil {
		return fmt.Errorf("updating contact %d: %w", id, err)
	}
	return nil
}

// Contacts returns all known contacts ordered by id.
func (s *Store) Contacts(ctx context.Context) ([]store.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, identifier, display_name, first_seen, last_updated
FROM contacts ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var contacts []store.Contact
	for rows.Next() {
		var c store.Contact
		var firstSeen, lastUpdated string
		if err := rows.Scan(&c.ID, &c.Identifier, &c.DisplayName, &firstSeen, &lastUpdated); err != nil {
			return nil, fmt.Errorf("scanning contact row: %w", err)
		}
		c.FirstSeen = parseTime(firstSeen)
		c.LastUpdated = parseTime(lastUpdated)
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contacts, nil
}

// ContactCount returns the number of known contacts.
func (s *Store) ContactCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting contacts: %w", err)
	}
	return count, nil
}
