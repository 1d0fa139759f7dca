// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mnemo-dev/mnemo/internal/store"
)

// InsertMessageIfAbsent inserts msg unless a row with the same
// (contact_id, sent_at, text) already exists. Returns true when a row was
// inserted. The check and insert run in one transaction; the pipeline is
// the only writer.
func (s *Store) InsertMessageIfAbsent(ctx context.Context, msg *store.Message) (bool, error) {
	if msg == nil || msg.ContactID == 0 {
		return false, fmt.Errorf("message requires a contact id: %w", store.ErrInvalidInput)
	}
	if strings.TrimSpace(msg.Text) == "" {
		return false, fmt.Errorf("message requires text: %w", store.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	sentAt := formatTime(msg.SentAt)

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM messages WHERE contact_id = ? AND sent_at = ? AND text = ?`,
		msg.ContactID, sentAt, msg.Text,
	).Scan(&exists)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("checking for duplicate message: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO messages (contact_id, sent_at, text, is_from_me, chat_id, is_group_chat, processed)
VALUES (?, ?, ?, ?, ?, ?, 0)`,
		msg.ContactID, sentAt, msg.Text, msg.IsFromMe, msg.ChatID, msg.IsGroupChat,
	)
	if err != nil {
		return false, fmt.Errorf("inserting message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing message insert: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		msg.ID = id
	}
	msg.Processed = false
	return true, nil
}

// UnprocessedMessages returns messages not yet marked processed, oldest
// first. contactID 0 means all contacts.
func (s *Store) UnprocessedMessages(ctx context.Context, contactID int64) ([]store.Message, error) {
	q := `SELECT id, contact_id, sent_at, text, is_from_me, chat_id, is_group_chat, processed
FROM messages WHERE processed = 0`
	args := []any{}
	if contactID != 0 {
		q += ` AND contact_id = ?`
		args = append(args, contactID)
	}
	q += ` ORDER BY sent_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing unprocessed messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanMessages(rows)
}

// MarkProcessed flips the processed flag for the given message ids. Already
// processed rows stay processed; unknown ids are ignored.
func (s *Store) MarkProcessed(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `UPDATE messages SET processed = 1 WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("preparing mark statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("marking message %d processed: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing processed marks: %w", err)
	}
	return nil
}

// MessagesInRange returns a contact's messages with sent_at in
// [start, end), oldest first, with SenderName resolved for transcript
// rendering: the stored display name for inbound rows, "Me" for outbound.
func (s *Store) MessagesInRange(ctx context.Context, contactID int64, start, end time.Time) ([]store.Message, error) {
	const q = `SELECT m.id, m.contact_id, m.sent_at, m.text, m.is_from_me, m.chat_id, m.is_group_chat, m.processed, c.display_name
FROM messages m
JOIN contacts c ON c.id = m.contact_id
WHERE m.contact_id = ? AND m.sent_at >= ? AND m.sent_at < ?
ORDER BY m.sent_at ASC, m.id ASC`

	rows, err := s.db.QueryContext(ctx, q, contactID, formatTime(start), formatTime(end))
	if err != nil {
		return nil, fmt.Errorf("getting message range: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanNamedMessages(rows)
}

// AllMessages returns a contact's full history oldest first, with
// SenderName resolved as in MessagesInRange.
func (s *Store) AllMessages(ctx context.Context, contactID int64) ([]store.Message, error) {
	const q = `SELECT m.id, m.contact_id, m.sent_at, m.text, m.is_from_me, m.chat_id, m.is_group_chat, m.processed, c.display_name
FROM messages m
JOIN contacts c ON c.id = m.contact_id
WHERE m.contact_id = ?
ORDER BY m.sent_at ASC, m.id ASC`

	rows, err := s.db.QueryContext(ctx, q, contactID)
	if err != nil {
		return nil, fmt.Errorf("getting message history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanNamedMessages(rows)
}

// EarliestMessageDate returns the oldest sent_at across all messages, or
// store.ErrNotFound on an empty store.
func (s *Store) EarliestMessageDate(ctx context.Context) (time.Time, error) {
	return s.boundaryDate(ctx, `SELECT MIN(sent_at) FROM messages`)
}

// LastMessageDate returns the newest sent_at across all messages, or
// store.ErrNotFound on an empty store. This is the ingestion high-water
// mark.
func (s *Store) LastMessageDate(ctx context.Context) (time.Time, error) {
	return s.boundaryDate(ctx, `SELECT MAX(sent_at) FROM messages`)
}

func (s *Store) boundaryDate(ctx context.Context, q string) (time.Time, error) {
	var raw sql.NullString
	if err := s.db.QueryRowContext(ctx, q).Scan(&raw); err != nil {
		return time.Time{}, fmt.Errorf("reading message date boundary: %w", err)
	}
	if !raw.Valid || raw.String == "" {
		return time.Time{}, fmt.Errorf("no messages stored: %w", store.ErrNotFound)
	}
	return parseTime(raw.String), nil
}

// MessageCount returns the total number of stored messages.
func (s *Store) MessageCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return count, nil
}

func scanMessages(rows *sql.Rows) ([]store.Message, error) {
	var msgs []store.Message
	for rows.Next() {
		var msg store.Message
		var sentAt string
		if err := rows.Scan(
			&msg.ID,
			&msg.ContactID,
			&sentAt,
			&msg.Text,
			&msg.IsFromMe,
			&msg.ChatID,
			&msg.IsGroupChat,
			&msg.Processed,
		); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		msg.SentAt = parseTime(sentAt)
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return msgs, nil
}

func scanNamedMessages(rows *sql.Rows) ([]store.Message, error) {
	var msgs []store.Message
	for rows.Next() {
		var msg store.Message
		var sentAt, displayName string
		if err := rows.Scan(
			&msg.ID,
			&msg.ContactID,
			&sentAt,
			&msg.Text,
			&msg.IsFromMe,
			&msg.ChatID,
			&msg.IsGroupChat,
			&msg.Processed,
			&displayName,
		); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		msg.SentAt = parseTime(sentAt)
		if msg.IsFromMe {
			msg.SenderName = "Me"
		} else {
			msg.SenderName = displayName
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return msgs, nil
}
