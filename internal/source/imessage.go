// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package source

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	mnemoerr "github.com/mnemo-dev/mnemo/pkg/errors"
)

// Compile-time interface check.
var _ Source = (*IMessageSource)(nil)

// appleEpoch is the zero point of chat.db timestamps (nanoseconds since
// 2001-01-01 UTC).
var appleEpoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

// IMessageSource reads the macOS Messages archive (chat.db). The database
// is opened read-only per fetch; Messages.app owns the file.
type IMessageSource struct {
	dbPath string
}

// NewIMessageSource builds a source over the chat.db at dbPath. Empty
// means the default ~/Library/Messages/chat.db.
func NewIMessageSource(dbPath string) (*IMessageSource, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, mnemoerr.Errorf(mnemoerr.CodeSourceUnavailable, "resolving home directory: %w", err)
		}
		dbPath = filepath.Join(home, "Library", "Messages", "chat.db")
	}
	return &IMessageSource{dbPath: dbPath}, nil
}

// Fetch implements Source. Records are ordered oldest first; rows with no
// usable text are dropped at the query.
func (s *IMessageSource) Fetch(ctx context.Context, since time.Time) ([]Record, error) {
	if _, err := os.Stat(s.dbPath); err != nil {
		return nil, mnemoerr.Errorf(mnemoerr.CodeSourceUnavailable, "messages database %s: %w", s.dbPath, err)
	}

	db, err := sql.Open("sqlite3", s.dbPath+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, mnemoerr.Errorf(mnemoerr.CodeSourceUnavailable, "opening messages database: %w", err)
	}
	defer func() { _ = db.Close() }()

	q := `SELECT m.date, m.text, h.id, m.is_from_me, c.chat_identifier, c.display_name
FROM message m
JOIN chat_message_join cmj ON m.ROWID = cmj.message_id
JOIN chat c ON cmj.chat_id = c.ROWID
LEFT JOIN handle h ON m.handle_id = h.ROWID
WHERE m.text IS NOT NULL AND length(m.text) > 0`

	args := []any{}
	if !since.IsZero() {
		q += ` AND m.date > ?`
		args = append(args, since.Sub(appleEpoch).Nanoseconds())
	}
	q += ` ORDER BY m.date ASC, m.ROWID ASC`

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mnemoerr.Errorf(mnemoerr.CodeSourceQueryFailure, "querying messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var rawDate int64
		var text, chatID string
		var handle, chatName sql.NullString
		var isFromMe bool

		if err := rows.Scan(&rawDate, &text, &handle, &isFromMe, &chatID, &chatName); err != nil {
			return nil, mnemoerr.Errorf(mnemoerr.CodeSourceQueryFailure, "scanning message row: %w", err)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		records = append(records, Record{
			SentAt:   appleEpoch.Add(time.Duration(rawDate)),
			Text:     text,
			SenderID: handle.String,
			IsFromMe: isFromMe,
			ChatID:   chatID,
			ChatName: chatName.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, mnemoerr.Errorf(mnemoerr.CodeSourceQueryFailure, "reading message rows: %w", err)
	}
	return records, nil
}

// Path returns the chat.db location this source reads.
func (s *IMessageSource) Path() string {
	return s.dbPath
}
