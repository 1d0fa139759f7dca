// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package source_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemo-dev/mnemo/internal/source"
	mnemoerr "github.com/mnemo-dev/mnemo/pkg/errors"
)

var appleEpoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeChatDB creates a minimal chat.db with the tables Fetch joins.
func fakeChatDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.Exec(`
CREATE TABLE message (ROWID INTEGER PRIMARY KEY, date INTEGER, text TEXT, is_from_me INTEGER, handle_id INTEGER);
CREATE TABLE handle (ROWID INTEGER PRIMARY KEY, id TEXT);
CREATE TABLE chat (ROWID INTEGER PRIMARY KEY, chat_identifier TEXT, display_name TEXT);
CREATE TABLE chat_message_join (chat_id INTEGER, message_id INTEGER);

INSERT INTO handle VALUES (1, '+15551234567');
INSERT INTO chat VALUES (1, '+15551234567', '');
INSERT INTO chat VALUES (2, 'chat8675309', 'Ski Crew');
`)
	require.NoError(t, err)

	insert := func(rowid int, sentAt time.Time, text string, fromMe bool, handleID any, chatID int) {
		me := 0
		if fromMe {
			me = 1
		}
		_, err := db.Exec(
			`INSERT INTO message (ROWID, date, text, is_from_me, handle_id) VALUES (?, ?, ?, ?, ?)`,
			rowid, sentAt.Sub(appleEpoch).Nanoseconds(), text, me, handleID)
		require.NoError(t, err)
		_, err = db.Exec(`INSERT INTO chat_message_join VALUES (?, ?)`, chatID, rowid)
		require.NoError(t, err)
	}

	insert(1, time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC), "want to grab lunch tomorrow", false, 1, 1)
	insert(2, time.Date(2024, 1, 10, 9, 45, 0, 0, time.UTC), "sure, noon works", true, nil, 1)
	insert(3, time.Date(2024, 1, 17, 20, 0, 0, 0, time.UTC), "cabin is booked for feb", false, 1, 2)

	// Empty text rows must be dropped at the query.
	_, err = db.Exec(`INSERT INTO message (ROWID, date, text, is_from_me, handle_id) VALUES (4, 0, NULL, 0, 1)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO chat_message_join VALUES (1, 4)`)
	require.NoError(t, err)

	return path
}

func TestIMessageSource_Fetch(t *testing.T) {
	ctx := context.Background()
	src, err := source.NewIMessageSource(fakeChatDB(t))
	require.NoError(t, err)

	records, err := src.Fetch(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.True(t, first.SentAt.Equal(time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)))
	assert.Equal(t, "want to grab lunch tomorrow", first.Text)
	assert.Equal(t, "+15551234567", first.SenderID)
	assert.False(t, first.IsFromMe)
	assert.False(t, first.IsGroupChat())

	assert.True(t, records[1].IsFromMe)
	assert.Empty(t, records[1].SenderID)

	group := records[2]
	assert.Equal(t, "Ski Crew", group.ChatName)
	assert.True(t, group.IsGroupChat())
}

func TestIMessageSource_FetchSince(t *testing.T) {
	ctx := context.Background()
	src, err := source.NewIMessageSource(fakeChatDB(t))
	require.NoError(t, err)

	since := time.Date(2024, 1, 10, 9, 45, 0, 0, time.UTC)
	records, err := src.Fetch(ctx, since)
	require.NoError(t, err)
	require.Len(t, records, 1, "strictly-after filter")
	assert.Equal(t, "cabin is booked for feb", records[0].Text)
}

func TestIMessageSource_MissingDatabase(t *testing.T) {
	src, err := source.NewIMessageSource(filepath.Join(t.TempDir(), "nope", "chat.db"))
	require.NoError(t, err)

	_, err = src.Fetch(context.Background(), time.Time{})
	require.Error(t, err)
	assert.True(t, mnemoerr.IsUnavailable(err))
}
