// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemo-dev/mnemo/internal/store/sqlite"
)

func TestStore_CompactNoDuplicates(t *testing.T) {
	ctx := context.Background()
	s := testStore(t, "compact-clean")

	contactID, err := s.UpsertContact(ctx, "+15551234567")
	require.NoError(t, err)
	insertMessage(t, s, contactID, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), "only message here", false)

	removed, err := s.Compact(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	count, err := s.MessageCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

// Databases written by earlier tooling can hold exact-duplicate rows;
// Compact must drop them and keep the lowest id of each group.
func TestStore_CompactPurgesLegacyDuplicates(t *testing.T) {
	ctx := context.Background()
	dbPath := testDBPath(t, "compact-dups")

	s, err := sqlite.New(dbPath, nil)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	contactID, err := s.UpsertContact(ctx, "+15551234567")
	require.NoError(t, err)

	sentAt := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	kept := insertMessage(t, s, contactID, sentAt, "duplicated message text", false)

	// Bypass the store to recreate legacy blind inserts.
	raw, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	require.NoError(t, err)
	defer func() { _ = raw.Close() }()

	for i := 0; i < 2; i++ {
		_, err = raw.ExecContext(ctx,
			`INSERT INTO messages (contact_id, sent_at, text, is_from_me, chat_id, is_group_chat, processed)
VALUES (?, ?, ?, 0, 'chat-1', 0, 0)`,
			contactID, sentAt.Format(time.RFC3339), "duplicated message text")
		require.NoError(t, err)
	}

	count, err := s.MessageCount(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), count)

	removed, err := s.Compact(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	msgs, err := s.UnprocessedMessages(ctx, contactID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, kept.ID, msgs[0].ID, "lowest id survives")
}
