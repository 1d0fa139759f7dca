// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemo-dev/mnemo/internal/store"
	"github.com/mnemo-dev/mnemo/internal/store/sqlite"
)

func insertMessage(t *testing.T, s *sqlite.Store, contactID int64, sentAt time.Time, text string, fromMe bool) store.Message {
	t.Helper()
	msg := store.Message{
		ContactID: contactID,
		SentAt:    sentAt,
		Text:      text,
		IsFromMe:  fromMe,
		ChatID:    "chat-1",
	}
	inserted, err := s.InsertMessageIfAbsent(context.Background(), &msg)
	require.NoError(t, err)
	require.True(t, inserted)
	return msg
}

func TestStore_InsertMessageIfAbsentIdempotent(t *testing.T) {
	ctx := context.Background()
	s := testStore(t, "messages")

	contactID, err := s.UpsertContact(ctx, "+15551234567")
	require.NoError(t, err)

	sentAt := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	msg := store.Message{ContactID: contactID, SentAt: sentAt, Text: "want to grab lunch tomorrow"}

	inserted, err := s.InsertMessageIfAbsent(ctx, &msg)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotZero(t, msg.ID)

	dup := store.Message{ContactID: contactID, SentAt: sentAt, Text: "want to grab lunch tomorrow"}
	inserted, err = s.InsertMessageIfAbsent(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	count, err := s.MessageCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Same text at a different time is a distinct message.
	later := store.Message{ContactID: contactID, SentAt: sentAt.Add(time.Hour), Text: "want to grab lunch tomorrow"}
	inserted, err = s.InsertMessageIfAbsent(ctx, &later)
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestStore_InsertMessageValidation(t *testing.T) {
	ctx := context.Background()
	s := testStore(t, "messages-invalid")

	_, err := s.InsertMessageIfAbsent(ctx, &store.Message{SentAt: time.Now(), Text: "hi there"})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = s.InsertMessageIfAbsent(ctx, &store.Message{ContactID: 1, SentAt: time.Now(), Text: "  "})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestStore_MarkProcessedMonotonic(t *testing.T) {
	ctx := context.Background()
	s := testStore(t, "messages-processed")

	contactID, err := s.UpsertContact(ctx, "+15551234567")
	require.NoError(t, err)

	base := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	m1 := insertMessage(t, s, contactID, base, "first message here", false)
	m2 := insertMessage(t, s, contactID, base.Add(time.Minute), "second message here", true)

	pending, err := s.UnprocessedMessages(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, m1.ID, pending[0].ID, "oldest first")

	require.NoError(t, s.MarkProcessed(ctx, []int64{m1.ID}))

	pending, err = s.UnprocessedMessages(ctx, contactID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, m2.ID, pending[0].ID)

	// Re-marking (plus an unknown id) is a no-op, never a flip back.
	require.NoError(t, s.MarkProcessed(ctx, []int64{m1.ID, m2.ID, 9999}))

	pending, err = s.UnprocessedMessages(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, s.MarkProcessed(ctx, nil))
}

func TestStore_MessagesInRangeResolvesSenderNames(t *testing.T) {
	ctx := context.Background()

	resolve := func(_ context.Context, identifier string) string { return "Alice Chen" }
	s, err := sqlite.New(testDBPath(t, "messages-range"), resolve)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	contactID, err := s.UpsertContact(ctx, "+15551234567")
	require.NoError(t, err)

	base := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	insertMessage(t, s, contactID, base.Add(9*time.Hour), "how was the trip", false)
	insertMessage(t, s, contactID, base.Add(10*time.Hour), "pretty great actually", true)
	insertMessage(t, s, contactID, base.Add(8*24*time.Hour), "next week message", false)

	msgs, err := s.MessagesInRange(ctx, contactID, base, base.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Alice Chen", msgs[0].SenderName)
	assert.Equal(t, "Me", msgs[1].SenderName)

	all, err := s.AllMessages(ctx, contactID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_MessageDateBoundaries(t *testing.T) {
	ctx := context.Background()
	s := testStore(t, "messages-bounds")

	_, err := s.EarliestMessageDate(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.LastMessageDate(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	contactID, err := s.UpsertContact(ctx, "+15551234567")
	require.NoError(t, err)

	oldest := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	newest := time.Date(2024, 1, 24, 18, 45, 0, 0, time.UTC)
	insertMessage(t, s, contactID, newest, "most recent message", false)
	insertMessage(t, s, contactID, oldest, "very first message", false)

	earliest, err := s.EarliestMessageDate(ctx)
	require.NoError(t, err)
	assert.True(t, earliest.Equal(oldest))

	last, err := s.LastMessageDate(ctx)
	require.NoError(t, err)
	assert.True(t, last.Equal(newest))
}
