// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package store

import (
	"context"
	"time"
)

// Store owns all persisted pipeline state: contacts, messages, weekly
// summaries, and identity snapshots. Every mutating call is individually
// transactional — a failure leaves the store in its pre-call state.
//
// The pipeline assumes a single writer; see Compact for the one operation
// that additionally requires no concurrent reader phases.
type Store interface {
	ContactStore
	MessageStore
	SummaryStore

	// Compact removes exact-duplicate message rows, keeping the lowest id
	// per (contact, sent_at, text) group, and reclaims storage. It must not
	// run concurrently with ingestion or summary writes; the pipeline
	// invokes it only after all other phases of a run complete.
	Compact(ctx context.Context) (int64, error)

	Close() error
}

// ContactStore manages the contact roster.
type ContactStore interface {
	// UpsertContact is idempotent: it creates the contact on first sight of
	// the identifier (resolving a display name through the injected
	// resolver) and returns the existing id thereafter.
	UpsertContact(ctx context.Context, identifier string) (int64, error)

	// RefreshContactName re-resolves and stores the display name.
	RefreshContactName(ctx context.Context, id int64) error

	Contacts(ctx context.Context) ([]Contact, error)
	ContactCount(ctx context.Context) (int64, error)
}

// MessageStore manages ingested messages and their processed flags.
type MessageStore interface {
	// InsertMessageIfAbsent stores the message unless a row with the same
	// (contact, sent_at, text) already exists. Returns whether a row was
	// inserted; an exact duplicate is not an error.
	InsertMessageIfAbsent(ctx context.Context, msg *Message) (bool, error)

	// UnprocessedMessages returns messages not yet consumed by
	// summarization, ordered by sent_at ascending. contactID 0 means all
	// contacts.
	UnprocessedMessages(ctx context.Context, contactID int64) ([]Message, error)

	// MarkProcessed flips the processed flag for the given ids. The flip is
	// monotonic and idempotent: already-processed ids are left untouched.
	MarkProcessed(ctx context.Context, ids []int64) error

	// MessagesInRange returns the contact's messages with sent_at in
	// [start, end), ordered ascending, with SenderName resolved.
	MessagesInRange(ctx context.Context, contactID int64, start, end time.Time) ([]Message, error)

	// AllMessages returns the contact's complete history, ordered
	// ascending, with SenderName resolved.
	AllMessages(ctx context.Context, contactID int64) ([]Message, error)

	// EarliestMessageDate and LastMessageDate bound the windowing loop and
	// the ingestion high-water mark. Both return ErrNotFound on an empty
	// store.
	EarliestMessageDate(ctx context.Context) (time.Time, error)
	LastMessageDate(ctx context.Context) (time.Time, error)

	MessageCount(ctx context.Context) (int64, error)
}

// SummaryStore manages the two append-only derived histories.
type SummaryStore interface {
	StoreWeeklySummary(ctx context.Context, s *WeeklySummary) error
	RecentWeeklySummaries(ctx context.Context, limit int) ([]WeeklySummary, error)
	WeeklySummaryCount(ctx context.Context) (int64, error)

	StoreIdentitySummary(ctx context.Context, s *IdentitySummary) error

	// LatestIdentitySummary returns the most recent snapshot by CreatedAt,
	// or ErrNotFound when the contact has none yet.
	LatestIdentitySummary(ctx context.Context, contactID int64) (*IdentitySummary, error)
	RecentIdentitySummaries(ctx context.Context, limit int) ([]IdentitySummary, error)
	IdentitySummaryCount(ctx context.Context) (int64, error)
}
