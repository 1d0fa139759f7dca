// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package store

import "time"

// Contact is an identity-resolved conversation partner. One row exists per
// distinct raw identifier; the identifier never changes after creation,
// while the display name may be refreshed from the contact directory.
type Contact struct {
	ID          int64
	Identifier  string
	DisplayName string
	FirstSeen   time.Time
	LastUpdated time.Time
}

// Message is one ingested conversation line. The triple
// (ContactID, SentAt, Text) uniquely identifies a message; re-ingesting the
// same triple is a no-op. Processed flips false→true exactly once.
type Message struct {
	ID          int64
	ContactID   int64
	SentAt      time.Time
	Text        string
	IsFromMe    bool
	ChatID      string
	IsGroupChat bool
	Processed   bool
	// SenderName is resolved at the store boundary: "Me" for owner
	// messages, otherwise the contact's display name. Populated only by
	// MessagesInRange and AllMessages.
	SenderName string
}

// WeeklySummary is one summarization of one contact's messages in one
// calendar week [WeekStart, WeekEnd). Rows are append-only history: the
// store never enforces one-per-window exclusivity.
type WeeklySummary struct {
	ID        string
	ContactID int64
	WeekStart time.Time
	WeekEnd   time.Time
	Summary   string
	CreatedAt time.Time
}

// ConfidenceScores holds one aggregate confidence per profile dimension,
// each the mean of that dimension's retained label scores (0 when the
// dimension's map is empty).
type ConfidenceScores struct {
	Personality  float64 `json:"personality"`
	Relationship float64 `json:"relationship"`
	Topics       float64 `json:"topics"`
}

// IdentitySummary is a versioned snapshot of accumulated understanding of a
// contact. Snapshots are append-only; the latest by CreatedAt is the
// authoritative current profile, older rows are retained as history.
type IdentitySummary struct {
	ID           string
	ContactID    int64
	Summary      string
	Traits       map[string]float64
	Relationship map[string]float64
	Topics       map[string]float64
	Confidence   ConfidenceScores
	CreatedAt    time.Time
}
