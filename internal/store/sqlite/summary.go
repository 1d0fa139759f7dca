// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mnemo-dev/mnemo/internal/store"
)

// StoreWeeklySummary appends a weekly summary row. History is append-only:
// a re-run over the same window adds a new row, and readers take the most
// recent. A missing ID or CreatedAt is filled in.
func (s *Store) StoreWeeklySummary(ctx context.Context, sum *store.WeeklySummary) error {
	if sum == nil || sum.ContactID == 0 {
		return fmt.Errorf("weekly summary requires a contact id: %w", store.ErrInvalidInput)
	}
	if strings.TrimSpace(sum.Summary) == "" {
		return fmt.Errorf("weekly summary requires text: %w", store.ErrInvalidInput)
	}
	if sum.ID == "" {
		sum.ID = uuid.NewString()
	}
	if sum.CreatedAt.IsZero() {
		sum.CreatedAt = s.now()
	}

	const q = `INSERT INTO weekly_summaries (id, contact_id, week_start, week_end, summary, created_at)
VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		sum.ID,
		sum.ContactID,
		formatTime(sum.WeekStart),
		formatTime(sum.WeekEnd),
		sum.Summary,
		formatTime(sum.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("storing weekly summary %s: %w", sum.ID, err)
	}
	return nil
}

// RecentWeeklySummaries returns up to limit weekly summaries, most recent
// first. Rowid breaks created_at ties so same-second appends keep insert
// order.
func (s *Store) RecentWeeklySummaries(ctx context.Context, limit int) ([]store.WeeklySummary, error) {
	if limit <= 0 {
		limit = 10
	}

	const q = `SELECT id, contact_id, week_start, week_end, summary, created_at
FROM weekly_summaries
ORDER BY created_at DESC, rowid DESC
LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("listing weekly summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sums []store.WeeklySummary
	for rows.Next() {
		var sum store.WeeklySummary
		var weekStart, weekEnd, createdAt string
		if err := rows.Scan(&sum.ID, &sum.ContactID, &weekStart, &weekEnd, &sum.Summary, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning weekly summary row: %w", err)
		}
		sum.WeekStart = parseTime(weekStart)
		sum.WeekEnd = parseTime(weekEnd)
		sum.CreatedAt = parseTime(createdAt)
		sums = append(sums, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sums, nil
}

// WeeklySummaryCount returns the number of stored weekly summaries.
func (s *Store) WeeklySummaryCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM weekly_summaries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting weekly summaries: %w", err)
	}
	return count, nil
}

// StoreIdentitySummary appends an identity snapshot. Snapshots are never
// updated in place; LatestIdentitySummary picks the newest.
func (s *Store) StoreIdentitySummary(ctx context.Context, sum *store.IdentitySummary) error {
	if sum == nil || sum.ContactID == 0 {
		return fmt.Errorf("identity summary requires a contact id: %w", store.ErrInvalidInput)
	}
	if sum.ID == "" {
		sum.ID = uuid.NewString()
	}
	if sum.CreatedAt.IsZero() {
		sum.CreatedAt = s.now()
	}

	traits, err := marshalScores(sum.Traits)
	if err != nil {
		return fmt.Errorf("marshalling traits: %w", err)
	}
	relationship, err := marshalScores(sum.Relationship)
	if err != nil {
		return fmt.Errorf("marshalling relationship: %w", err)
	}
	topics, err := marshalScores(sum.Topics)
	if err != nil {
		return fmt.Errorf("marshalling topics: %w", err)
	}
	confidence, err := json.Marshal(sum.Confidence)
	if err != nil {
		return fmt.Errorf("marshalling confidence: %w", err)
	}

	const q = `INSERT INTO identity_summaries (id, contact_id, summary, traits, relationship, topics, confidence, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, q,
		sum.ID,
		sum.ContactID,
		sum.Summary,
		traits,
		relationship,
		topics,
		string(confidence),
		formatTime(sum.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("storing identity summary %s: %w", sum.ID, err)
	}
	return nil
}

// LatestIdentitySummary returns the most recent snapshot for a contact, or
// store.ErrNotFound when the contact has none yet.
func (s *Store) LatestIdentitySummary(ctx context.Context, contactID int64) (*store.IdentitySummary, error) {
	const q = `SELECT id, contact_id, summary, traits, relationship, topics, confidence, created_at
FROM identity_summaries
WHERE contact_id = ?
ORDER BY created_at DESC, rowid DESC
LIMIT 1`

	row := s.db.QueryRowContext(ctx, q, contactID)
	sum, err := scanIdentitySummary(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("identity summary for contact %d: %w", contactID, store.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return sum, nil
}

// RecentIdentitySummaries returns up to limit snapshots across all
// contacts, most recent first.
func (s *Store) RecentIdentitySummaries(ctx context.Context, limit int) ([]store.IdentitySummary, error) {
	if limit <= 0 {
		limit = 10
	}

	const q = `SELECT id, contact_id, summary, traits, relationship, topics, confidence, created_at
FROM identity_summaries
ORDER BY created_at DESC, rowid DESC
LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("listing identity summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sums []store.IdentitySummary
	for rows.Next() {
		sum, err := scanIdentitySummary(rows.Scan)
		if err != nil {
			return nil, err
		}
		sums = append(sums, *sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sums, nil
}

// IdentitySummaryCount returns the number of stored identity snapshots.
func (s *Store) IdentitySummaryCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM identity_summaries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting identity summaries: %w", err)
	}
	return count, nil
}

func scanIdentitySummary(scan func(dest ...any) error) (*store.IdentitySummary, error) {
	var sum store.IdentitySummary
	var traits, relationship, topics, confidence, createdAt string

	if err := scan(
		&sum.ID,
		&sum.ContactID,
		&sum.Summary,
		&traits,
		&relationship,
		&topics,
		&confidence,
		&createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning identity summary row: %w", err)
	}

	var err error
	if sum.Traits, err = unmarshalScores(traits); err != nil {
		return nil, fmt.Errorf("unmarshalling traits: %w", err)
	}
	if sum.Relationship, err = unmarshalScores(relationship); err != nil {
		return nil, fmt.Errorf("unmarshalling relationship: %w", err)
	}
	if sum.Topics, err = unmarshalScores(topics); err != nil {
		return nil, fmt.Errorf("unmarshalling topics: %w", err)
	}
	if confidence != "" && confidence != "{}" {
		if err := json.Unmarshal([]byte(confidence), &sum.Confidence); err != nil {
			return nil, fmt.Errorf("unmarshalling confidence: %w", err)
		}
	}
	sum.CreatedAt = parseTime(createdAt)
	return &sum, nil
}

func marshalScores(scores map[string]float64) (string, error) {
	if len(scores) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(scores)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func unmarshalScores(raw string) (map[string]float64, error) {
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	var scores map[string]float64
	if err := json.Unmarshal([]byte(raw), &scores); err != nil {
		return nil, err
	}
	return scores, nil
}
