// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

// Package export renders a bounded, read-only JSON snapshot of recent
// summaries. It is a reporting surface, not part of pipeline correctness.
package export

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/mnemo-dev/mnemo/internal/store"
	mnemoerr "github.com/mnemo-dev/mnemo/pkg/errors"
)

// WeeklyExample is one weekly summary in the snapshot.
type WeeklyExample struct {
	Contact   string    `json:"contact"`
	WeekStart time.Time `json:"week_start"`
	WeekEnd   time.Time `json:"week_end"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// IdentityExample is one identity snapshot in the snapshot.
type IdentityExample struct {
	Contact             string                 `json:"contact"`
	Summary             string                 `json:"summary"`
	PersonalityTraits   map[string]float64     `json:"personality_traits"`
	RelationshipContext map[string]float64     `json:"relationship_context"`
	CommonTopics        map[string]float64     `json:"common_topics"`
	ConfidenceScores    store.ConfidenceScores `json:"confidence_scores"`
	CreatedAt           time.Time              `json:"created_at"`
}

// Metadata carries aggregate counts alongside the examples.
type Metadata struct {
	ExportDate    time.Time `json:"export_date"`
	TotalContacts int64     `json:"total_contacts"`
	TotalMessages int64     `json:"total_messages"`
	Note          string    `json:"note"`
}

// Document is the full export payload.
type Document struct {
	ExampleWeeklySummaries   []WeeklyExample   `json:"example_weekly_summaries"`
	ExampleIdentitySummaries []IdentityExample `json:"example_identity_summaries"`
	Metadata                 Metadata          `json:"metadata"`
}

// Snapshot reads up to limit recent summaries of each kind plus aggregate
// counts. The store is only read.
func Snapshot(ctx context.Context, st store.Store, limit int, now time.Time) (*Document, error) {
	contacts, err := st.Contacts(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(contacts))
	for _, c := range contacts {
		name := c.DisplayName
		if name == "" {
			name = c.Identifier
		}
		names[c.ID] = name
	}

	weekly, err := st.RecentWeeklySummaries(ctx, limit)
	if err != nil {
		return nil, err
	}
	identities, err := st.RecentIdentitySummaries(ctx, limit)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		ExampleWeeklySummaries:   make([]WeeklyExample, 0, len(weekly)),
		ExampleIdentitySummaries: make([]IdentityExample, 0, len(identities)),
	}

	for _, w := range weekly {
		doc.ExampleWeeklySummaries = append(doc.ExampleWeeklySummaries, WeeklyExample{
			Contact:   names[w.ContactID],
			WeekStart: w.WeekStart,
			WeekEnd:   w.WeekEnd,
			Summary:   w.Summary,
			CreatedAt: w.CreatedAt,
		})
	}
	for _, i := range identities {
		doc.ExampleIdentitySummaries = append(doc.ExampleIdentitySummaries, IdentityExample{
			Contact:             names[i.ContactID],
			Summary:             i.Summary,
			PersonalityTraits:   i.Traits,
			RelationshipContext: i.Relationship,
			CommonTopics:        i.Topics,
			ConfidenceScores:    i.Confidence,
			CreatedAt:           i.CreatedAt,
		})
	}

	doc.Metadata.ExportDate = now.UTC()
	doc.Metadata.Note = "Selected examples demonstrating the summarization output"
	if doc.Metadata.TotalContacts, err = st.ContactCount(ctx); err != nil {
		return nil, err
	}
	if doc.Metadata.TotalMessages, err = st.MessageCount(ctx); err != nil {
		return nil, err
	}

	return doc, nil
}

// Write serializes doc as indented JSON to w.
func Write(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return mnemoerr.Errorf(mnemoerr.CodeCLISetupFailure, "writing export: %w", err)
	}
	return nil
}
