// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package pipeline

import (
	"context"
	"errors"

	"github.com/mnemo-dev/mnemo/internal/source"
	"github.com/mnemo-dev/mnemo/internal/store"
	mnemoerr "github.com/mnemo-dev/mnemo/pkg/errors"
)

// ingest pulls records newer than the high-water mark, filters noise, and
// stores what survives. An unreachable source degrades to zero new
// messages; the store keeps serving what it already has.
func (r *Runner) ingest(ctx context.Context, report *Report) error {
	since, err := r.store.LastMessageDate(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	records, err := r.source.Fetch(ctx, since)
	if err != nil {
		if mnemoerr.IsUnavailable(err) {
			r.logger.Warn("message source unavailable, ingesting nothing", "error", err)
			report.skip(PhaseIngest, "", "", "source unavailable")
			return nil
		}
		return err
	}

	filter := newNoiseFilter(r.opts.NoisePatterns, r.opts.MinWords)

	for _, rec := range records {
		if !filter.keep(rec.Text) {
			continue
		}

		identifier := counterpart(rec)
		if identifier == "" {
			continue
		}

		contactID, err := r.store.UpsertContact(ctx, r.resolver.Canonical(identifier))
		if err != nil {
			r.logger.Warn("skipping record, contact upsert failed", "identifier", identifier, "error", err)
			report.skip(PhaseIngest, identifier, rec.SentAt.Format("2006-01-02"), err.Error())
			continue
		}

		msg := store.Message{
			ContactID:   contactID,
			SentAt:      rec.SentAt,
			Text:        rec.Text,
			IsFromMe:    rec.IsFromMe,
			ChatID:      rec.ChatID,
			IsGroupChat: rec.IsGroupChat(),
		}
		inserted, err := r.store.InsertMessageIfAbsent(ctx, &msg)
		if err != nil {
			r.logger.Warn("skipping record, insert failed", "identifier", identifier, "error", err)
			report.skip(PhaseIngest, identifier, rec.SentAt.Format("2006-01-02"), err.Error())
			continue
		}
		if inserted {
			report.Ingested++
		}
	}

	r.logger.Info("ingest done", "fetched", len(records), "inserted", report.Ingested)
	return nil
}

// counterpart extracts the identifier the conversation is grouped under.
// Outbound rows carry no handle, so the chat identifier stands in; both
// directions of a direct thread land on the same contact.
func counterpart(rec source.Record) string {
	if rec.SenderID != "" && !rec.IsFromMe {
		return rec.SenderID
	}
	return rec.ChatID
}

// markProcessed flips every unprocessed message per contact. The flag is
// monotonic: once processed, a message never becomes pending again.
func (r *Runner) markProcessed(ctx context.Context, report *Report) error {
	contacts, err := r.store.Contacts(ctx)
	if err != nil {
		return err
	}

	for _, c := range contacts {
		pending, err := r.store.UnprocessedMessages(ctx, c.ID)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			continue
		}

		ids := make([]int64, len(pending))
		for i, m := range pending {
			ids[i] = m.ID
		}
		if err := r.store.MarkProcessed(ctx, ids); err != nil {
			return err
		}
		report.MarkedProcessed += len(ids)
		r.logger.Debug("marked processed", "contact", contactLabel(c), "count", len(ids))
	}
	return nil
}
