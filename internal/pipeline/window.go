// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mnemo-dev/mnemo/internal/store"
)

// weekStart returns the Monday 00:00 UTC on or before t. Anchoring every
// window to Monday makes the window sequence a pure function of the
// earliest message date, so re-runs carve up history identically.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -offset)
}

// weekWindows returns the [start, end) windows covering earliest through
// now, 7-day strides, final partial window included.
func weekWindows(earliest, now time.Time) []time.Time {
	var starts []time.Time
	for ws := weekStart(earliest); !ws.After(now.UTC()); ws = ws.AddDate(0, 0, 7) {
		starts = append(starts, ws)
	}
	return starts
}

// transcript renders messages as "Sender: text" lines, the shape the
// summarization prompt expects.
func transcript(msgs []store.Message) string {
	var sb strings.Builder
	for _, m := range msgs {
		sb.WriteString(m.SenderName)
		sb.WriteString(": ")
		sb.WriteString(m.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// weeklySummaries walks every week window per contact and summarizes the
// conversation inside it. Empty windows are skipped silently; engine or
// store failures skip the unit and keep going.
func (r *Runner) weeklySummaries(ctx context.Context, report *Report) error {
	earliest, err := r.store.EarliestMessageDate(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil // nothing ingested yet
		}
		return err
	}

	contacts, err := r.store.Contacts(ctx)
	if err != nil {
		return err
	}

	for _, ws := range weekWindows(earliest, r.now()) {
		we := ws.AddDate(0, 0, 7)
		window := fmt.Sprintf("week %s", ws.Format("2006-01-02"))

		for _, c := range contacts {
			msgs, err := r.store.MessagesInRange(ctx, c.ID, ws, we)
			if err != nil {
				r.logger.Warn("skipping window, range query failed",
					"contact", contactLabel(c), "window", window, "error", err)
				report.skip(PhaseWeekly, contactLabel(c), window, err.Error())
				continue
			}
			if len(msgs) == 0 {
				continue
			}

			summary, err := r.engine.Summarize(ctx, transcript(msgs), r.opts.Weekly)
			if err != nil {
				r.logger.Warn("skipping window, summarize failed",
					"contact", contactLabel(c), "window", window, "error", err)
				report.skip(PhaseWeekly, contactLabel(c), window, err.Error())
				continue
			}
			if summary == "" {
				r.logger.Warn("skipping window, empty summary",
					"contact", contactLabel(c), "window", window)
				report.skip(PhaseWeekly, contactLabel(c), window, "empty summary")
				continue
			}

			err = r.store.StoreWeeklySummary(ctx, &store.WeeklySummary{
				ContactID: c.ID,
				WeekStart: ws,
				WeekEnd:   we,
				Summary:   summary,
				CreatedAt: r.now(),
			})
			if err != nil {
				r.logger.Warn("skipping window, store failed",
					"contact", contactLabel(c), "window", window, "error", err)
				report.skip(PhaseWeekly, contactLabel(c), window, err.Error())
				continue
			}
			report.WeeklySummaries++
		}
	}
	return nil
}
