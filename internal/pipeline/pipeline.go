// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

// Package pipeline orchestrates one batch pass over the message log:
// ingest, mark processed, weekly summaries, identity snapshots, compaction.
// Every phase recomputes its work set from the store, so an interrupted run
// resumes on the next pass without bookkeeping.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/mnemo-dev/mnemo/internal/contact"
	"github.com/mnemo-dev/mnemo/internal/engine"
	"github.com/mnemo-dev/mnemo/internal/source"
	"github.com/mnemo-dev/mnemo/internal/store"
	mnemoerr "github.com/mnemo-dev/mnemo/pkg/errors"
)

// Options tune a Runner. Zero thresholds fall back to the values the
// classification prompts were tuned with.
type Options struct {
	NoisePatterns []string
	MinWords      int

	Traits        []string
	Relationships []string
	Topics        []string

	Weekly   engine.Constraints
	Identity engine.Constraints

	TraitThreshold float64 // default 0.5
	TopicThreshold float64 // default 0.3
}

// Runner executes batch passes. It owns no resources; the caller opens and
// closes store, source, and engine around each run.
type Runner struct {
	store    store.Store
	source   source.Source
	engine   engine.Engine
	resolver *contact.Resolver
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

// NewRunner wires a Runner. A nil logger uses slog.Default.
func NewRunner(st store.Store, src source.Source, eng engine.Engine, res *contact.Resolver, opts Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TraitThreshold <= 0 {
		opts.TraitThreshold = 0.5
	}
	if opts.TopicThreshold <= 0 {
		opts.TopicThreshold = 0.3
	}
	return &Runner{
		store:    st,
		source:   src,
		engine:   eng,
		resolver: res,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the wall clock. Used by tests to pin window math.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Run executes all phases in order. A phase failure aborts the run at that
// point and returns the report accumulated so far; completed phases are
// never undone. A run that ingests nothing and finds nothing pending ends
// after the ingest phase: the derived histories are already current.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	if err := r.runPhase(ctx, PhaseIngest, r.ingest, report); err != nil {
		return report, err
	}

	idle, err := r.nothingToSummarize(ctx, report)
	if err != nil {
		return report, mnemoerr.Wrap(err, mnemoerr.CodePipelinePhaseFailure,
			"pipeline phase failed", mnemoerr.FieldPhase(PhaseIngest))
	}
	if idle {
		r.logger.Info("no new messages, run complete")
		return report, nil
	}

	phases := []struct {
		name string
		fn   func(context.Context, *Report) error
	}{
		{PhaseMark, r.markProcessed},
		{PhaseWeekly, r.weeklySummaries},
		{PhaseIdentity, r.identitySnapshots},
		{PhaseCompact, r.compact},
	}

	for _, phase := range phases {
		if err := r.runPhase(ctx, phase.name, phase.fn, report); err != nil {
			return report, err
		}
	}

	r.logger.Info("run complete",
		"ingested", report.Ingested,
		"marked_processed", report.MarkedProcessed,
		"weekly_summaries", report.WeeklySummaries,
		"identity_snapshots", report.IdentitySnapshots,
		"compacted_rows", report.CompactedRows,
		"skipped", len(report.Skipped))
	return report, nil
}

func (r *Runner) runPhase(ctx context.Context, name string, fn func(context.Context, *Report) error, report *Report) error {
	r.logger.Info("starting phase", "phase", name)
	if err := fn(ctx, report); err != nil {
		return mnemoerr.Wrap(err, mnemoerr.CodePipelinePhaseFailure,
			"pipeline phase failed", mnemoerr.FieldPhase(name))
	}
	return nil
}

// nothingToSummarize reports whether the summary phases have no work: the
// pass ingested nothing and no rows are pending from an interrupted run.
// Pending rows still flow through so a crash between ingest and
// mark-processed is recovered on the next pass.
func (r *Runner) nothingToSummarize(ctx context.Context, report *Report) (bool, error) {
	if report.Ingested > 0 {
		return false, nil
	}
	pending, err := r.store.UnprocessedMessages(ctx, 0)
	if err != nil {
		return false, err
	}
	return len(pending) == 0, nil
}

// compact is the final phase; it only runs after every summary phase has
// had its chance at the data.
func (r *Runner) compact(ctx context.Context, report *Report) error {
	removed, err := r.store.Compact(ctx)
	if err != nil {
		return err
	}
	report.CompactedRows = removed
	return nil
}

// contactLabel picks the human-readable name for report entries.
func contactLabel(c store.Contact) string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Identifier
}
