// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package pipeline

import (
	"fmt"
	"strings"
)

// Phase names used in reports and logs.
const (
	PhaseIngest   = "ingest"
	PhaseMark     = "mark_processed"
	PhaseWeekly   = "weekly_summaries"
	PhaseIdentity = "identity"
	PhaseCompact  = "compact"
)

// SkippedUnit records one unit of work a phase gave up on. Skips never
// abort the run; they surface in the report for the next run to retry.
type SkippedUnit struct {
	Phase   string
	Contact string // display name or identifier; empty for phase-wide skips
	Detail  string // the unit, e.g. a week window
	Reason  string
}

// Report accumulates what one batch run accomplished.
type Report struct {
	Ingested          int
	MarkedProcessed   int
	WeeklySummaries   int
	IdentitySnapshots int
	CompactedRows     int64
	Skipped           []SkippedUnit
}

func (r *Report) skip(phase, contact, detail, reason string) {
	r.Skipped = append(r.Skipped, SkippedUnit{Phase: phase, Contact: contact, Detail: detail, Reason: reason})
}

// String renders the report for CLI output.
func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ingested:           %d\n", r.Ingested)
	fmt.Fprintf(&sb, "marked processed:   %d\n", r.MarkedProcessed)
	fmt.Fprintf(&sb, "weekly summaries:   %d\n", r.WeeklySummaries)
	fmt.Fprintf(&sb, "identity snapshots: %d\n", r.IdentitySnapshots)
	fmt.Fprintf(&sb, "compacted rows:     %d\n", r.CompactedRows)
	if len(r.Skipped) > 0 {
		fmt.Fprintf(&sb, "skipped units:      %d\n", len(r.Skipped))
		for _, s := range r.Skipped {
			fmt.Fprintf(&sb, "  [%s] %s %s: %s\n", s.Phase, s.Contact, s.Detail, s.Reason)
		}
	}
	return sb.String()
}
