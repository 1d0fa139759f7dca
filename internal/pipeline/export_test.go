// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package pipeline

// Exported for white-box testing.
var (
	WeekStart   = weekStart
	WeekWindows = weekWindows
	MeanScore   = meanScore
	KeepAbove   = keepAbove
	KeepTop     = keepTop
)

// NewNoiseFilter exposes the ingest filter for tests.
func NewNoiseFilter(patterns []string, minWords int) interface{ Keep(string) bool } {
	return filterAdapter{newNoiseFilter(patterns, minWords)}
}

type filterAdapter struct{ f *noiseFilter }

func (a filterAdapter) Keep(text string) bool { return a.f.keep(text) }
