// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package pipeline

import "strings"

// noiseFilter drops automated messages, reactions, and fragments too short
// to carry meaning.
type noiseFilter struct {
	patterns []string // lowercase substrings
	minWords int
}

func newNoiseFilter(patterns []string, minWords int) *noiseFilter {
	lowered := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lowered = append(lowered, p)
		}
	}
	if minWords <= 0 {
		minWords = 2
	}
	return &noiseFilter{patterns: lowered, minWords: minWords}
}

// keep reports whether text survives filtering.
func (f *noiseFilter) keep(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range f.patterns {
		if strings.Contains(lower, p) {
			return false
		}
	}
	return len(strings.Fields(text)) >= f.minWords
}
