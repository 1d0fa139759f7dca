// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

// Package engine abstracts the language model behind the pipeline's two
// capabilities: free-form summarization and label scoring.
package engine

import (
	"context"
	"fmt"
	"strings"
)

// Constraints bound the length of a generated summary.
type Constraints struct {
	MaxWords int
	MinWords int
}

// Engine is a stateless text model. Implementations live under
// engine/<provider>/ and are selected by config.
type Engine interface {
	// Summarize condenses text into prose within c. An empty result with a
	// nil error means the model produced nothing usable; callers skip the
	// unit.
	Summarize(ctx context.Context, text string, c Constraints) (string, error)

	// Classify scores text against candidate labels, each in [0, 1].
	// Multi-label scoring treats labels independently; single-label scoring
	// distributes confidence across the set.
	Classify(ctx context.Context, text string, labels []string, multiLabel bool) (map[string]float64, error)
}

// SummarizeSystemPrompt is the shared system prompt for Summarize calls.
func SummarizeSystemPrompt(c Constraints) string {
	return fmt.Sprintf(
		"You summarize personal message transcripts. Write a factual prose summary "+
			"of between %d and %d words covering what was discussed, decided, and planned. "+
			"Use the speakers' names. Output only the summary text.",
		c.MinWords, c.MaxWords)
}

// ClassifySystemPrompt is the shared system prompt for Classify calls. The
// response contract is a bare JSON object mapping each candidate label to a
// score, which ParseScores decodes.
func ClassifySystemPrompt(labels []string, multiLabel bool) string {
	mode := "Score each label independently between 0 and 1."
	if !multiLabel {
		mode = "Scores must express which single label fits best and sum to roughly 1."
	}
	return fmt.Sprintf(
		"You classify personal message transcripts. Candidate labels: %s. %s "+
			"Respond with only a JSON object mapping every candidate label to its score.",
		strings.Join(labels, ", "), mode)
}
