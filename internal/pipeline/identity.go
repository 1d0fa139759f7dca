// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mnemo-dev/mnemo/internal/store"
)

// identitySnapshots rebuilds each contact's profile from their full history
// and appends a snapshot. The previous narrative is folded into the prompt
// so profiles evolve instead of resetting.
func (r *Runner) identitySnapshots(ctx context.Context, report *Report) error {
	contacts, err := r.store.Contacts(ctx)
	if err != nil {
		return err
	}

	for _, c := range contacts {
		msgs, err := r.store.AllMessages(ctx, c.ID)
		if err != nil {
			r.logger.Warn("skipping contact, history query failed",
				"contact", contactLabel(c), "error", err)
			report.skip(PhaseIdentity, contactLabel(c), "", err.Error())
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		snapshot, err := r.buildSnapshot(ctx, c, msgs)
		if err != nil {
			r.logger.Warn("skipping contact, snapshot failed",
				"contact", contactLabel(c), "error", err)
			report.skip(PhaseIdentity, contactLabel(c), "", err.Error())
			continue
		}
		if snapshot == nil {
			report.skip(PhaseIdentity, contactLabel(c), "", "empty narrative")
			continue
		}

		if err := r.store.StoreIdentitySummary(ctx, snapshot); err != nil {
			r.logger.Warn("skipping contact, snapshot store failed",
				"contact", contactLabel(c), "error", err)
			report.skip(PhaseIdentity, contactLabel(c), "", err.Error())
			continue
		}
		report.IdentitySnapshots++
	}
	return nil
}

func (r *Runner) buildSnapshot(ctx context.Context, c store.Contact, msgs []store.Message) (*store.IdentitySummary, error) {
	text := analysisText(msgs)

	traitScores, err := r.engine.Classify(ctx, text, r.opts.Traits, true)
	if err != nil {
		return nil, err
	}
	traits := keepAbove(traitScores, r.opts.TraitThreshold)

	relScores, err := r.engine.Classify(ctx, text, r.opts.Relationships, false)
	if err != nil {
		return nil, err
	}
	relationship := keepTop(relScores)

	topicScores, err := r.engine.Classify(ctx, text, r.opts.Topics, true)
	if err != nil {
		return nil, err
	}
	topics := keepAbove(topicScores, r.opts.TopicThreshold)

	prompt := narrativePrompt(traits, relationship, topics)

	previous, err := r.store.LatestIdentitySummary(ctx, c.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if previous != nil {
		prompt = fmt.Sprintf("Previous summary: %s\nNew analysis: %s", previous.Summary, prompt)
	}

	narrative, err := r.engine.Summarize(ctx, prompt, r.opts.Identity)
	if err != nil {
		return nil, err
	}
	if narrative == "" {
		return nil, nil
	}

	return &store.IdentitySummary{
		ContactID:    c.ID,
		Summary:      narrative,
		Traits:       traits,
		Relationship: relationship,
		Topics:       topics,
		Confidence: store.ConfidenceScores{
			Personality:  meanScore(traits),
			Relationship: meanScore(relationship),
			Topics:       meanScore(topics),
		},
		CreatedAt: r.now(),
	}, nil
}

// analysisText joins message bodies for classification; who said what
// matters less than the vocabulary itself.
func analysisText(msgs []store.Message) string {
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = m.Text
	}
	return strings.Join(parts, " ")
}

func narrativePrompt(traits, relationship, topics map[string]float64) string {
	rel := "unknown"
	for label := range relationship {
		rel = label
	}
	return fmt.Sprintf(
		"Based on their messages, this person is %s. They appear to be a %s. "+
			"Common topics of discussion include %s.",
		joinLabels(traits), rel, joinLabels(topics))
}

// joinLabels lists labels by descending score so the prompt is stable
// across runs.
func joinLabels(scores map[string]float64) string {
	if len(scores) == 0 {
		return "unclear so far"
	}
	labels := make([]string, 0, len(scores))
	for label := range scores {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if scores[labels[i]] != scores[labels[j]] {
			return scores[labels[i]] > scores[labels[j]]
		}
		return labels[i] < labels[j]
	})
	return strings.Join(labels, ", ")
}

// keepAbove retains labels scoring strictly above threshold.
func keepAbove(scores map[string]float64, threshold float64) map[string]float64 {
	kept := map[string]float64{}
	for label, score := range scores {
		if score > threshold {
			kept[label] = score
		}
	}
	return kept
}

// keepTop retains only the best-scoring label. Ties break alphabetically
// so the result is deterministic.
func keepTop(scores map[string]float64) map[string]float64 {
	var best string
	bestScore := -1.0
	for label, score := range scores {
		if score > bestScore || (score == bestScore && label < best) {
			best, bestScore = label, score
		}
	}
	if best == "" {
		return map[string]float64{}
	}
	return map[string]float64{best: bestScore}
}

// meanScore averages a retained score map. An empty map means no label
// cleared its threshold, which is zero confidence by definition.
func meanScore(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
