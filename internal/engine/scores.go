// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package engine

import (
	"encoding/json"
	"strings"

	mnemoerr "github.com/mnemo-dev/mnemo/pkg/errors"
)

// ParseScores decodes a model response into label scores. The response must
// contain a JSON object mapping labels to numbers; surrounding prose and
// markdown fences are tolerated. Unknown labels are dropped, missing labels
// score 0, and every score is clamped to [0, 1].
func ParseScores(raw string, labels []string) (map[string]float64, error) {
	obj := extractObject(raw)
	if obj == "" {
		return nil, mnemoerr.New(mnemoerr.CodeEngineResponseInvalid,
			"classification response contains no JSON object",
			mnemoerr.Field("response", truncate(raw, 200)))
	}

	var parsed map[string]float64
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return nil, mnemoerr.Errorf(mnemoerr.CodeEngineResponseInvalid,
			"decoding classification response: %w", err)
	}

	scores := make(map[string]float64, len(labels))
	for _, label := range labels {
		scores[label] = clamp01(parsed[label])
	}
	return scores, nil
}

// extractObject returns the first balanced {...} block in raw.
func extractObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
