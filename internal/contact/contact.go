// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

// Package contact canonicalises raw message-handle identifiers and resolves
// them to display names through a pluggable directory.
package contact

import (
	"context"
	"log/slog"
	"strings"
	"unicode"
)

// DefaultRegion is the calling code prepended to bare 10-digit numbers.
const DefaultRegion = "1"

// Directory maps a canonical identifier to a display name. Lookup returns
// an empty name with a nil error on a miss; misses are normal.
type Directory interface {
	Lookup(ctx context.Context, identifier string) (string, error)
}

// Normalize canonicalises a raw handle so the same counterpart always maps
// to one identifier. Emails are lowercased; phone-like handles are reduced
// to digits and given an explicit calling code ("555-123-4567",
// "5551234567" and "+15551234567" all canonicalise identically). Opaque
// ids and short codes pass through unchanged.
func Normalize(raw, defaultRegion string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "@") {
		return strings.ToLower(raw)
	}

	var digits strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}

	switch n := digits.Len(); {
	case n == 10:
		if defaultRegion == "" {
			defaultRegion = DefaultRegion
		}
		return "+" + defaultRegion + digits.String()
	case n > 10:
		return "+" + digits.String()
	default:
		return raw
	}
}

// Resolver turns raw handles into display names. Resolution is best
// effort: a directory miss or failure falls back to the canonical
// identifier and is never fatal.
type Resolver struct {
	dir    Directory
	region string
	logger *slog.Logger
}

// NewResolver builds a Resolver over dir. A nil dir resolves every
// identifier to itself.
func NewResolver(dir Directory, defaultRegion string, logger *slog.Logger) *Resolver {
	if defaultRegion == "" {
		defaultRegion = DefaultRegion
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{dir: dir, region: defaultRegion, logger: logger}
}

// Canonical returns the canonical form of a raw handle.
func (r *Resolver) Canonical(raw string) string {
	return Normalize(raw, r.region)
}

// Resolve returns the display name for a raw handle, falling back to the
// canonical identifier when the directory has no entry or fails.
func (r *Resolver) Resolve(ctx context.Context, raw string) string {
	canonical := r.Canonical(raw)
	if r.dir == nil || canonical == "" {
		return canonical
	}

	name, err := r.dir.Lookup(ctx, canonical)
	if err != nil {
		r.logger.Warn("directory lookup failed, using identifier",
			"identifier", canonical, "error", err)
		return canonical
	}
	if name == "" {
		return canonical
	}
	return name
}

// StaticDirectory is a fixed identifier→name map, used for tests and for
// directory entries supplied in config.
type StaticDirectory map[string]string

// Lookup implements Directory.
func (d StaticDirectory) Lookup(_ context.Context, identifier string) (string, error) {
	return d[identifier], nil
}
