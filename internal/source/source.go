// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

// Package source defines where raw messages come from. Implementations pull
// from an external log the pipeline does not own.
package source

import (
	"context"
	"time"
)

// Record is one raw message as the external log presents it, before
// filtering and contact resolution.
type Record struct {
	SentAt   time.Time
	Text     string
	SenderID string // raw handle of the counterpart; empty for outbound rows in some logs
	IsFromMe bool
	ChatID   string
	ChatName string
}

// IsGroupChat reports whether the record came from a named group thread.
// Direct threads carry the counterpart handle as both identifier and name.
func (r Record) IsGroupChat() bool {
	return r.ChatName != "" && r.ChatName != r.ChatID
}

// Source pulls message records from an external log.
type Source interface {
	// Fetch returns records sent strictly after since, oldest first. A zero
	// since means the full log. An unreachable log yields a typed
	// source.unavailable error; callers degrade to zero new messages.
	Fetch(ctx context.Context, since time.Time) ([]Record, error)
}
