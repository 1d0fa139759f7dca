// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package sqlite

import (
	"context"
	"fmt"
)

// Compact removes exact-duplicate message rows, keeping the lowest id per
// (contact_id, sent_at, text) group, then reclaims space with VACUUM.
// InsertMessageIfAbsent keeps new writes unique, so the purge only finds
// rows in databases populated by earlier tooling that inserted blindly.
func (s *Store) Compact(ctx context.Context) (int64, error) {
	const q = `DELETE FROM messages
WHERE id NOT IN (
	SELECT MIN(id) FROM messages
	GROUP BY contact_id, sent_at, text
)`

	res, err := s.db.ExecContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("purging duplicate messages: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading purge row count: %w", err)
	}

	// VACUUM cannot run inside a transaction.
	if _, err := s.db.ExecContext(ctx, `VACUUM`); err != nil {
		return removed, fmt.Errorf("vacuuming database: %w", err)
	}
	return removed, nil
}
