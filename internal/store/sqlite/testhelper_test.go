// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package sqlite_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mnemo-dev/mnemo/internal/store/sqlite"
)

// testDir creates a temp directory for a test and returns its path.
func testDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "mnemo-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// testDBPath returns a temp SQLite database path.
func testDBPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(testDir(t), name+".db")
}

// testStore opens a Store with no directory backing; identifiers resolve
// to themselves.
func testStore(t *testing.T, name string) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(testDBPath(t, name), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
