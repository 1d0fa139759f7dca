// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package contact

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	mnemoerr "github.com/mnemo-dev/mnemo/pkg/errors"
)

// abcddb glob patterns, old AddressBook layout first.
var addressBookGlobs = []string{
	"Library/Application Support/AddressBook/Sources/*/AddressBook-v22.abcddb",
	"Library/Application Support/Contacts/Sources/*/AddressBook-v22.abcddb",
}

// AddressBookDirectory resolves identifiers against the macOS Contacts
// database (AddressBook-v22.abcddb). The whole book is read once on first
// lookup and cached; it changes rarely and a run makes many lookups.
type AddressBookDirectory struct {
	home   string
	region string

	once    sync.Once
	entries map[string]string
	loadErr error
}

// NewAddressBookDirectory builds a directory rooted at home (the user's
// home directory; empty means os.UserHomeDir).
func NewAddressBookDirectory(home, defaultRegion string) *AddressBookDirectory {
	if defaultRegion == "" {
		defaultRegion = DefaultRegion
	}
	return &AddressBookDirectory{home: home, region: defaultRegion}
}

// Lookup implements Directory. A missing Contacts database is a miss for
// every identifier, not an error.
func (d *AddressBookDirectory) Lookup(ctx context.Context, identifier string) (string, error) {
	d.once.Do(func() { d.entries, d.loadErr = d.load(ctx) })
	if d.loadErr != nil {
		return "", d.loadErr
	}
	return d.entries[identifier], nil
}

func (d *AddressBookDirectory) load(ctx context.Context) (map[string]string, error) {
	dbPath, err := d.locate()
	if err != nil {
		return nil, err
	}
	if dbPath == "" {
		return map[string]string{}, nil
	}

	db, err := sql.Open("sqlite3", dbPath+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, mnemoerr.Errorf(mnemoerr.CodeDirectoryUnavailable, "opening contacts db: %w", err)
	}
	defer func() { _ = db.Close() }()

	entries := map[string]string{}

	const phoneQuery = `SELECT p.ZFULLNUMBER, r.ZFIRSTNAME, r.ZLASTNAME, r.ZORGANIZATION
FROM ZABCDPHONENUMBER p
JOIN ZABCDRECORD r ON p.ZOWNER = r.Z_PK
WHERE p.ZFULLNUMBER IS NOT NULL`

	if err := d.collect(ctx, db, phoneQuery, true, entries); err != nil {
		return nil, err
	}

	const emailQuery = `SELECT e.ZADDRESS, r.ZFIRSTNAME, r.ZLASTNAME, r.ZORGANIZATION
FROM ZABCDEMAILADDRESS e
JOIN ZABCDRECORD r ON e.ZOWNER = r.Z_PK
WHERE e.ZADDRESS IS NOT NULL`

	if err := d.collect(ctx, db, emailQuery, false, entries); err != nil {
		return nil, err
	}

	return entries, nil
}

func (d *AddressBookDirectory) collect(ctx context.Context, db *sql.DB, query string, phone bool, entries map[string]string) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return mnemoerr.Errorf(mnemoerr.CodeDirectoryUnavailable, "querying contacts db: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var handle string
		var first, last, org sql.NullString
		if err := rows.Scan(&handle, &first, &last, &org); err != nil {
			return mnemoerr.Errorf(mnemoerr.CodeDirectoryUnavailable, "scanning contacts row: %w", err)
		}

		name := displayName(first.String, last.String, org.String)
		if name == "" {
			continue
		}

		key := handle
		if phone {
			key = Normalize(handle, d.region)
		} else {
			key = strings.ToLower(strings.TrimSpace(handle))
		}
		if key == "" {
			continue
		}
		// First match wins, matching the book's record order.
		if _, ok := entries[key]; !ok {
			entries[key] = name
		}
	}
	return rows.Err()
}

// locate finds the abcddb file, returning "" when none exists.
func (d *AddressBookDirectory) locate() (string, error) {
	home := d.home
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return "", mnemoerr.Errorf(mnemoerr.CodeDirectoryUnavailable, "resolving home directory: %w", err)
		}
	}

	for _, pattern := range addressBookGlobs {
		matches, err := filepath.Glob(filepath.Join(home, pattern))
		if err != nil {
			return "", fmt.Errorf("globbing contacts path: %w", err)
		}
		if len(matches) > 0 {
			return matches[0], nil
		}
	}
	return "", nil
}

// displayName joins first and last name, falling back to organization.
func displayName(first, last, org string) string {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name == "" {
		name = strings.TrimSpace(org)
	}
	return name
}
