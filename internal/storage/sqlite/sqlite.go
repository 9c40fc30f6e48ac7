// Package sqlite provides a single-file SQLite store for the order log and
// the menu.
//
// The orders table has no key; append order is the implicit rowid.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	// Register the pure-Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/xenking/kart-billing/db"
)

// DB is an open SQLite database file.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path.
//
//	store, err := sqlite.Open("billing_system.db")
func Open(path string) (*DB, error) {
	sdb, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// One writer connection; access is serialized anyway.
	sdb.SetMaxOpenConns(1)

	return &DB{db: sdb}, nil
}

// dsn builds a file: URI for path with the connection pragmas. The path is
// escaped so '?' and '#' in file names stay part of the name.
func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	u := url.URL{Scheme: "file", Opaque: (&url.URL{Path: path}).EscapedPath(), RawQuery: q.Encode()}
	return u.String()
}

// Migrate applies the schema. Idempotent due to IF NOT EXISTS.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, db.SQLiteSchema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}

// Ping verifies the database file is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close releases the database handle.
func (d *DB) Close() error {
	return d.db.Close()
}

// OrderLog returns the order log stored in d.
func (d *DB) OrderLog() *OrderLog {
	return &OrderLog{db: d}
}

// Menu returns the menu stored in d.
func (d *DB) Menu() *Menu {
	return &Menu{db: d.db}
}
