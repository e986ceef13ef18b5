// Package store opens the SQLite databases used for corpus snapshots and the
// run ledger.
package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// LedgerPragmas suit a long-lived database with concurrent readers.
var LedgerPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
}

// BulkPragmas suit a single-writer file that is written once and then only
// read. The database stays a single file with no -wal or -journal sidecar.
var BulkPragmas = []string{
	"PRAGMA journal_mode=OFF",
	"PRAGMA synchronous=OFF",
	"PRAGMA busy_timeout=5000",
}

// ReadOnlyPragmas suit opening a finished snapshot.
var ReadOnlyPragmas = []string{
	"PRAGMA query_only=ON",
	"PRAGMA busy_timeout=5000",
}

// OpenSQLite opens a SQLite database at dsn and applies pragmas in order.
// With no pragmas, LedgerPragmas are used.
func OpenSQLite(dsn string, pragmas ...string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// One connection keeps per-connection pragmas in effect for every query.
	db.SetMaxOpenConns(1)

	if len(pragmas) == 0 {
		pragmas = LedgerPragmas
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return db, nil
}

// Migrate runs a schema script.
func Migrate(ctx context.Context, db *sql.DB, schema string) error {
	_, err := db.ExecContext(ctx, schema)
	return eris.Wrap(err, "sqlite: migrate")
}

// CheckRowsAffected returns an error naming the entity when res touched no rows.
func CheckRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: %s %s not found", entity, id)
	}
	return nil
}
