// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect names the storage engine behind a *sql.DB.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect accepts the DATABASE_TYPE values understood by the server.
func ParseDialect(s string) (Dialect, error) {
	switch s {
	case "postgres", "postgresql":
		return Postgres, nil
	case "sqlite", "sqlite3", "":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported database type %q", s)
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// WriteTxOptions returns the options for a read-modify-write transaction.
// Postgres runs it SERIALIZABLE. SQLite transactions are opened with
// BEGIN IMMEDIATE through the DSN (see Open), which takes the single writer
// lock up front and is serializable by construction; the driver only accepts
// the default isolation level there.
func (d Dialect) WriteTxOptions() *sql.TxOptions {
	if d == Postgres {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}

// ReadTxOptions returns the options for a consistent read-only snapshot.
// On SQLite a read-only transaction opens with a plain deferred BEGIN
// instead of the DSN's BEGIN IMMEDIATE, so under WAL it reads a snapshot
// without queueing on the writer lock.
func (d Dialect) ReadTxOptions() *sql.TxOptions {
	if d == Postgres {
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return &sql.TxOptions{ReadOnly: true}
}

// LockClause is appended to point reads that precede a write of the same row.
func (d Dialect) LockClause() string {
	if d == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

// ShareClause is appended to point reads whose result must not change
// before the transaction commits. Writers of the row wait for it, and a
// SERIALIZABLE reader fails instead of acting on a row changed after its
// snapshot. SQLite needs nothing: every write transaction already holds the
// single writer lock.
func (d Dialect) ShareClause() string {
	if d == Postgres {
		return " FOR SHARE"
	}
	return ""
}

// IsSerializationFailure reports whether err is the engine telling us a
// concurrent transaction won: a serialization failure or deadlock on
// Postgres, BUSY or LOCKED on SQLite.
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01":
			return true
		}
		return false
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}
	return false
}
