// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Open connects to the configured engine and verifies the connection.
// SQLite DSNs get a busy timeout, foreign keys, WAL and BEGIN IMMEDIATE
// appended so concurrent writers queue on the lock instead of failing at once.
func Open(d Dialect, dsn string) (*sql.DB, error) {
	if d == SQLite {
		dsn = sqliteDSN(dsn)
	}

	conn, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

func sqliteDSN(dsn string) string {
	params := []string{
		"_pragma=busy_timeout(5000)",
		"_pragma=foreign_keys(1)",
		"_pragma=journal_mode(WAL)",
		"_txlock=immediate",
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(conn *sql.DB, d Dialect) error {
	_, err := conn.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	guards, voteOpts := sqliteGuards, " WITHOUT ROWID"
	if d == Postgres {
		guards, voteOpts = postgresGuards, ""
	}
	if _, err := conn.Exec(fmt.Sprintf(voteTable, voteOpts)); err != nil {
		return fmt.Errorf("failed to create vote table: %w", err)
	}
	if _, err := conn.Exec(guards); err != nil {
		return fmt.Errorf("failed to create guard triggers: %w", err)
	}

	return nil
}

const schema = `
-- Elections
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'DRAFT' CHECK (status IN ('DRAFT', 'ACTIVE', 'COMPLETED')),
    constituency TEXT NOT NULL DEFAULT '',
    start_date TIMESTAMP,
    end_date TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_election_status ON election(status);

-- Candidates
CREATE TABLE IF NOT EXISTS candidate (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id),
    constituency TEXT NOT NULL,
    name TEXT NOT NULL,
    party TEXT NOT NULL DEFAULT '',
    symbol TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_candidate_election_id ON candidate(election_id);

-- Voters
CREATE TABLE IF NOT EXISTS voter (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id),
    constituency TEXT NOT NULL,
    mobile TEXT NOT NULL DEFAULT '',
    has_voted BOOLEAN NOT NULL DEFAULT FALSE,
    name TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_voter_election_id ON voter(election_id);

`

// Votes carry no voter reference and no timestamp. On SQLite the table is
// clustered on the random id so no rowid records insertion order.
const voteTable = `
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    candidate_id TEXT NOT NULL REFERENCES candidate(id),
    election_id TEXT NOT NULL REFERENCES election(id)
)%s;

CREATE INDEX IF NOT EXISTS idx_vote_election_candidate ON vote(election_id, candidate_id);
`

const sqliteGuards = `
CREATE TRIGGER IF NOT EXISTS vote_no_update
BEFORE UPDATE ON vote
BEGIN
    SELECT RAISE(ABORT, 'vote rows are append-only');
END;

CREATE TRIGGER IF NOT EXISTS vote_no_delete
BEFORE DELETE ON vote
BEGIN
    SELECT RAISE(ABORT, 'vote rows are append-only');
END;

CREATE TRIGGER IF NOT EXISTS voter_has_voted_monotonic
BEFORE UPDATE OF has_voted ON voter
WHEN OLD.has_voted AND NOT NEW.has_voted
BEGIN
    SELECT RAISE(ABORT, 'has_voted cannot be reset');
END;

CREATE TRIGGER IF NOT EXISTS election_status_forward
BEFORE UPDATE OF status ON election
WHEN (CASE NEW.status WHEN 'DRAFT' THEN 0 WHEN 'ACTIVE' THEN 1 ELSE 2 END)
   < (CASE OLD.status WHEN 'DRAFT' THEN 0 WHEN 'ACTIVE' THEN 1 ELSE 2 END)
BEGIN
    SELECT RAISE(ABORT, 'election status cannot move backwards');
END;
`

const postgresGuards = `
CREATE OR REPLACE FUNCTION vote_append_only() RETURNS trigger AS $$
BEGIN
    RAISE EXCEPTION 'vote rows are append-only';
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS vote_append_only ON vote;
CREATE TRIGGER vote_append_only
    BEFORE UPDATE OR DELETE ON vote
    FOR EACH ROW EXECUTE FUNCTION vote_append_only();

CREATE OR REPLACE FUNCTION voter_has_voted_monotonic() RETURNS trigger AS $$
BEGIN
    IF OLD.has_voted AND NOT NEW.has_voted THEN
        RAISE EXCEPTION 'has_voted cannot be reset';
    END IF;
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS voter_has_voted_monotonic ON voter;
CREATE TRIGGER voter_has_voted_monotonic
    BEFORE UPDATE OF has_voted ON voter
    FOR EACH ROW EXECUTE FUNCTION voter_has_voted_monotonic();

CREATE OR REPLACE FUNCTION election_status_rank(s TEXT) RETURNS INT AS $$
    SELECT CASE s WHEN 'DRAFT' THEN 0 WHEN 'ACTIVE' THEN 1 ELSE 2 END;
$$ LANGUAGE sql IMMUTABLE;

CREATE OR REPLACE FUNCTION election_status_forward() RETURNS trigger AS $$
BEGIN
    IF election_status_rank(NEW.status) < election_status_rank(OLD.status) THEN
        RAISE EXCEPTION 'election status cannot move backwards';
    END IF;
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS election_status_forward ON election;
CREATE TRIGGER election_status_forward
    BEFORE UPDATE OF status ON election
    FOR EACH ROW EXECUTE FUNCTION election_status_forward();
`
