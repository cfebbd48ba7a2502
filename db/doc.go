// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the storage engine and creates the schema.

# Engines

Two engines are supported, selected by DATABASE_TYPE:

  - sqlite (default): embedded, via modernc.org/sqlite
  - postgres: via github.com/lib/pq

	conn, err := db.Open(db.SQLite, "evoting.db")
	if err != nil {
		log.Fatal(err)
	}
	if err := db.CreateSchema(conn, db.SQLite); err != nil {
		log.Fatal(err)
	}

Safe to call CreateSchema multiple times - uses IF NOT EXISTS for all tables and indexes.

# Isolation

Dialect.WriteTxOptions returns the options used by the vote transaction.
Postgres runs it SERIALIZABLE and the voter row is read FOR UPDATE, so two
concurrent casts for one voter end with one commit and one serialization
failure. The election row is read FOR SHARE, so a status change waits for
ballots that already saw ACTIVE. SQLite connections begin every write
transaction IMMEDIATE, so writers queue on the database lock (bounded by
busy_timeout) and the loser observes the winner's committed has_voted.
ReadTxOptions opens SQLite read snapshots with a deferred BEGIN, which under
WAL never waits for a writer.

IsSerializationFailure classifies the engine errors that mean "another
transaction won".

# Tables

  - election: lifecycle DRAFT → ACTIVE → COMPLETED
  - candidate: per election and constituency
  - voter: per election and constituency, has_voted flag
  - vote: candidate_id and election_id only

# Relationships

	election 1──* candidate
	election 1──* voter
	election 1──* vote
	candidate 1──* vote

# Guards

Triggers reject UPDATE and DELETE on vote, resetting voter.has_voted, and
moving election.status backwards.
*/
package db
