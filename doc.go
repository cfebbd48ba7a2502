// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the e-voting API server.

The server records anonymous votes with a strict one-voter-one-vote
guarantee and publishes tallies only once an election is COMPLETED.

# Starting the Server

The server reads environment variables (and an optional .env file), which
CLI flags override:

	JWT_SECRET=... ADMIN_KEY_HASH='$2a$10$...' go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -jwt-secret ... -admin-key-hash ...

# Configuration

Required settings:

  - JWT_SECRET (-jwt-secret): HMAC secret that signs voter tokens
  - ADMIN_KEY_HASH (-admin-key-hash): bcrypt hash of the admin key

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): DSN or SQLite file (default: evoting.db)
  - LOG_LEVEL (-log-level): debug, info, warn, error (default: info)
  - TX_TIMEOUT (-tx-timeout): per-vote transaction budget (default: 5s)
  - RATE_LIMIT_BACKEND (-rate-limit): memory or tarantool (default: memory)
  - RATE_LIMIT_ATTEMPTS, RATE_LIMIT_WINDOW: vote attempts per window
  - TARANTOOL_HOST, TARANTOOL_PORT, TARANTOOL_USER, TARANTOOL_PASSWORD
  - IP_HASH_SALT: salt for hashed client IPs (defaults to JWT_SECRET)

# Architecture

  - voting: Vote transaction coordinator and tagged outcomes
  - eligibility: The ordered eligibility checks
  - tally: Gated results and dashboard stats
  - store: SQL access for elections, candidates, voters and votes
  - db: Dialects, connection setup and schema with guard triggers
  - handlers, router, middleware: HTTP surface
  - auth: Voter token and admin key verification
  - ratelimit: Vote attempt limiting (in-memory or Tarantool)
  - logger: zap-backed slog logger
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
