// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the e-voting API.

# Handler Types

Each handler is a struct holding the component it fronts:

  - VotingHandler: vote casting through a VoteCaster (*voting.Coordinator)
  - ResultsHandler: gated tallies and dashboard stats (*tally.Aggregator)
  - AdminHandler: election, candidate and voter seeding

Handlers are created via constructor functions:

	votingHandler := handlers.NewVotingHandler(coordinator)
	resultsHandler := handlers.NewResultsHandler(aggregator)
	adminHandler := handlers.NewAdminHandler(db, store)

# Election Lifecycle

Elections progress through three states: DRAFT → ACTIVE → COMPLETED

	POST /admin/elections                  → CreateElection (DRAFT)
	POST /admin/elections/{id}/candidates  → AddCandidate (DRAFT only)
	POST /admin/elections/{id}/voters      → AddVoter (DRAFT only)
	POST /admin/elections/{id}/status      → UpdateStatus (one step forward)

Admin operations require the X-Admin-Key header.

# Voting

	POST /elections/{id}/votes → CastVote

The voter id comes from the token verified by middleware.RequireVoter. The
coordinator's outcome maps to a status code:

	Success                       201
	VoterNotFound                 401
	AlreadyVoted, WrongElection,
	ElectionNotActive,
	InvalidCandidate,
	ConstituencyMismatch          400
	TransientFailure              500 (safe to retry)

# Results

	GET /elections/{id}/results → GetResults
	GET /admin/dashboard        → GetDashboard

Vote counts and the winner are withheld until the election is COMPLETED.
*/
package handlers
