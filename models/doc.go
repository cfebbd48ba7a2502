// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - CastVoteRequest: candidate_id (voter and election come from the token and path)
  - CreateElectionRequest: name, constituency, start/end dates
  - UpdateStatusRequest: status
  - AddCandidateRequest, AddVoterRequest

# Domain Types

  - Election: lifecycle DRAFT → ACTIVE → COMPLETED (see NextStatus)
  - Candidate, Voter
  - Vote: candidate_id and election_id only

Voter.Mobile is never serialized.

# Tally Types

  - Tally: per-candidate counts (zero until COMPLETED), winner, turnout
  - DashboardStats: aggregate counts across all elections
*/
package models
