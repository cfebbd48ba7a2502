// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package voting records votes.

Coordinator.CastVote runs the eligibility checks and both writes (the
anonymous vote row and the voter's has_voted flag) in one transaction:

	c := voting.NewCoordinator(conn, store.New(db.SQLite), voting.WithTimeout(5*time.Second))
	res := c.CastVote(ctx, voterID, candidateID, electionID)
	if !res.Success() {
		// res.Outcome.Class() says how to report it,
		// res.Outcome.Retryable() whether to try again.
	}

Every call returns exactly one Outcome. Rejections are final and leave
storage untouched. TransientFailure means nothing was written and the
attempt may be repeated; the coordinator itself never retries.
*/
package voting
