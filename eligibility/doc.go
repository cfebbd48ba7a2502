// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package eligibility decides whether a ballot may be cast.

Checks run in a fixed order and the first failure wins:

 1. voter exists                  ErrVoterNotFound
 2. voter has not voted           ErrAlreadyVoted
 3. voter belongs to election     ErrWrongElection
 4. election is ACTIVE            ErrElectionNotActive
 5. candidate is in election      ErrInvalidCandidate
 6. constituencies match          ErrConstituencyMismatch
*/
package eligibility
