// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package eligibility

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahamednazeer/eVoting-sub000/models"
	"github.com/ahamednazeer/eVoting-sub000/store"
)

// Rejections, in the order they are checked.
var (
	ErrVoterNotFound        = errors.New("voter not found")
	ErrAlreadyVoted         = errors.New("voter has already voted")
	ErrWrongElection        = errors.New("voter is not registered for this election")
	ErrElectionNotActive    = errors.New("election is not active")
	ErrInvalidCandidate     = errors.New("candidate does not belong to this election")
	ErrConstituencyMismatch = errors.New("candidate is not standing in the voter's constituency")
)

var rejections = []error{
	ErrVoterNotFound,
	ErrAlreadyVoted,
	ErrWrongElection,
	ErrElectionNotActive,
	ErrInvalidCandidate,
	ErrConstituencyMismatch,
}

// IsRejection reports whether err is one of the business-rule rejections
// rather than a storage failure.
func IsRejection(err error) bool {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}

type Ballot struct {
	VoterID     string
	CandidateID string
	ElectionID  string
}

type Validator struct {
	store *store.Store
}

func NewValidator(s *store.Store) *Validator {
	return &Validator{store: s}
}

// Check evaluates the ballot against the current storage state as seen
// through q, which must be the transaction that will also perform the
// writes. It returns nil when the voter may cast this ballot, a rejection
// sentinel when a rule fails, or a wrapped storage error.
//
// Identity and authorization checks come first so a caller learns nothing
// about elections or candidates before its voter record is established.
func (v *Validator) Check(ctx context.Context, q store.Querier, b Ballot) error {
	voter, err := v.store.VoterForUpdate(ctx, q, b.VoterID)
	if errors.Is(err, store.ErrVoterNotFound) {
		return ErrVoterNotFound
	}
	if err != nil {
		return fmt.Errorf("eligibility: %w", err)
	}

	if voter.HasVoted {
		return ErrAlreadyVoted
	}

	if voter.ElectionID != b.ElectionID {
		return ErrWrongElection
	}

	// Shared lock: closing the election waits for this ballot to commit.
	election, err := v.store.ElectionForShare(ctx, q, b.ElectionID)
	if errors.Is(err, store.ErrElectionNotFound) {
		return ErrElectionNotActive
	}
	if err != nil {
		return fmt.Errorf("eligibility: %w", err)
	}
	if election.Status != models.StatusActive {
		return ErrElectionNotActive
	}

	candidate, err := v.store.Candidate(ctx, q, b.CandidateID)
	if errors.Is(err, store.ErrCandidateNotFound) {
		return ErrInvalidCandidate
	}
	if err != nil {
		return fmt.Errorf("eligibility: %w", err)
	}
	if candidate.ElectionID != b.ElectionID {
		return ErrInvalidCandidate
	}

	if candidate.Constituency != voter.Constituency {
		return ErrConstituencyMismatch
	}

	return nil
}
