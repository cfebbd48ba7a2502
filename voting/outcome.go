// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"errors"

	"github.com/ahamednazeer/eVoting-sub000/eligibility"
)

// Outcome is the result of one CastVote attempt. Exactly one value is
// returned per attempt; there is no "maybe voted" state.
type Outcome int

const (
	Success Outcome = iota
	VoterNotFound
	AlreadyVoted
	WrongElection
	ElectionNotActive
	InvalidCandidate
	ConstituencyMismatch
	TransientFailure
)

// Class groups outcomes by how a caller should react to them.
type Class int

const (
	ClassOK Class = iota
	ClassUnauthorized
	ClassRejected
	ClassInternal
)

// ErrTransient is returned by Result.Err for TransientFailure. The vote was
// not applied and the caller may retry.
var ErrTransient = errors.New("vote could not be recorded, please retry")

var outcomeErrors = map[Outcome]error{
	VoterNotFound:        eligibility.ErrVoterNotFound,
	AlreadyVoted:         eligibility.ErrAlreadyVoted,
	WrongElection:        eligibility.ErrWrongElection,
	ElectionNotActive:    eligibility.ErrElectionNotActive,
	InvalidCandidate:     eligibility.ErrInvalidCandidate,
	ConstituencyMismatch: eligibility.ErrConstituencyMismatch,
	TransientFailure:     ErrTransient,
}

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case VoterNotFound:
		return "voter_not_found"
	case AlreadyVoted:
		return "already_voted"
	case WrongElection:
		return "wrong_election"
	case ElectionNotActive:
		return "election_not_active"
	case InvalidCandidate:
		return "invalid_candidate"
	case ConstituencyMismatch:
		return "constituency_mismatch"
	case TransientFailure:
		return "transient_failure"
	}
	return "unknown"
}

func (o Outcome) Class() Class {
	switch o {
	case Success:
		return ClassOK
	case VoterNotFound:
		return ClassUnauthorized
	case AlreadyVoted, WrongElection, ElectionNotActive, InvalidCandidate, ConstituencyMismatch:
		return ClassRejected
	}
	return ClassInternal
}

// Retryable reports whether another attempt could succeed. Rejections are
// final; only transient failures are worth repeating.
func (o Outcome) Retryable() bool {
	return o == TransientFailure
}

// Result is the tagged outcome of CastVote.
type Result struct {
	Outcome Outcome
	Message string
}

func (r Result) Success() bool {
	return r.Outcome == Success
}

// Err returns nil on success and a sentinel otherwise, for callers that
// prefer errors.Is over switching on Outcome.
func (r Result) Err() error {
	if r.Outcome == Success {
		return nil
	}
	if err, ok := outcomeErrors[r.Outcome]; ok {
		return err
	}
	return ErrTransient
}

func newResult(o Outcome) Result {
	if o == Success {
		return Result{Outcome: Success, Message: "Vote cast successfully"}
	}
	return Result{Outcome: o, Message: Result{Outcome: o}.Err().Error()}
}

// outcomeFor maps a validator error onto an outcome. Anything that is not a
// known rejection is a storage problem and becomes TransientFailure.
func outcomeFor(err error) Outcome {
	for o, sentinel := range outcomeErrors {
		if o != TransientFailure && errors.Is(err, sentinel) {
			return o
		}
	}
	return TransientFailure
}
