package models

import "time"

// Election status constants
const (
	StatusDraft     = "DRAFT"
	StatusActive    = "ACTIVE"
	StatusCompleted = "COMPLETED"
)

// NextStatus returns the only status an election may move to from s.
func NextStatus(s string) (string, bool) {
	switch s {
	case StatusDraft:
		return StatusActive, true
	case StatusActive:
		return StatusCompleted, true
	}
	return "", false
}

// Request types

type CastVoteRequest struct {
	CandidateID string `json:"candidate_id"`
}

type CreateElectionRequest struct {
	Name         string     `json:"name"`
	Constituency string     `json:"constituency"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type AddCandidateRequest struct {
	Name         string `json:"name"`
	Party        string `json:"party"`
	Symbol       string `json:"symbol"`
	Constituency string `json:"constituency"`
}

type AddVoterRequest struct {
	Name         string `json:"name"`
	Mobile       string `json:"mobile"`
	Constituency string `json:"constituency"`
}

// Response types

type CastVoteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type CreatedResponse struct {
	ID string `json:"id"`
}

// Domain types

type Election struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	Constituency string     `json:"constituency"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
}

type Candidate struct {
	ID           string `json:"id"`
	ElectionID   string `json:"election_id"`
	Constituency string `json:"constituency"`
	Name         string `json:"name"`
	Party        string `json:"party"`
	Symbol       string `json:"symbol"`
}

type Voter struct {
	ID           string `json:"id"`
	ElectionID   string `json:"election_id"`
	Constituency string `json:"constituency"`
	Mobile       string `json:"-"` // Never expose in JSON
	HasVoted     bool   `json:"has_voted"`
	Name         string `json:"name"`
}

// Vote deliberately has no voter reference and no timestamp.
type Vote struct {
	ID          string `json:"id"`
	CandidateID string `json:"candidate_id"`
	ElectionID  string `json:"election_id"`
}

// Tally types

type CandidateResult struct {
	CandidateID  string `json:"candidate_id"`
	Name         string `json:"name"`
	Party        string `json:"party"`
	Symbol       string `json:"symbol"`
	Constituency string `json:"constituency"`
	VoteCount    int    `json:"vote_count"`
}

type Tally struct {
	ElectionID  string            `json:"election_id"`
	Name        string            `json:"name"`
	Status      string            `json:"status"`
	Revealed    bool              `json:"revealed"`
	Candidates  []CandidateResult `json:"candidates"`
	Winner      *CandidateResult  `json:"winner"`
	TotalVotes  int               `json:"total_votes"`
	TotalVoters int               `json:"total_voters"`
	VotedVoters int               `json:"voted_voters"`
	Turnout     float64           `json:"turnout"` // voted_voters / total_voters
}

type DashboardStats struct {
	TotalElections     int     `json:"total_elections"`
	DraftElections     int     `json:"draft_elections"`
	ActiveElections    int     `json:"active_elections"`
	CompletedElections int     `json:"completed_elections"`
	TotalCandidates    int     `json:"total_candidates"`
	TotalVoters        int     `json:"total_voters"`
	VotedVoters        int     `json:"voted_voters"`
	TotalVotes         int     `json:"total_votes"`
	Turnout            float64 `json:"turnout"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
