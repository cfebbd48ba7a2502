// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"

	"github.com/ahamednazeer/eVoting-sub000/middleware"
	"github.com/ahamednazeer/eVoting-sub000/models"
	"github.com/ahamednazeer/eVoting-sub000/voting"
)

// VoteCaster is satisfied by *voting.Coordinator.
type VoteCaster interface {
	CastVote(ctx context.Context, voterID, candidateID, electionID string) voting.Result
}

type VotingHandler struct {
	caster VoteCaster
}

func NewVotingHandler(caster VoteCaster) *VotingHandler {
	return &VotingHandler{caster: caster}
}

// CastVote handles POST /elections/{id}/votes
// The voter comes from the verified token; everything else is re-checked
// against storage inside the vote transaction.
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	claims, ok := middleware.VoterFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Voter token required")
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.CandidateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "candidate_id is required")
		return
	}

	res := h.caster.CastVote(r.Context(), claims.VoterID, req.CandidateID, electionID)
	if res.Success() {
		middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{
			Success: true,
			Message: res.Message,
		})
		return
	}

	middleware.ErrorResponse(w, statusFor(res.Outcome), res.Message)
}

func statusFor(o voting.Outcome) int {
	switch o.Class() {
	case voting.ClassOK:
		return http.StatusCreated
	case voting.ClassUnauthorized:
		return http.StatusUnauthorized
	case voting.ClassRejected:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
