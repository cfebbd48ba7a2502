// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ahamednazeer/eVoting-sub000/db"
	"github.com/ahamednazeer/eVoting-sub000/middleware"
	"github.com/ahamednazeer/eVoting-sub000/models"
	"github.com/ahamednazeer/eVoting-sub000/store"
)

var errNotDraft = errors.New("election is not in DRAFT")

type AdminHandler struct {
	db    *sql.DB
	store *store.Store
}

func NewAdminHandler(conn *sql.DB, s *store.Store) *AdminHandler {
	return &AdminHandler{db: conn, store: s}
}

// CreateElection handles POST /admin/elections
func (h *AdminHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "end_date must not be before start_date")
		return
	}

	election := models.Election{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Status:       models.StatusDraft,
		Constituency: req.Constituency,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	}
	if err := h.store.CreateElection(r.Context(), h.db, election); err != nil {
		slog.Error("failed to create election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	slog.Info("election created", "election_id", election.ID)

	middleware.JSONResponse(w, http.StatusCreated, models.CreatedResponse{ID: election.ID})
}

// UpdateStatus handles POST /admin/elections/{id}/status
// Elections only move forward one step: DRAFT → ACTIVE → COMPLETED.
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	var req models.UpdateStatusRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Status == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "status is required")
		return
	}

	election, from, err := h.advance(r.Context(), electionID, req.Status)
	var bad *badTransitionError
	switch {
	case errors.Is(err, store.ErrElectionNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	case errors.As(err, &bad):
		middleware.ErrorResponse(w, http.StatusConflict,
			"Election cannot move from "+bad.from+" to "+bad.to)
		return
	case errors.Is(err, errStatusRace), db.IsSerializationFailure(err):
		// Another request moved it first.
		middleware.ErrorResponse(w, http.StatusConflict, "Election status changed concurrently")
		return
	case err != nil:
		slog.Error("failed to update election status", "election_id", electionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update status")
		return
	}

	slog.Info("election status updated", "election_id", electionID, "from", from, "to", election.Status)

	middleware.JSONResponse(w, http.StatusOK, election)
}

var errStatusRace = errors.New("election status changed concurrently")

type badTransitionError struct {
	from, to string
}

func (e *badTransitionError) Error() string {
	return "election cannot move from " + e.from + " to " + e.to
}

// advance moves the election one step forward in a write transaction that
// holds the election row, so it queues behind any ballot that has already
// checked the status and cannot commit between that check and the ballot's
// own commit. It returns the updated election and the status it left.
func (h *AdminHandler) advance(ctx context.Context, electionID, requested string) (models.Election, string, error) {
	tx, err := h.db.BeginTx(ctx, h.store.Dialect().WriteTxOptions())
	if err != nil {
		return models.Election{}, "", err
	}
	defer tx.Rollback()

	election, err := h.store.ElectionForUpdate(ctx, tx, electionID)
	if err != nil {
		return models.Election{}, "", err
	}

	from := election.Status
	next, ok := models.NextStatus(from)
	if !ok || next != requested {
		return models.Election{}, "", &badTransitionError{from: from, to: requested}
	}

	changed, err := h.store.AdvanceStatus(ctx, tx, electionID, from, next)
	if err != nil {
		return models.Election{}, "", err
	}
	if !changed {
		return models.Election{}, "", errStatusRace
	}

	if err := tx.Commit(); err != nil {
		return models.Election{}, "", err
	}

	election.Status = next
	return election, from, nil
}

// AddCandidate handles POST /admin/elections/{id}/candidates
func (h *AdminHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	var req models.AddCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	candidate := models.Candidate{
		ID:           uuid.NewString(),
		ElectionID:   electionID,
		Constituency: req.Constituency,
		Name:         req.Name,
		Party:        req.Party,
		Symbol:       req.Symbol,
	}
	err := h.whileDraft(r.Context(), electionID, func(tx *sql.Tx, e models.Election) error {
		if candidate.Constituency == "" {
			candidate.Constituency = e.Constituency
		}
		return h.store.CreateCandidate(r.Context(), tx, candidate)
	})
	if !h.writeDraftError(w, err, "candidate") {
		return
	}

	slog.Info("candidate added", "election_id", electionID, "candidate_id", candidate.ID)

	middleware.JSONResponse(w, http.StatusCreated, models.CreatedResponse{ID: candidate.ID})
}

// AddVoter handles POST /admin/elections/{id}/voters
func (h *AdminHandler) AddVoter(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	var req models.AddVoterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	voter := models.Voter{
		ID:           uuid.NewString(),
		ElectionID:   electionID,
		Constituency: req.Constituency,
		Mobile:       req.Mobile,
		Name:         req.Name,
	}
	err := h.whileDraft(r.Context(), electionID, func(tx *sql.Tx, e models.Election) error {
		if voter.Constituency == "" {
			voter.Constituency = e.Constituency
		}
		return h.store.CreateVoter(r.Context(), tx, voter)
	})
	if !h.writeDraftError(w, err, "voter") {
		return
	}

	slog.Info("voter registered", "election_id", electionID, "voter_id", voter.ID)

	middleware.JSONResponse(w, http.StatusCreated, models.CreatedResponse{ID: voter.ID})
}

// whileDraft runs fn in a write transaction after confirming the election
// is still in DRAFT.
func (h *AdminHandler) whileDraft(ctx context.Context, electionID string, fn func(*sql.Tx, models.Election) error) error {
	tx, err := h.db.BeginTx(ctx, h.store.Dialect().WriteTxOptions())
	if err != nil {
		return err
	}
	defer tx.Rollback()

	election, err := h.store.ElectionForShare(ctx, tx, electionID)
	if err != nil {
		return err
	}
	if election.Status != models.StatusDraft {
		return errNotDraft
	}

	if err := fn(tx, election); err != nil {
		return err
	}
	return tx.Commit()
}

// writeDraftError writes the response for a failed whileDraft call and
// reports whether the caller may continue.
func (h *AdminHandler) writeDraftError(w http.ResponseWriter, err error, what string) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, store.ErrElectionNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
	case errors.Is(err, errNotDraft):
		middleware.ErrorResponse(w, http.StatusConflict, "Can only add a "+what+" while the election is DRAFT")
	default:
		slog.Error("failed to add "+what, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add "+what)
	}
	return false
}
