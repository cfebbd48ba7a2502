// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ahamednazeer/eVoting-sub000/middleware"
	"github.com/ahamednazeer/eVoting-sub000/tally"
)

type ResultsHandler struct {
	aggregator *tally.Aggregator
}

func NewResultsHandler(aggregator *tally.Aggregator) *ResultsHandler {
	return &ResultsHandler{aggregator: aggregator}
}

// GetResults handles GET /elections/{id}/results
// Candidate counts are sealed until the election is COMPLETED.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	result, err := h.aggregator.GetResults(r.Context(), electionID)
	if errors.Is(err, tally.ErrElectionNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to compute results", "election_id", electionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, result)
}

// GetDashboard handles GET /admin/dashboard
func (h *ResultsHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.aggregator.DashboardStats(r.Context())
	if err != nil {
		slog.Error("failed to compute dashboard stats", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, stats)
}
