// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/ahamednazeer/eVoting-sub000/cliparse"
	"github.com/ahamednazeer/eVoting-sub000/handlers"
	"github.com/ahamednazeer/eVoting-sub000/middleware"
	"github.com/ahamednazeer/eVoting-sub000/store"
	"github.com/ahamednazeer/eVoting-sub000/tally"
	"github.com/ahamednazeer/eVoting-sub000/voting"
)

type Deps struct {
	DB          *sql.DB
	Store       *store.Store
	Coordinator *voting.Coordinator
	Aggregator  *tally.Aggregator
	Limiter     middleware.Allower
}

func NewRouter(deps Deps, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	votingHandler := handlers.NewVotingHandler(deps.Coordinator)
	resultsHandler := handlers.NewResultsHandler(deps.Aggregator)
	adminHandler := handlers.NewAdminHandler(deps.DB, deps.Store)

	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(cfg.AdminKeyHash, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Voting (voter token, rate limited per voter)
	mux.HandleFunc("POST /elections/{id}/votes", middleware.WithLogging(
		middleware.RequireVoter(cfg.JWTSecret,
			middleware.RateLimit(deps.Limiter, middleware.VoterOrIPKey(cfg.IPHashSalt),
				votingHandler.CastVote))))

	// Results (public, sealed until COMPLETED)
	mux.HandleFunc("GET /elections/{id}/results", middleware.WithLogging(resultsHandler.GetResults))

	// Administration
	mux.HandleFunc("GET /admin/dashboard", admin(resultsHandler.GetDashboard))
	mux.HandleFunc("POST /admin/elections", admin(adminHandler.CreateElection))
	mux.HandleFunc("POST /admin/elections/{id}/status", admin(adminHandler.UpdateStatus))
	mux.HandleFunc("POST /admin/elections/{id}/candidates", admin(adminHandler.AddCandidate))
	mux.HandleFunc("POST /admin/elections/{id}/voters", admin(adminHandler.AddVoter))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("evoting API v1"))
	})

	return mux
}
