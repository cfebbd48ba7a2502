// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the e-voting API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(router.Deps{
		DB:          db,
		Store:       s,
		Coordinator: coordinator,
		Aggregator:  aggregator,
		Limiter:     limiter,
	}, cfg)

# Endpoints

Health:

	GET /health

Voting (Authorization: Bearer <voter token>, rate limited per voter):

	POST /elections/{id}/votes - Cast a vote

Results (public):

	GET /elections/{id}/results - Tally, sealed until COMPLETED

Administration (requires X-Admin-Key):

	GET  /admin/dashboard                 - Aggregate stats
	POST /admin/elections                 - Create election (DRAFT)
	POST /admin/elections/{id}/status     - Advance status
	POST /admin/elections/{id}/candidates - Add candidate
	POST /admin/elections/{id}/voters     - Register voter

Every route except /health and / is wrapped in middleware.WithLogging.
*/
package router
