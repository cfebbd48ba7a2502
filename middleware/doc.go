// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs method, path, status and duration_ms on completion. Request bodies are
never logged, so a cast request's candidate never reaches the logs.

# Authentication

	mux.HandleFunc("POST /elections/{id}/votes", middleware.RequireVoter(secret, h))
	mux.HandleFunc("GET /admin/dashboard", middleware.RequireAdmin(hash, h))

RequireVoter verifies the bearer JWT and stores its claims on the request
context (VoterFromContext). RequireAdmin checks X-Admin-Key against a bcrypt
hash.

# Rate Limiting

	middleware.RateLimit(limiter, middleware.VoterOrIPKey(salt), h)

Answers 429 when the key is over its budget. Limiter errors fail open.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

ParseJSONBody decodes at most 64 KiB.

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)
*/
package middleware
