// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ahamednazeer/eVoting-sub000/auth"
)

type contextKey int

const voterClaimsKey contextKey = iota

// WithVoter stores verified voter claims on the context.
func WithVoter(ctx context.Context, claims *auth.VoterClaims) context.Context {
	return context.WithValue(ctx, voterClaimsKey, claims)
}

// VoterFromContext returns the claims stored by RequireVoter.
func VoterFromContext(ctx context.Context) (*auth.VoterClaims, bool) {
	claims, ok := ctx.Value(voterClaimsKey).(*auth.VoterClaims)
	return claims, ok && claims != nil
}

// RequireVoter rejects requests without a valid "Authorization: Bearer" voter token.
func RequireVoter(secret string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			ErrorResponse(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		claims, err := auth.ParseVoterToken(token, secret)
		if err != nil {
			ErrorResponse(w, http.StatusUnauthorized, "Invalid voter token")
			return
		}

		next(w, r.WithContext(WithVoter(r.Context(), claims)))
	}
}

// RequireAdmin rejects requests whose X-Admin-Key does not match the configured hash.
func RequireAdmin(keyHash string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), keyHash); err != nil {
			ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
			return
		}
		next(w, r)
	}
}

// Allower is satisfied by *ratelimit.Limiter.
type Allower interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit answers 429 once key(r) has used up its attempts. If the counter
// backend is unreachable the request is let through; the vote transaction
// does not depend on the limiter for correctness.
func RateLimit(limiter Allower, key func(*http.Request) string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		allowed, err := limiter.Allow(r.Context(), key(r))
		if err != nil {
			slog.Warn("rate limiter unavailable", "path", r.URL.Path, "error", err)
			next(w, r)
			return
		}
		if !allowed {
			ErrorResponse(w, http.StatusTooManyRequests, "Too many attempts, please wait before retrying")
			return
		}
		next(w, r)
	}
}

// VoterOrIPKey keys rate limits by voter id when a voter token has been
// verified, and by a salted hash of the client IP otherwise.
func VoterOrIPKey(salt string) func(*http.Request) string {
	return func(r *http.Request) string {
		if claims, ok := VoterFromContext(r.Context()); ok {
			return "voter:" + claims.VoterID
		}
		return "ip:" + auth.HashIP(GetClientIP(r), salt)
	}
}
