// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth verifies the identities presented to the API.

# Voter Tokens

Voters authenticate with an HS256 JWT issued by the identity provider (OTP
verification and signing happen elsewhere):

	claims, err := auth.ParseVoterToken(bearer, cfg.JWTSecret)

Claims carry voter_id, election_id and constituency. They identify the
caller only; eligibility is always re-checked against storage.

# Admin Keys

The admin key is configured as a bcrypt hash (ADMIN_KEY_HASH) and checked
with:

	err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), cfg.AdminKeyHash)

# IP Hashing

For privacy-preserving rate limiting of unauthenticated callers:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
