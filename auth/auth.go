// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrInvalidToken    = errors.New("invalid token")
)

// VoterClaims is what the identity provider asserts about an authenticated
// voter. The vote transaction still re-reads the voter from storage; these
// claims only say who is asking.
type VoterClaims struct {
	VoterID      string `json:"voter_id"`
	ElectionID   string `json:"election_id"`
	Constituency string `json:"constituency"`
	jwt.RegisteredClaims
}

// ParseVoterToken verifies an HS256 token signed with secret and returns its
// claims. Expired tokens and tokens without a voter_id are rejected.
func ParseVoterToken(tokenString, secret string) (*VoterClaims, error) {
	claims := &VoterClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.VoterID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateAdminKey checks the presented admin key against its bcrypt hash.
func ValidateAdminKey(adminKey, hash string) error {
	if adminKey == "" || hash == "" {
		return ErrInvalidAdminKey
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(adminKey)); err != nil {
		return ErrInvalidAdminKey
	}
	return nil
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}
