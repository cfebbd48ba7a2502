// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-jwt-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims VoterClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return s
}

func TestParseVoterToken(t *testing.T) {
	valid := VoterClaims{
		VoterID:      "voter-1",
		ElectionID:   "election-1",
		Constituency: "North",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	expired := valid
	expired.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	noVoter := valid
	noVoter.VoterID = ""

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"valid token", signToken(t, jwt.SigningMethodHS256, []byte(testSecret), valid), false},
		{"wrong secret", signToken(t, jwt.SigningMethodHS256, []byte("other"), valid), true},
		{"expired", signToken(t, jwt.SigningMethodHS256, []byte(testSecret), expired), true},
		{"missing voter_id", signToken(t, jwt.SigningMethodHS256, []byte(testSecret), noVoter), true},
		{"unsigned", signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid), true},
		{"garbage", "not-a-token", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseVoterToken(tt.token, testSecret)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ParseVoterToken() expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidToken) {
					t.Errorf("ParseVoterToken() error = %v, want ErrInvalidToken", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVoterToken() error = %v", err)
			}
			if claims.VoterID != "voter-1" || claims.ElectionID != "election-1" || claims.Constituency != "North" {
				t.Errorf("ParseVoterToken() claims = %+v", claims)
			}
		})
	}
}

func TestValidateAdminKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-key"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash key: %v", err)
	}

	tests := []struct {
		name    string
		key     string
		hash    string
		wantErr bool
	}{
		{"valid key", "correct-key", string(hash), false},
		{"wrong key", "wrong-key", string(hash), true},
		{"empty key", "", string(hash), true},
		{"no hash configured", "correct-key", "", true},
		{"malformed hash", "correct-key", "not-bcrypt", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAdminKey(tt.key, tt.hash)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAdminKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && err != ErrInvalidAdminKey {
				t.Errorf("ValidateAdminKey() error = %v, want ErrInvalidAdminKey", err)
			}
		})
	}
}

func TestHashIP(t *testing.T) {
	tests := []struct {
		name string
		ip   string
		salt string
	}{
		{"IPv4", "192.168.1.1", "ip-salt"},
		{"IPv6", "2001:0db8:85a3::8a2e:0370:7334", "ip-salt"},
		{"localhost", "127.0.0.1", "ip-salt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash := HashIP(tt.ip, tt.salt)

			// Should not be empty
			if hash == "" {
				t.Error("HashIP() returned empty string")
			}

			// Should be 16 hex characters (8 bytes * 2)
			if len(hash) != 16 {
				t.Errorf("HashIP() length = %d, want 16", len(hash))
			}

			// Should be valid hex
			for _, c := range hash {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("HashIP() contains invalid hex char: %c", c)
				}
			}

			// Should be deterministic
			hash2 := HashIP(tt.ip, tt.salt)
			if hash != hash2 {
				t.Error("HashIP() is not deterministic")
			}
		})
	}

	// Different IPs should produce different hashes
	hash1 := HashIP("192.168.1.1", "salt")
	hash2 := HashIP("192.168.1.2", "salt")
	if hash1 == hash2 {
		t.Error("HashIP() produced same hash for different IPs")
	}

	// Different salts should produce different hashes
	hash3 := HashIP("192.168.1.1", "salt1")
	hash4 := HashIP("192.168.1.1", "salt2")
	if hash3 == hash4 {
		t.Error("HashIP() produced same hash for different salts")
	}
}

// Benchmark tests
func BenchmarkHashIP(b *testing.B) {
	for i := 0; i < b.N; i++ {
		HashIP("192.168.1.1", "salt")
	}
}
