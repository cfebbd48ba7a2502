// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/ahamednazeer/eVoting-sub000/auth"
	"github.com/ahamednazeer/eVoting-sub000/cliparse"
	"github.com/ahamednazeer/eVoting-sub000/db"
	"github.com/ahamednazeer/eVoting-sub000/models"
	"github.com/ahamednazeer/eVoting-sub000/store"
)

const (
	TestJWTSecret = "test-jwt-secret"
	TestAdminKey  = "test-admin-key"
)

// SetupTestDB creates a fresh SQLite database file with the full schema.
// The file lives in t.TempDir and disappears with the test.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "evoting_test.db")
	conn, err := db.Open(db.SQLite, "file:"+path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn, db.SQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// NewTestStore returns a Store for the SQLite test database.
func NewTestStore() *store.Store {
	return store.New(db.SQLite)
}

// TestDBURLEnv names the variable holding a Postgres URL for the tests that
// also run against Postgres. They skip when it is unset.
const TestDBURLEnv = "EVOTING_TEST_DATABASE_URL"

// SetupPostgresDB opens the Postgres database named by TestDBURLEnv inside a
// fresh schema with the full schema and guards, dropped when the test ends.
func SetupPostgresDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv(TestDBURLEnv)
	if url == "" {
		t.Skip(TestDBURLEnv + " not set")
	}

	admin, err := sql.Open("postgres", url)
	if err != nil {
		t.Fatalf("Failed to open Postgres: %v", err)
	}

	schema := "evoting_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := admin.Exec(`CREATE SCHEMA ` + pq.QuoteIdentifier(schema)); err != nil {
		admin.Close()
		t.Fatalf("Failed to create test schema: %v", err)
	}

	conn, err := db.Open(db.Postgres, withSearchPath(url, schema))
	t.Cleanup(func() {
		if conn != nil {
			conn.Close()
		}
		if _, err := admin.Exec(`DROP SCHEMA ` + pq.QuoteIdentifier(schema) + ` CASCADE`); err != nil {
			t.Logf("Failed to drop test schema %s: %v", schema, err)
		}
		admin.Close()
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.CreateSchema(conn, db.Postgres); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// withSearchPath passes search_path as a startup parameter so every pooled
// connection lands in the test schema.
func withSearchPath(dsn, schema string) string {
	if !strings.Contains(dsn, "://") {
		return dsn + " search_path=" + schema
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&search_path=" + schema
	}
	return dsn + "?search_path=" + schema
}

// Backend is one storage engine under test.
type Backend struct {
	DB    *sql.DB
	Store *store.Store
}

// ForEachDialect runs fn as a subtest per engine: SQLite always, Postgres
// when TestDBURLEnv is set.
func ForEachDialect(t *testing.T, fn func(t *testing.T, b Backend)) {
	t.Helper()

	t.Run(string(db.SQLite), func(t *testing.T) {
		fn(t, Backend{DB: SetupTestDB(t), Store: store.New(db.SQLite)})
	})
	t.Run(string(db.Postgres), func(t *testing.T) {
		fn(t, Backend{DB: SetupPostgresDB(t), Store: store.New(db.Postgres)})
	})
}

var adminKeyHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte(TestAdminKey), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}()

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  "file::memory:",
		DatabaseType: "sqlite",
		AdminKeyHash: adminKeyHash,
		JWTSecret:    TestJWTSecret,
		IPHashSalt:   "test-ip-salt",
		LogLevel:     "debug",
		TxTimeout:    5 * time.Second,
		RateLimit: cliparse.RateLimitConfig{
			Backend:  "memory",
			Attempts: 1000,
			Window:   time.Second,
		},
	}
}

// CreateTestElection inserts an election with the given status and returns its ID.
func CreateTestElection(t *testing.T, conn *sql.DB, status string) string {
	t.Helper()

	id := uuid.NewString()
	err := NewTestStore().CreateElection(context.Background(), conn, models.Election{
		ID:     id,
		Name:   "Election " + id[:8],
		Status: status,
	})
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}
	return id
}

// SetElectionStatus forces an election's status, bypassing the lifecycle
// rules. Only forward moves pass the schema triggers.
func SetElectionStatus(t *testing.T, conn *sql.DB, electionID, status string) {
	t.Helper()

	if _, err := conn.Exec(`UPDATE election SET status = $1 WHERE id = $2`, status, electionID); err != nil {
		t.Fatalf("Failed to set election status: %v", err)
	}
}

// AddTestCandidate adds a candidate and returns its ID.
func AddTestCandidate(t *testing.T, conn *sql.DB, electionID, constituency, name string) string {
	t.Helper()

	id := uuid.NewString()
	err := NewTestStore().CreateCandidate(context.Background(), conn, models.Candidate{
		ID:           id,
		ElectionID:   electionID,
		Constituency: constituency,
		Name:         name,
		Party:        name + " Party",
		Symbol:       "symbol-" + name,
	})
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}
	return id
}

// AddTestVoter registers a voter who has not voted and returns its ID.
func AddTestVoter(t *testing.T, conn *sql.DB, electionID, constituency, name string) string {
	t.Helper()

	id := uuid.NewString()
	err := NewTestStore().CreateVoter(context.Background(), conn, models.Voter{
		ID:           id,
		ElectionID:   electionID,
		Constituency: constituency,
		Mobile:       "+10000000000",
		Name:         name,
	})
	if err != nil {
		t.Fatalf("Failed to create test voter: %v", err)
	}
	return id
}

// InsertTestVote writes a vote row directly, bypassing the coordinator.
func InsertTestVote(t *testing.T, conn *sql.DB, electionID, candidateID string) {
	t.Helper()

	err := NewTestStore().InsertVote(context.Background(), conn, models.Vote{
		ID:          uuid.NewString(),
		CandidateID: candidateID,
		ElectionID:  electionID,
	})
	if err != nil {
		t.Fatalf("Failed to insert test vote: %v", err)
	}
}

// CountVotes returns the number of vote rows for an election.
func CountVotes(t *testing.T, conn *sql.DB, electionID string) int {
	t.Helper()

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM vote WHERE election_id = $1`, electionID).Scan(&n); err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	return n
}

// HasVoted reads a voter's has_voted flag.
func HasVoted(t *testing.T, conn *sql.DB, voterID string) bool {
	t.Helper()

	var voted bool
	if err := conn.QueryRow(`SELECT has_voted FROM voter WHERE id = $1`, voterID).Scan(&voted); err != nil {
		t.Fatalf("Failed to read has_voted: %v", err)
	}
	return voted
}

// VoterToken signs a voter JWT with the test secret.
func VoterToken(t *testing.T, voterID, electionID, constituency string) string {
	t.Helper()

	claims := auth.VoterClaims{
		VoterID:      voterID,
		ElectionID:   electionID,
		Constituency: constituency,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(TestJWTSecret))
	if err != nil {
		t.Fatalf("Failed to sign voter token: %v", err)
	}
	return token
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
