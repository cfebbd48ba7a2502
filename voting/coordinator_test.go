// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ahamednazeer/eVoting-sub000/db"
	"github.com/ahamednazeer/eVoting-sub000/eligibility"
	"github.com/ahamednazeer/eVoting-sub000/models"
	"github.com/ahamednazeer/eVoting-sub000/store"
	"github.com/ahamednazeer/eVoting-sub000/testutil"
)

type fixture struct {
	db         *sql.DB
	election   string
	north      string
	south      string
	northVoter string
}

func setup(t *testing.T) fixture {
	t.Helper()
	return setupOn(t, testutil.SetupTestDB(t))
}

func setupOn(t *testing.T, conn *sql.DB) fixture {
	t.Helper()

	election := testutil.CreateTestElection(t, conn, models.StatusActive)
	return fixture{
		db:         conn,
		election:   election,
		north:      testutil.AddTestCandidate(t, conn, election, "North", "Asha"),
		south:      testutil.AddTestCandidate(t, conn, election, "South", "Bala"),
		northVoter: testutil.AddTestVoter(t, conn, election, "North", "Voter"),
	}
}

func TestCastVoteSuccess(t *testing.T) {
	f := setup(t)
	c := NewCoordinator(f.db, testutil.NewTestStore())

	res := c.CastVote(context.Background(), f.northVoter, f.north, f.election)

	if !res.Success() {
		t.Fatalf("Expected success, got %s: %s", res.Outcome, res.Message)
	}
	if res.Message != "Vote cast successfully" {
		t.Errorf("Unexpected message %q", res.Message)
	}
	if res.Err() != nil {
		t.Errorf("Expected nil Err on success, got %v", res.Err())
	}
	if !testutil.HasVoted(t, f.db, f.northVoter) {
		t.Error("Voter should be marked as voted")
	}
	if n := testutil.CountVotes(t, f.db, f.election); n != 1 {
		t.Errorf("Expected 1 vote, got %d", n)
	}
}

func TestCastVoteRetryAfterSuccess(t *testing.T) {
	f := setup(t)
	c := NewCoordinator(f.db, testutil.NewTestStore())

	if res := c.CastVote(context.Background(), f.northVoter, f.north, f.election); !res.Success() {
		t.Fatalf("Expected first vote to succeed, got %s", res.Outcome)
	}

	for i := 0; i < 3; i++ {
		res := c.CastVote(context.Background(), f.northVoter, f.north, f.election)
		if res.Outcome != AlreadyVoted {
			t.Errorf("Attempt %d: expected AlreadyVoted, got %s", i+2, res.Outcome)
		}
	}

	if n := testutil.CountVotes(t, f.db, f.election); n != 1 {
		t.Errorf("Expected 1 vote after retries, got %d", n)
	}
}

func TestCastVoteRejectionsLeaveNoTrace(t *testing.T) {
	f := setup(t)
	c := NewCoordinator(f.db, testutil.NewTestStore())

	testCases := []struct {
		name      string
		voter     string
		candidate string
		election  string
		expected  Outcome
	}{
		{"unknown voter", "missing", f.north, f.election, VoterNotFound},
		{"wrong election", f.northVoter, f.north, "elsewhere", WrongElection},
		{"unknown candidate", f.northVoter, "missing", f.election, InvalidCandidate},
		{"constituency mismatch", f.northVoter, f.south, f.election, ConstituencyMismatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := c.CastVote(context.Background(), tc.voter, tc.candidate, tc.election)
			if res.Outcome != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, res.Outcome)
			}
			if res.Message != outcomeErrors[tc.expected].Error() {
				t.Errorf("Expected message %q, got %q", outcomeErrors[tc.expected].Error(), res.Message)
			}
		})
	}

	if testutil.HasVoted(t, f.db, f.northVoter) {
		t.Error("Rejected attempts must not mark the voter")
	}
	if n := testutil.CountVotes(t, f.db, f.election); n != 0 {
		t.Errorf("Rejected attempts must not write votes, got %d", n)
	}

	// Still free to vote after the rejections.
	if res := c.CastVote(context.Background(), f.northVoter, f.north, f.election); !res.Success() {
		t.Errorf("Expected success after rejections, got %s", res.Outcome)
	}
}

func TestCastVoteElectionNotActive(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	c := NewCoordinator(conn, testutil.NewTestStore())

	election := testutil.CreateTestElection(t, conn, models.StatusDraft)
	candidate := testutil.AddTestCandidate(t, conn, election, "North", "Asha")
	voter := testutil.AddTestVoter(t, conn, election, "North", "Voter")

	if res := c.CastVote(context.Background(), voter, candidate, election); res.Outcome != ElectionNotActive {
		t.Errorf("DRAFT: expected ElectionNotActive, got %s", res.Outcome)
	}

	testutil.SetElectionStatus(t, conn, election, models.StatusActive)
	testutil.SetElectionStatus(t, conn, election, models.StatusCompleted)

	if res := c.CastVote(context.Background(), voter, candidate, election); res.Outcome != ElectionNotActive {
		t.Errorf("COMPLETED: expected ElectionNotActive, got %s", res.Outcome)
	}
}

// A failure after the vote row is written must roll the whole attempt back.
func TestCastVoteAtomicity(t *testing.T) {
	testutil.ForEachDialect(t, func(t *testing.T, b testutil.Backend) {
		f := setupOn(t, b.DB)
		second := testutil.AddTestVoter(t, f.db, f.election, "North", "Second")

		c := NewCoordinator(f.db, b.Store)
		c.newID = func() string { return "fixed-vote-id" }

		if res := c.CastVote(context.Background(), f.northVoter, f.north, f.election); !res.Success() {
			t.Fatalf("Expected first vote to succeed, got %s", res.Outcome)
		}

		// Same vote id again: the insert hits the primary key.
		res := c.CastVote(context.Background(), second, f.north, f.election)
		if res.Outcome != TransientFailure {
			t.Fatalf("Expected TransientFailure, got %s", res.Outcome)
		}
		if !res.Outcome.Retryable() {
			t.Error("TransientFailure must be retryable")
		}
		if res.Err() != ErrTransient {
			t.Errorf("Expected ErrTransient, got %v", res.Err())
		}

		if testutil.HasVoted(t, f.db, second) {
			t.Error("Failed attempt must not mark the voter")
		}
		if n := testutil.CountVotes(t, f.db, f.election); n != 1 {
			t.Errorf("Expected 1 vote, got %d", n)
		}

		// The retry with a fresh id succeeds.
		c.newID = func() string { return "another-vote-id" }
		if res := c.CastVote(context.Background(), second, f.north, f.election); !res.Success() {
			t.Errorf("Expected retry to succeed, got %s", res.Outcome)
		}
	})
}

func TestCastVoteCanceledContext(t *testing.T) {
	f := setup(t)
	c := NewCoordinator(f.db, testutil.NewTestStore())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := c.CastVote(ctx, f.northVoter, f.north, f.election)
	if res.Outcome != TransientFailure {
		t.Errorf("Expected TransientFailure, got %s", res.Outcome)
	}
	if testutil.HasVoted(t, f.db, f.northVoter) {
		t.Error("Canceled attempt must not mark the voter")
	}
}

func TestCastVoteTimeoutWhileLocked(t *testing.T) {
	f := setup(t)

	// Hold the write lock so the attempt cannot begin its own transaction.
	blocker, err := f.db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("Failed to begin blocking transaction: %v", err)
	}
	defer blocker.Rollback()

	c := NewCoordinator(f.db, testutil.NewTestStore(), WithTimeout(100*time.Millisecond))
	res := c.CastVote(context.Background(), f.northVoter, f.north, f.election)
	if res.Outcome != TransientFailure {
		t.Errorf("Expected TransientFailure while locked, got %s", res.Outcome)
	}

	blocker.Rollback()
	if res := c.CastVote(context.Background(), f.northVoter, f.north, f.election); !res.Success() {
		t.Errorf("Expected success once the lock is released, got %s", res.Outcome)
	}
}

func TestConcurrentSameVoter(t *testing.T) {
	testutil.ForEachDialect(t, func(t *testing.T, b testutil.Backend) {
		f := setupOn(t, b.DB)
		c := NewCoordinator(f.db, b.Store)

		attempts := 10
		var success, already, transient atomic.Int32
		var wg sync.WaitGroup

		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				switch res := c.CastVote(context.Background(), f.northVoter, f.north, f.election); res.Outcome {
				case Success:
					success.Add(1)
				case AlreadyVoted:
					already.Add(1)
				case TransientFailure:
					transient.Add(1)
				default:
					t.Errorf("Unexpected outcome %s", res.Outcome)
				}
			}()
		}
		wg.Wait()

		if success.Load() != 1 {
			t.Errorf("Expected exactly 1 success, got %d", success.Load())
		}
		if got := success.Load() + already.Load() + transient.Load(); int(got) != attempts {
			t.Errorf("Expected %d outcomes, got %d", attempts, got)
		}
		if n := testutil.CountVotes(t, f.db, f.election); n != 1 {
			t.Errorf("Expected exactly 1 vote row, got %d", n)
		}
	})
}

// Closing the election waits for a ballot that has already passed the
// status check, so no vote lands after the close.
func TestCloseWaitsForCheckedBallot(t *testing.T) {
	testutil.ForEachDialect(t, func(t *testing.T, b testutil.Backend) {
		f := setupOn(t, b.DB)
		ctx := context.Background()

		tx, err := f.db.BeginTx(ctx, b.Store.Dialect().WriteTxOptions())
		if err != nil {
			t.Fatalf("Failed to begin ballot: %v", err)
		}
		defer tx.Rollback()

		ballot := eligibility.Ballot{VoterID: f.northVoter, CandidateID: f.north, ElectionID: f.election}
		if err := eligibility.NewValidator(b.Store).Check(ctx, tx, ballot); err != nil {
			t.Fatalf("Expected eligible ballot, got %v", err)
		}

		closed := make(chan error, 1)
		go func() {
			_, err := b.Store.AdvanceStatus(ctx, f.db, f.election, models.StatusActive, models.StatusCompleted)
			closed <- err
		}()

		select {
		case err := <-closed:
			t.Fatalf("Election closed while a checked ballot was open (err %v)", err)
		case <-time.After(200 * time.Millisecond):
		}

		if err := b.Store.InsertVote(ctx, tx, models.Vote{ID: "checked", CandidateID: f.north, ElectionID: f.election}); err != nil {
			t.Fatalf("InsertVote failed: %v", err)
		}
		if _, err := b.Store.MarkVoted(ctx, tx, f.northVoter); err != nil {
			t.Fatalf("MarkVoted failed: %v", err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("Ballot commit failed: %v", err)
		}

		if err := <-closed; err != nil {
			t.Fatalf("Close failed after the ballot committed: %v", err)
		}

		election, err := b.Store.Election(ctx, f.db, f.election)
		if err != nil {
			t.Fatalf("Failed to load election: %v", err)
		}
		if election.Status != models.StatusCompleted {
			t.Errorf("Expected COMPLETED, got %s", election.Status)
		}
		if n := testutil.CountVotes(t, f.db, f.election); n != 1 {
			t.Errorf("Expected the checked ballot to be counted, got %d", n)
		}
	})
}

// A ballot whose snapshot predates the close cannot act on the stale status.
func TestBallotAfterCloseIsTransient(t *testing.T) {
	conn := testutil.SetupPostgresDB(t)
	s := store.New(db.Postgres)
	f := setupOn(t, conn)
	ctx := context.Background()

	tx, err := conn.BeginTx(ctx, s.Dialect().WriteTxOptions())
	if err != nil {
		t.Fatalf("Failed to begin ballot: %v", err)
	}
	defer tx.Rollback()

	// Pin the snapshot while the election is still ACTIVE.
	if _, err := s.Voter(ctx, tx, f.northVoter); err != nil {
		t.Fatalf("Failed to read voter: %v", err)
	}

	if changed, err := s.AdvanceStatus(ctx, conn, f.election, models.StatusActive, models.StatusCompleted); err != nil || !changed {
		t.Fatalf("Failed to close election: %v, %v", changed, err)
	}

	ballot := eligibility.Ballot{VoterID: f.northVoter, CandidateID: f.north, ElectionID: f.election}
	err = eligibility.NewValidator(s).Check(ctx, tx, ballot)
	if err == nil {
		t.Fatal("Expected the stale ballot to fail")
	}
	if eligibility.IsRejection(err) || !db.IsSerializationFailure(err) {
		t.Errorf("Expected a serialization failure, got %v", err)
	}
}

func TestConstituencyIsolation(t *testing.T) {
	f := setup(t)
	southVoter := testutil.AddTestVoter(t, f.db, f.election, "South", "Southerner")
	c := NewCoordinator(f.db, testutil.NewTestStore())

	if res := c.CastVote(context.Background(), southVoter, f.north, f.election); res.Outcome != ConstituencyMismatch {
		t.Errorf("Expected ConstituencyMismatch, got %s", res.Outcome)
	}
	if res := c.CastVote(context.Background(), southVoter, f.south, f.election); !res.Success() {
		t.Errorf("Expected success in own constituency, got %s", res.Outcome)
	}
	if res := c.CastVote(context.Background(), f.northVoter, f.south, f.election); res.Outcome != ConstituencyMismatch {
		t.Errorf("Expected ConstituencyMismatch, got %s", res.Outcome)
	}
}

func TestLogsNeverPairVoterWithCandidate(t *testing.T) {
	f := setup(t)

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := NewCoordinator(f.db, testutil.NewTestStore(), WithLogger(log))

	c.CastVote(context.Background(), f.northVoter, f.north, f.election)
	c.CastVote(context.Background(), f.northVoter, f.north, f.election)
	c.CastVote(context.Background(), f.northVoter, f.south, f.election)

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.Contains(line, f.north) || strings.Contains(line, f.south) {
			t.Errorf("Log line mentions a candidate: %s", line)
		}
	}
	if !strings.Contains(buf.String(), `"msg":"vote cast"`) {
		t.Errorf("Expected a vote cast log line, got %s", buf.String())
	}
}
