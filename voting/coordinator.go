// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ahamednazeer/eVoting-sub000/db"
	"github.com/ahamednazeer/eVoting-sub000/eligibility"
	"github.com/ahamednazeer/eVoting-sub000/models"
	"github.com/ahamednazeer/eVoting-sub000/store"
)

const DefaultTxTimeout = 5 * time.Second

var errVoterChanged = errors.New("voter state changed during transaction")

type Coordinator struct {
	db        *sql.DB
	store     *store.Store
	validator *eligibility.Validator
	timeout   time.Duration
	logger    *slog.Logger
	newID     func() string
}

type Option func(*Coordinator)

// WithTimeout bounds each attempt, lock waits included.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewCoordinator(conn *sql.DB, s *store.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		db:        conn,
		store:     s,
		validator: eligibility.NewValidator(s),
		timeout:   DefaultTxTimeout,
		logger:    slog.Default(),
		// Random v4 ids carry no ordering that could be matched against
		// the order in which voters were marked.
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CastVote records one anonymous vote for the voter, or explains why not.
//
// Eligibility is evaluated and both writes are made inside a single
// transaction at the engine's strictest isolation, so two concurrent attempts
// for one voter cannot both commit. Anything that goes wrong after the checks
// pass, commit conflicts included, is reported as TransientFailure and
// nothing is persisted.
func (c *Coordinator) CastVote(ctx context.Context, voterID, candidateID, electionID string) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tx, err := c.db.BeginTx(ctx, c.store.Dialect().WriteTxOptions())
	if err != nil {
		return c.transient("begin", voterID, electionID, err)
	}
	// Rollback after Commit is a no-op; this covers every early return.
	defer tx.Rollback()

	ballot := eligibility.Ballot{
		VoterID:     voterID,
		CandidateID: candidateID,
		ElectionID:  electionID,
	}
	if err := c.validator.Check(ctx, tx, ballot); err != nil {
		if !eligibility.IsRejection(err) {
			return c.transient("check", voterID, electionID, err)
		}
		o := outcomeFor(err)
		c.logger.Info("vote rejected",
			"voter_id", voterID,
			"election_id", electionID,
			"outcome", o.String(),
		)
		return newResult(o)
	}

	vote := models.Vote{
		ID:          c.newID(),
		CandidateID: candidateID,
		ElectionID:  electionID,
	}
	if err := c.store.InsertVote(ctx, tx, vote); err != nil {
		return c.transient("insert", voterID, electionID, err)
	}

	marked, err := c.store.MarkVoted(ctx, tx, voterID)
	if err != nil {
		return c.transient("mark", voterID, electionID, err)
	}
	if !marked {
		// The checks saw has_voted = false in this transaction; a concurrent
		// writer got there first.
		return c.transient("mark", voterID, electionID, errVoterChanged)
	}

	if err := tx.Commit(); err != nil {
		return c.transient("commit", voterID, electionID, err)
	}

	// Never log the voter and the candidate together.
	c.logger.Info("vote cast", "election_id", electionID)

	return newResult(Success)
}

func (c *Coordinator) transient(stage, voterID, electionID string, err error) Result {
	level := slog.LevelError
	if db.IsSerializationFailure(err) ||
		errors.Is(err, errVoterChanged) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		level = slog.LevelWarn
	}
	c.logger.Log(context.Background(), level, "vote transaction failed",
		"stage", stage,
		"voter_id", voterID,
		"election_id", electionID,
		"error", err,
	)
	return newResult(TransientFailure)
}
