// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ahamednazeer/eVoting-sub000/db"
	"github.com/ahamednazeer/eVoting-sub000/models"
)

var (
	ErrVoterNotFound     = errors.New("voter not found")
	ErrElectionNotFound  = errors.New("election not found")
	ErrCandidateNotFound = errors.New("candidate not found")
)

// Querier is satisfied by both *sql.DB and *sql.Tx. Every Store method takes
// one explicitly, so reads made during a vote go through the caller's
// transaction and never through a side connection.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	dialect db.Dialect
}

func New(d db.Dialect) *Store {
	return &Store{dialect: d}
}

func (s *Store) Dialect() db.Dialect {
	return s.dialect
}

// VoterForUpdate reads a voter and, where the engine supports it, locks the
// row until the surrounding transaction ends.
func (s *Store) VoterForUpdate(ctx context.Context, q Querier, id string) (models.Voter, error) {
	return s.voter(ctx, q, id, s.dialect.LockClause())
}

func (s *Store) Voter(ctx context.Context, q Querier, id string) (models.Voter, error) {
	return s.voter(ctx, q, id, "")
}

func (s *Store) voter(ctx context.Context, q Querier, id, lock string) (models.Voter, error) {
	var v models.Voter
	err := q.QueryRowContext(ctx, `
		SELECT id, election_id, constituency, mobile, has_voted, name
		FROM voter
		WHERE id = $1`+lock,
		id,
	).Scan(&v.ID, &v.ElectionID, &v.Constituency, &v.Mobile, &v.HasVoted, &v.Name)

	if err == sql.ErrNoRows {
		return models.Voter{}, ErrVoterNotFound
	}
	if err != nil {
		return models.Voter{}, fmt.Errorf("failed to query voter: %w", err)
	}
	return v, nil
}

func (s *Store) Election(ctx context.Context, q Querier, id string) (models.Election, error) {
	return s.election(ctx, q, id, "")
}

// ElectionForShare reads an election and keeps its status from changing
// until the surrounding transaction ends.
func (s *Store) ElectionForShare(ctx context.Context, q Querier, id string) (models.Election, error) {
	return s.election(ctx, q, id, s.dialect.ShareClause())
}

// ElectionForUpdate reads an election that the transaction is about to modify.
func (s *Store) ElectionForUpdate(ctx context.Context, q Querier, id string) (models.Election, error) {
	return s.election(ctx, q, id, s.dialect.LockClause())
}

func (s *Store) election(ctx context.Context, q Querier, id, lock string) (models.Election, error) {
	var e models.Election
	var start, end sql.NullTime
	err := q.QueryRowContext(ctx, `
		SELECT id, name, status, constituency, start_date, end_date
		FROM election
		WHERE id = $1`+lock,
		id,
	).Scan(&e.ID, &e.Name, &e.Status, &e.Constituency, &start, &end)

	if err == sql.ErrNoRows {
		return models.Election{}, ErrElectionNotFound
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to query election: %w", err)
	}

	if start.Valid {
		e.StartDate = &start.Time
	}
	if end.Valid {
		e.EndDate = &end.Time
	}
	return e, nil
}

func (s *Store) Candidate(ctx context.Context, q Querier, id string) (models.Candidate, error) {
	var c models.Candidate
	err := q.QueryRowContext(ctx, `
		SELECT id, election_id, constituency, name, party, symbol
		FROM candidate
		WHERE id = $1
	`, id).Scan(&c.ID, &c.ElectionID, &c.Constituency, &c.Name, &c.Party, &c.Symbol)

	if err == sql.ErrNoRows {
		return models.Candidate{}, ErrCandidateNotFound
	}
	if err != nil {
		return models.Candidate{}, fmt.Errorf("failed to query candidate: %w", err)
	}
	return c, nil
}

// ListCandidates returns the election's candidates ordered by name, then id.
func (s *Store) ListCandidates(ctx context.Context, q Querier, electionID string) ([]models.Candidate, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, election_id, constituency, name, party, symbol
		FROM candidate
		WHERE election_id = $1
		ORDER BY name, id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.ElectionID, &c.Constituency, &c.Name, &c.Party, &c.Symbol); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candidates: %w", err)
	}
	return candidates, nil
}

// InsertVote appends a vote row. Only the candidate and election are stored.
func (s *Store) InsertVote(ctx context.Context, q Querier, v models.Vote) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO vote (id, candidate_id, election_id)
		VALUES ($1, $2, $3)
	`, v.ID, v.CandidateID, v.ElectionID)
	if err != nil {
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

// MarkVoted flips has_voted for a voter that has not voted yet. It reports
// false when no row changed, i.e. the flag was already set.
func (s *Store) MarkVoted(ctx context.Context, q Querier, voterID string) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE voter
		SET has_voted = TRUE
		WHERE id = $1 AND has_voted = FALSE
	`, voterID)
	if err != nil {
		return false, fmt.Errorf("failed to mark voter: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// CountVotesByCandidate returns committed vote counts keyed by candidate id.
func (s *Store) CountVotesByCandidate(ctx context.Context, q Querier, electionID string) (map[string]int, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT candidate_id, COUNT(*)
		FROM vote
		WHERE election_id = $1
		GROUP BY candidate_id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var candidateID string
		var n int
		if err := rows.Scan(&candidateID, &n); err != nil {
			return nil, fmt.Errorf("failed to scan vote count: %w", err)
		}
		counts[candidateID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vote counts: %w", err)
	}
	return counts, nil
}

// CountVoters returns the election's registered and voted voter counts.
func (s *Store) CountVoters(ctx context.Context, q Querier, electionID string) (total, voted int, err error) {
	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN has_voted THEN 1 ELSE 0 END), 0)
		FROM voter
		WHERE election_id = $1
	`, electionID).Scan(&total, &voted)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count voters: %w", err)
	}
	return total, voted, nil
}

// Totals fills the raw counts of a DashboardStats. Turnout is left to the caller.
func (s *Store) Totals(ctx context.Context, q Querier) (models.DashboardStats, error) {
	var st models.DashboardStats
	err := q.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM election),
			(SELECT COUNT(*) FROM election WHERE status = $1),
			(SELECT COUNT(*) FROM election WHERE status = $2),
			(SELECT COUNT(*) FROM election WHERE status = $3),
			(SELECT COUNT(*) FROM candidate),
			(SELECT COUNT(*) FROM voter),
			(SELECT COUNT(*) FROM voter WHERE has_voted = TRUE),
			(SELECT COUNT(*) FROM vote)
	`, models.StatusDraft, models.StatusActive, models.StatusCompleted).Scan(
		&st.TotalElections, &st.DraftElections, &st.ActiveElections, &st.CompletedElections,
		&st.TotalCandidates, &st.TotalVoters, &st.VotedVoters, &st.TotalVotes,
	)
	if err != nil {
		return models.DashboardStats{}, fmt.Errorf("failed to query totals: %w", err)
	}
	return st, nil
}

// Administration. These run outside the vote transaction.

func (s *Store) CreateElection(ctx context.Context, q Querier, e models.Election) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO election (id, name, status, constituency, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ID, e.Name, e.Status, e.Constituency, nullTime(e.StartDate), nullTime(e.EndDate))
	if err != nil {
		return fmt.Errorf("failed to insert election: %w", err)
	}
	return nil
}

// AdvanceStatus moves an election from one status to another only if it is
// still in the expected one. It reports whether the row changed.
func (s *Store) AdvanceStatus(ctx context.Context, q Querier, id, from, to string) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE election
		SET status = $1
		WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update election status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *Store) CreateCandidate(ctx context.Context, q Querier, c models.Candidate) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO candidate (id, election_id, constituency, name, party, symbol)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.ElectionID, c.Constituency, c.Name, c.Party, c.Symbol)
	if err != nil {
		return fmt.Errorf("failed to insert candidate: %w", err)
	}
	return nil
}

func (s *Store) CreateVoter(ctx context.Context, q Querier, v models.Voter) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO voter (id, election_id, constituency, mobile, has_voted, name)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID, v.ElectionID, v.Constituency, v.Mobile, v.HasVoted, v.Name)
	if err != nil {
		return fmt.Errorf("failed to insert voter: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
