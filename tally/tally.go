// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/ahamednazeer/eVoting-sub000/models"
	"github.com/ahamednazeer/eVoting-sub000/store"
)

var ErrElectionNotFound = errors.New("election not found")

type Aggregator struct {
	db    *sql.DB
	store *store.Store
}

func NewAggregator(conn *sql.DB, s *store.Store) *Aggregator {
	return &Aggregator{db: conn, store: s}
}

// GetResults returns the election's tally. Candidate counts stay at zero and
// no winner is named until the election is COMPLETED; turnout is always
// reported because it says nothing about individual candidates.
func (a *Aggregator) GetResults(ctx context.Context, electionID string) (models.Tally, error) {
	tx, err := a.db.BeginTx(ctx, a.store.Dialect().ReadTxOptions())
	if err != nil {
		return models.Tally{}, fmt.Errorf("tally: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	election, err := a.store.Election(ctx, tx, electionID)
	if errors.Is(err, store.ErrElectionNotFound) {
		return models.Tally{}, ErrElectionNotFound
	}
	if err != nil {
		return models.Tally{}, fmt.Errorf("tally: %w", err)
	}

	candidates, err := a.store.ListCandidates(ctx, tx, electionID)
	if err != nil {
		return models.Tally{}, fmt.Errorf("tally: %w", err)
	}

	revealed := election.Status == models.StatusCompleted

	// Counts are not even read while the election is open.
	counts := map[string]int{}
	if revealed {
		counts, err = a.store.CountVotesByCandidate(ctx, tx, electionID)
		if err != nil {
			return models.Tally{}, fmt.Errorf("tally: %w", err)
		}
	}

	total, voted, err := a.store.CountVoters(ctx, tx, electionID)
	if err != nil {
		return models.Tally{}, fmt.Errorf("tally: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Tally{}, fmt.Errorf("tally: failed to commit: %w", err)
	}

	return buildTally(election, candidates, counts, revealed, total, voted), nil
}

func buildTally(election models.Election, candidates []models.Candidate, counts map[string]int, revealed bool, total, voted int) models.Tally {
	results := make([]models.CandidateResult, 0, len(candidates))
	totalVotes := 0
	for _, c := range candidates {
		n := 0
		if revealed {
			n = counts[c.ID]
		}
		totalVotes += n
		results = append(results, models.CandidateResult{
			CandidateID:  c.ID,
			Name:         c.Name,
			Party:        c.Party,
			Symbol:       c.Symbol,
			Constituency: c.Constituency,
			VoteCount:    n,
		})
	}

	// Stable ordering: by count (revealed only), then name, then id.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].VoteCount != results[j].VoteCount {
			return results[i].VoteCount > results[j].VoteCount
		}
		if results[i].Name != results[j].Name {
			return results[i].Name < results[j].Name
		}
		return results[i].CandidateID < results[j].CandidateID
	})

	var winner *models.CandidateResult
	if revealed && len(results) > 0 && results[0].VoteCount > 0 {
		w := results[0]
		winner = &w
	}

	return models.Tally{
		ElectionID:  election.ID,
		Name:        election.Name,
		Status:      election.Status,
		Revealed:    revealed,
		Candidates:  results,
		Winner:      winner,
		TotalVotes:  totalVotes,
		TotalVoters: total,
		VotedVoters: voted,
		Turnout:     turnout(voted, total),
	}
}

// DashboardStats returns aggregate counts across every election.
func (a *Aggregator) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	st, err := a.store.Totals(ctx, a.db)
	if err != nil {
		return models.DashboardStats{}, fmt.Errorf("tally: %w", err)
	}
	st.Turnout = turnout(st.VotedVoters, st.TotalVoters)
	return st, nil
}

func turnout(voted, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(voted) / float64(total)
}
