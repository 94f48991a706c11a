// Package services – ResultsService
//
// This file implements the result aggregator read model: per-option and total
// vote counts for a poll, gated by the results_visibility policy. Counts are
// always recomputed from the vote ledger (a commutative count over an
// append-only table), so reads are order-independent and idempotent. The
// realtime layer relies on both properties when it re-fetches on every
// insert notification.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-poll-backend/internal/authz"
	"github.com/tbourn/go-poll-backend/internal/repo"
)

// PollResults is the aggregated read model for one poll. Every option appears
// exactly once, zero-vote options included; TotalVotes is the sum of the
// per-option counts.
type PollResults struct {
	PollID     string             `json:"poll_id"`
	Question   string             `json:"question"`
	Status     string             `json:"status"`
	Options    []repo.OptionCount `json:"options"`
	TotalVotes int64              `json:"total_votes"`
}

// ResultsService computes aggregated results under the visibility policy.
type ResultsService struct {
	// DB is the database handle used for aggregation reads.
	DB *gorm.DB
}

// Get returns the aggregated results for pollID as seen by principal.
//
// Invisible polls yield ErrPollNotFound; visible polls whose results the
// principal may not see under results_visibility yield ErrResultsHidden.
func (s *ResultsService) Get(ctx context.Context, principal *authz.Principal, pollID string) (*PollResults, error) {
	poll, err := repo.GetPoll(ctx, s.DB, pollID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}
	if !authz.CanViewPoll(principal, poll) {
		return nil, ErrPollNotFound
	}
	if !authz.CanViewResults(principal, poll) {
		return nil, ErrResultsHidden
	}

	counts, err := repo.OptionResults(ctx, s.DB, pollID)
	if err != nil {
		return nil, err
	}

	res := &PollResults{
		PollID:   poll.ID,
		Question: poll.Question,
		Status:   poll.Status,
		Options:  counts,
	}
	for _, c := range counts {
		res.TotalVotes += c.VoteCount
	}
	return res, nil
}
