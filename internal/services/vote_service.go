// Package services – VoteService
//
// This file implements the vote submission engine. It validates poll state,
// resolves the voter identity, enforces the single-vote policy, and writes
// the vote record idempotently. Service-level errors (ErrPollNotFound,
// ErrPollClosed, ErrAuthRequired, ErrInvalidOption, ErrSubmissionFailed) are
// returned for predictable cases so handlers can map them to HTTP results
// consistently.
//
// Correctness model: the duplicate pre-check is a latency optimization only.
// The guarantee that two concurrent submissions from the same authenticated
// voter cannot both land on a single-vote poll comes from the storage-level
// partial unique index; the losing insert observes a constraint violation and
// is collapsed into the idempotent success path, never surfaced to the voter.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-poll-backend/internal/authz"
	"github.com/tbourn/go-poll-backend/internal/repo"
)

// VoterContext carries the request-scoped facts about the voter: the resolved
// principal (nil when anonymous) and best-effort client metadata.
type VoterContext struct {
	Principal *authz.Principal
	IPAddress string
	UserAgent string
}

// VoteReceipt is the successful outcome of a submission. Duplicate marks the
// idempotent no-op path: the voter had already voted and no new row was
// persisted. VoteID is empty in that case.
type VoteReceipt struct {
	VoteID    string `json:"vote_id,omitempty"`
	PollID    string `json:"poll_id"`
	OptionID  string `json:"option_id"`
	Duplicate bool   `json:"duplicate"`

	// SingleVote echoes the poll's policy so the transport layer knows
	// whether to mint a participation marker. Not part of the wire shape.
	SingleVote bool `json:"-"`
}

// VoteService implements the use-cases around casting votes. It is
// context-aware and safe for concurrent use; correctness under concurrency
// rests on the store's constraints, not on service-level locking.
type VoteService struct {
	// DB is the database handle used for all vote operations.
	DB *gorm.DB

	// Now returns the current time; overridable in tests. Defaults to
	// time.Now when nil.
	Now func() time.Time
}

// Submit casts a vote for optionID on pollID on behalf of voter.
//
// Preconditions, checked in order:
//  1. the poll exists, else ErrPollNotFound;
//  2. the poll is open and unexpired, else ErrPollClosed;
//  3. if the poll requires authentication, the voter carries a principal,
//     else ErrAuthRequired;
//  4. the option belongs to the poll, else ErrInvalidOption.
//
// For authenticated voters on single-vote polls an existing vote collapses to
// a Duplicate receipt, both when the pre-check spots it and when the insert
// loses the constraint race. Anonymous single-vote enforcement is a transport
// concern (the browser-scoped marker) and is handled before Submit is called.
//
// Store failures unrelated to uniqueness are wrapped in ErrSubmissionFailed;
// nothing is committed and the caller may retry.
func (s *VoteService) Submit(ctx context.Context, pollID, optionID string, voter VoterContext) (*VoteReceipt, error) {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now()
	}

	poll, err := repo.GetPoll(ctx, s.DB, pollID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	if !poll.Open(now) {
		return nil, ErrPollClosed
	}

	if poll.RequireAuth && voter.Principal == nil {
		return nil, ErrAuthRequired
	}

	valid := false
	for _, opt := range poll.Options {
		if opt.ID == optionID {
			valid = true
			break
		}
	}
	if !valid {
		return nil, ErrInvalidOption
	}

	var userID *string
	if voter.Principal != nil {
		id := voter.Principal.ID
		userID = &id
	}

	dedupe := poll.SingleVote && userID != nil
	if dedupe {
		// Pre-check: saves a doomed insert in the common retry case. The
		// answer may be stale under concurrency; the index below is what
		// actually holds.
		voted, err := repo.HasVoted(ctx, s.DB, pollID, *userID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
		}
		if voted {
			return &VoteReceipt{PollID: pollID, OptionID: optionID, Duplicate: true, SingleVote: poll.SingleVote}, nil
		}
	}

	v, err := repo.CreateVote(ctx, s.DB, pollID, optionID, userID, dedupe, voter.IPAddress, voter.UserAgent)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateVote) {
			// Lost the race against our own concurrent request. Same outcome
			// as the pre-check hit: success, nothing new persisted.
			return &VoteReceipt{PollID: pollID, OptionID: optionID, Duplicate: true, SingleVote: poll.SingleVote}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	return &VoteReceipt{VoteID: v.ID, PollID: pollID, OptionID: optionID, SingleVote: poll.SingleVote}, nil
}
