// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Vote model:
// the append-only write path and the aggregation reads behind poll results.
//
// Error semantics:
//   - Duplicate single-vote inserts rely on the partial unique index
//     ux_votes_poll_voter (see AutoMigrate) and are surfaced as
//     ErrDuplicateVote so the service layer can collapse them into the
//     idempotent success path.
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-poll-backend/internal/domain"
)

// ErrDuplicateVote indicates that the partial unique index rejected a second
// vote for the same (poll, voter) pair on a single-vote poll.
var ErrDuplicateVote = errors.New("duplicate vote")

// CreateVote inserts a vote row. When dedupe is true the voter key is set to
// the user ID so the storage-level uniqueness constraint applies; callers
// pass dedupe only for authenticated voters on single-vote polls.
//
// A unique violation is returned as ErrDuplicateVote. Any other error is the
// raw DB error.
func CreateVote(ctx context.Context, db *gorm.DB, pollID, optionID string, userID *string, dedupe bool, ip, userAgent string) (*domain.Vote, error) {
	v := &domain.Vote{
		ID:        uuid.NewString(),
		PollID:    pollID,
		OptionID:  optionID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if dedupe && userID != nil {
		key := *userID
		v.VoterKey = &key
	}
	if ip != "" {
		v.IPAddress = &ip
	}
	if userAgent != "" {
		v.UserAgent = &userAgent
	}

	if err := db.WithContext(ctx).Create(v).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateVote
		}
		return nil, err
	}
	return v, nil
}

// HasVoted reports whether userID already holds a vote on pollID. It is the
// pre-insert check used as a latency optimization; the answer may be stale
// under concurrency, which is why CreateVote's constraint remains the actual
// guarantee.
func HasVoted(ctx context.Context, db *gorm.DB, pollID, userID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Vote{}).
		Where("poll_id = ? AND user_id = ?", pollID, userID).
		Count(&n).Error
	return n > 0, err
}

// CountVotes returns the total number of votes cast on a poll.
func CountVotes(ctx context.Context, db *gorm.DB, pollID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Vote{}).
		Where("poll_id = ?", pollID).
		Count(&n).Error
	return n, err
}

// OptionCount is one row of the aggregated results read model.
type OptionCount struct {
	OptionID  string `json:"option_id"`
	Text      string `json:"text"`
	VoteCount int64  `json:"vote_count"`
}

// OptionResults aggregates votes per option for a poll. The query LEFT JOINs
// options against votes so options with zero votes still appear with a count
// of 0, ordered by order_index. Aggregation is a commutative count and is
// therefore independent of vote arrival order.
func OptionResults(ctx context.Context, db *gorm.DB, pollID string) ([]OptionCount, error) {
	var out []OptionCount
	err := db.WithContext(ctx).
		Table("poll_options").
		Select("poll_options.id AS option_id, poll_options.text AS text, COUNT(votes.id) AS vote_count").
		Joins("LEFT JOIN votes ON votes.option_id = poll_options.id").
		Where("poll_options.poll_id = ?", pollID).
		Group("poll_options.id").
		Order("poll_options.order_index asc").
		Scan(&out).Error
	return out, err
}

// isUniqueViolation detects unique-constraint violations across drivers that
// may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations;
	// Postgres phrases them as "duplicate key value violates unique constraint".
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}
