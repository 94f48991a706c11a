// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-poll-backend/internal/domain"
)

// PublicPollsStats returns aggregate metadata for the public poll listing:
// the total number of rows and the maximum UpdatedAt timestamp among them.
// When no public polls exist, the returned count is 0 and maxUpdatedAt is nil.
//
// Return values:
//   - count:        total publicly listed polls
//   - maxUpdatedAt: pointer to the greatest UpdatedAt, or nil if no rows
//   - err:          database error, if any
func PublicPollsStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	// Same row set as ListPublicPolls, or the ETag would churn on rows the
	// listing never shows.
	q := db.WithContext(ctx).Model(&domain.Poll{}).
		Where("visibility = ? AND status <> ?", domain.VisibilityPublic, domain.PollStatusDraft)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// PollResultsStats returns aggregate metadata for a poll's vote ledger: the
// total number of votes and the timestamp of the most recent vote. Useful for
// conditional results responses; re-validation stays cheap even for polls
// with large ledgers.
func PollResultsStats(ctx context.Context, db *gorm.DB, pollID string) (count int64, lastVoteAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Vote{}).Where("poll_id = ?", pollID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
