// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Poll and
// PollOption models.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a poll is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-poll-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreatePollWithOptions inserts a poll row and its option rows in a single
// transaction: an option insert failure rolls the poll back, so a poll can
// never exist without its options. Option order follows slice order.
//
// On success the returned poll carries its persisted options.
func CreatePollWithOptions(ctx context.Context, db *gorm.DB, p *domain.Poll, optionTexts []string) (*domain.Poll, error) {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		opts := make([]domain.PollOption, 0, len(optionTexts))
		for i, text := range optionTexts {
			opts = append(opts, domain.PollOption{
				ID:         uuid.NewString(),
				PollID:     p.ID,
				Text:       text,
				OrderIndex: i,
				CreatedAt:  now,
			})
		}
		if err := tx.Create(&opts).Error; err != nil {
			return err
		}
		p.Options = opts
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetPoll fetches a single poll by ID together with its options, ordered by
// order_index. If the record does not exist, it returns ErrNotFound.
func GetPoll(ctx context.Context, db *gorm.DB, id string) (*domain.Poll, error) {
	var p domain.Poll
	err := db.WithContext(ctx).
		Preload("Options", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("order_index asc")
		}).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPublicPolls returns a page of publicly listed polls ordered by creation
// time descending, with options preloaded. Drafts are excluded regardless of
// visibility. Use CountPublicPolls for pagination metadata.
func ListPublicPolls(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Poll, error) {
	var out []domain.Poll
	err := db.WithContext(ctx).
		Preload("Options", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("order_index asc")
		}).
		Where("visibility = ? AND status <> ?", domain.VisibilityPublic, domain.PollStatusDraft).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountPublicPolls returns the total number of publicly listed polls,
// excluding drafts.
func CountPublicPolls(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Poll{}).
		Where("visibility = ? AND status <> ?", domain.VisibilityPublic, domain.PollStatusDraft).
		Count(&total).Error
	return total, err
}

// ListOwnerPolls returns all polls created by ownerID, newest first, with
// options preloaded.
func ListOwnerPolls(ctx context.Context, db *gorm.DB, ownerID string) ([]domain.Poll, error) {
	var out []domain.Poll
	err := db.WithContext(ctx).
		Preload("Options", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("order_index asc")
		}).
		Where("created_by = ?", ownerID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// PollSearch describes the moderation listing query: free-text question
// filter, exact status/owner filters, sort column and direction, and paging.
type PollSearch struct {
	Query  string // substring match on question
	Status string // open|closed|draft, empty for all
	Owner  string // created_by filter, empty for all
	Sort   string // created_at|question|status
	Dir    string // asc|desc
	Offset int
	Limit  int
}

// sortColumns whitelists sortable columns to keep ORDER BY injection-free.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"question":   "question",
	"status":     "status",
}

// SearchPolls runs the admin moderation query and returns the page plus the
// total match count. Unknown sort columns fall back to created_at, unknown
// directions to desc.
func SearchPolls(ctx context.Context, db *gorm.DB, s PollSearch) ([]domain.Poll, int64, error) {
	q := db.WithContext(ctx).Model(&domain.Poll{})
	if t := strings.TrimSpace(s.Query); t != "" {
		q = q.Where("question LIKE ?", "%"+t+"%")
	}
	if s.Status != "" {
		q = q.Where("status = ?", s.Status)
	}
	if s.Owner != "" {
		q = q.Where("created_by = ?", s.Owner)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	col, ok := sortColumns[s.Sort]
	if !ok {
		col = "created_at"
	}
	dir := "desc"
	if strings.EqualFold(s.Dir, "asc") {
		dir = "asc"
	}

	var out []domain.Poll
	err := q.Order(col + " " + dir).
		Offset(s.Offset).
		Limit(s.Limit).
		Find(&out).Error
	return out, total, err
}

// PollUpdate carries the mutable poll fields for UpdatePollFields. Nil
// pointers leave the column untouched.
type PollUpdate struct {
	Question          *string
	Description       *string
	RequireAuth       *bool
	SingleVote        *bool
	Visibility        *string
	ResultsVisibility *string
	ExpiresAt         *time.Time
}

// UpdatePollFields applies the non-nil fields of u to the poll row. It
// returns ErrNotFound if the poll does not exist.
func UpdatePollFields(ctx context.Context, db *gorm.DB, id string, u PollUpdate) error {
	set := map[string]any{"updated_at": time.Now().UTC()}
	if u.Question != nil {
		set["question"] = *u.Question
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.RequireAuth != nil {
		set["require_auth"] = *u.RequireAuth
	}
	if u.SingleVote != nil {
		set["single_vote"] = *u.SingleVote
	}
	if u.Visibility != nil {
		set["visibility"] = *u.Visibility
	}
	if u.ResultsVisibility != nil {
		set["results_visibility"] = *u.ResultsVisibility
	}
	if u.ExpiresAt != nil {
		set["expires_at"] = *u.ExpiresAt
	}

	res := db.WithContext(ctx).
		Model(&domain.Poll{}).
		Where("id = ?", id).
		Updates(set)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceOptions deletes all options of a poll and inserts the given texts in
// their place, transactionally. Callers must ensure beforehand that the poll
// has no votes; existing votes reference option rows and would be cascaded
// away by the delete.
func ReplaceOptions(ctx context.Context, db *gorm.DB, pollID string, optionTexts []string) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("poll_id = ?", pollID).Delete(&domain.PollOption{}).Error; err != nil {
			return err
		}
		opts := make([]domain.PollOption, 0, len(optionTexts))
		for i, text := range optionTexts {
			opts = append(opts, domain.PollOption{
				ID:         uuid.NewString(),
				PollID:     pollID,
				Text:       text,
				OrderIndex: i,
				CreatedAt:  now,
			})
		}
		return tx.Create(&opts).Error
	})
}

// SetStatusCAS flips a poll's status with compare-and-set semantics: the
// update only applies while the row still holds the expected current status.
// It returns (false, nil) when the poll exists but the status moved
// concurrently, and ErrNotFound when the poll does not exist at all.
func SetStatusCAS(ctx context.Context, db *gorm.DB, id, from, to string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Poll{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	var n int64
	if err := db.WithContext(ctx).Model(&domain.Poll{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	if n == 0 {
		return false, gorm.ErrRecordNotFound
	}
	return false, nil
}

// DeletePoll removes the poll row. Options, votes, and short links are
// removed by the schema's cascading foreign keys. Returns ErrNotFound when
// the poll does not exist.
func DeletePoll(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Poll{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
