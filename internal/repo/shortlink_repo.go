// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the PollShortLink
// model, the share artifact that resolves a short code back to its poll.
package repo

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-poll-backend/internal/domain"
)

// shortCodeLen is the length of generated share codes.
const shortCodeLen = 8

// GetShortLink returns the share record for a poll, or ErrNotFound.
func GetShortLink(ctx context.Context, db *gorm.DB, pollID string) (*domain.PollShortLink, error) {
	var rec domain.PollShortLink
	if err := db.WithContext(ctx).Where("poll_id = ?", pollID).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetShortLinkByCode resolves a short code to its record, or ErrNotFound.
func GetShortLinkByCode(ctx context.Context, db *gorm.DB, code string) (*domain.PollShortLink, error) {
	var rec domain.PollShortLink
	if err := db.WithContext(ctx).Where("short_code = ?", code).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// EnsureShortLink returns the poll's share record, creating one on first use.
// Code collisions and concurrent creates both hit unique indexes; a losing
// insert retries with a fresh code, and a concurrent winner's row is reused.
func EnsureShortLink(ctx context.Context, db *gorm.DB, pollID string) (*domain.PollShortLink, error) {
	if rec, err := GetShortLink(ctx, db, pollID); err == nil {
		return rec, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	for attempt := 0; attempt < 3; attempt++ {
		code, err := newShortCode()
		if err != nil {
			return nil, err
		}
		rec := &domain.PollShortLink{
			ID:        uuid.NewString(),
			PollID:    pollID,
			ShortCode: code,
			CreatedAt: time.Now().UTC(),
		}
		err = db.WithContext(ctx).Create(rec).Error
		if err == nil {
			return rec, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		// Either the code collided (retry) or another request created the
		// poll's link first (reuse it).
		if existing, gerr := GetShortLink(ctx, db, pollID); gerr == nil {
			return existing, nil
		}
	}
	return nil, errors.New("short code space exhausted")
}

// newShortCode returns a random, lowercase, URL-safe code.
func newShortCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf)
	return strings.ToLower(code[:shortCodeLen]), nil
}
