// Package services – ProfileService
//
// Thin profile management: fetch-or-provision and display-name updates.
// Avatar storage is out of scope; the column is carried for the read model.
package services

import (
	"context"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-poll-backend/internal/authz"
	"github.com/tbourn/go-poll-backend/internal/domain"
	"github.com/tbourn/go-poll-backend/internal/repo"
)

// ProfileService manages the principal's own profile.
type ProfileService struct {
	DB *gorm.DB
}

// Get returns the principal's profile, provisioning it on first access.
func (s *ProfileService) Get(ctx context.Context, principal *authz.Principal) (*domain.Profile, error) {
	if principal == nil {
		return nil, ErrAuthRequired
	}
	return repo.EnsureProfile(ctx, s.DB, principal.ID)
}

// SetUsername updates the principal's display name.
func (s *ProfileService) SetUsername(ctx context.Context, principal *authz.Principal, username string) (*domain.Profile, error) {
	if principal == nil {
		return nil, ErrAuthRequired
	}

	username = normalizeText(username)
	ve := &ValidationError{}
	if username == "" {
		ve.add("username", "username is required")
	} else if utf8.RuneCountInString(username) > 64 {
		ve.add("username", "username is too long")
	}
	if len(ve.Fields) > 0 {
		return nil, ve
	}

	if _, err := repo.EnsureProfile(ctx, s.DB, principal.ID); err != nil {
		return nil, err
	}
	if err := repo.UpdateProfileUsername(ctx, s.DB, principal.ID, username); err != nil {
		return nil, err
	}
	return repo.GetProfile(ctx, s.DB, principal.ID)
}
