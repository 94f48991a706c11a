// Package services – AuthService
//
// This file implements the account side of the identity provider: signup with
// bcrypt password storage, login, and the server-side principal resolution
// that every request's authorization decisions are based on. The principal's
// role always comes from a trusted lookup against the profiles table, never
// from client-supplied claims.
package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tbourn/go-poll-backend/internal/authz"
	"github.com/tbourn/go-poll-backend/internal/domain"
	"github.com/tbourn/go-poll-backend/internal/repo"
)

// AuthService implements account registration, login, and principal
// resolution against the local user store.
type AuthService struct {
	// DB is the database handle used for account operations.
	DB *gorm.DB
}

// Register creates a user for the given credentials and returns it. The email
// is lowercased and trimmed before storage. A duplicate email yields
// ErrEmailTaken; weak input yields a *ValidationError.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	ve := &ValidationError{}
	if email == "" || !strings.Contains(email, "@") {
		ve.add("email", "a valid email address is required")
	}
	if len(password) < 6 {
		ve.add("password", "password must be at least 6 characters")
	}
	if len(ve.Fields) > 0 {
		return nil, ve
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u, err := repo.CreateUser(ctx, s.DB, email, string(hash))
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Login verifies the credentials and returns the user. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// ResolvePrincipal turns an authenticated user ID into a principal with its
// trusted role. Users without a profile row resolve to the default role; the
// profile itself is only provisioned lazily when first needed.
func (s *AuthService) ResolvePrincipal(ctx context.Context, userID string) (*authz.Principal, error) {
	p, err := repo.GetProfile(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &authz.Principal{ID: userID, Role: domain.RoleUser}, nil
		}
		return nil, err
	}
	return &authz.Principal{ID: p.ID, Role: p.Role}, nil
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
