// Package auth implements the token side of the identity provider: signed
// JWTs for API access, plus two narrower single-purpose tokens used by the
// voting flow: the browser-scoped marker that backs the anonymous
// single-vote guard, and the vote intent token that preserves a pending vote
// across a login redirect.
//
// All three token kinds share one HMAC secret but carry distinct "use" claims
// so they can never be replayed across purposes.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes, carried in the "use" claim.
const (
	useAccess     = "access"
	useVoteMarker = "vote_marker"
	useVoteIntent = "vote_intent"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry, or
// purpose validation.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenIssuer mints and verifies the application's JWTs.
type TokenIssuer struct {
	// Secret is the HMAC-SHA256 signing key.
	Secret []byte
	// AccessTTL bounds API access tokens.
	AccessTTL time.Duration
	// MarkerTTL bounds anonymous vote markers; the marker is long-lived so a
	// returning browser keeps being recognized.
	MarkerTTL time.Duration
	// IntentTTL bounds vote intent tokens; kept short since the intent is
	// replayed right after login.
	IntentTTL time.Duration
}

// claims is the single claim shape for all token kinds.
type claims struct {
	Use      string `json:"use"`
	PollID   string `json:"poll_id,omitempty"`
	OptionID string `json:"option_id,omitempty"`
	jwt.RegisteredClaims
}

// IssueAccess returns a bearer token identifying userID.
func (t *TokenIssuer) IssueAccess(userID string) (string, error) {
	return t.sign(claims{
		Use: useAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

// ParseAccess validates an access token and returns the user ID.
func (t *TokenIssuer) ParseAccess(token string) (string, error) {
	c, err := t.parse(token, useAccess)
	if err != nil {
		return "", err
	}
	if c.Subject == "" {
		return "", ErrInvalidToken
	}
	return c.Subject, nil
}

// IssueVoteMarker returns the signed value of the per-poll participation
// cookie set after a confirmed anonymous vote.
func (t *TokenIssuer) IssueVoteMarker(pollID string) (string, error) {
	return t.sign(claims{
		Use:    useVoteMarker,
		PollID: pollID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.MarkerTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

// VerifyVoteMarker reports whether token is a valid participation marker for
// pollID. A marker minted for another poll never verifies.
func (t *TokenIssuer) VerifyVoteMarker(token, pollID string) bool {
	c, err := t.parse(token, useVoteMarker)
	return err == nil && c.PollID == pollID
}

// IssueVoteIntent returns a short-lived token capturing a pending vote
// (poll + option) so it can be replayed unchanged after authentication.
func (t *TokenIssuer) IssueVoteIntent(pollID, optionID string) (string, error) {
	return t.sign(claims{
		Use:      useVoteIntent,
		PollID:   pollID,
		OptionID: optionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.IntentTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

// ParseVoteIntent validates an intent token and returns its poll and option.
func (t *TokenIssuer) ParseVoteIntent(token string) (pollID, optionID string, err error) {
	c, err := t.parse(token, useVoteIntent)
	if err != nil {
		return "", "", err
	}
	if c.PollID == "" || c.OptionID == "" {
		return "", "", ErrInvalidToken
	}
	return c.PollID, c.OptionID, nil
}

func (t *TokenIssuer) sign(c claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.Secret)
}

func (t *TokenIssuer) parse(token, use string) (*claims, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.Secret, nil
	})
	if err != nil || !parsed.Valid || c.Use != use {
		return nil, ErrInvalidToken
	}
	return &c, nil
}
