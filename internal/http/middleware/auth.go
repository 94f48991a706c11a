// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides bearer-token authentication. The middleware is
// deliberately optional: requests without an Authorization header proceed
// anonymously (nil principal), and per-route handlers decide whether a
// principal is required. Only a present-but-invalid token is rejected here.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-poll-backend/internal/authz"
)

const (
	// principalKey is the Gin context key under which the resolved principal
	// is stored.
	principalKey = "principal"
	// userIDKey mirrors the principal ID for the access log.
	userIDKey = "userID"
)

// TokenParser validates an access token string and returns the user ID it
// identifies.
type TokenParser interface {
	ParseAccess(token string) (string, error)
}

// PrincipalResolver turns an authenticated user ID into a principal with its
// trusted role.
type PrincipalResolver func(ctx context.Context, userID string) (*authz.Principal, error)

// Authenticate returns middleware that resolves the request principal from a
// Bearer token.
//
// Behavior:
//   - No Authorization header: the request proceeds with no principal set.
//   - "Bearer <token>" that parses: the user ID is resolved to a principal
//     (role included, from the trusted store) and stored in the context.
//   - A malformed or expired token: 401 with the standard error envelope.
//     Silently downgrading a bad token to anonymous would mask client bugs
//     and let an expired session cast votes it believes are attributed.
func Authenticate(parser TokenParser, resolve PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "malformed Authorization header")
			return
		}

		uid, err := parser.ParseAccess(strings.TrimSpace(token))
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		p, err := resolve(c.Request.Context(), uid)
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(principalKey, p)
		c.Set(userIDKey, p.ID)
		c.Next()
	}
}

// PrincipalFrom returns the principal resolved by Authenticate, or nil for
// anonymous requests.
func PrincipalFrom(c *gin.Context) *authz.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(*authz.Principal); ok {
			return p
		}
	}
	return nil
}

// abortUnauthorized writes the standard error envelope without depending on
// the handlers package.
func abortUnauthorized(c *gin.Context, msg string) {
	rid, _ := c.Get(requestIDKey)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": asString(rid),
		"code":       "unauthorized",
		"message":    msg,
	})
}
