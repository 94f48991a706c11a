// Account HTTP handlers.
//
// This file exposes the thin identity surface:
//   - POST /auth/signup  (create account, returns bearer token)
//   - POST /auth/login   (returns bearer token)
//   - GET  /auth/me      (current principal)
//
// Tokens are stateless JWTs; the role embedded in authorization decisions is
// always looked up server-side, never taken from the token.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-poll-backend/internal/http/middleware"
)

// CredentialsRequest is the JSON payload for signup and login.
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required" example:"ada@example.com"`
	Password string `json:"password" binding:"required" example:"hunter22"`
}

// TokenResponse carries a freshly minted bearer token and its owner.
type TokenResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

// MeResponse describes the current principal.
type MeResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Signup godoc
// @ID          signup
// @Summary     Create an account
// @Description Registers a new account and returns a bearer token.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CredentialsRequest  true  "Credentials"
//
// @Success     201  {object}  handlers.TokenResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse "Email already registered"
// @Failure     422  {object}  handlers.ErrorResponse "Validation failed"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /auth/signup [post]
func (h *Handlers) Signup(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password are required")
		return
	}

	u, err := h.accountSvc.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failFromService(c, err)
		return
	}

	token, err := h.tokens.IssueAccess(u.ID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}
	ok(c, http.StatusCreated, TokenResponse{UserID: u.ID, Email: u.Email, Token: token})
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies credentials and returns a bearer token.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CredentialsRequest  true  "Credentials"
//
// @Success     200  {object}  handlers.TokenResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Invalid credentials"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password are required")
		return
	}

	u, err := h.accountSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failFromService(c, err)
		return
	}

	token, err := h.tokens.IssueAccess(u.ID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}
	ok(c, http.StatusOK, TokenResponse{UserID: u.ID, Email: u.Email, Token: token})
}

// Me godoc
// @ID          me
// @Summary     Current principal
// @Description Returns the authenticated user's ID and trusted role.
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.MeResponse
// @Failure     401  {object}  handlers.ErrorResponse "Authentication required"
// @Router      /auth/me [get]
func (h *Handlers) Me(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	if p == nil {
		fail(c, http.StatusUnauthorized, ErrCodeAuthRequired, "authentication required")
		return
	}
	ok(c, http.StatusOK, MeResponse{UserID: p.ID, Role: p.Role})
}
