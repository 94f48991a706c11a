// Poll HTTP handlers.
//
// This file exposes REST endpoints for poll resources:
//   - POST   /polls                 (create)
//   - GET    /polls                 (public listing, paginated, ETag support)
//   - GET    /polls/mine            (owner listing)
//   - GET    /polls/{id}            (fetch with options)
//   - PUT    /polls/{id}            (partial update, optional option replacement)
//   - POST   /polls/{id}/toggle     (open/closed flip)
//   - DELETE /polls/{id}            (delete, cascades)
//   - GET    /polls/{id}/short-link (fetch-or-create share code)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-poll-backend/internal/auth"
	"github.com/tbourn/go-poll-backend/internal/authz"
	"github.com/tbourn/go-poll-backend/internal/domain"
	"github.com/tbourn/go-poll-backend/internal/http/middleware"
	"github.com/tbourn/go-poll-backend/internal/realtime"
	"github.com/tbourn/go-poll-backend/internal/repo"
	"github.com/tbourn/go-poll-backend/internal/services"
	"github.com/tbourn/go-poll-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// PollService defines poll lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type PollService interface {
	// Create validates and stores a poll with its options atomically.
	Create(ctx context.Context, principal *authz.Principal, in services.CreatePollInput) (*domain.Poll, error)
	// Get fetches a poll with its options under the visibility policy.
	Get(ctx context.Context, principal *authz.Principal, id string) (*domain.Poll, error)
	// ListPublic returns a page of publicly listed polls and the total.
	ListPublic(ctx context.Context, page, pageSize int) ([]domain.Poll, int64, error)
	// ListOwned returns every poll the principal created.
	ListOwned(ctx context.Context, principal *authz.Principal) ([]domain.Poll, error)
	// Update applies a partial update, optionally replacing options.
	Update(ctx context.Context, principal *authz.Principal, id string, in services.UpdatePollInput) (*domain.Poll, error)
	// ToggleStatus flips open/closed with compare-and-set semantics.
	ToggleStatus(ctx context.Context, principal *authz.Principal, id string) (*domain.Poll, error)
	// Delete removes a poll and everything hanging off it.
	Delete(ctx context.Context, principal *authz.Principal, id string) error
	// ShortLink returns the share record, creating it on first use.
	ShortLink(ctx context.Context, principal *authz.Principal, id string) (*domain.PollShortLink, error)
	// ResolveShortCode resolves a share code to its poll.
	ResolveShortCode(ctx context.Context, principal *authz.Principal, code string) (*domain.Poll, error)
	// AdminSearch runs the moderation listing for admins.
	AdminSearch(ctx context.Context, principal *authz.Principal, s repo.PollSearch) ([]domain.Poll, int64, error)
}

// VoteService defines the vote submission engine consumed by HTTP handlers.
type VoteService interface {
	// Submit casts a vote and returns a receipt; duplicates collapse to
	// an idempotent success.
	Submit(ctx context.Context, pollID, optionID string, voter services.VoterContext) (*services.VoteReceipt, error)
}

// ResultsService defines the aggregated-results read model.
type ResultsService interface {
	// Get returns per-option and total counts under the visibility policy.
	Get(ctx context.Context, principal *authz.Principal, pollID string) (*services.PollResults, error)
}

// AccountService defines the identity operations consumed by HTTP handlers.
type AccountService interface {
	// Register creates an account for the given credentials.
	Register(ctx context.Context, email, password string) (*domain.User, error)
	// Login verifies credentials and returns the account.
	Login(ctx context.Context, email, password string) (*domain.User, error)
}

// ProfileService defines profile reads and updates for the current principal.
type ProfileService interface {
	// Get returns the principal's profile, provisioning it on first access.
	Get(ctx context.Context, principal *authz.Principal) (*domain.Profile, error)
	// SetUsername updates the principal's display name.
	SetUsername(ctx context.Context, principal *authz.Principal, username string) (*domain.Profile, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for polls, votes, results, accounts, and
// profiles. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	pollSvc    PollService
	voteSvc    VoteService
	resultsSvc ResultsService
	accountSvc AccountService
	profileSvc ProfileService
	tokens     *auth.TokenIssuer
	hub        *realtime.Hub
}

// New constructs and returns a Handlers instance bound to the given
// collaborators.
func New(pollSvc PollService, voteSvc VoteService, resultsSvc ResultsService, accountSvc AccountService, profileSvc ProfileService, tokens *auth.TokenIssuer, hub *realtime.Hub) *Handlers {
	return &Handlers{
		pollSvc:    pollSvc,
		voteSvc:    voteSvc,
		resultsSvc: resultsSvc,
		accountSvc: accountSvc,
		profileSvc: profileSvc,
		tokens:     tokens,
		hub:        hub,
	}
}

//
// DTOs
//

// CreatePollRequest is the JSON payload for creating a poll.
type CreatePollRequest struct {
	// Question is the poll question (required).
	Question string `json:"question" example:"Where should we eat on Friday?"`
	// Description optionally adds context below the question.
	Description string `json:"description" example:"Team lunch, venue within walking distance"`
	// Options are the answer choices; at least two non-empty entries.
	Options []string `json:"options" example:"Sushi,Tacos,Pizza"`
	// RequireAuth restricts voting to authenticated users.
	RequireAuth bool `json:"require_auth"`
	// SingleVote enforces at most one vote per voter.
	SingleVote bool `json:"single_vote"`
	// Visibility is public, unlisted, or private (defaults to public).
	Visibility string `json:"visibility" example:"public"`
	// ResultsVisibility is public, after_close, or owner_only.
	ResultsVisibility string `json:"results_visibility" example:"public"`
	// ExpiresAt optionally schedules automatic closing.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// UpdatePollRequest is the JSON payload for updating a poll. Absent fields
// are left unchanged; a present options array requests full replacement.
type UpdatePollRequest struct {
	Question          *string    `json:"question,omitempty"`
	Description       *string    `json:"description,omitempty"`
	Options           []string   `json:"options,omitempty"`
	RequireAuth       *bool      `json:"require_auth,omitempty"`
	SingleVote        *bool      `json:"single_vote,omitempty"`
	Visibility        *string    `json:"visibility,omitempty"`
	ResultsVisibility *string    `json:"results_visibility,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListPollsResponse wraps a page of polls and pagination information.
type ListPollsResponse struct {
	Polls      []domain.Poll `json:"polls"`
	Pagination Pagination    `json:"pagination"`
}

// ShortLinkResponse is the share record for a poll.
type ShortLinkResponse struct {
	PollID    string `json:"poll_id"`
	ShortCode string `json:"short_code"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// pollID validates the :id path param as a UUID, failing the request with
// 400 when it is not. Returns ("", false) after writing the response.
func pollID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "poll id must be a UUID")
		return "", false
	}
	return id, true
}

// failFromService translates service-layer errors into the HTTP error
// taxonomy. Unknown errors become opaque 500s.
func failFromService(c *gin.Context, err error) {
	if ve, ok := services.AsValidationError(err); ok {
		failValidation(c, ve)
		return
	}
	switch {
	case errors.Is(err, services.ErrPollNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "poll not found")
	case errors.Is(err, services.ErrAuthRequired):
		fail(c, http.StatusUnauthorized, ErrCodeAuthRequired, "authentication required")
	case errors.Is(err, services.ErrUnauthorized):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not allowed")
	case errors.Is(err, services.ErrResultsHidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "results are not visible to you")
	case errors.Is(err, services.ErrPollClosed):
		fail(c, http.StatusConflict, ErrCodePollClosed, "poll is not open for voting")
	case errors.Is(err, services.ErrPollHasVotes):
		fail(c, http.StatusConflict, ErrCodePollHasVotes, "options cannot be replaced once votes exist")
	case errors.Is(err, services.ErrInvalidTransition):
		fail(c, http.StatusConflict, ErrCodeInvalidTransition, "draft polls cannot be toggled")
	case errors.Is(err, services.ErrStatusConflict):
		fail(c, http.StatusConflict, ErrCodeConflict, "poll status changed concurrently, re-read and retry")
	case errors.Is(err, services.ErrInvalidOption):
		fail(c, http.StatusUnprocessableEntity, ErrCodeInvalidOption, "option does not belong to this poll")
	case errors.Is(err, services.ErrEmailTaken):
		fail(c, http.StatusConflict, ErrCodeConflict, "email already registered")
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid email or password")
	case errors.Is(err, services.ErrSubmissionFailed):
		fail(c, http.StatusInternalServerError, ErrCodeSubmissionFailed, "vote submission failed, please retry")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

//
// Handlers
//

// CreatePoll godoc
// @ID          createPoll
// @Summary     Create a new poll
// @Description Creates a poll with its options for the authenticated user.
// @Tags        Polls
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.CreatePollRequest  true  "Create poll payload"
//
// @Success     201  {object}  domain.Poll
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Authentication required"
// @Failure     422  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /polls [post]
func (h *Handlers) CreatePoll(c *gin.Context) {
	var req CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	p, err := h.pollSvc.Create(c.Request.Context(), middleware.PrincipalFrom(c), services.CreatePollInput{
		Question:          req.Question,
		Description:       req.Description,
		Options:           req.Options,
		RequireAuth:       req.RequireAuth,
		SingleVote:        req.SingleVote,
		Visibility:        req.Visibility,
		ResultsVisibility: req.ResultsVisibility,
		ExpiresAt:         req.ExpiresAt,
	})
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

// ListPolls godoc
// @ID          listPolls
// @Summary     List public polls (paginated)
// @Description Returns a page of publicly listed polls. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Polls
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListPollsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /polls [get]
func (h *Handlers) ListPolls(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.pollSvc.(*services.PollService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.PublicPollsStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"polls:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.pollSvc.ListPublic(ctx, page, pageSize)
	if err != nil {
		failFromService(c, err)
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListPollsResponse{
		Polls: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// ListMyPolls godoc
// @ID          listMyPolls
// @Summary     List the current user's polls
// @Description Returns every poll created by the authenticated user, newest first.
// @Tags        Polls
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {array}   domain.Poll
// @Failure     401  {object}  handlers.ErrorResponse "Authentication required"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /polls/mine [get]
func (h *Handlers) ListMyPolls(c *gin.Context) {
	items, err := h.pollSvc.ListOwned(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetPoll godoc
// @ID          getPoll
// @Summary     Fetch a poll
// @Description Returns the poll with its ordered options. Private polls are reported as not found to non-owners.
// @Tags        Polls
// @Produce     json
//
// @Param       id  path  string  true  "Poll ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Poll
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Poll not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /polls/{id} [get]
func (h *Handlers) GetPoll(c *gin.Context) {
	id, valid := pollID(c)
	if !valid {
		return
	}
	p, err := h.pollSvc.Get(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdatePoll godoc
// @ID          updatePoll
// @Summary     Update a poll
// @Description Applies a partial update. Replacing options is refused with poll_has_votes once any vote exists.
// @Tags        Polls
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string  true  "Poll ID (UUID)"  format(uuid)
// @Param       body  body  handlers.UpdatePollRequest  true  "Fields to update"
//
// @Success     200  {object}  domain.Poll
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Not the owner"
// @Failure     404  {object}  handlers.ErrorResponse "Poll not found"
// @Failure     409  {object}  handlers.ErrorResponse "Poll has votes"
// @Failure     422  {object}  handlers.ErrorResponse "Validation failed"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /polls/{id} [put]
func (h *Handlers) UpdatePoll(c *gin.Context) {
	id, valid := pollID(c)
	if !valid {
		return
	}
	var req UpdatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	p, err := h.pollSvc.Update(c.Request.Context(), middleware.PrincipalFrom(c), id, services.UpdatePollInput{
		Question:          req.Question,
		Description:       req.Description,
		Options:           req.Options,
		RequireAuth:       req.RequireAuth,
		SingleVote:        req.SingleVote,
		Visibility:        req.Visibility,
		ResultsVisibility: req.ResultsVisibility,
		ExpiresAt:         req.ExpiresAt,
	})
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// TogglePollStatus godoc
// @ID          togglePollStatus
// @Summary     Toggle a poll between open and closed
// @Description Flips the status with compare-and-set semantics; a lost race returns 409 conflict.
// @Tags        Polls
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Poll ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Poll
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Not the owner"
// @Failure     404  {object}  handlers.ErrorResponse "Poll not found"
// @Failure     409  {object}  handlers.ErrorResponse "Conflict or draft poll"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /polls/{id}/toggle [post]
func (h *Handlers) TogglePollStatus(c *gin.Context) {
	id, valid := pollID(c)
	if !valid {
		return
	}
	p, err := h.pollSvc.ToggleStatus(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// DeletePoll godoc
// @ID          deletePoll
// @Summary     Delete a poll
// @Description Removes the poll; options, votes, and share links cascade.
// @Tags        Polls
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Poll ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Not the owner"
// @Failure     404  {object}  handlers.ErrorResponse "Poll not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /polls/{id} [delete]
func (h *Handlers) DeletePoll(c *gin.Context) {
	id, valid := pollID(c)
	if !valid {
		return
	}
	if err := h.pollSvc.Delete(c.Request.Context(), middleware.PrincipalFrom(c), id); err != nil {
		failFromService(c, err)
		return
	}
	noContent(c)
}

// GetShortLink godoc
// @ID          getShortLink
// @Summary     Fetch the poll's share short code
// @Description Returns the share record, creating it on first use. Anyone who may view the poll may share it.
// @Tags        Polls
// @Produce     json
//
// @Param       id  path  string  true  "Poll ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.ShortLinkResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Poll not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /polls/{id}/short-link [get]
func (h *Handlers) GetShortLink(c *gin.Context) {
	id, valid := pollID(c)
	if !valid {
		return
	}
	link, err := h.pollSvc.ShortLink(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, ShortLinkResponse{PollID: link.PollID, ShortCode: link.ShortCode})
}

// ResolveShortLink godoc
// @ID          resolveShortLink
// @Summary     Resolve a share code
// @Description Returns the poll a share code points at, under the usual visibility policy.
// @Tags        Polls
// @Produce     json
//
// @Param       code  path  string  true  "Share code"
//
// @Success     200  {object}  domain.Poll
// @Failure     404  {object}  handlers.ErrorResponse "Unknown code"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /s/{code} [get]
func (h *Handlers) ResolveShortLink(c *gin.Context) {
	p, err := h.pollSvc.ResolveShortCode(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("code"))
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}
