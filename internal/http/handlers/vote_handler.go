// Vote HTTP handlers.
//
// This file exposes the vote submission endpoint. The handler layers the
// transport-level pieces of the voting flow on top of the submission engine:
//   - the anonymous participation marker (a signed per-poll cookie) that
//     short-circuits repeat submissions from the same browser,
//   - the vote intent token that lets an unauthenticated vote on an
//     auth-required poll be replayed unchanged after login,
//   - client metadata capture (IP, user agent) for the vote record.
//
// The marker is browser-scoped and best-effort: clearing cookies defeats it.
// Account-scoped enforcement lives in the storage layer and applies only to
// authenticated voters.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-poll-backend/internal/http/middleware"
	"github.com/tbourn/go-poll-backend/internal/services"
)

// markerCookiePrefix prefixes the per-poll participation cookie name.
const markerCookiePrefix = "pv_"

// SubmitVoteRequest is the JSON payload for casting a vote. Either OptionID
// or IntentToken must be set; IntentToken wins when both are present and must
// have been minted for the same poll.
type SubmitVoteRequest struct {
	// OptionID selects the answer choice.
	OptionID string `json:"option_id" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	// IntentToken replays a vote captured before a login redirect.
	IntentToken string `json:"intent_token,omitempty"`
}

// AuthRequiredResponse is the 401 envelope for votes on auth-required polls.
// IntentToken captures the pending vote so the client can replay it after
// authenticating, without re-asking the voter.
type AuthRequiredResponse struct {
	RequestID   string `json:"request_id,omitempty"`
	Code        string `json:"code" example:"auth_required"`
	Message     string `json:"message"`
	IntentToken string `json:"intent_token"`
}

// SubmitVote godoc
// @ID          submitVote
// @Summary     Cast a vote
// @Description Casts a vote for one option. Duplicate submissions on single-vote polls collapse to an idempotent success with duplicate=true.
// @Tags        Votes
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Poll ID (UUID)"  format(uuid)
// @Param       body  body  handlers.SubmitVoteRequest  true  "Vote payload"
//
// @Success     200  {object}  services.VoteReceipt "Duplicate collapsed"
// @Success     201  {object}  services.VoteReceipt
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.AuthRequiredResponse "Authentication required (carries intent token)"
// @Failure     404  {object}  handlers.ErrorResponse "Poll not found"
// @Failure     409  {object}  handlers.ErrorResponse "Poll closed"
// @Failure     422  {object}  handlers.ErrorResponse "Option not in poll"
// @Failure     500  {object}  handlers.ErrorResponse "Submission failed (retryable)"
// @Router      /polls/{id}/votes [post]
func (h *Handlers) SubmitVote(c *gin.Context) {
	id, valid := pollID(c)
	if !valid {
		return
	}

	var req SubmitVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	optionID := req.OptionID
	if req.IntentToken != "" {
		tokPoll, tokOption, err := h.tokens.ParseVoteIntent(req.IntentToken)
		if err != nil || tokPoll != id {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid or expired intent token")
			return
		}
		optionID = tokOption
	}
	if optionID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "option_id is required")
		return
	}

	principal := middleware.PrincipalFrom(c)

	// Anonymous repeat from the same browser: a valid marker means this
	// browser already voted on a single-vote poll, so collapse without
	// touching the store. The marker is only ever minted for single-vote
	// polls.
	if principal == nil {
		if marker, err := c.Cookie(markerCookiePrefix + id); err == nil &&
			h.tokens.VerifyVoteMarker(marker, id) {
			ok(c, http.StatusOK, &services.VoteReceipt{
				PollID:    id,
				OptionID:  optionID,
				Duplicate: true,
			})
			return
		}
	}

	receipt, err := h.voteSvc.Submit(c.Request.Context(), id, optionID, services.VoterContext{
		Principal: principal,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		if errors.Is(err, services.ErrAuthRequired) {
			h.failAuthRequired(c, id, optionID)
			return
		}
		failFromService(c, err)
		return
	}

	// The marker is set only after the store confirmed the write (or its
	// duplicate collapse), never on failure: a marker without a vote would
	// silently disenfranchise the browser.
	if principal == nil && receipt.SingleVote && !receipt.Duplicate {
		h.setVoteMarker(c, id)
	}

	outcome := "accepted"
	status := http.StatusCreated
	if receipt.Duplicate {
		outcome = "duplicate"
		status = http.StatusOK
	}
	middleware.CountVote(outcome)

	ok(c, status, receipt)
}

// failAuthRequired writes the 401 envelope carrying a fresh intent token for
// the pending (poll, option) pair.
func (h *Handlers) failAuthRequired(c *gin.Context, pollID, optionID string) {
	intent, err := h.tokens.IssueVoteIntent(pollID, optionID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, AuthRequiredResponse{
		RequestID:   c.Writer.Header().Get("X-Request-ID"),
		Code:        ErrCodeAuthRequired,
		Message:     "voting on this poll requires authentication",
		IntentToken: intent,
	})
}

// setVoteMarker mints and sets the signed per-poll participation cookie.
func (h *Handlers) setVoteMarker(c *gin.Context, pollID string) {
	marker, err := h.tokens.IssueVoteMarker(pollID)
	if err != nil {
		// The vote itself is already durable; losing the marker only
		// weakens the browser-level guard.
		middleware.LoggerFrom(c).Warn().Err(err).Str("poll_id", pollID).Msg("vote marker mint failed")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(markerCookiePrefix+pollID, marker, int(h.tokens.MarkerTTL.Seconds()), "/", "", false, true)
}
