// Results HTTP handlers.
//
// This file exposes the aggregated results read model and its live stream:
//   - GET /polls/{id}/results         (one-shot aggregate)
//   - GET /polls/{id}/results/stream  (SSE, re-aggregated on every vote)
//
// The stream follows the change-feed contract: each hub event is a hint to
// re-fetch the aggregate, never a delta to apply, so dropped or duplicated
// notifications are harmless.
package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-poll-backend/internal/http/middleware"
)

// streamHeartbeat is the keep-alive interval for idle result streams.
const streamHeartbeat = 25 * time.Second

// GetResults godoc
// @ID          getResults
// @Summary     Fetch aggregated poll results
// @Description Returns per-option and total vote counts. Every option appears, zero-vote options included. Gated by the poll's results_visibility policy.
// @Tags        Results
// @Produce     json
//
// @Param       id  path  string  true  "Poll ID (UUID)"  format(uuid)
//
// @Success     200  {object}  services.PollResults
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Results hidden"
// @Failure     404  {object}  handlers.ErrorResponse "Poll not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /polls/{id}/results [get]
func (h *Handlers) GetResults(c *gin.Context) {
	id, valid := pollID(c)
	if !valid {
		return
	}
	res, err := h.resultsSvc.Get(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// StreamResults godoc
// @ID          streamResults
// @Summary     Stream live poll results (SSE)
// @Description Opens a Server-Sent Events stream. The current aggregate is sent immediately, then re-sent whenever a vote lands on the poll. Heartbeat comments keep idle connections alive.
// @Tags        Results
// @Produce     text/event-stream
//
// @Param       id  path  string  true  "Poll ID (UUID)"  format(uuid)
//
// @Success     200  {string}  string "event: results / data: {...}"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Results hidden"
// @Failure     404  {object}  handlers.ErrorResponse "Poll not found"
// @Router      /polls/{id}/results/stream [get]
func (h *Handlers) StreamResults(c *gin.Context) {
	id, valid := pollID(c)
	if !valid {
		return
	}
	principal := middleware.PrincipalFrom(c)
	ctx := c.Request.Context()

	// Subscribe before taking the snapshot: a vote landing in between then
	// sits in the channel and triggers a re-fetch, instead of being lost
	// until the next vote.
	events, cancel := h.hub.Subscribe(id)
	defer cancel()

	// The visibility gate runs before the stream is upgraded, with the same
	// semantics as the one-shot endpoint.
	snapshot, err := h.resultsSvc.Get(ctx, principal, id)
	if err != nil {
		failFromService(c, err)
		return
	}

	middleware.StreamOpened()
	defer middleware.StreamClosed()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("results", snapshot)
	c.Writer.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case _, open := <-events:
			if !open {
				return false
			}
			res, err := h.resultsSvc.Get(ctx, principal, id)
			if err != nil {
				// Poll deleted or closed out from under the stream.
				return false
			}
			c.SSEvent("results", res)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
