// Package services defines the business logic for accounts, polls, votes, and
// results. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer.
package services

import (
	"errors"
	"fmt"
	"strings"
)

// Poll lifecycle errors.
var (
	// ErrPollNotFound indicates that the requested poll does not exist or is
	// not visible to the current principal. Handlers surface it as a generic
	// not-found so private polls do not leak their existence.
	ErrPollNotFound = errors.New("poll not found")

	// ErrUnauthorized is returned when a modify/delete/status-toggle is
	// attempted by a principal that is neither the poll owner nor an admin.
	ErrUnauthorized = errors.New("not allowed to modify this poll")

	// ErrPollHasVotes is returned when an update would replace the option set
	// of a poll that already has votes. Replacing options would cascade the
	// existing votes away, so the operation is refused outright.
	ErrPollHasVotes = errors.New("cannot replace options once votes exist")

	// ErrInvalidTransition is returned when a status toggle is attempted on a
	// draft poll. Drafts leave the draft state only through an explicit
	// publish, never through the open/closed flip.
	ErrInvalidTransition = errors.New("draft polls cannot be toggled")

	// ErrStatusConflict is returned when a status toggle loses a
	// compare-and-set race against a concurrent toggle.
	ErrStatusConflict = errors.New("poll status changed concurrently")
)

// Vote submission errors.
var (
	// ErrPollClosed is returned when a vote targets a poll whose status is
	// not open (or whose expiry has passed). No vote is recorded.
	ErrPollClosed = errors.New("poll is not open for voting")

	// ErrAuthRequired is returned when a poll requires authenticated voters
	// and the request carries no principal. The caller is expected to send
	// the voter through the identity flow and replay the vote intent.
	ErrAuthRequired = errors.New("voting on this poll requires authentication")

	// ErrInvalidOption is returned when the submitted option does not belong
	// to the poll's option set.
	ErrInvalidOption = errors.New("option does not belong to this poll")

	// ErrSubmissionFailed wraps transient store failures on the vote write
	// path. It is safe to retry: no partial state is committed, and a retried
	// duplicate collapses into the idempotent success path.
	ErrSubmissionFailed = errors.New("vote submission failed")
)

// Results errors.
var (
	// ErrResultsHidden is returned when the principal may see the poll but
	// not its aggregated results under the results_visibility policy.
	ErrResultsHidden = errors.New("results are not visible to you")
)

// Account errors.
var (
	// ErrEmailTaken indicates the signup email is already registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned for a failed login. It deliberately
	// does not distinguish unknown email from wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError reports every violated input field of a request, not just
// the first. Fields maps a field name to its human-readable violations.
type ValidationError struct {
	Fields map[string][]string
}

// Error implements the error interface with a stable, compact rendering.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msgs := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// add appends a violation, allocating the map on first use.
func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
