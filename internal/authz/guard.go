// Package authz implements the authorization guard: two pure predicates that
// every mutating or results-reading operation consults. The guard is evaluated
// only against a server-resolved principal (token parse plus a trusted role
// lookup) and never against client-supplied flags.
//
// A nil *Principal means the request is anonymous. Keeping the predicates pure
// functions of (principal, poll) makes the core engine deterministic and
// trivially testable.
package authz

import (
	"github.com/tbourn/go-poll-backend/internal/domain"
)

// Principal is the acting identity for a request: an authenticated user with
// its trusted role. Anonymous requests carry a nil *Principal.
type Principal struct {
	// ID is the user/profile identifier.
	ID string
	// Role is the trusted role loaded from the profiles table.
	Role string
}

// IsAdmin reports whether the principal carries the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == domain.RoleAdmin
}

// IsOwner reports whether the principal owns the given poll.
func (p *Principal) IsOwner(poll *domain.Poll) bool {
	return p != nil && poll != nil && p.ID == poll.CreatedBy
}

// CanModify reports whether the principal may update, delete, or toggle the
// poll: true iff it is the owner or an admin.
func CanModify(p *Principal, poll *domain.Poll) bool {
	return p.IsOwner(poll) || p.IsAdmin()
}

// CanViewResults reports whether the principal may view the poll's aggregated
// results under its results_visibility policy:
//
//   - public:      always.
//   - owner_only:  owner or admin.
//   - after_close: once the poll is closed, plus owner and admin at any time.
func CanViewResults(p *Principal, poll *domain.Poll) bool {
	if poll == nil {
		return false
	}
	if p.IsOwner(poll) || p.IsAdmin() {
		return true
	}
	switch poll.ResultsVisibility {
	case domain.ResultsPublic:
		return true
	case domain.ResultsAfterClose:
		return poll.Status == domain.PollStatusClosed
	default:
		return false
	}
}

// CanViewPoll reports whether the principal may see that the poll exists at
// all. Private polls are visible only to their owner and admins; public and
// unlisted polls are fetchable by anyone holding the ID.
func CanViewPoll(p *Principal, poll *domain.Poll) bool {
	if poll == nil {
		return false
	}
	if poll.Visibility != domain.VisibilityPrivate {
		return true
	}
	return p.IsOwner(poll) || p.IsAdmin()
}
