package authz

import (
	"testing"

	"github.com/tbourn/go-poll-backend/internal/domain"
)

func TestPrincipal_IsAdmin_NilSafe(t *testing.T) {
	var p *Principal
	if p.IsAdmin() {
		t.Fatalf("nil principal must not be admin")
	}
	if (&Principal{ID: "u1", Role: domain.RoleUser}).IsAdmin() {
		t.Fatalf("user role must not be admin")
	}
	if !(&Principal{ID: "u1", Role: domain.RoleAdmin}).IsAdmin() {
		t.Fatalf("admin role not recognized")
	}
}

func TestCanModify(t *testing.T) {
	poll := &domain.Poll{ID: "p1", CreatedBy: "owner"}

	cases := []struct {
		name string
		p    *Principal
		want bool
	}{
		{"anonymous", nil, false},
		{"stranger", &Principal{ID: "other", Role: domain.RoleUser}, false},
		{"owner", &Principal{ID: "owner", Role: domain.RoleUser}, true},
		{"admin", &Principal{ID: "other", Role: domain.RoleAdmin}, true},
	}
	for _, tc := range cases {
		if got := CanModify(tc.p, poll); got != tc.want {
			t.Errorf("%s: CanModify = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCanViewResults_Policies(t *testing.T) {
	owner := &Principal{ID: "owner", Role: domain.RoleUser}
	admin := &Principal{ID: "root", Role: domain.RoleAdmin}
	voter := &Principal{ID: "voter", Role: domain.RoleUser}

	mk := func(policy, status string) *domain.Poll {
		return &domain.Poll{ID: "p1", CreatedBy: "owner", ResultsVisibility: policy, Status: status}
	}

	cases := []struct {
		name string
		p    *Principal
		poll *domain.Poll
		want bool
	}{
		{"public/anonymous", nil, mk(domain.ResultsPublic, domain.PollStatusOpen), true},
		{"public/voter", voter, mk(domain.ResultsPublic, domain.PollStatusOpen), true},

		{"owner_only/anonymous", nil, mk(domain.ResultsOwnerOnly, domain.PollStatusOpen), false},
		{"owner_only/voter", voter, mk(domain.ResultsOwnerOnly, domain.PollStatusOpen), false},
		{"owner_only/owner", owner, mk(domain.ResultsOwnerOnly, domain.PollStatusOpen), true},
		{"owner_only/admin", admin, mk(domain.ResultsOwnerOnly, domain.PollStatusOpen), true},

		{"after_close/open/voter", voter, mk(domain.ResultsAfterClose, domain.PollStatusOpen), false},
		{"after_close/closed/voter", voter, mk(domain.ResultsAfterClose, domain.PollStatusClosed), true},
		{"after_close/open/owner", owner, mk(domain.ResultsAfterClose, domain.PollStatusOpen), true},
		{"after_close/open/admin", admin, mk(domain.ResultsAfterClose, domain.PollStatusOpen), true},
	}
	for _, tc := range cases {
		if got := CanViewResults(tc.p, tc.poll); got != tc.want {
			t.Errorf("%s: CanViewResults = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCanViewPoll_PrivateDoesNotLeak(t *testing.T) {
	private := &domain.Poll{ID: "p1", CreatedBy: "owner", Visibility: domain.VisibilityPrivate}
	unlisted := &domain.Poll{ID: "p2", CreatedBy: "owner", Visibility: domain.VisibilityUnlisted}

	if CanViewPoll(nil, private) {
		t.Fatalf("anonymous must not view private poll")
	}
	if CanViewPoll(&Principal{ID: "other", Role: domain.RoleUser}, private) {
		t.Fatalf("stranger must not view private poll")
	}
	if !CanViewPoll(&Principal{ID: "owner", Role: domain.RoleUser}, private) {
		t.Fatalf("owner must view private poll")
	}
	if !CanViewPoll(&Principal{ID: "other", Role: domain.RoleAdmin}, private) {
		t.Fatalf("admin must view private poll")
	}
	if !CanViewPoll(nil, unlisted) {
		t.Fatalf("unlisted polls are fetchable by anyone holding the id")
	}
}

func TestCanViewPoll_NilPoll(t *testing.T) {
	if CanViewPoll(&Principal{ID: "u", Role: domain.RoleAdmin}, nil) {
		t.Fatalf("nil poll must not be viewable")
	}
	if CanViewResults(&Principal{ID: "u", Role: domain.RoleAdmin}, nil) {
		t.Fatalf("nil poll must not expose results")
	}
}
