package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/tbourn/go-poll-backend/internal/authz"
	"github.com/tbourn/go-poll-backend/internal/domain"
	"github.com/tbourn/go-poll-backend/internal/repo"
)

func TestResultsGet_AggregatesAllOptions(t *testing.T) {
	db := newTestDB(t)
	p := newVotablePoll(t, db)
	votes := &VoteService{DB: db}
	results := &ResultsService{DB: db}

	for i := 0; i < 3; i++ {
		if _, err := votes.Submit(context.Background(), p.ID, p.Options[0].ID, VoterContext{}); err != nil {
			t.Fatalf("vote: %v", err)
		}
	}

	res, err := results.Get(context.Background(), nil, p.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if res.PollID != p.ID || res.Question != p.Question || res.Status != domain.PollStatusOpen {
		t.Fatalf("header fields wrong: %+v", res)
	}
	if res.TotalVotes != 3 {
		t.Fatalf("TotalVotes = %d, want 3", res.TotalVotes)
	}
	if len(res.Options) != 2 {
		t.Fatalf("every option must appear, got %d", len(res.Options))
	}
	if res.Options[0].VoteCount != 3 || res.Options[1].VoteCount != 0 {
		t.Fatalf("per-option counts wrong: %+v", res.Options)
	}
}

func TestResultsGet_NotFound(t *testing.T) {
	results := &ResultsService{DB: newTestDB(t)}

	_, err := results.Get(context.Background(), nil, uuid.NewString())
	if !errors.Is(err, ErrPollNotFound) {
		t.Fatalf("expected ErrPollNotFound, got %v", err)
	}
}

func TestResultsGet_OwnerOnlyPolicy(t *testing.T) {
	db := newTestDB(t)
	owner := uuid.NewString()
	p := newVotablePoll(t, db, func(p *domain.Poll) {
		p.CreatedBy = owner
		p.ResultsVisibility = domain.ResultsOwnerOnly
	})
	results := &ResultsService{DB: db}

	if _, err := results.Get(context.Background(), nil, p.ID); !errors.Is(err, ErrResultsHidden) {
		t.Fatalf("anonymous: expected ErrResultsHidden, got %v", err)
	}
	if _, err := results.Get(context.Background(), &authz.Principal{ID: uuid.NewString()}, p.ID); !errors.Is(err, ErrResultsHidden) {
		t.Fatalf("stranger: expected ErrResultsHidden, got %v", err)
	}
	if _, err := results.Get(context.Background(), &authz.Principal{ID: owner}, p.ID); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if _, err := results.Get(context.Background(), &authz.Principal{ID: uuid.NewString(), Role: domain.RoleAdmin}, p.ID); err != nil {
		t.Fatalf("admin: %v", err)
	}
}

func TestResultsGet_AfterClosePolicy(t *testing.T) {
	db := newTestDB(t)
	p := newVotablePoll(t, db, func(p *domain.Poll) {
		p.ResultsVisibility = domain.ResultsAfterClose
	})
	results := &ResultsService{DB: db}

	if _, err := results.Get(context.Background(), nil, p.ID); !errors.Is(err, ErrResultsHidden) {
		t.Fatalf("open poll: expected ErrResultsHidden, got %v", err)
	}

	if ok, err := repo.SetStatusCAS(context.Background(), db, p.ID, domain.PollStatusOpen, domain.PollStatusClosed); err != nil || !ok {
		t.Fatalf("close poll: %v, %v", ok, err)
	}
	if _, err := results.Get(context.Background(), nil, p.ID); err != nil {
		t.Fatalf("closed poll: %v", err)
	}
}

func TestResultsGet_PrivatePollDoesNotLeak(t *testing.T) {
	db := newTestDB(t)
	p := newVotablePoll(t, db, func(p *domain.Poll) {
		p.Visibility = domain.VisibilityPrivate
		p.ResultsVisibility = domain.ResultsPublic
	})
	results := &ResultsService{DB: db}

	// Strangers get not-found, never the hidden-results hint.
	if _, err := results.Get(context.Background(), nil, p.ID); !errors.Is(err, ErrPollNotFound) {
		t.Fatalf("expected ErrPollNotFound, got %v", err)
	}
}
