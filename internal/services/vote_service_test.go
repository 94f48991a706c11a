package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-poll-backend/internal/authz"
	"github.com/tbourn/go-poll-backend/internal/domain"
	"github.com/tbourn/go-poll-backend/internal/repo"
)

// newTestDB opens a throwaway in-memory database with the full schema,
// including the partial unique vote index.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:votesvc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// newFileDB opens a file-backed database for tests that hammer the store
// from multiple goroutines.
func newFileDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "votes.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newVotablePoll(t *testing.T, db *gorm.DB, mutate ...func(*domain.Poll)) *domain.Poll {
	t.Helper()

	p := &domain.Poll{
		Question:          "Deploy on Fridays?",
		CreatedBy:         uuid.NewString(),
		Status:            domain.PollStatusOpen,
		Visibility:        domain.VisibilityPublic,
		ResultsVisibility: domain.ResultsPublic,
	}
	for _, m := range mutate {
		m(p)
	}
	p, err := repo.CreatePollWithOptions(context.Background(), db, p, []string{"Yes", "No"})
	if err != nil {
		t.Fatalf("seed poll: %v", err)
	}
	return p
}

func voter(id string) VoterContext {
	return VoterContext{Principal: &authz.Principal{ID: id, Role: domain.RoleUser}}
}

func TestSubmit_AnonymousOnOpenPoll(t *testing.T) {
	db := newTestDB(t)
	p := newVotablePoll(t, db)
	svc := &VoteService{DB: db}

	r, err := svc.Submit(context.Background(), p.ID, p.Options[0].ID, VoterContext{IPAddress: "198.51.100.4"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if r.Duplicate || r.VoteID == "" || r.PollID != p.ID || r.OptionID != p.Options[0].ID {
		t.Fatalf("unexpected receipt: %+v", r)
	}
	if r.SingleVote {
		t.Fatal("receipt claims single-vote on a multi-vote poll")
	}
}

func TestSubmit_PollNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := &VoteService{DB: db}

	_, err := svc.Submit(context.Background(), uuid.NewString(), uuid.NewString(), VoterContext{})
	if !errors.Is(err, ErrPollNotFound) {
		t.Fatalf("expected ErrPollNotFound, got %v", err)
	}
}

func TestSubmit_ClosedPoll(t *testing.T) {
	db := newTestDB(t)
	p := newVotablePoll(t, db, func(p *domain.Poll) { p.Status = domain.PollStatusClosed })
	svc := &VoteService{DB: db}

	_, err := svc.Submit(context.Background(), p.ID, p.Options[0].ID, VoterContext{})
	if !errors.Is(err, ErrPollClosed) {
		t.Fatalf("expected ErrPollClosed, got %v", err)
	}

	n, _ := repo.CountVotes(context.Background(), db, p.ID)
	if n != 0 {
		t.Fatalf("vote recorded on closed poll: %d", n)
	}
}

func TestSubmit_ExpiredPoll(t *testing.T) {
	db := newTestDB(t)
	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newVotablePoll(t, db, func(p *domain.Poll) { p.ExpiresAt = &deadline })

	svc := &VoteService{DB: db, Now: func() time.Time { return deadline.Add(time.Second) }}
	if _, err := svc.Submit(context.Background(), p.ID, p.Options[0].ID, VoterContext{}); !errors.Is(err, ErrPollClosed) {
		t.Fatalf("expected ErrPollClosed after deadline, got %v", err)
	}

	svc.Now = func() time.Time { return deadline.Add(-time.Second) }
	if _, err := svc.Submit(context.Background(), p.ID, p.Options[0].ID, VoterContext{}); err != nil {
		t.Fatalf("vote before deadline: %v", err)
	}
}

func TestSubmit_AuthRequired(t *testing.T) {
	db := newTestDB(t)
	p := newVotablePoll(t, db, func(p *domain.Poll) { p.RequireAuth = true })
	svc := &VoteService{DB: db}

	if _, err := svc.Submit(context.Background(), p.ID, p.Options[0].ID, VoterContext{}); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}

	if _, err := svc.Submit(context.Background(), p.ID, p.Options[0].ID, voter(uuid.NewString())); err != nil {
		t.Fatalf("authenticated vote: %v", err)
	}
}

func TestSubmit_InvalidOption(t *testing.T) {
	db := newTestDB(t)
	p := newVotablePoll(t, db)
	other := newVotablePoll(t, db)
	svc := &VoteService{DB: db}

	// An option from a different poll must not pass validation.
	_, err := svc.Submit(context.Background(), p.ID, other.Options[0].ID, VoterContext{})
	if !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
}

func TestSubmit_SingleVoteDuplicateCollapses(t *testing.T) {
	db := newTestDB(t)
	p := newVotablePoll(t, db, func(p *domain.Poll) { p.SingleVote = true })
	svc := &VoteService{DB: db}
	v := voter(uuid.NewString())

	first, err := svc.Submit(context.Background(), p.ID, p.Options[0].ID, v)
	if err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if first.Duplicate || !first.SingleVote {
		t.Fatalf("unexpected first receipt: %+v", first)
	}

	// Resubmitting, even for a different option, is an idempotent no-op.
	second, err := svc.Submit(context.Background(), p.ID, p.Options[1].ID, v)
	if err != nil {
		t.Fatalf("second vote: %v", err)
	}
	if !second.Duplicate || second.VoteID != "" {
		t.Fatalf("expected duplicate receipt, got %+v", second)
	}

	n, _ := repo.CountVotes(context.Background(), db, p.ID)
	if n != 1 {
		t.Fatalf("CountVotes = %d, want 1", n)
	}
}

func TestSubmit_MultiVotePollAllowsRepeat(t *testing.T) {
	db := newTestDB(t)
	p := newVotablePoll(t, db)
	svc := &VoteService{DB: db}
	v := voter(uuid.NewString())

	for i := 0; i < 3; i++ {
		r, err := svc.Submit(context.Background(), p.ID, p.Options[0].ID, v)
		if err != nil || r.Duplicate {
			t.Fatalf("vote %d: %+v, %v", i, r, err)
		}
	}
	n, _ := repo.CountVotes(context.Background(), db, p.ID)
	if n != 3 {
		t.Fatalf("CountVotes = %d, want 3", n)
	}
}

func TestSubmit_ConcurrentSameVoter(t *testing.T) {
	db := newFileDB(t)
	p := newVotablePoll(t, db, func(p *domain.Poll) { p.SingleVote = true })
	svc := &VoteService{DB: db}
	v := voter(uuid.NewString())

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	const workers = 6
	var wg sync.WaitGroup
	receipts := make([]*VoteReceipt, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			receipts[i], errs[i] = svc.Submit(context.Background(), p.ID, p.Options[i%2].ID, v)
		}(i)
	}
	wg.Wait()

	var fresh int
	for i := range receipts {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if !receipts[i].Duplicate {
			fresh++
		}
	}
	if fresh != 1 {
		t.Fatalf("fresh receipts = %d, want exactly 1", fresh)
	}

	n, _ := repo.CountVotes(context.Background(), db, p.ID)
	if n != 1 {
		t.Fatalf("CountVotes = %d, want 1", n)
	}
}
