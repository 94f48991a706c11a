package repo

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-poll-backend/internal/domain"
)

// newRepoDB opens a file-backed test database through the production
// bootstrap so the PRAGMAs and the partial unique index are in place.
func newRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "repo_test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// seedPoll inserts a poll with two options and returns it.
func seedPoll(t *testing.T, db *gorm.DB, mutate ...func(*domain.Poll)) *domain.Poll {
	t.Helper()

	p := &domain.Poll{
		Question:          "Tea or coffee?",
		CreatedBy:         "owner-1",
		Status:            domain.PollStatusOpen,
		Visibility:        domain.VisibilityPublic,
		ResultsVisibility: domain.ResultsPublic,
	}
	for _, m := range mutate {
		m(p)
	}
	p, err := CreatePollWithOptions(context.Background(), db, p, []string{"Tea", "Coffee"})
	if err != nil {
		t.Fatalf("seed poll: %v", err)
	}
	return p
}

func strptr(s string) *string { return &s }

func TestCreateVote_PersistsFields(t *testing.T) {
	db := newRepoDB(t)
	p := seedPoll(t, db)

	v, err := CreateVote(context.Background(), db, p.ID, p.Options[0].ID, strptr("u1"), false, "203.0.113.7", "curl/8")
	if err != nil {
		t.Fatalf("CreateVote: %v", err)
	}
	if v.ID == "" || v.PollID != p.ID || v.OptionID != p.Options[0].ID {
		t.Fatalf("unexpected vote fields: %+v", v)
	}
	if v.VoterKey != nil {
		t.Fatalf("voter key must stay NULL when dedupe is off")
	}

	var got domain.Vote
	if err := db.First(&got, "id = ?", v.ID).Error; err != nil {
		t.Fatalf("load vote: %v", err)
	}
	if got.IPAddress == nil || *got.IPAddress != "203.0.113.7" {
		t.Fatalf("ip not persisted: %+v", got)
	}
}

func TestCreateVote_DuplicateBlockedByIndex(t *testing.T) {
	db := newRepoDB(t)
	p := seedPoll(t, db)

	if _, err := CreateVote(context.Background(), db, p.ID, p.Options[0].ID, strptr("u1"), true, "", ""); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	_, err := CreateVote(context.Background(), db, p.ID, p.Options[1].ID, strptr("u1"), true, "", "")
	if !errors.Is(err, ErrDuplicateVote) {
		t.Fatalf("expected ErrDuplicateVote, got %v", err)
	}

	n, err := CountVotes(context.Background(), db, p.ID)
	if err != nil || n != 1 {
		t.Fatalf("CountVotes = %d, %v; want 1, nil", n, err)
	}
}

func TestCreateVote_IndexIsPartial(t *testing.T) {
	db := newRepoDB(t)
	p := seedPoll(t, db)

	// Multi-vote: same user may vote repeatedly because the voter key
	// stays NULL and the partial index does not apply.
	for i := 0; i < 3; i++ {
		if _, err := CreateVote(context.Background(), db, p.ID, p.Options[0].ID, strptr("u1"), false, "", ""); err != nil {
			t.Fatalf("vote %d: %v", i, err)
		}
	}
	// Anonymous votes: always NULL key, never constrained.
	for i := 0; i < 2; i++ {
		if _, err := CreateVote(context.Background(), db, p.ID, p.Options[1].ID, nil, false, "", ""); err != nil {
			t.Fatalf("anon vote %d: %v", i, err)
		}
	}

	n, _ := CountVotes(context.Background(), db, p.ID)
	if n != 5 {
		t.Fatalf("CountVotes = %d, want 5", n)
	}
}

func TestCreateVote_ConcurrentSameVoter_OneRow(t *testing.T) {
	db := newRepoDB(t)
	p := seedPoll(t, db)

	// Serialize at the pool level so SQLite never reports busy; the unique
	// index still has to arbitrate which insert wins.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = CreateVote(context.Background(), db, p.ID, p.Options[i%2].ID, strptr("racer"), true, "", "")
		}(i)
	}
	wg.Wait()

	var wins, dups int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrDuplicateVote):
			dups++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || dups != workers-1 {
		t.Fatalf("wins=%d dups=%d, want 1/%d", wins, dups, workers-1)
	}

	n, _ := CountVotes(context.Background(), db, p.ID)
	if n != 1 {
		t.Fatalf("CountVotes = %d, want exactly 1", n)
	}
}

func TestHasVoted(t *testing.T) {
	db := newRepoDB(t)
	p := seedPoll(t, db)

	voted, err := HasVoted(context.Background(), db, p.ID, "u1")
	if err != nil || voted {
		t.Fatalf("HasVoted before vote = %v, %v", voted, err)
	}
	if _, err := CreateVote(context.Background(), db, p.ID, p.Options[0].ID, strptr("u1"), true, "", ""); err != nil {
		t.Fatalf("vote: %v", err)
	}
	voted, err = HasVoted(context.Background(), db, p.ID, "u1")
	if err != nil || !voted {
		t.Fatalf("HasVoted after vote = %v, %v", voted, err)
	}
}

func TestOptionResults_ZeroVoteOptionsIncluded(t *testing.T) {
	db := newRepoDB(t)
	p := seedPoll(t, db)

	// Two votes for the first option, none for the second.
	for i := 0; i < 2; i++ {
		if _, err := CreateVote(context.Background(), db, p.ID, p.Options[0].ID, nil, false, "", ""); err != nil {
			t.Fatalf("vote: %v", err)
		}
	}

	counts, err := OptionResults(context.Background(), db, p.ID)
	if err != nil {
		t.Fatalf("OptionResults: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected both options in results, got %d rows", len(counts))
	}
	// Ordered by order_index: Tea first.
	if counts[0].OptionID != p.Options[0].ID || counts[0].VoteCount != 2 {
		t.Fatalf("first row = %+v, want Tea with 2", counts[0])
	}
	if counts[1].OptionID != p.Options[1].ID || counts[1].VoteCount != 0 {
		t.Fatalf("second row = %+v, want Coffee with 0", counts[1])
	}
}

func TestOptionResults_ScopedToPoll(t *testing.T) {
	db := newRepoDB(t)
	p1 := seedPoll(t, db)
	p2 := seedPoll(t, db)

	if _, err := CreateVote(context.Background(), db, p2.ID, p2.Options[0].ID, nil, false, "", ""); err != nil {
		t.Fatalf("vote: %v", err)
	}

	counts, err := OptionResults(context.Background(), db, p1.ID)
	if err != nil {
		t.Fatalf("OptionResults: %v", err)
	}
	for _, c := range counts {
		if c.VoteCount != 0 {
			t.Fatalf("p1 must be unaffected by p2's votes: %+v", counts)
		}
	}
}

func TestDeletePoll_CascadesVotesAndOptions(t *testing.T) {
	db := newRepoDB(t)
	p := seedPoll(t, db)

	if _, err := CreateVote(context.Background(), db, p.ID, p.Options[0].ID, strptr("u1"), true, "", ""); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if _, err := EnsureShortLink(context.Background(), db, p.ID); err != nil {
		t.Fatalf("short link: %v", err)
	}

	if err := DeletePoll(context.Background(), db, p.ID); err != nil {
		t.Fatalf("DeletePoll: %v", err)
	}

	var votes, options, links int64
	db.Model(&domain.Vote{}).Where("poll_id = ?", p.ID).Count(&votes)
	db.Model(&domain.PollOption{}).Where("poll_id = ?", p.ID).Count(&options)
	db.Model(&domain.PollShortLink{}).Where("poll_id = ?", p.ID).Count(&links)
	if votes != 0 || options != 0 || links != 0 {
		t.Fatalf("cascade incomplete: votes=%d options=%d links=%d", votes, options, links)
	}
}

func TestPollResultsStats(t *testing.T) {
	db := newRepoDB(t)
	p := seedPoll(t, db)

	count, last, err := PollResultsStats(context.Background(), db, p.ID)
	if err != nil || count != 0 || last != nil {
		t.Fatalf("empty stats = (%d, %v, %v)", count, last, err)
	}

	before := time.Now().UTC().Add(-time.Minute)
	if _, err := CreateVote(context.Background(), db, p.ID, p.Options[0].ID, nil, false, "", ""); err != nil {
		t.Fatalf("vote: %v", err)
	}
	count, last, err = PollResultsStats(context.Background(), db, p.ID)
	if err != nil || count != 1 || last == nil {
		t.Fatalf("stats after vote = (%d, %v, %v)", count, last, err)
	}
	if last.Before(before) {
		t.Fatalf("lastVoteAt seems unset: %v", last)
	}
}
