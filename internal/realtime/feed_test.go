package realtime

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-poll-backend/internal/domain"
	"github.com/tbourn/go-poll-backend/internal/repo"
)

func newFeedDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:feed_%s?mode=memory&cache=shared", uuid.NewString())
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

func seedFeedPoll(t *testing.T, db *gorm.DB) *domain.Poll {
	t.Helper()

	p, err := repo.CreatePollWithOptions(context.Background(), db, &domain.Poll{
		Question:          "Feed?",
		CreatedBy:         uuid.NewString(),
		Status:            domain.PollStatusOpen,
		Visibility:        domain.VisibilityPublic,
		ResultsVisibility: domain.ResultsPublic,
	}, []string{"Yes", "No"})
	if err != nil {
		t.Fatalf("seed poll: %v", err)
	}
	return p
}

func TestAttachVoteFeed_PublishesOnInsert(t *testing.T) {
	db := newFeedDB(t)
	hub := NewHub()
	if err := AttachVoteFeed(db, hub); err != nil {
		t.Fatalf("attach: %v", err)
	}

	p := seedFeedPoll(t, db)
	ch, cancel := hub.Subscribe(p.ID)
	defer cancel()

	v, err := repo.CreateVote(context.Background(), db, p.ID, p.Options[0].ID, nil, false, "", "")
	if err != nil {
		t.Fatalf("vote: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.PollID != p.ID || ev.OptionID != p.Options[0].ID || ev.VoteID != v.ID {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event published for vote insert")
	}
}

func TestAttachVoteFeed_NoCrossPollNotify(t *testing.T) {
	db := newFeedDB(t)
	hub := NewHub()
	if err := AttachVoteFeed(db, hub); err != nil {
		t.Fatalf("attach: %v", err)
	}

	p1 := seedFeedPoll(t, db)
	p2 := seedFeedPoll(t, db)
	ch, cancel := hub.Subscribe(p1.ID)
	defer cancel()

	if _, err := repo.CreateVote(context.Background(), db, p2.ID, p2.Options[0].ID, nil, false, "", ""); err != nil {
		t.Fatalf("vote: %v", err)
	}

	select {
	case ev := <-ch:
		t.Fatalf("cross-poll event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAttachVoteFeed_IgnoresOtherModels(t *testing.T) {
	db := newFeedDB(t)
	hub := NewHub()
	if err := AttachVoteFeed(db, hub); err != nil {
		t.Fatalf("attach: %v", err)
	}

	p := seedFeedPoll(t, db)
	ch, cancel := hub.Subscribe(p.ID)
	defer cancel()

	// Non-vote inserts pass through without publishing.
	if _, err := repo.EnsureShortLink(context.Background(), db, p.ID); err != nil {
		t.Fatalf("short link: %v", err)
	}

	select {
	case ev := <-ch:
		t.Fatalf("event for non-vote insert: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAttachVoteFeed_Reattach(t *testing.T) {
	db := newFeedDB(t)
	hub := NewHub()
	if err := AttachVoteFeed(db, hub); err != nil {
		t.Fatalf("first attach: %v", err)
	}
	if err := AttachVoteFeed(db, hub); err != nil {
		t.Fatalf("re-attach: %v", err)
	}

	p := seedFeedPoll(t, db)
	ch, cancel := hub.Subscribe(p.ID)
	defer cancel()

	if _, err := repo.CreateVote(context.Background(), db, p.ID, p.Options[0].ID, nil, false, "", ""); err != nil {
		t.Fatalf("vote: %v", err)
	}

	// Exactly one event: the previous registration was replaced.
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no event after re-attach")
	}
	select {
	case ev := <-ch:
		t.Fatalf("duplicate registration still firing: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
