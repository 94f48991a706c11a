// Package realtime – change feed attachment.
//
// AttachVoteFeed hooks the hub into the persistence layer so that every
// committed vote insert is published to the poll's channel without the vote
// engine knowing about subscribers. The voter's request never waits on
// delivery: Publish is non-blocking, and the callback adds no I/O.
package realtime

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-poll-backend/internal/domain"
)

// feedCallbackName identifies the registered GORM callback.
const feedCallbackName = "realtime:vote_feed"

// AttachVoteFeed registers an after-create callback on db that publishes a
// VoteEvent for every persisted Vote row. Other models pass through
// untouched. Calling it twice on the same handle replaces the previous
// registration.
func AttachVoteFeed(db *gorm.DB, hub *Hub) error {
	create := db.Callback().Create()
	if create.Get(feedCallbackName) != nil {
		if err := create.Remove(feedCallbackName); err != nil {
			return err
		}
	}
	return create.After("gorm:create").Register(feedCallbackName, func(tx *gorm.DB) {
		if tx.Error != nil || tx.RowsAffected == 0 {
			return
		}
		v, ok := tx.Statement.Dest.(*domain.Vote)
		if !ok {
			return
		}
		publishWithSpan(tx, hub, VoteEvent{
			PollID:   v.PollID,
			OptionID: v.OptionID,
			VoteID:   v.ID,
		})
	})
}

// publishWithSpan records the fanout as a child span of the insert when the
// statement carries a trace context.
func publishWithSpan(tx *gorm.DB, hub *Hub, ev VoteEvent) {
	ctx := tx.Statement.Context
	var span trace.Span
	if ctx != nil {
		ctx, span = otel.Tracer("realtime").Start(ctx, "vote_feed.publish")
		span.SetAttributes(attribute.String("poll.id", ev.PollID))
		defer span.End()
		_ = ctx
	}
	hub.Publish(ev)
}
