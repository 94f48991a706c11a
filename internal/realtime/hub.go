// Package realtime implements the change-feed side of live results: an
// in-process hub that fans vote-insert events out to per-poll subscribers,
// fed by a GORM create callback on the votes table (see feed.go).
//
// Delivery contract: at-least-once per connected subscriber, with drops
// allowed under backpressure. Subscribers must therefore treat an event as a
// hint to re-fetch the aggregate, never as a delta to apply. The aggregation
// read is idempotent, so duplicate or coalesced notifications are harmless.
// Channels are scoped per poll, so unrelated polls never cross-notify.
package realtime

import (
	"sync"
)

// VoteEvent describes one vote insert. It intentionally carries identifiers
// only: consumers re-fetch the aggregate rather than trusting the raw row,
// because concurrent inserts can race any single notification.
type VoteEvent struct {
	PollID   string `json:"poll_id"`
	OptionID string `json:"option_id"`
	VoteID   string `json:"vote_id"`
}

// subscriberBuffer bounds each subscriber's channel. A full buffer drops the
// event for that subscriber; the next event (or the subscriber's own
// re-fetch) recovers the missed state.
const subscriberBuffer = 8

// Hub is a per-poll publish/subscribe fanout. The zero value is not usable;
// construct with NewHub. All methods are safe for concurrent use.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{} // poll id → subscribers
}

type subscriber struct {
	ch chan VoteEvent
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers interest in pollID's vote inserts. It returns the event
// channel and a cancel function; the caller MUST invoke cancel when the view
// is torn down, which unregisters the subscriber and closes the channel.
// Cancel is idempotent.
func (h *Hub) Subscribe(pollID string) (<-chan VoteEvent, func()) {
	sub := &subscriber{ch: make(chan VoteEvent, subscriberBuffer)}

	h.mu.Lock()
	set, ok := h.subs[pollID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[pollID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[pollID]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(h.subs, pollID)
				}
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers ev to every subscriber of ev.PollID. It never blocks the
// caller: a subscriber whose buffer is full simply misses this event.
func (h *Hub) Publish(ev VoteEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[ev.PollID] {
		select {
		case sub.ch <- ev:
		default:
			// Slow subscriber; it will re-fetch on its next event.
		}
	}
}

// SubscriberCount reports the number of live subscribers for a poll. Used by
// tests and the health surface; not part of the delivery contract.
func (h *Hub) SubscriberCount(pollID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[pollID])
}
