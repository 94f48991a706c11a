package realtime

import (
	"sync"
	"testing"
	"time"
)

func recvOrTimeout(t *testing.T, ch <-chan VoteEvent) VoteEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return VoteEvent{}
	}
}

func TestHub_DeliversToSubscriber(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("poll-1")
	defer cancel()

	h.Publish(VoteEvent{PollID: "poll-1", OptionID: "opt-1", VoteID: "v1"})

	ev := recvOrTimeout(t, ch)
	if ev.VoteID != "v1" || ev.OptionID != "opt-1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestHub_ScopedPerPoll(t *testing.T) {
	h := NewHub()
	ch1, cancel1 := h.Subscribe("poll-1")
	ch2, cancel2 := h.Subscribe("poll-2")
	defer cancel1()
	defer cancel2()

	h.Publish(VoteEvent{PollID: "poll-1", VoteID: "v1"})

	recvOrTimeout(t, ch1)
	select {
	case ev := <-ch2:
		t.Fatalf("cross-poll delivery: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_FanoutToAllSubscribers(t *testing.T) {
	h := NewHub()
	const n = 5
	chans := make([]<-chan VoteEvent, n)
	for i := 0; i < n; i++ {
		ch, cancel := h.Subscribe("poll-1")
		defer cancel()
		chans[i] = ch
	}
	if got := h.SubscriberCount("poll-1"); got != n {
		t.Fatalf("SubscriberCount = %d, want %d", got, n)
	}

	h.Publish(VoteEvent{PollID: "poll-1", VoteID: "v1"})
	for i, ch := range chans {
		if ev := recvOrTimeout(t, ch); ev.VoteID != "v1" {
			t.Fatalf("subscriber %d got %+v", i, ev)
		}
	}
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe("poll-1")
	defer cancel()

	// Nobody drains the channel; publishing far past the buffer must
	// still return promptly.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*4; i++ {
			h.Publish(VoteEvent{PollID: "poll-1", VoteID: "v"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestHub_CancelIdempotentAndCleansUp(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("poll-1")

	cancel()
	cancel() // second call must not panic or double-close

	if _, open := <-ch; open {
		t.Fatal("channel still open after cancel")
	}
	if got := h.SubscriberCount("poll-1"); got != 0 {
		t.Fatalf("SubscriberCount = %d after cancel", got)
	}

	// Publishing into the emptied poll is a no-op.
	h.Publish(VoteEvent{PollID: "poll-1", VoteID: "v1"})
}

func TestHub_ConcurrentSubscribePublishCancel(t *testing.T) {
	h := NewHub()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch, cancel := h.Subscribe("poll-1")
			// Drain whatever arrives, then tear down while publishers
			// are still running.
			for j := 0; j < 3; j++ {
				select {
				case <-ch:
				case <-time.After(time.Millisecond):
				}
			}
			cancel()
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.Publish(VoteEvent{PollID: "poll-1", VoteID: "v"})
			}
		}()
	}

	wg.Wait()
	if got := h.SubscriberCount("poll-1"); got != 0 {
		t.Fatalf("SubscriberCount = %d after all cancels", got)
	}
}
