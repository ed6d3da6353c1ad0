package events

import (
	"fmt"
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := NewBus()
	sub := b.Subscribe()
	defer sub.Close()

	b.Publish(Event{Kind: Started, JobId: "j1", Attempt: 1})

	select {
	case ev := <-sub.C:
		if ev.Kind != Started || ev.JobId != "j1" || ev.At.IsZero() {
			t.Error("unexpected event: ", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestSlowSubscriberShedsOldest(t *testing.T) {
	b := NewBus()
	sub := b.Subscribe()
	defer sub.Close()

	// overflow the buffer without draining
	for i := 0; i < subscriptionBuffer+10; i++ {
		b.Publish(Event{Kind: Completed, JobId: fmt.Sprintf("j%d", i)})
	}

	// the oldest events are gone; the newest survives
	var last Event
	for {
		select {
		case ev := <-sub.C:
			last = ev
			continue
		default:
		}
		break
	}
	if last.JobId != fmt.Sprintf("j%d", subscriptionBuffer+9) {
		t.Error("expected newest event to survive shedding, got: ", last.JobId)
	}
}

func TestCloseUnblocksReaders(t *testing.T) {
	b := NewBus()
	sub := b.Subscribe()

	done := make(chan bool)
	go func() {
		_, ok := <-sub.C
		done <- ok
	}()
	b.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("expected channel closed, got an event")
		}
	case <-time.After(time.Second):
		t.Fatal("reader not unblocked by Close")
	}

	// publish after close must not panic
	b.Publish(Event{Kind: Completed, JobId: "late"})

	late := b.Subscribe()
	if _, ok := <-late.C; ok {
		t.Error("subscribe after close should yield a closed feed")
	}
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	b := NewBus()
	sub := b.Subscribe()
	sub.Close()
	sub.Close()
	b.Publish(Event{Kind: Completed, JobId: "j1"})
}
