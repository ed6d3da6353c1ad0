// Package events distributes job lifecycle notifications to API-layer
// subscribers (the HTTP/WebSocket surface sits outside the core).
package events

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Kind names a lifecycle transition.
type Kind string

const (
	Submitted    Kind = "Submitted"
	Ready        Kind = "Ready"
	Started      Kind = "Started"
	Completed    Kind = "Completed"
	Failed       Kind = "Failed"
	TimedOut     Kind = "TimedOut"
	Cancelled    Kind = "Cancelled"
	DeadLettered Kind = "DeadLettered"
	Retrying     Kind = "Retrying"
)

// Event is one job lifecycle notification.
type Event struct {
	Kind    Kind
	JobId   string
	JobType string
	Attempt int
	Error   string
	At      time.Time
}

// subscriptionBuffer bounds each subscriber's backlog. The bus never
// blocks the engine: a subscriber that falls further behind loses its
// oldest events.
const subscriptionBuffer = 256

// Subscription is one subscriber's event feed. Close it when done or the
// bus will keep delivering into the buffer forever.
type Subscription struct {
	C    chan Event
	bus  *Bus
	once sync.Once
}

// Close detaches the subscription and closes C.
func (s *Subscription) Close() {
	s.once.Do(func() { s.bus.unsubscribe(s) })
}

// Bus fans events out to any number of subscriptions.
type Bus struct {
	mu     sync.Mutex
	subs   map[*Subscription]bool
	closed bool
}

func NewBus() *Bus {
	return &Bus{subs: map[*Subscription]bool{}}
}

// Subscribe registers a new feed. Events published before Subscribe are
// not replayed.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := &Subscription{C: make(chan Event, subscriptionBuffer), bus: b}
	if b.closed {
		close(sub.C)
		return sub
	}
	b.subs[sub] = true
	return sub
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[sub] {
		delete(b.subs, sub)
		close(sub.C)
	}
}

// Publish delivers ev to every subscription, dropping the oldest buffered
// event for any subscriber whose buffer is full.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		select {
		case sub.C <- ev:
			continue
		default:
		}
		// full: shed the oldest and retry once
		select {
		case <-sub.C:
		default:
		}
		select {
		case sub.C <- ev:
		default:
			log.Warnf("event bus dropped %s for job %s", ev.Kind, ev.JobId)
		}
	}
}

// Close detaches and closes every subscription; later publishes are
// dropped and later subscribes get a closed feed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		delete(b.subs, sub)
		close(sub.C)
	}
}
