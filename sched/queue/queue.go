// Package queue provides the four-tier FIFO queue set feeding admission.
package queue

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/droverco/drover/sched"
)

// ErrClosed is returned by PopBlocking once the set has been closed and
// no queued entries remain.
var ErrClosed = errors.New("queue set closed")

// Set is four independent FIFO queues, one per priority tier. Push and
// PopBlocking are safe for concurrent producers and consumers. PopBlocking
// drains higher tiers first; within a tier ordering is strictly FIFO.
//
// There is no starvation protection for the lower tiers. A queued entry is
// just a job id; admission re-reads the job and drops stale entries, so a
// Remove miss is harmless.
type Set struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tiers  [sched.NumPriorities][]string
	closed bool
}

func NewSet() *Set {
	s := &Set{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Push appends id at the tail of the given tier. O(1).
func (s *Set) Push(p sched.Priority, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.tiers[p] = append(s.tiers[p], id)
	s.cond.Signal()
}

// PopBlocking removes and returns the head of the highest non-empty tier,
// blocking until an entry arrives, the context is cancelled, or the set is
// closed.
func (s *Set) PopBlocking(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if err := ctx.Err(); err != nil {
			// hand our wakeup to another waiter so a cancelled consumer
			// can't swallow a push signal or steal an entry
			s.cond.Signal()
			return "", err
		}
		if id, ok := s.popLocked(); ok {
			return id, nil
		}
		if s.closed {
			return "", ErrClosed
		}
		s.waitLocked(ctx)
	}
}

// TryPop is PopBlocking without the blocking; used by tests.
func (s *Set) TryPop() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.popLocked()
}

func (s *Set) popLocked() (string, bool) {
	for p := sched.Critical; p <= sched.Low; p++ {
		if len(s.tiers[p]) > 0 {
			id := s.tiers[p][0]
			s.tiers[p] = s.tiers[p][1:]
			return id, true
		}
	}
	return "", false
}

// waitLocked waits for a Signal, arranging a wakeup if ctx is cancelled
// while we sleep.
func (s *Set) waitLocked(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer stop()
	s.cond.Wait()
}

// Remove deletes the first queued occurrence of id. Best effort, O(n);
// used by the cancellation path.
func (s *Set) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := range s.tiers {
		for i, queued := range s.tiers[p] {
			if queued == id {
				s.tiers[p] = append(s.tiers[p][:i], s.tiers[p][i+1:]...)
				return true
			}
		}
	}
	return false
}

// Depths returns the current length of every tier. Observational only.
func (s *Set) Depths() map[sched.Priority]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	depths := make(map[sched.Priority]int, sched.NumPriorities)
	for p := sched.Critical; p <= sched.Low; p++ {
		depths[p] = len(s.tiers[p])
	}
	return depths
}

// Close wakes all blocked consumers; subsequent pushes are dropped and
// pops return ErrClosed once the set drains.
func (s *Set) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cond.Broadcast()
}
