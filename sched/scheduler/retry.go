package scheduler

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/droverco/drover/events"
	"github.com/droverco/drover/sched"
)

// retryDelay computes the pause before the next dispatch of a job whose
// attempt just failed: base * multiplier^(attempt-1), clamped to the
// configured [min, max] window.
func (s *statefulScheduler) retryDelay(job *sched.Job) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.config.RetryBaseDelay
	b.Multiplier = job.Def.BackoffMult
	b.RandomizationFactor = 0 // the clamp handles spread; keep tests exact
	b.MaxInterval = s.config.RetryMaxDelay
	b.MaxElapsedTime = 0
	b.Reset()

	d := b.NextBackOff()
	for i := 1; i < job.Attempt; i++ {
		d = b.NextBackOff()
	}
	if d < s.config.RetryMinDelay {
		d = s.config.RetryMinDelay
	}
	if d > s.config.RetryMaxDelay {
		d = s.config.RetryMaxDelay
	}
	return d
}

// scheduleRetry parks a retryable failure in PENDING and arms a timer
// that promotes it back to READY. The attempt counter is not reset; it
// counts total dispatches. Runs on the loop goroutine.
//
// Cancellation racing the timer is resolved by the CAS: a cancelled job
// leaves PENDING, the timer's CAS misses, and the retry evaporates.
func (s *statefulScheduler) scheduleRetry(job *sched.Job, errText string) {
	ctx := context.Background()
	delay := s.retryDelay(job)

	ok, err := s.store.CASStatus(ctx, job.Id, job.Status, sched.Pending)
	if err != nil || !ok {
		log.Warnf("job:%s retry park CAS from %s failed: ok:%t err:%v", job.Id, job.Status, ok, err)
		return
	}
	retryAt := time.Now().Add(delay)
	job.Status = sched.Pending
	job.NextRetryAt = &retryAt
	if err := s.store.Put(ctx, job); err != nil {
		log.Errorf("job:%s failed to persist retry schedule: %v", job.Id, err)
	}

	s.stat.Counter("retriedJobsCounter").Inc(1)
	s.publish(events.Retrying, job, errText)
	log.Infof("Job:%s attempt:%d/%d failed (%s); retrying in %s",
		job.Id, job.Attempt, job.Def.MaxAttempts, errText, delay)

	id := job.Id
	priority := job.Def.Priority
	s.runningMu.Lock()
	s.retryTimers[id] = time.AfterFunc(delay, func() {
		s.fireRetry(id, priority)
	})
	s.runningMu.Unlock()
}

// fireRetry promotes a parked retry to READY and enqueues it. Runs on
// the timer goroutine; everything it touches is thread-safe.
func (s *statefulScheduler) fireRetry(id string, priority sched.Priority) {
	s.runningMu.Lock()
	delete(s.retryTimers, id)
	s.runningMu.Unlock()

	ctx := context.Background()
	ok, err := s.store.CASStatus(ctx, id, sched.Pending, sched.Ready)
	if err != nil {
		log.Errorf("job:%s retry promotion failed: %v", id, err)
		return
	}
	if !ok {
		// cancelled (or replayed) while parked; drop the retry
		return
	}
	job, err := s.store.Get(ctx, id)
	if err == nil {
		job.NextRetryAt = nil
		if err := s.store.Put(ctx, job); err != nil {
			log.Warnf("job:%s failed to clear retry timestamp: %v", id, err)
		}
		s.publish(events.Ready, job, "")
	}
	s.queues.Push(priority, id)
}
