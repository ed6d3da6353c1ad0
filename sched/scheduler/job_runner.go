package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/droverco/drover/events"
	"github.com/droverco/drover/runner"
	"github.com/droverco/drover/sched"
)

// jobRunner drives one attempt of one job on the executor pool: invoke
// the handler under its timeout, classify the outcome, release resources,
// and commit the terminal status through the store's CAS.
type jobRunner struct {
	sched *statefulScheduler
	job   *sched.Job

	ctx             context.Context
	cancelFn        context.CancelFunc
	cancelRequested atomic.Bool

	// populated by run() for attemptDone
	outcome   sched.Status
	errKind   sched.ErrorKind
	errText   string
	committed bool
}

func newJobRunner(s *statefulScheduler, job *sched.Job) *jobRunner {
	r := &jobRunner{sched: s, job: job}
	// the timeout clock starts at dispatch, before the pool goroutine
	// gets around to the handler
	timeout := time.Duration(job.Def.TimeoutSeconds) * time.Second
	r.ctx, r.cancelFn = context.WithTimeout(context.Background(), timeout)
	return r
}

// requestCancel flags the attempt and cancels its context. Whether the
// cancel takes effect is up to the handler: if it returns ctx.Err() the
// attempt commits CANCELLED; if it runs to natural completion the cancel
// was a no-op.
func (r *jobRunner) requestCancel() {
	r.cancelRequested.Store(true)
	r.cancelFn()
}

type handlerReturn struct {
	result   []byte
	err      error
	panicked bool
}

// run blocks until the attempt reaches a terminal outcome and that
// outcome is committed. The returned error covers bookkeeping failures
// only; handler failures are data, not errors.
func (r *jobRunner) run() error {
	ctx := r.ctx
	defer r.cancelFn()

	started := time.Now()
	doneCh := make(chan handlerReturn, 1)
	go r.invokeHandler(ctx, doneCh)

	var ret handlerReturn
	abandoned := false
	ctxDone := ctx.Done()
wait:
	for {
		select {
		case ret = <-doneCh:
			break wait
		case <-ctxDone:
			if ctx.Err() == context.DeadlineExceeded {
				// the handler is untrusted: report the timeout now and
				// abandon the goroutine rather than waiting it out
				abandoned = true
				break wait
			}
			// cooperative cancellation: keep waiting for the handler
			// to notice (or to finish naturally)
			ctxDone = nil
		}
	}

	r.classify(ret, abandoned)
	return r.commit(started, ret.result)
}

// invokeHandler runs the handler, converting a panic into a crash
// outcome so the pool survives misbehaving handlers.
func (r *jobRunner) invokeHandler(ctx context.Context, doneCh chan<- handlerReturn) {
	defer func() {
		if p := recover(); p != nil {
			log.Errorf("job:%s handler panic: %v", r.job.Id, p)
			doneCh <- handlerReturn{err: fmt.Errorf("handler panic: %v", p), panicked: true}
		}
	}()

	h, ok := r.sched.registry.Lookup(r.job.Def.Type)
	if !ok {
		doneCh <- handlerReturn{err: runner.Permanent(
			fmt.Errorf("no handler registered for job type %q", r.job.Def.Type))}
		return
	}
	result, err := h.Run(ctx, r.job.Def.Payload)
	doneCh <- handlerReturn{result: result, err: err}
}

func (r *jobRunner) classify(ret handlerReturn, abandoned bool) {
	switch {
	case abandoned:
		r.outcome, r.errKind = sched.TimedOut, sched.KindTimeout
		r.errText = fmt.Sprintf("timed out after %ds", r.job.Def.TimeoutSeconds)
	case ret.err == nil:
		r.outcome = sched.Completed
	case ret.panicked:
		r.outcome, r.errKind = sched.Failed, sched.KindCrash
		r.errText = ret.err.Error()
	case r.cancelRequested.Load() && errors.Is(ret.err, context.Canceled):
		r.outcome, r.errKind = sched.Cancelled, sched.KindCancelled
		r.errText = "cancelled by request"
	case errors.Is(ret.err, context.DeadlineExceeded) && !runner.IsPermanent(ret.err):
		r.outcome, r.errKind = sched.TimedOut, sched.KindTimeout
		r.errText = fmt.Sprintf("timed out after %ds", r.job.Def.TimeoutSeconds)
	case runner.IsPermanent(ret.err):
		r.outcome, r.errKind = sched.Failed, sched.KindPermanent
		r.errText = ret.err.Error()
	default:
		r.outcome, r.errKind = sched.Failed, sched.KindRetryable
		r.errText = ret.err.Error()
	}
}

// commit releases resources, CASes the terminal status, and persists the
// record. Release happens before the terminal status is observable so a
// waiting admission pass can reuse the capacity immediately.
func (r *jobRunner) commit(started time.Time, result []byte) error {
	job := r.job
	ctx := context.Background()

	r.sched.ledger.Release(job.Def.CPUUnits, job.Def.MemoryMB)

	committed, err := r.sched.store.CASStatus(ctx, job.Id, sched.Running, r.outcome)
	if err != nil {
		return err
	}
	r.committed = committed
	if !committed {
		log.Warnf("job:%s lost terminal CAS to %s; outcome discarded", job.Id, r.outcome)
		return nil
	}

	finished := time.Now()
	job.Status = r.outcome
	job.FinishedAt = &finished
	job.UpdatedAt = finished
	job.LastError = r.errText
	job.LastErrorKind = r.errKind
	if r.outcome == sched.Completed {
		job.Result = result
	}
	job.Executions = append(job.Executions, sched.ExecutionRecord{
		Attempt:    job.Attempt,
		StartedAt:  started,
		FinishedAt: finished,
		Outcome:    r.outcome,
		Error:      r.errText,
	})
	if err := r.sched.store.Put(ctx, job); err != nil {
		return err
	}

	switch r.outcome {
	case sched.Completed:
		r.sched.publish(events.Completed, job, "")
	case sched.TimedOut:
		r.sched.publish(events.TimedOut, job, r.errText)
	case sched.Cancelled:
		r.sched.publish(events.Cancelled, job, r.errText)
	default:
		r.sched.publish(events.Failed, job, r.errText)
	}
	return nil
}
