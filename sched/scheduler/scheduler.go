// Package scheduler implements the drover scheduling and orchestration
// engine: priority admission against a bounded resource ledger, DAG
// dependency gating, bounded-concurrency execution with timeouts and
// cooperative cancellation, retry with geometric backoff, and dead-letter
// handoff.
package scheduler

import (
	"context"

	"github.com/droverco/drover/dlq"
	"github.com/droverco/drover/events"
	"github.com/droverco/drover/jobstore"
	"github.com/droverco/drover/sched"
)

// SubmitResult reports how a submission was admitted.
type SubmitResult struct {
	Id string

	// Ready, Blocked, or Failed (dependency already failed). A duplicate
	// idempotency key reports the original job's current status.
	InitialStatus sched.Status

	// Position in its priority tier at push time; 0 unless Ready.
	QueuePosition int
}

// Metrics is a point-in-time observability snapshot.
type Metrics struct {
	QueueDepths  map[sched.Priority]int
	CPUFree      int
	MemFree      int
	RunningCount int
	DLQSize      int
	Throughput1m float64
	Throughput5m float64
}

// Scheduler is the narrow programmatic surface the API layer calls; it
// translates HTTP/WebSocket requests into these calls.
type Scheduler interface {
	// Submit validates, records, and gates a job. Coded failures:
	// INVALID_SPEC, UNSATISFIABLE_RESOURCES, UNKNOWN_PARENT,
	// CYCLE_DETECTED. On failure no job state remains.
	Submit(ctx context.Context, spec sched.JobSpec) (*SubmitResult, error)

	// Get returns the job record or a NOT_FOUND coded error.
	Get(ctx context.Context, id string) (*sched.Job, error)

	// List pages job records for observability.
	List(ctx context.Context, q jobstore.Query) (*jobstore.Page, error)

	// Cancel stops a job. Queued and blocked jobs cancel immediately;
	// running jobs cancel cooperatively. Coded failures: NOT_FOUND,
	// ALREADY_TERMINAL.
	Cancel(ctx context.Context, id string) error

	// Subscribe opens a lifecycle event feed.
	Subscribe() *events.Subscription

	// Metrics snapshots queue depths, ledger state, and throughput.
	Metrics(ctx context.Context) (*Metrics, error)

	// DLQList pages the dead letter queue, newest first.
	DLQList(ctx context.Context, limit, offset int) ([]dlq.Entry, error)

	// DLQRetry pulls a dead-lettered job back to PENDING with its
	// attempt budget reset.
	DLQRetry(ctx context.Context, id string) error

	// Stop halts admission, drains running attempts up to the configured
	// drain timeout, then cancels stragglers and closes the event bus.
	Stop()
}
