// Package jobstore defines the durable Job State Store contract.
// Implementations live in subpackages; the engine treats the store as an
// opaque durable map keyed by job id.
package jobstore

import (
	"context"

	"github.com/droverco/drover/sched"
)

// Query filters List. Nil/zero fields match everything.
type Query struct {
	Status   *sched.Status
	Priority *sched.Priority
	Type     string
	Limit    int
	Cursor   string
}

// DefaultListLimit applies when Query.Limit is zero.
const DefaultListLimit = 50

// Page is one List result window. NextCursor is empty on the last page.
type Page struct {
	Jobs       []*sched.Job
	NextCursor string
}

// Store is the authoritative record per job id.
//
// Contract assumed by the engine:
//   - Point reads and writes are linearizable per id.
//   - CASStatus guards every status transition, so a late writer (e.g. a
//     timeout racing a completion) cannot clobber a committed status.
//   - Put never changes the status of an existing record; status moves
//     only through CASStatus. The initial Put of a new id sets it.
//   - No multi-key transactions; cross-job consistency is the scheduler's
//     problem.
type Store interface {
	// Get returns a copy of the job, or a NOT_FOUND coded error.
	Get(ctx context.Context, id string) (*sched.Job, error)

	// Put upserts the record. See the status caveat above.
	Put(ctx context.Context, job *sched.Job) error

	// CASStatus atomically transitions id from expected to new, stamping
	// UpdatedAt. Returns false (and no error) if the current status is
	// not expected; NOT_FOUND if the id is unknown.
	CASStatus(ctx context.Context, id string, expected, new sched.Status) (bool, error)

	// List pages jobs by creation order, filtered by q. Reasonable
	// latency is enough; this backs observability, not scheduling.
	List(ctx context.Context, q Query) (*Page, error)

	// PutIdempotency records key->id if absent and returns "". If the key
	// is already bound it returns the existing id and stores nothing.
	PutIdempotency(ctx context.Context, key, id string) (string, error)

	// PutEdges persists the dependency edges for recovery tooling. The
	// in-memory graph remains the scheduling source of truth.
	PutEdges(ctx context.Context, id string, parents []string) error
}
