// Package dlq holds jobs whose attempts are exhausted or whose failure
// was permanent, pending an administrative retry.
package dlq

import (
	"context"
	"time"
)

// Entry is the dead-letter record for one job. The payload rides along so
// an admin can inspect what the job was trying to do without a store
// lookup.
type Entry struct {
	JobId        string    `json:"job_id"`
	JobType      string    `json:"job_type"`
	ErrorMessage string    `json:"error_message"`
	ErrorKind    string    `json:"error_kind"`
	Attempts     int       `json:"attempts"`
	Payload      []byte    `json:"payload,omitempty"`
	FailedAt     time.Time `json:"failed_at"`
}

// Stats summarizes the queue for dashboards.
type Stats struct {
	TotalFailed int            `json:"total_failed"`
	ByType      map[string]int `json:"by_type"`
	LastFailure time.Time      `json:"last_failure"`
}

// Queue is an append-mostly list of Entries. Add appends at the head so
// Recent is a prefix read.
type Queue interface {
	// Add records a dead-lettered job and bumps the per-type counters.
	Add(ctx context.Context, e Entry) error

	// List returns a window of entries, newest first.
	List(ctx context.Context, limit, offset int) ([]Entry, error)

	// Len is the number of parked entries.
	Len(ctx context.Context) (int, error)

	// Take removes and returns the entry for id, for an admin retry.
	// Returns a NOT_FOUND coded error if id is not parked.
	Take(ctx context.Context, id string) (*Entry, error)

	// Clear drops all entries, or only those of jobType if non-empty.
	// Returns the number removed.
	Clear(ctx context.Context, jobType string) (int, error)

	// Recent returns the most recent limit entries.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// GetStats returns cumulative failure counters. A Clear of all entries
	// (empty jobType) resets them; a Clear by job type leaves them as they
	// are.
	GetStats(ctx context.Context) (*Stats, error)
}
