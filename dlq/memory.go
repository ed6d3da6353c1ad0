package dlq

import (
	"context"
	"sync"
	"time"

	deperrors "github.com/droverco/drover/common/errors"
)

type memQueue struct {
	mu      sync.Mutex
	entries []Entry // newest first
	stats   Stats
}

// NewMemory returns an in-process Queue for tests and demos.
func NewMemory() Queue {
	return &memQueue{stats: Stats{ByType: map[string]int{}}}
}

func (q *memQueue) Add(ctx context.Context, e Entry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append([]Entry{e}, q.entries...)
	q.stats.TotalFailed++
	q.stats.ByType[e.JobType]++
	q.stats.LastFailure = time.Now()
	return nil
}

func (q *memQueue) List(ctx context.Context, limit, offset int) ([]Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	if offset >= len(q.entries) {
		return nil, nil
	}
	end := offset + limit
	if end > len(q.entries) {
		end = len(q.entries)
	}
	return append([]Entry(nil), q.entries[offset:end]...), nil
}

func (q *memQueue) Len(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries), nil
}

func (q *memQueue) Take(ctx context.Context, id string) (*Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e.JobId == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return &e, nil
		}
	}
	return nil, deperrors.Errorf(deperrors.NotFound, "job %s not in dead letter queue", id)
}

func (q *memQueue) Clear(ctx context.Context, jobType string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if jobType == "" {
		n := len(q.entries)
		q.entries = nil
		q.stats = Stats{ByType: map[string]int{}}
		return n, nil
	}
	var kept []Entry
	removed := 0
	for _, e := range q.entries {
		if e.JobType == jobType {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	q.entries = kept
	return removed, nil
}

func (q *memQueue) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return q.List(ctx, limit, 0)
}

func (q *memQueue) GetStats(ctx context.Context) (*Stats, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	stats := Stats{
		TotalFailed: q.stats.TotalFailed,
		ByType:      map[string]int{},
		LastFailure: q.stats.LastFailure,
	}
	for k, v := range q.stats.ByType {
		stats.ByType[k] = v
	}
	return &stats, nil
}
