// Package memory provides an in-memory Store for tests, demos, and
// single-process deployments that accept losing state on restart.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	deperrors "github.com/droverco/drover/common/errors"
	"github.com/droverco/drover/jobstore"
	"github.com/droverco/drover/sched"
)

type memStore struct {
	mu      sync.Mutex
	jobs    map[string]*sched.Job
	order   []string // ids in insertion order, backs List cursors
	idem    map[string]string
	parents map[string][]string
}

// New returns an empty in-memory Store.
func New() jobstore.Store {
	return &memStore{
		jobs:    map[string]*sched.Job{},
		idem:    map[string]string{},
		parents: map[string][]string{},
	}
}

func (s *memStore) Get(ctx context.Context, id string) (*sched.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, deperrors.Errorf(deperrors.NotFound, "job %s not found", id)
	}
	return job.Copy(), nil
}

func (s *memStore) Put(ctx context.Context, job *sched.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := job.Copy()
	if existing, ok := s.jobs[job.Id]; ok {
		// status moves only through CASStatus
		stored.Status = existing.Status
	} else {
		s.order = append(s.order, job.Id)
	}
	s.jobs[job.Id] = stored
	return nil
}

func (s *memStore) CASStatus(ctx context.Context, id string, expected, new sched.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return false, deperrors.Errorf(deperrors.NotFound, "job %s not found", id)
	}
	if job.Status != expected {
		return false, nil
	}
	job.Status = new
	job.UpdatedAt = time.Now()
	return true, nil
}

func (s *memStore) List(ctx context.Context, q jobstore.Query) (*jobstore.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := q.Limit
	if limit <= 0 {
		limit = jobstore.DefaultListLimit
	}
	start := 0
	if q.Cursor != "" {
		n, err := strconv.Atoi(q.Cursor)
		if err != nil {
			return nil, deperrors.Errorf(deperrors.InvalidSpec, "bad cursor %q", q.Cursor)
		}
		start = n
	}

	page := &jobstore.Page{}
	i := start
	for ; i < len(s.order) && len(page.Jobs) < limit; i++ {
		job := s.jobs[s.order[i]]
		if matches(job, q) {
			page.Jobs = append(page.Jobs, job.Copy())
		}
	}
	if i < len(s.order) {
		page.NextCursor = strconv.Itoa(i)
	}
	return page, nil
}

func matches(job *sched.Job, q jobstore.Query) bool {
	if q.Status != nil && job.Status != *q.Status {
		return false
	}
	if q.Priority != nil && job.Def.Priority != *q.Priority {
		return false
	}
	if q.Type != "" && job.Def.Type != q.Type {
		return false
	}
	return true
}

func (s *memStore) PutIdempotency(ctx context.Context, key, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.idem[key]; ok {
		return existing, nil
	}
	s.idem[key] = id
	return "", nil
}

func (s *memStore) PutEdges(ctx context.Context, id string, parents []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parents[id] = append([]string(nil), parents...)
	return nil
}
