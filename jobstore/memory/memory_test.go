package memory

import (
	"context"
	"testing"
	"time"

	deperrors "github.com/droverco/drover/common/errors"
	"github.com/droverco/drover/jobstore"
	"github.com/droverco/drover/sched"
)

func newJob(id string, status sched.Status, p sched.Priority) *sched.Job {
	return &sched.Job{
		Id:        id,
		Def:       sched.JobSpec{Type: "email", Priority: p, CPUUnits: 1, MemoryMB: 128},
		Status:    status,
		CreatedAt: time.Now(),
	}
}

func TestGetMissing(t *testing.T) {
	s := New()
	_, err := s.Get(context.Background(), "nope")
	if deperrors.GetCode(err) != deperrors.NotFound {
		t.Error("expected NOT_FOUND, got: ", err)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := New()
	job := newJob("j1", sched.Ready, sched.Normal)
	if err := s.Put(context.Background(), job); err != nil {
		t.Fatal("put failed: ", err)
	}

	got, err := s.Get(context.Background(), "j1")
	if err != nil {
		t.Fatal("get failed: ", err)
	}
	if got.Status != sched.Ready || got.Def.Type != "email" {
		t.Error("round trip mismatch: ", got)
	}

	// mutating the returned copy must not touch the stored record
	got.Def.Type = "mutated"
	again, _ := s.Get(context.Background(), "j1")
	if again.Def.Type != "email" {
		t.Error("store handed out an aliased record")
	}
}

func TestCASStatus(t *testing.T) {
	s := New()
	s.Put(context.Background(), newJob("j1", sched.Ready, sched.Normal))

	ok, err := s.CASStatus(context.Background(), "j1", sched.Ready, sched.Running)
	if err != nil || !ok {
		t.Fatal("expected CAS to succeed, got: ", ok, err)
	}
	ok, err = s.CASStatus(context.Background(), "j1", sched.Ready, sched.Running)
	if err != nil || ok {
		t.Error("expected stale CAS to fail, got: ", ok, err)
	}
	if _, err := s.CASStatus(context.Background(), "missing", sched.Ready, sched.Running); deperrors.GetCode(err) != deperrors.NotFound {
		t.Error("expected NOT_FOUND for unknown id, got: ", err)
	}
}

func TestPutNeverChangesStatus(t *testing.T) {
	s := New()
	s.Put(context.Background(), newJob("j1", sched.Ready, sched.Normal))
	s.CASStatus(context.Background(), "j1", sched.Ready, sched.Cancelled)

	// a racing writer persists its stale copy; the committed status wins
	stale := newJob("j1", sched.Running, sched.Normal)
	stale.Attempt = 1
	s.Put(context.Background(), stale)

	got, _ := s.Get(context.Background(), "j1")
	if got.Status != sched.Cancelled {
		t.Error("Put clobbered a CAS'd status: ", got.Status)
	}
	if got.Attempt != 1 {
		t.Error("Put should still persist non-status fields")
	}
}

func TestListFilterAndPaging(t *testing.T) {
	s := New()
	s.Put(context.Background(), newJob("j1", sched.Ready, sched.Normal))
	s.Put(context.Background(), newJob("j2", sched.Ready, sched.Critical))
	s.Put(context.Background(), newJob("j3", sched.Ready, sched.Normal))
	s.CASStatus(context.Background(), "j3", sched.Ready, sched.Running)

	status := sched.Ready
	page, err := s.List(context.Background(), jobstore.Query{Status: &status})
	if err != nil {
		t.Fatal("list failed: ", err)
	}
	if len(page.Jobs) != 2 {
		t.Fatal("expected 2 ready jobs, got: ", len(page.Jobs))
	}

	// page through everything one at a time
	var seen []string
	q := jobstore.Query{Limit: 1}
	for {
		page, err := s.List(context.Background(), q)
		if err != nil {
			t.Fatal("list failed: ", err)
		}
		for _, j := range page.Jobs {
			seen = append(seen, j.Id)
		}
		if page.NextCursor == "" {
			break
		}
		q.Cursor = page.NextCursor
	}
	if len(seen) != 3 || seen[0] != "j1" || seen[2] != "j3" {
		t.Error("paging walked wrong ids: ", seen)
	}
}

func TestIdempotency(t *testing.T) {
	s := New()
	existing, err := s.PutIdempotency(context.Background(), "key1", "j1")
	if err != nil || existing != "" {
		t.Fatal("first put should claim the key, got: ", existing, err)
	}
	existing, err = s.PutIdempotency(context.Background(), "key1", "j2")
	if err != nil || existing != "j1" {
		t.Error("second put should return the original id, got: ", existing, err)
	}
}
