package scheduler

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/droverco/drover/events"
	"github.com/droverco/drover/sched"
)

// The cascade engine propagates a parent's terminal status to its
// dependents. It runs on the loop goroutine (or a Cancel caller), after
// the parent's terminal status and resource release have been committed,
// so long cascades never sit on the executor's critical path.

// cascadeSuccess promotes children of a completed parent whose parent
// sets are now fully COMPLETED from BLOCKED to READY.
func (s *statefulScheduler) cascadeSuccess(parentId string) {
	ctx := context.Background()
	s.gateMu.Lock()
	defer s.gateMu.Unlock()

	for _, childId := range s.graph.Children(parentId) {
		child, err := s.store.Get(ctx, childId)
		if err != nil {
			log.Errorf("cascade: lost child %s of %s: %v", childId, parentId, err)
			continue
		}
		if child.Status != sched.Blocked {
			continue
		}
		if !s.parentsCompletedLocked(ctx, childId) {
			continue
		}
		ok, err := s.store.CASStatus(ctx, childId, sched.Blocked, sched.Ready)
		if err != nil || !ok {
			continue
		}
		child.Status = sched.Ready
		s.queues.Push(child.Def.Priority, childId)
		s.publish(events.Ready, child, "")
		log.Infof("Job:%s unblocked by completion of parent:%s", childId, parentId)
	}
}

func (s *statefulScheduler) parentsCompletedLocked(ctx context.Context, id string) bool {
	for _, p := range s.graph.Parents(id) {
		parent, err := s.store.Get(ctx, p)
		if err != nil || !parent.Status.Success() {
			return false
		}
	}
	return true
}

// cascadeFailure fails the whole dependent subtree of a parent that
// reached a non-success terminal status. Dependency failures are
// terminal for children: they never retry and never reach the dead
// letter queue, since re-running a child whose parent failed is
// meaningless.
func (s *statefulScheduler) cascadeFailure(parentId string) {
	ctx := context.Background()
	s.gateMu.Lock()
	defer s.gateMu.Unlock()
	s.cascadeFailureLocked(ctx, parentId)
}

func (s *statefulScheduler) cascadeFailureLocked(ctx context.Context, parentId string) {
	for _, childId := range s.graph.Children(parentId) {
		ok, err := s.store.CASStatus(ctx, childId, sched.Blocked, sched.Failed)
		if err != nil {
			log.Errorf("cascade: failed to fail child %s of %s: %v", childId, parentId, err)
			continue
		}
		if !ok {
			// not BLOCKED: either already failed by another parent or
			// terminal some other way; don't recurse twice
			continue
		}
		child, err := s.store.Get(ctx, childId)
		if err != nil {
			continue
		}
		child.LastError = "parent " + parentId + " did not complete"
		child.LastErrorKind = sched.KindDependencyFailed
		if err := s.store.Put(ctx, child); err != nil {
			log.Warnf("cascade: failed to record error on %s: %v", childId, err)
		}
		s.stat.Counter("dependencyFailedJobsCounter").Inc(1)
		s.publish(events.Failed, child, child.LastError)
		log.Infof("Job:%s failed: parent:%s did not complete", childId, parentId)
		s.cascadeFailureLocked(ctx, childId)
	}
}
