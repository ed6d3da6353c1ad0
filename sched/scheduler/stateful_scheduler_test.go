package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"

	deperrors "github.com/droverco/drover/common/errors"
	"github.com/droverco/drover/common/stats"
	"github.com/droverco/drover/dlq"
	"github.com/droverco/drover/jobstore"
	"github.com/droverco/drover/jobstore/memory"
	"github.com/droverco/drover/runner"
	"github.com/droverco/drover/sched"
	"github.com/droverco/drover/tests/testhelpers"
)

// objects needed to initialize a stateful scheduler
type schedulerDeps struct {
	store    jobstore.Store
	dead     dlq.Queue
	registry *runner.Registry
	config   SchedulerConfig
}

// returns default scheduler deps populated with in-memory fakes and
// test-friendly retry timing. DebugMode is set: tests call start() once
// submissions are staged.
func getDefaultSchedDeps() *schedulerDeps {
	registry := runner.NewRegistry()
	registry.Register("sim", runner.NewSimHandler())

	config := DefaultConfig()
	config.DebugMode = true
	config.AdmitBackoff = 2 * time.Millisecond
	config.RetryBaseDelay = 20 * time.Millisecond
	config.RetryMinDelay = 10 * time.Millisecond
	config.RetryMaxDelay = 200 * time.Millisecond
	config.DrainTimeout = 2 * time.Second

	return &schedulerDeps{
		store:    memory.New(),
		dead:     dlq.NewMemory(),
		registry: registry,
		config:   config,
	}
}

func makeSchedulerFromDeps(t *testing.T, deps *schedulerDeps) *statefulScheduler {
	s, err := NewStatefulScheduler(deps.store, deps.dead, deps.registry, deps.config, stats.NilStatsReceiver())
	if err != nil {
		t.Fatal("failed to construct scheduler: ", err)
	}
	return s
}

func makeRunningScheduler(t *testing.T) (*statefulScheduler, *schedulerDeps) {
	deps := getDefaultSchedDeps()
	s := makeSchedulerFromDeps(t, deps)
	s.start()
	t.Cleanup(s.Stop)
	return s, deps
}

func simSpec(script string, p sched.Priority) sched.JobSpec {
	return sched.JobSpec{
		Type:     "sim",
		Priority: p,
		Payload:  []byte(script),
		CPUUnits: 1,
		MemoryMB: 128,
	}
}

func waitForStatus(t *testing.T, store jobstore.Store, id string, want sched.Status) {
	t.Helper()
	var last sched.Status
	ok := testhelpers.Poll(5*time.Second, 2*time.Millisecond, func() bool {
		job, err := store.Get(context.Background(), id)
		if err != nil {
			return false
		}
		last = job.Status
		return last == want
	})
	if !ok {
		t.Fatalf("job %s never reached %s, last seen %s", id, want, last)
	}
}

func Test_StatefulScheduler_Initialize(t *testing.T) {
	deps := getDefaultSchedDeps()
	s := makeSchedulerFromDeps(t, deps)

	if got := s.runningCount(); got != 0 {
		t.Error("expected scheduler to start with no running jobs, got: ", got)
	}
	cpuFree, memFree := s.ledger.Snapshot()
	if cpuFree != 8 || memFree != 4096 {
		t.Errorf("expected a full ledger, got cpu:%d mem:%d", cpuFree, memFree)
	}
}

func Test_StatefulScheduler_SubmitSuccess(t *testing.T) {
	deps := getDefaultSchedDeps()
	s := makeSchedulerFromDeps(t, deps)

	result, err := s.Submit(context.Background(), simSpec("result ok", sched.Normal))
	if err != nil {
		t.Fatal("expected submission to succeed: ", err)
	}
	if result.Id == "" {
		t.Error("expected a non-empty job id")
	}
	if result.InitialStatus != sched.Ready {
		t.Error("dependency-free job should be READY, got: ", result.InitialStatus)
	}
	if result.QueuePosition != 1 {
		t.Error("expected queue position 1, got: ", result.QueuePosition)
	}

	job, err := s.Get(context.Background(), result.Id)
	if err != nil || job.Status != sched.Ready {
		t.Error("expected READY record in store, got: ", spew.Sdump(job), err)
	}
}

func Test_StatefulScheduler_SubmitValidation(t *testing.T) {
	deps := getDefaultSchedDeps()
	s := makeSchedulerFromDeps(t, deps)
	ctx := context.Background()

	cases := []struct {
		spec sched.JobSpec
		want deperrors.Code
	}{
		{sched.JobSpec{Priority: sched.Normal}, deperrors.InvalidSpec},
		{sched.JobSpec{Type: "sim", Priority: sched.Priority(7)}, deperrors.InvalidSpec},
		{sched.JobSpec{Type: "sim", CPUUnits: -1}, deperrors.InvalidSpec},
		{sched.JobSpec{Type: "sim", BackoffMult: 0.5}, deperrors.InvalidSpec},
		{sched.JobSpec{Type: "sim", CPUUnits: 9, MemoryMB: 1}, deperrors.UnsatisfiableResources},
		{sched.JobSpec{Type: "sim", CPUUnits: 1, MemoryMB: 8192}, deperrors.UnsatisfiableResources},
		{sched.JobSpec{Type: "sim", DependsOn: []string{"ghost"}}, deperrors.UnknownParent},
	}
	for _, c := range cases {
		_, err := s.Submit(ctx, c.spec)
		if deperrors.GetCode(err) != c.want {
			t.Errorf("spec %+v: expected %s, got %v", c.spec, c.want, err)
		}
	}

	// rejections leave no state: the queue stays empty
	if _, ok := s.queues.TryPop(); ok {
		t.Error("rejected submissions must not enqueue anything")
	}
}

func Test_StatefulScheduler_SubmitIdempotency(t *testing.T) {
	deps := getDefaultSchedDeps()
	s := makeSchedulerFromDeps(t, deps)
	ctx := context.Background()

	spec := simSpec("result ok", sched.Normal)
	spec.IdempotencyKey = "order-42"

	first, err := s.Submit(ctx, spec)
	if err != nil {
		t.Fatal("first submit failed: ", err)
	}
	second, err := s.Submit(ctx, spec)
	if err != nil {
		t.Fatal("duplicate submit failed: ", err)
	}
	if second.Id != first.Id {
		t.Errorf("duplicate key should return the original job, got %s and %s", first.Id, second.Id)
	}

	// only one queue entry exists
	if _, ok := s.queues.TryPop(); !ok {
		t.Fatal("expected one queued entry")
	}
	if _, ok := s.queues.TryPop(); ok {
		t.Error("duplicate submission must not enqueue a second entry")
	}
}

func Test_StatefulScheduler_RunsJobToCompletion(t *testing.T) {
	s, deps := makeRunningScheduler(t)

	result, err := s.Submit(context.Background(), simSpec("result payload-out", sched.Normal))
	if err != nil {
		t.Fatal("submit failed: ", err)
	}
	waitForStatus(t, deps.store, result.Id, sched.Completed)

	job, _ := s.Get(context.Background(), result.Id)
	if string(job.Result) != "payload-out" {
		t.Error("expected handler result recorded, got: ", string(job.Result))
	}
	if job.Attempt != 1 || len(job.Executions) != 1 {
		t.Error("expected exactly one execution record: ", spew.Sdump(job))
	}
	if job.StartedAt == nil || job.FinishedAt == nil {
		t.Error("expected dispatch timestamps to be recorded")
	}

	cpuFree, memFree := s.ledger.Snapshot()
	if cpuFree != 8 || memFree != 4096 {
		t.Errorf("ledger must return to capacity, got cpu:%d mem:%d", cpuFree, memFree)
	}
}

func Test_StatefulScheduler_NoHandlerDeadLetters(t *testing.T) {
	s, deps := makeRunningScheduler(t)

	spec := simSpec("", sched.Normal)
	spec.Type = "unregistered"
	result, err := s.Submit(context.Background(), spec)
	if err != nil {
		t.Fatal("submit failed: ", err)
	}
	waitForStatus(t, deps.store, result.Id, sched.DeadLettered)

	entries, _ := deps.dead.List(context.Background(), 10, 0)
	if len(entries) != 1 || entries[0].ErrorKind != string(sched.KindPermanent) {
		t.Error("expected a permanent dead letter entry, got: ", spew.Sdump(entries))
	}
}

func Test_StatefulScheduler_HandlerPanicIsContained(t *testing.T) {
	s, deps := makeRunningScheduler(t)

	spec := simSpec("panic boom", sched.Normal)
	spec.MaxAttempts = 1
	result, err := s.Submit(context.Background(), spec)
	if err != nil {
		t.Fatal("submit failed: ", err)
	}
	waitForStatus(t, deps.store, result.Id, sched.DeadLettered)

	job, _ := s.Get(context.Background(), result.Id)
	if job.LastErrorKind != sched.KindCrash {
		t.Error("expected HANDLER_CRASH, got: ", job.LastErrorKind)
	}

	// the pool survives: a subsequent job still runs
	ok, err := s.Submit(context.Background(), simSpec("result alive", sched.Normal))
	if err != nil {
		t.Fatal("submit after crash failed: ", err)
	}
	waitForStatus(t, deps.store, ok.Id, sched.Completed)
}

func Test_StatefulScheduler_TimeoutDeadLettersWhenExhausted(t *testing.T) {
	s, deps := makeRunningScheduler(t)

	spec := simSpec("block", sched.Normal)
	spec.TimeoutSeconds = 1
	spec.MaxAttempts = 1
	result, err := s.Submit(context.Background(), spec)
	if err != nil {
		t.Fatal("submit failed: ", err)
	}
	waitForStatus(t, deps.store, result.Id, sched.DeadLettered)

	job, _ := s.Get(context.Background(), result.Id)
	if job.LastErrorKind != sched.KindTimeout {
		t.Error("expected TIMEOUT kind, got: ", job.LastErrorKind)
	}
	cpuFree, _ := s.ledger.Snapshot()
	if cpuFree != 8 {
		t.Error("timeout must release resources, cpu free: ", cpuFree)
	}
}

func Test_StatefulScheduler_CancelQueuedJob(t *testing.T) {
	deps := getDefaultSchedDeps()
	s := makeSchedulerFromDeps(t, deps) // not started: job stays READY
	ctx := context.Background()

	result, err := s.Submit(ctx, simSpec("result ok", sched.Normal))
	if err != nil {
		t.Fatal("submit failed: ", err)
	}
	if err := s.Cancel(ctx, result.Id); err != nil {
		t.Fatal("cancel failed: ", err)
	}

	job, _ := s.Get(ctx, result.Id)
	if job.Status != sched.Cancelled {
		t.Error("expected CANCELLED, got: ", job.Status)
	}
	if _, ok := s.queues.TryPop(); ok {
		t.Error("cancel must remove the queued entry")
	}
	if err := s.Cancel(ctx, result.Id); deperrors.GetCode(err) != deperrors.AlreadyTerminal {
		t.Error("expected ALREADY_TERMINAL on second cancel, got: ", err)
	}
	if err := s.Cancel(ctx, "ghost"); deperrors.GetCode(err) != deperrors.NotFound {
		t.Error("expected NOT_FOUND, got: ", err)
	}
}

func Test_StatefulScheduler_CancelRunningJobCooperatively(t *testing.T) {
	s, deps := makeRunningScheduler(t)
	ctx := context.Background()

	result, err := s.Submit(ctx, simSpec("block", sched.Normal))
	if err != nil {
		t.Fatal("submit failed: ", err)
	}
	waitForStatus(t, deps.store, result.Id, sched.Running)

	if err := s.Cancel(ctx, result.Id); err != nil {
		t.Fatal("cancel failed: ", err)
	}
	waitForStatus(t, deps.store, result.Id, sched.Cancelled)

	cpuFree, memFree := s.ledger.Snapshot()
	if cpuFree != 8 || memFree != 4096 {
		t.Errorf("cancel must release resources, got cpu:%d mem:%d", cpuFree, memFree)
	}
}

func Test_StatefulScheduler_CancelIgnoredByBusyHandlerIsNoop(t *testing.T) {
	s, deps := makeRunningScheduler(t)
	ctx := context.Background()

	// handler that never checks ctx and eventually succeeds
	busy := make(chan struct{})
	deps.registry.Register("stubborn", runner.HandlerFunc(
		func(ctx context.Context, payload []byte) ([]byte, error) {
			<-busy
			return []byte("finished anyway"), nil
		}))

	spec := sched.JobSpec{Type: "stubborn", Priority: sched.Normal, CPUUnits: 1, MemoryMB: 128}
	result, err := s.Submit(ctx, spec)
	if err != nil {
		t.Fatal("submit failed: ", err)
	}
	waitForStatus(t, deps.store, result.Id, sched.Running)

	if err := s.Cancel(ctx, result.Id); err != nil {
		t.Fatal("cancel request failed: ", err)
	}
	close(busy) // handler runs to natural completion

	waitForStatus(t, deps.store, result.Id, sched.Completed)
	job, _ := s.Get(ctx, result.Id)
	if string(job.Result) != "finished anyway" {
		t.Error("unhonored cancel must be a no-op for the attempt")
	}
}

func Test_StatefulScheduler_CancelSuppressesScheduledRetry(t *testing.T) {
	deps := getDefaultSchedDeps()
	deps.config.RetryBaseDelay = 150 * time.Millisecond
	deps.config.RetryMinDelay = 150 * time.Millisecond
	s := makeSchedulerFromDeps(t, deps)
	s.start()
	t.Cleanup(s.Stop)
	ctx := context.Background()

	result, err := s.Submit(ctx, simSpec("fail transient", sched.Normal))
	if err != nil {
		t.Fatal("submit failed: ", err)
	}
	waitForStatus(t, deps.store, result.Id, sched.Pending)

	if err := s.Cancel(ctx, result.Id); err != nil {
		t.Fatal("cancel failed: ", err)
	}
	// wait out the retry window: the timer must not resurrect the job
	time.Sleep(400 * time.Millisecond)
	job, _ := s.Get(ctx, result.Id)
	if job.Status != sched.Cancelled {
		t.Error("cancellation must suppress the pending retry, got: ", job.Status)
	}
}

func Test_StatefulScheduler_DLQRetryResetsAttempts(t *testing.T) {
	s, deps := makeRunningScheduler(t)
	ctx := context.Background()

	// fails permanently on the first run, succeeds after the replay
	var replayed atomic.Bool
	deps.registry.Register("flaky-perm", runner.HandlerFunc(
		func(ctx context.Context, payload []byte) ([]byte, error) {
			if replayed.Load() {
				return []byte("recovered"), nil
			}
			return nil, runner.Permanent(context.DeadlineExceeded)
		}))

	spec := sched.JobSpec{Type: "flaky-perm", Priority: sched.Normal, CPUUnits: 1, MemoryMB: 128}
	result, err := s.Submit(ctx, spec)
	if err != nil {
		t.Fatal("submit failed: ", err)
	}
	waitForStatus(t, deps.store, result.Id, sched.DeadLettered)

	replayed.Store(true)
	if err := s.DLQRetry(ctx, result.Id); err != nil {
		t.Fatal("dlq retry failed: ", err)
	}
	waitForStatus(t, deps.store, result.Id, sched.Completed)

	job, _ := s.Get(ctx, result.Id)
	if job.Attempt != 1 {
		t.Error("replay must reset the attempt budget, got attempt: ", job.Attempt)
	}
	if n, _ := deps.dead.Len(ctx); n != 0 {
		t.Error("replayed entry must leave the dlq, size: ", n)
	}

	if err := s.DLQRetry(ctx, "ghost"); deperrors.GetCode(err) != deperrors.NotFound {
		t.Error("expected NOT_FOUND for unknown dlq id, got: ", err)
	}
}

func Test_StatefulScheduler_Metrics(t *testing.T) {
	deps := getDefaultSchedDeps()
	s := makeSchedulerFromDeps(t, deps) // not started: submissions stay queued
	ctx := context.Background()

	s.Submit(ctx, simSpec("result a", sched.Critical))
	s.Submit(ctx, simSpec("result b", sched.Normal))
	s.Submit(ctx, simSpec("result c", sched.Normal))

	m, err := s.Metrics(ctx)
	if err != nil {
		t.Fatal("metrics failed: ", err)
	}
	if m.QueueDepths[sched.Critical] != 1 || m.QueueDepths[sched.Normal] != 2 {
		t.Error("unexpected queue depths: ", m.QueueDepths)
	}
	if m.CPUFree != 8 || m.MemFree != 4096 {
		t.Error("unexpected ledger snapshot: ", m.CPUFree, m.MemFree)
	}
	if m.RunningCount != 0 || m.DLQSize != 0 {
		t.Error("unexpected counts: ", m.RunningCount, m.DLQSize)
	}
}

func Test_StatefulScheduler_ListByStatus(t *testing.T) {
	s, deps := makeRunningScheduler(t)
	ctx := context.Background()

	r1, _ := s.Submit(ctx, simSpec("result a", sched.Normal))
	r2, _ := s.Submit(ctx, simSpec("result b", sched.Low))
	waitForStatus(t, deps.store, r1.Id, sched.Completed)
	waitForStatus(t, deps.store, r2.Id, sched.Completed)

	status := sched.Completed
	page, err := s.List(ctx, jobstore.Query{Status: &status})
	if err != nil {
		t.Fatal("list failed: ", err)
	}
	if len(page.Jobs) != 2 {
		t.Error("expected 2 completed jobs, got: ", len(page.Jobs))
	}
}
