package scheduler

import (
	"context"
	"sync"
	"time"

	uuid "github.com/nu7hatch/gouuid"
	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"

	"github.com/droverco/drover/async"
	deperrors "github.com/droverco/drover/common/errors"
	"github.com/droverco/drover/common/stats"
	"github.com/droverco/drover/dlq"
	"github.com/droverco/drover/events"
	"github.com/droverco/drover/jobstore"
	"github.com/droverco/drover/runner"
	"github.com/droverco/drover/sched"
	"github.com/droverco/drover/sched/graph"
	"github.com/droverco/drover/sched/ledger"
	"github.com/droverco/drover/sched/queue"
)

// Scheduler config variables read at initialization.
// CPUUnits, MemoryMB - resource ledger capacity.
// MaxConcurrent - executor pool size; admission blocks when saturated.
// RetryBaseDelay/RetryMinDelay/RetryMaxDelay - backoff clamp for retries.
// AdmitBackoff - how long admission sleeps after a resource-shortage
//     requeue, to avoid spinning on a too-large head job.
// DrainTimeout - how long Stop waits for running attempts before
//     cancelling them.
// DebugMode - if true, constructs the scheduler without starting the
//     background loops; tests start them explicitly via start().
type SchedulerConfig struct {
	CPUUnits       int
	MemoryMB       int
	MaxConcurrent  int
	RetryBaseDelay time.Duration
	RetryMinDelay  time.Duration
	RetryMaxDelay  time.Duration
	AdmitBackoff   time.Duration
	DrainTimeout   time.Duration
	DebugMode      bool

	// Per-job defaults applied to zero-valued JobSpec fields.
	DefaultMaxAttempts    int
	DefaultBackoffMult    float64
	DefaultTimeoutSeconds int
}

// DefaultConfig mirrors the documented configuration defaults.
func DefaultConfig() SchedulerConfig {
	return SchedulerConfig{
		CPUUnits:       8,
		MemoryMB:       4096,
		MaxConcurrent:  10,
		RetryBaseDelay: time.Second,
		RetryMinDelay:  time.Second,
		RetryMaxDelay:  300 * time.Second,
		AdmitBackoff:   20 * time.Millisecond,
		DrainTimeout:   30 * time.Second,

		DefaultMaxAttempts:    sched.DefaultMaxAttempts,
		DefaultBackoffMult:    sched.DefaultBackoffMultiplier,
		DefaultTimeoutSeconds: sched.DefaultTimeoutSeconds,
	}
}

// statefulScheduler keeps all cross-job coordination in process: the
// ledger, the queue set, and the dependency graph are explicitly owned
// components, never process globals.
//
// Concurrency: the admission loop and the executor pool run as
// independent goroutines and touch only thread-safe components (store,
// ledger, queues). The update loop owns dispatch bookkeeping; attempt
// goroutines report back through async.Runner so their callbacks run on
// the loop goroutine. Dependency gating (submission and cascade) is
// serialized by gateMu, which covers the read-parent-status /
// decide-readiness window.
type statefulScheduler struct {
	config   SchedulerConfig
	store    jobstore.Store
	dead     dlq.Queue
	registry *runner.Registry

	ledger *ledger.Ledger
	queues *queue.Set
	bus    *events.Bus

	gateMu sync.Mutex
	graph  *graph.Graph

	asyncRunner async.Runner
	dispatchCh  chan *sched.Job
	poolSlots   chan struct{}

	runningMu   sync.Mutex
	running     map[string]*jobRunner
	retryTimers map[string]*time.Timer

	attemptWg   sync.WaitGroup
	stopCh      chan struct{}
	stopOnce    sync.Once
	loopDone    chan struct{}
	loopStarted bool

	stat           stats.StatsReceiver
	completedMeter metrics.Meter
}

// NewStatefulScheduler wires a scheduler from its collaborators.
// jobstore.Store - the durable job record store
// dlq.Queue - the dead letter queue
// runner.Registry - job type to handler bindings
// SchedulerConfig - capacity and retry tuning
// stats.StatsReceiver - receiver to log statistics to
func NewStatefulScheduler(
	store jobstore.Store,
	dead dlq.Queue,
	registry *runner.Registry,
	config SchedulerConfig,
	stat stats.StatsReceiver,
) (*statefulScheduler, error) {
	lgr, err := ledger.New(config.CPUUnits, config.MemoryMB)
	if err != nil {
		return nil, err
	}
	if config.MaxConcurrent < 1 {
		return nil, deperrors.Errorf(deperrors.InvalidSpec, "max_concurrent %d < 1", config.MaxConcurrent)
	}
	if config.AdmitBackoff <= 0 {
		config.AdmitBackoff = 20 * time.Millisecond
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = 30 * time.Second
	}

	s := &statefulScheduler{
		config:      config,
		store:       store,
		dead:        dead,
		registry:    registry,
		ledger:      lgr,
		queues:      queue.NewSet(),
		bus:         events.NewBus(),
		graph:       graph.New(),
		asyncRunner: async.NewRunner(),
		dispatchCh:  make(chan *sched.Job),
		poolSlots:   make(chan struct{}, config.MaxConcurrent),
		running:     map[string]*jobRunner{},
		retryTimers: map[string]*time.Timer{},
		stopCh:      make(chan struct{}),
		loopDone:    make(chan struct{}),
		stat:        stat,
	}
	s.completedMeter = stat.Meter("completedJobsMeter")

	if !config.DebugMode {
		s.start()
	}
	return s, nil
}

// start launches the admission loop and the update loop.
func (s *statefulScheduler) start() {
	s.loopStarted = true
	go s.admissionLoop()
	go s.loop()
}

// generateJobId returns a random v4 uuid. uuid.NewV4 reads from the
// system entropy source, which can transiently fail; retry until it
// yields an id.
func generateJobId() string {
	for {
		if id, err := uuid.NewV4(); err == nil {
			return id.String()
		}
	}
}

// Submit validates, gates, and (if unblocked) enqueues a job.
func (s *statefulScheduler) Submit(ctx context.Context, spec sched.JobSpec) (*SubmitResult, error) {
	defer s.stat.Latency("submitLatency_ms").Time().Stop()
	s.stat.Counter("submitRequestsCounter").Inc(1)

	if spec.MaxAttempts == 0 && s.config.DefaultMaxAttempts > 0 {
		spec.MaxAttempts = s.config.DefaultMaxAttempts
	}
	if spec.BackoffMult == 0 && s.config.DefaultBackoffMult > 0 {
		spec.BackoffMult = s.config.DefaultBackoffMult
	}
	if spec.TimeoutSeconds == 0 && s.config.DefaultTimeoutSeconds > 0 {
		spec.TimeoutSeconds = s.config.DefaultTimeoutSeconds
	}
	spec.ApplyDefaults()
	if err := validateSpec(spec); err != nil {
		return nil, err
	}
	if !s.ledger.Fits(spec.CPUUnits, spec.MemoryMB) {
		cpuCap, memCap := s.ledger.Capacity()
		return nil, deperrors.Errorf(deperrors.UnsatisfiableResources,
			"job requires cpu:%d mem:%d but capacity is cpu:%d mem:%d",
			spec.CPUUnits, spec.MemoryMB, cpuCap, memCap)
	}

	id := generateJobId()

	s.gateMu.Lock()
	defer s.gateMu.Unlock()

	if err := s.graph.Add(id, spec.DependsOn); err != nil {
		return nil, err
	}

	if spec.IdempotencyKey != "" {
		existing, err := s.store.PutIdempotency(ctx, spec.IdempotencyKey, id)
		if err != nil {
			s.graph.Remove(id)
			return nil, err
		}
		if existing != "" {
			s.graph.Remove(id)
			prior, err := s.store.Get(ctx, existing)
			if err != nil {
				return nil, err
			}
			return &SubmitResult{Id: prior.Id, InitialStatus: prior.Status}, nil
		}
	}

	initial, depFailed, err := s.gateLocked(ctx, spec.DependsOn)
	if err != nil {
		s.graph.Remove(id)
		return nil, err
	}

	now := time.Now()
	job := &sched.Job{
		Id:        id,
		Def:       spec,
		Status:    initial,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if depFailed {
		job.LastError = "dependency failed before submission"
		job.LastErrorKind = sched.KindDependencyFailed
	}
	if err := s.store.Put(ctx, job); err != nil {
		s.graph.Remove(id)
		return nil, err
	}
	if err := s.store.PutEdges(ctx, id, spec.DependsOn); err != nil {
		log.Warnf("job:%s failed to persist edges: %v", id, err)
	}

	s.publish(events.Submitted, job, "")
	result := &SubmitResult{Id: id, InitialStatus: initial}
	switch initial {
	case sched.Ready:
		s.queues.Push(spec.Priority, id)
		result.QueuePosition = s.queues.Depths()[spec.Priority]
		s.publish(events.Ready, job, "")
	case sched.Failed:
		s.publish(events.Failed, job, job.LastError)
	}

	s.stat.Counter("submittedJobsCounter").Inc(1)
	log.Infof("Submitted job:%s type:%s priority:%s status:%s deps:%d",
		id, spec.Type, spec.Priority, initial, len(spec.DependsOn))
	return result, nil
}

func validateSpec(spec sched.JobSpec) error {
	switch {
	case spec.Type == "":
		return deperrors.Errorf(deperrors.InvalidSpec, "job type is required")
	case spec.Priority < sched.Critical || spec.Priority > sched.Low:
		return deperrors.Errorf(deperrors.InvalidSpec, "invalid priority %d", spec.Priority)
	case spec.CPUUnits < 1:
		return deperrors.Errorf(deperrors.InvalidSpec, "cpu_units %d < 1", spec.CPUUnits)
	case spec.MemoryMB < 1:
		return deperrors.Errorf(deperrors.InvalidSpec, "memory_mb %d < 1", spec.MemoryMB)
	case spec.MaxAttempts < 1:
		return deperrors.Errorf(deperrors.InvalidSpec, "max_attempts %d < 1", spec.MaxAttempts)
	case spec.BackoffMult < 1:
		return deperrors.Errorf(deperrors.InvalidSpec, "backoff_multiplier %v < 1", spec.BackoffMult)
	case spec.TimeoutSeconds < 1:
		return deperrors.Errorf(deperrors.InvalidSpec, "timeout_seconds %d < 1", spec.TimeoutSeconds)
	}
	return nil
}

// gateLocked computes a new job's initial status from its parents.
// Caller holds gateMu.
func (s *statefulScheduler) gateLocked(ctx context.Context, parents []string) (sched.Status, bool, error) {
	allCompleted := true
	for _, p := range parents {
		parent, err := s.store.Get(ctx, p)
		if err != nil {
			return 0, false, err
		}
		if parent.Status.Terminal() && !parent.Status.Success() {
			return sched.Failed, true, nil
		}
		if !parent.Status.Success() {
			allCompleted = false
		}
	}
	if allCompleted {
		return sched.Ready, false, nil
	}
	return sched.Blocked, false, nil
}

// admissionLoop pops in priority order, acquires resources, transitions
// READY to RUNNING, and hands off to the executor pool. Requeue on
// shortage goes to the tail of the same priority so a too-large head job
// cannot starve smaller ones behind it.
func (s *statefulScheduler) admissionLoop() {
	ctx := context.Background()
	for {
		id, err := s.queues.PopBlocking(ctx)
		if err != nil {
			return // queue set closed, we are stopping
		}
		job, err := s.store.Get(ctx, id)
		if err != nil {
			log.Warnf("Admission dropped queued job:%s: %v", id, err)
			continue
		}
		if job.Status != sched.Ready {
			continue // stale entry (cancelled, superseded)
		}
		if !s.ledger.TryAcquire(job.Def.CPUUnits, job.Def.MemoryMB) {
			s.queues.Push(job.Def.Priority, id)
			select {
			case <-time.After(s.config.AdmitBackoff):
			case <-s.stopCh:
				return
			}
			continue
		}
		if ok, err := s.store.CASStatus(ctx, id, sched.Ready, sched.Running); err != nil || !ok {
			s.ledger.Release(job.Def.CPUUnits, job.Def.MemoryMB)
			continue
		}

		job.Status = sched.Running
		job.Attempt++
		now := time.Now()
		job.StartedAt = &now
		if err := s.store.Put(ctx, job); err != nil {
			log.Errorf("job:%s failed to persist dispatch: %v", id, err)
		}

		// executor pool backpressure: block until a slot frees up
		select {
		case s.poolSlots <- struct{}{}:
		case <-s.stopCh:
			s.ledger.Release(job.Def.CPUUnits, job.Def.MemoryMB)
			return
		}
		select {
		case s.dispatchCh <- job:
		case <-s.stopCh:
			<-s.poolSlots
			s.ledger.Release(job.Def.CPUUnits, job.Def.MemoryMB)
			return
		}
	}
}

// loop is the update loop. Dispatches are received from the admission
// loop and attempt completions are processed as callbacks on this
// goroutine via asyncRunner.
func (s *statefulScheduler) loop() {
	defer close(s.loopDone)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case job := <-s.dispatchCh:
			s.startAttempt(job)
		case <-tick.C:
		case <-s.stopCh:
			// remaining callbacks run in Stop's drain phase
			return
		}
		s.asyncRunner.ProcessMessages()
		s.updateGauges()
	}
}

func (s *statefulScheduler) updateGauges() {
	depths := s.queues.Depths()
	queued := 0
	for p, n := range depths {
		s.stat.Gauge("queueDepthGauge_" + p.String()).Update(int64(n))
		queued += n
	}
	s.stat.Gauge("queuedJobsGauge").Update(int64(queued))
	cpuFree, memFree := s.ledger.Snapshot()
	s.stat.Gauge("cpuFreeGauge").Update(int64(cpuFree))
	s.stat.Gauge("memFreeGauge").Update(int64(memFree))
	s.stat.Gauge("runningJobsGauge").Update(int64(s.runningCount()))
}

func (s *statefulScheduler) runningCount() int {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	return len(s.running)
}

// startAttempt runs a dispatched job on the executor pool. Runs on the
// loop goroutine.
func (s *statefulScheduler) startAttempt(job *sched.Job) {
	run := newJobRunner(s, job)

	s.runningMu.Lock()
	s.running[job.Id] = run
	s.runningMu.Unlock()

	s.publish(events.Started, job, "")
	log.Infof("Starting job:%s type:%s attempt:%d/%d",
		job.Id, job.Def.Type, job.Attempt, job.Def.MaxAttempts)

	s.attemptWg.Add(1)
	s.asyncRunner.RunAsync(
		func() error {
			defer s.attemptWg.Done()
			defer func() { <-s.poolSlots }() // free the executor slot
			return run.run()
		},
		func(err error) {
			s.attemptDone(run, err)
		})
}

// attemptDone handles a terminal attempt outcome: cascade on success,
// retry or dead-letter on failure. Runs on the loop goroutine; the
// attempt has already released its resources and committed its status.
func (s *statefulScheduler) attemptDone(run *jobRunner, err error) {
	s.runningMu.Lock()
	delete(s.running, run.job.Id)
	s.runningMu.Unlock()

	if err != nil {
		// the attempt could not commit its outcome (store trouble); the
		// CAS discipline means the job record was not corrupted
		log.Errorf("job:%s attempt bookkeeping failed: %v", run.job.Id, err)
		return
	}
	if !run.committed {
		// someone else won the status race (e.g. cancellation landed
		// between timeout and commit); nothing further to do here
		return
	}

	job := run.job
	switch run.outcome {
	case sched.Completed:
		s.completedMeter.Mark(1)
		s.stat.Counter("completedJobsCounter").Inc(1)
		log.Infof("Ending job:%s outcome:%s attempt:%d", job.Id, run.outcome, job.Attempt)
		s.cascadeSuccess(job.Id)
	case sched.Cancelled:
		log.Infof("Ending job:%s outcome:cancelled attempt:%d", job.Id, job.Attempt)
		s.cascadeFailure(job.Id)
	case sched.Failed, sched.TimedOut:
		s.stat.Counter("failedAttemptsCounter").Inc(1)
		if run.cancelRequested.Load() {
			// the attempt failed on its own while a cancel was pending;
			// the cancel still wins: no retry, no dead letter
			log.Infof("Ending job:%s outcome:%s with cancel pending; suppressing retry",
				job.Id, run.outcome)
			s.cascadeFailure(job.Id)
			return
		}
		retryable := run.errKind.Retryable() && job.Attempt < job.Def.MaxAttempts
		if retryable {
			s.scheduleRetry(job, run.errText)
			return
		}
		log.Infof("Ending job:%s outcome:%s attempt:%d/%d (dead lettering)",
			job.Id, run.outcome, job.Attempt, job.Def.MaxAttempts)
		s.deadLetter(job, run.outcome, run.errKind, run.errText)
	}
}

// deadLetter parks an exhausted or permanently failed job and fails its
// dependents.
func (s *statefulScheduler) deadLetter(job *sched.Job, from sched.Status, kind sched.ErrorKind, errText string) {
	ctx := context.Background()
	ok, err := s.store.CASStatus(ctx, job.Id, from, sched.DeadLettered)
	if err != nil || !ok {
		log.Warnf("job:%s dead-letter CAS from %s failed: ok:%t err:%v", job.Id, from, ok, err)
		return
	}
	if err := s.dead.Add(ctx, dlq.Entry{
		JobId:        job.Id,
		JobType:      job.Def.Type,
		ErrorMessage: errText,
		ErrorKind:    string(kind),
		Attempts:     job.Attempt,
		Payload:      job.Def.Payload,
		FailedAt:     time.Now(),
	}); err != nil {
		log.Errorf("job:%s failed to record dead letter: %v", job.Id, err)
	}
	s.stat.Counter("deadLetteredJobsCounter").Inc(1)
	job.Status = sched.DeadLettered
	s.publish(events.DeadLettered, job, errText)
	s.cascadeFailure(job.Id)
}

// Get returns the current job record.
func (s *statefulScheduler) Get(ctx context.Context, id string) (*sched.Job, error) {
	return s.store.Get(ctx, id)
}

// List pages job records.
func (s *statefulScheduler) List(ctx context.Context, q jobstore.Query) (*jobstore.Page, error) {
	return s.store.List(ctx, q)
}

// Subscribe opens a lifecycle event feed.
func (s *statefulScheduler) Subscribe() *events.Subscription {
	return s.bus.Subscribe()
}

// Cancel stops a job; see Scheduler for semantics by status.
func (s *statefulScheduler) Cancel(ctx context.Context, id string) error {
	for {
		job, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if job.Status.Terminal() {
			return deperrors.Errorf(deperrors.AlreadyTerminal, "job %s is already %s", id, job.Status)
		}

		if job.Status == sched.Running {
			// cooperative: flag the attempt; the handler decides when
			// (and whether) to honor it
			s.runningMu.Lock()
			run := s.running[id]
			s.runningMu.Unlock()
			if run != nil {
				run.requestCancel()
				log.Infof("Requested cooperative cancel of running job:%s", id)
				return nil
			}
			// the dispatch is mid-flight between admission and the
			// executor pool; give it a beat and re-read
			time.Sleep(2 * time.Millisecond)
			continue
		}

		// queued/blocked/pending: cancellation is immediate
		ok, err := s.store.CASStatus(ctx, id, job.Status, sched.Cancelled)
		if err != nil {
			return err
		}
		if !ok {
			continue // status moved under us, re-dispatch on the new one
		}
		s.queues.Remove(id)
		s.stopRetryTimer(id)
		job.Status = sched.Cancelled
		s.publish(events.Cancelled, job, "")
		log.Infof("Cancelled job:%s", id)
		s.cascadeFailure(id)
		return nil
	}
}

// Metrics snapshots the engine.
func (s *statefulScheduler) Metrics(ctx context.Context) (*Metrics, error) {
	dlqSize, err := s.dead.Len(ctx)
	if err != nil {
		return nil, err
	}
	cpuFree, memFree := s.ledger.Snapshot()
	snap := s.completedMeter.Snapshot()
	return &Metrics{
		QueueDepths:  s.queues.Depths(),
		CPUFree:      cpuFree,
		MemFree:      memFree,
		RunningCount: s.runningCount(),
		DLQSize:      dlqSize,
		Throughput1m: snap.Rate1(),
		Throughput5m: snap.Rate5(),
	}, nil
}

// DLQList pages the dead letter queue.
func (s *statefulScheduler) DLQList(ctx context.Context, limit, offset int) ([]dlq.Entry, error) {
	return s.dead.List(ctx, limit, offset)
}

// DLQRetry is the administrative recovery path: the entry is removed
// from the queue and the job returns to PENDING with attempt reset to 0,
// then re-gates like a fresh submission.
func (s *statefulScheduler) DLQRetry(ctx context.Context, id string) error {
	entry, err := s.dead.Take(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.store.CASStatus(ctx, id, sched.DeadLettered, sched.Pending)
	if err != nil || !ok {
		// put the entry back so the admin can try again
		if addErr := s.dead.Add(ctx, *entry); addErr != nil {
			log.Errorf("job:%s lost dlq entry during failed retry: %v", id, addErr)
		}
		if err != nil {
			return err
		}
		return deperrors.Errorf(deperrors.AlreadyTerminal, "job %s left DEAD_LETTERED state", id)
	}

	job, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	job.Attempt = 0
	job.LastError = ""
	job.LastErrorKind = sched.KindNone
	job.NextRetryAt = nil
	if err := s.store.Put(ctx, job); err != nil {
		return err
	}
	s.publish(events.Retrying, job, "")
	log.Infof("Replaying job:%s from dead letter queue", id)

	s.gateMu.Lock()
	defer s.gateMu.Unlock()
	initial, depFailed, err := s.gateLocked(ctx, job.Def.DependsOn)
	if err != nil {
		return err
	}
	if depFailed {
		// parents are still failed; straight back to terminal
		if ok, _ := s.store.CASStatus(ctx, id, sched.Pending, sched.Failed); ok {
			job.Status = sched.Failed
			s.publish(events.Failed, job, "dependency failed")
		}
		return nil
	}
	if initial == sched.Ready {
		if ok, _ := s.store.CASStatus(ctx, id, sched.Pending, sched.Ready); ok {
			job.Status = sched.Ready
			s.queues.Push(job.Def.Priority, id)
			s.publish(events.Ready, job, "")
		}
	} else {
		if _, err := s.store.CASStatus(ctx, id, sched.Pending, sched.Blocked); err != nil {
			return err
		}
	}
	return nil
}

// Stop halts admission and drains the executor pool.
func (s *statefulScheduler) Stop() {
	s.stopOnce.Do(func() {
		log.Info("Stopping scheduler")
		close(s.stopCh)
		s.queues.Close()
		if s.loopStarted {
			// the loop owns the async mailbox; wait for it to exit
			// before processing callbacks from this goroutine
			<-s.loopDone
		}

		s.runningMu.Lock()
		for id, timer := range s.retryTimers {
			timer.Stop()
			delete(s.retryTimers, id)
		}
		runs := make([]*jobRunner, 0, len(s.running))
		for _, run := range s.running {
			runs = append(runs, run)
		}
		s.runningMu.Unlock()

		drained := make(chan struct{})
		go func() {
			s.attemptWg.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-time.After(s.config.DrainTimeout):
			log.Warnf("Drain timeout after %s; cancelling %d running attempts",
				s.config.DrainTimeout, len(runs))
			for _, run := range runs {
				run.requestCancel()
			}
			select {
			case <-drained:
			case <-time.After(s.config.DrainTimeout):
				// a handler is ignoring cancellation; abandon it rather
				// than hang shutdown
				log.Error("Attempts still running after cancel; abandoning them")
			}
		}

		// run any callbacks the loop did not get to
		s.asyncRunner.ProcessMessages()
		s.bus.Close()
		log.Info("Scheduler stopped")
	})
}

func (s *statefulScheduler) stopRetryTimer(id string) {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	if timer, ok := s.retryTimers[id]; ok {
		timer.Stop()
		delete(s.retryTimers, id)
	}
}

func (s *statefulScheduler) publish(kind events.Kind, job *sched.Job, errText string) {
	s.bus.Publish(events.Event{
		Kind:    kind,
		JobId:   job.Id,
		JobType: job.Def.Type,
		Attempt: job.Attempt,
		Error:   errText,
	})
}
