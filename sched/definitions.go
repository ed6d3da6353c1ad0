// Package sched provides definitions for Drover Jobs
package sched

import (
	"time"
)

// Priority partitions the queue set into four fixed tiers.
// Lower value means more urgent.
type Priority int

const (
	Critical Priority = iota
	High
	Normal
	Low
)

// NumPriorities is the number of queue tiers.
const NumPriorities = 4

func (p Priority) String() string {
	asString := [NumPriorities]string{"critical", "high", "normal", "low"}
	return asString[p]
}

// ParsePriority maps a priority name to its tier.
func ParsePriority(s string) (Priority, bool) {
	for p := Critical; p <= Low; p++ {
		if p.String() == s {
			return p, true
		}
	}
	return Normal, false
}

// Status for Jobs
type Status int

const (
	// Accepted but not yet gated; also the parking state between retries
	Pending Status = iota

	// Waiting on >=1 dependency that has not completed successfully
	Blocked

	// All dependencies satisfied, enqueued for admission
	Ready

	// Dispatched and holding ledger resources
	Running

	// Handler returned successfully
	Completed

	// Handler failed; terminal unless a retry has been scheduled
	Failed

	// Attempt exceeded the job's timeout
	TimedOut

	// Killed by request from a client
	Cancelled

	// Attempts exhausted or failure permanent; parked for admin retry
	DeadLettered
)

func (s Status) String() string {
	asString := [9]string{
		"pending", "blocked", "ready", "running", "completed",
		"failed", "timeout", "cancelled", "dead_lettered"}
	return asString[s]
}

// ParseStatus maps a status name back to its value.
func ParseStatus(s string) (Status, bool) {
	for st := Pending; st <= DeadLettered; st++ {
		if st.String() == s {
			return st, true
		}
	}
	return Pending, false
}

// Terminal statuses end a job's lifecycle (barring retry or DLQ replay).
func (s Status) Terminal() bool {
	switch s {
	case Completed, Failed, TimedOut, Cancelled, DeadLettered:
		return true
	}
	return false
}

// Success reports whether this terminal status unblocks dependents.
func (s Status) Success() bool {
	return s == Completed
}

// ErrorKind classifies the last error recorded on a job.
type ErrorKind string

const (
	KindNone             ErrorKind = ""
	KindRetryable        ErrorKind = "HANDLER_ERROR_RETRYABLE"
	KindPermanent        ErrorKind = "HANDLER_ERROR_PERMANENT"
	KindCrash            ErrorKind = "HANDLER_CRASH"
	KindTimeout          ErrorKind = "TIMEOUT"
	KindDependencyFailed ErrorKind = "DEPENDENCY_FAILED"
	KindCancelled        ErrorKind = "CANCELLED"
)

// Retryable reports whether an attempt that ended with this kind may be
// dispatched again (subject to the job's attempt budget).
func (k ErrorKind) Retryable() bool {
	return k == KindRetryable || k == KindCrash || k == KindTimeout
}

// Defaults applied to a JobSpec when the submitter leaves them zero.
const (
	DefaultMaxAttempts       = 3
	DefaultBackoffMultiplier = 2.0
	DefaultTimeoutSeconds    = 3600
)

// JobSpec is the definition the client sent us.
type JobSpec struct {
	Type           string   `json:"type"`
	Priority       Priority `json:"priority"`
	Payload        []byte   `json:"payload,omitempty"`
	CPUUnits       int      `json:"cpu_units"`
	MemoryMB       int      `json:"memory_mb"`
	DependsOn      []string `json:"depends_on,omitempty"`
	MaxAttempts    int      `json:"max_attempts,omitempty"`
	BackoffMult    float64  `json:"backoff_multiplier,omitempty"`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty"`

	// A repeat submission carrying the same key returns the original job.
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// ApplyDefaults fills the zero-valued tuning knobs.
func (spec *JobSpec) ApplyDefaults() {
	if spec.MaxAttempts == 0 {
		spec.MaxAttempts = DefaultMaxAttempts
	}
	if spec.BackoffMult == 0 {
		spec.BackoffMult = DefaultBackoffMultiplier
	}
	if spec.TimeoutSeconds == 0 {
		spec.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if spec.CPUUnits == 0 {
		spec.CPUUnits = 1
	}
	if spec.MemoryMB == 0 {
		spec.MemoryMB = 128
	}
}

// ExecutionRecord captures one dispatch of a job.
type ExecutionRecord struct {
	Attempt    int       `json:"attempt"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcome    Status    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
}

// Job is the authoritative record the store keeps per id.
type Job struct {
	Id     string  `json:"id"`
	Def    JobSpec `json:"def"`
	Status Status  `json:"status"`

	// Attempt counts total dispatches; it is never reset across retries,
	// only by an admin DLQ replay.
	Attempt int `json:"attempt"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`

	LastError     string    `json:"last_error,omitempty"`
	LastErrorKind ErrorKind `json:"last_error_kind,omitempty"`

	Result     []byte            `json:"result,omitempty"`
	Executions []ExecutionRecord `json:"executions,omitempty"`
}

// Copy returns a deep enough copy that callers can hand out without
// aliasing the store's record.
func (j *Job) Copy() *Job {
	c := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		c.FinishedAt = &t
	}
	if j.NextRetryAt != nil {
		t := *j.NextRetryAt
		c.NextRetryAt = &t
	}
	c.Executions = append([]ExecutionRecord(nil), j.Executions...)
	c.Def.DependsOn = append([]string(nil), j.Def.DependsOn...)
	c.Def.Payload = append([]byte(nil), j.Def.Payload...)
	c.Result = append([]byte(nil), j.Result...)
	return &c
}
