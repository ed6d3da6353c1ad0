// Package ledger provides centralized management of the scheduler's
// CPU/memory pool by concurrent admission and release paths.
package ledger

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// Ledger controls access to a two-dimensional pool of abstract resources:
// cpu units and memory MB. Abstract in the sense that the counters do not
// meter real hardware; they bound overall concurrent usage by dispatched
// jobs. The ledger knows nothing about jobs or priorities.
//
// Typical usage:
//
//	l, err := ledger.New(8, 4096)
//	if !l.TryAcquire(cpu, mem) {
//		// requeue; try again later
//	}
//	defer l.Release(cpu, mem)
type Ledger struct {
	mu      sync.Mutex
	cpuCap  int
	memCap  int
	cpuFree int
	memFree int
}

// New returns a Ledger initialized with the given capacities.
// Returns an error if either capacity is < 1.
func New(cpuUnits, memoryMB int) (*Ledger, error) {
	if cpuUnits < 1 || memoryMB < 1 {
		return nil, errors.Errorf("invalid capacity cpu:%d mem:%d, both must be >= 1", cpuUnits, memoryMB)
	}
	return &Ledger{
		cpuCap:  cpuUnits,
		memCap:  memoryMB,
		cpuFree: cpuUnits,
		memFree: memoryMB,
	}, nil
}

// TryAcquire atomically takes cpu/mem from the pool iff both fit.
// It is total: it never blocks, the caller requeues on false.
func (l *Ledger) TryAcquire(cpu, mem int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cpu < 0 || mem < 0 {
		return false
	}
	if cpu > l.cpuFree || mem > l.memFree {
		return false
	}
	l.cpuFree -= cpu
	l.memFree -= mem
	return true
}

// Release returns cpu/mem to the pool. Driving a counter above its
// configured capacity means a double release, which is a bug in the
// caller, so Release panics rather than clamping it away.
func (l *Ledger) Release(cpu, mem int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cpuFree+cpu > l.cpuCap || l.memFree+mem > l.memCap {
		panic(fmt.Sprintf(
			"ledger over-release: free cpu:%d/%d mem:%d/%d after releasing cpu:%d mem:%d",
			l.cpuFree, l.cpuCap, l.memFree, l.memCap, cpu, mem))
	}
	l.cpuFree += cpu
	l.memFree += mem
}

// Fits reports whether a request could ever be admitted, i.e. whether it
// is within configured capacity. Used to reject impossible jobs at
// submission.
func (l *Ledger) Fits(cpu, mem int) bool {
	return cpu > 0 && mem > 0 && cpu <= l.cpuCap && mem <= l.memCap
}

// Snapshot returns the free counters. Observational only.
func (l *Ledger) Snapshot() (cpuFree, memFree int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cpuFree, l.memFree
}

// Capacity returns the configured capacities.
func (l *Ledger) Capacity() (cpuUnits, memoryMB int) {
	return l.cpuCap, l.memCap
}
