// Package runner defines the handler contract jobs execute against and
// the registry mapping job types to handlers.
package runner

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Handler executes one job payload. The payload is an opaque blob; schema
// validation is the handler's problem. The returned bytes are recorded as
// the job's result.
//
// Handlers are untrusted with respect to latency and panics. They should
// watch ctx: it is cancelled on timeout and on cooperative cancellation,
// and returning ctx.Err() is how a handler honors either.
type Handler interface {
	Run(ctx context.Context, payload []byte) ([]byte, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, payload []byte) ([]byte, error)

func (f HandlerFunc) Run(ctx context.Context, payload []byte) ([]byte, error) {
	return f(ctx, payload)
}

// permanentError marks a failure that must not be retried.
type permanentError struct {
	error
}

func (e *permanentError) Unwrap() error { return e.error }

// Permanent wraps err to signal the failure is not retryable: the job
// skips its remaining attempts and goes straight to the dead letter
// queue.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err}
}

// IsPermanent reports whether err (anywhere in its chain) was marked
// Permanent.
func IsPermanent(err error) bool {
	var perm *permanentError
	return errors.As(err, &perm)
}

// Registry maps job types to handlers. Register at startup; Lookup is
// called concurrently by the executor pool.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: map[string]Handler{}}
}

// Register binds jobType to h, replacing any previous binding.
func (r *Registry) Register(jobType string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[jobType] = h
}

// Lookup returns the handler for jobType.
func (r *Registry) Lookup(jobType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[jobType]
	return h, ok
}

// Types returns the registered job types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	return out
}
