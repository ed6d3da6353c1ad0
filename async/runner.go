package async

// A Runner is a helper to spawn goroutines to run AsyncFunctions and to
// associate callbacks with them. This builds on top of Mailbox to simplify
// the code that needs to be written:
//
//	r := async.NewRunner()
//	r.RunAsync(
//		func() error { return attempt.run() },
//		func(err error) { sched.attemptDone(attempt, err) })
//	...
//	r.ProcessMessages() // callbacks run here, on the caller's goroutine
type Runner struct {
	bx *Mailbox
}

func NewRunner() Runner {
	return Runner{
		bx: NewMailbox(),
	}
}

// NumRunning returns the number of functions that have been started but
// whose callbacks have not yet run.
func (r *Runner) NumRunning() int {
	return r.bx.Count()
}

// RunAsync creates a goroutine to run the specified function f.
// The callback cb is invoked once f is completed by calling ProcessMessages.
func (r *Runner) RunAsync(f func() error, cb AsyncErrorResponseHandler) {
	asyncErr := r.bx.NewAsyncError(cb)
	go func(rsp *AsyncError) {
		err := f()
		rsp.SetValue(err)
	}(asyncErr)
}

// ProcessMessages invokes all callbacks of completed async functions.
// Callbacks are run synchronously by the calling goroutine.
func (r *Runner) ProcessMessages() {
	r.bx.ProcessMessages()
}
