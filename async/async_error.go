package async

// AsyncError is an async value that will eventually return an error.
// It is similar to a Promise/Future which returns an error.
// The value is supplied by calling SetValue.
// Once the value is supplied AsyncError is considered completed.
// The value can be retrieved once AsyncError is completed via TryGetValue.
type AsyncError struct {
	errCh     chan error
	val       error
	completed bool
}

func newAsyncError() *AsyncError {
	return &AsyncError{
		errCh: make(chan error, 1),
	}
}

// SetValue sets the value for the AsyncError and marks it Completed.
// This method should only ever be called once per AsyncError instance;
// calling it more than once panics.
func (e *AsyncError) SetValue(err error) {
	e.errCh <- err
	close(e.errCh)
}

// TryGetValue returns the status of this AsyncError, Completed(true) or
// Pending(false), and its value if Completed. If the AsyncError is not
// completed the returned error is nil.
func (e *AsyncError) TryGetValue() (bool, error) {
	if e.completed {
		return true, e.val
	}
	select {
	case err := <-e.errCh:
		e.val = err
		e.completed = true
		return true, err
	default:
		return false, nil
	}
}
