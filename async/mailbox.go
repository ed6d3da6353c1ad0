// Package async provides tools for asynchronous callback processing
// using goroutines.
package async

// A Mailbox stores AsyncErrors and their associated callbacks and invokes
// the callbacks once the AsyncError is completed.
//
// The scheduler loop spawns goroutines to run job attempts and store
// writes, but all of its state is owned by the loop goroutine. A Mailbox
// lets those goroutines report their outcome without touching loop state:
// the goroutine calls SetValue on its AsyncError, and the loop invokes the
// registered callback from its own goroutine on the next ProcessMessages.
//
//	bx := async.NewMailbox()
//	rsp := bx.NewAsyncError(func(err error) { /* runs on loop goroutine */ })
//	go func() { rsp.SetValue(runAttempt()) }()
//	...
//	bx.ProcessMessages() // invoked from the loop
//
// A Mailbox is not a concurrent structure and should only ever be
// accessed from a single goroutine. This ensures that the callbacks are
// always executed within the same context and only one at a time.
type Mailbox struct {
	msgs []message
}

// AsyncErrorResponseHandler is the callback invoked when an AsyncError
// is completed.
type AsyncErrorResponseHandler func(error)

type message struct {
	Err      *AsyncError
	callback AsyncErrorResponseHandler
}

func newMessage(cb AsyncErrorResponseHandler) message {
	return message{
		Err:      newAsyncError(),
		callback: cb,
	}
}

func NewMailbox() *Mailbox {
	return &Mailbox{
		msgs: make([]message, 0),
	}
}

// Count returns the number of in-progress messages.
func (bx *Mailbox) Count() int {
	return len(bx.msgs)
}

// NewAsyncError creates an AsyncError and associates the supplied callback
// with it. Once the AsyncError has been completed, the callback will be
// invoked on the next execution of ProcessMessages.
func (bx *Mailbox) NewAsyncError(cb AsyncErrorResponseHandler) *AsyncError {
	msg := newMessage(cb)
	bx.msgs = append(bx.msgs, msg)
	return msg.Err
}

// ProcessMessages invokes the callback of every message whose AsyncError
// has completed and removes those messages from the mailbox.
func (bx *Mailbox) ProcessMessages() {
	var unCompletedMsgs []message
	for _, msg := range bx.msgs {
		ok, err := msg.Err.TryGetValue()
		if ok {
			msg.callback(err)
		} else {
			unCompletedMsgs = append(unCompletedMsgs, msg)
		}
	}
	bx.msgs = unCompletedMsgs
}
