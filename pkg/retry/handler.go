package retry

// ErrorHandler decides on a retry policy depending on an encountered error.
//
// A handler may keep state, e.g. a record of how long previous attempts
// took. Attempt numbers are 1-based and count consecutive failures; they
// are managed by the combinator, so a handler only needs internal state
// for things the attempt number cannot express.
//
// When a handler is shared between goroutines (see StepConcurrency in the
// pipeline package) it must be safe for concurrent use.
type ErrorHandler interface {
	// Handle is consulted on every error. The attempt number is the one
	// that just failed.
	Handle(attempt int, err error) Policy
	// OK is notified on every success with the attempt number that
	// succeeded, so stateful handlers can reset themselves.
	OK(attempt int)
}

// HandlerFunc adapts a plain classification function to an ErrorHandler.
// The attempt number is ignored and OK is a no-op, which fits stateless
// handlers that only look at the error itself.
type HandlerFunc func(err error) Policy

func (f HandlerFunc) Handle(_ int, err error) Policy { return f(err) }

func (f HandlerFunc) OK(_ int) {}
