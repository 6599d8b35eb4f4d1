package retry

import "github.com/pkg/errors"

var (
	ErrFactoryMustBeSet = errors.New("factory must be set")
	ErrHandlerMustBeSet = errors.New("handler must be set")
	ErrSourceMustBeSet  = errors.New("source must be set")
	ErrBackoffMustBeSet = errors.New("backoff must be set")

	// ErrEndOfStream is returned by a Source to signal a graceful end of the
	// stream. It is never passed to the error handler.
	ErrEndOfStream = errors.New("end of stream")
)
