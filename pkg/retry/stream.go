package retry

import (
	"context"

	"github.com/pkg/errors"
)

// Source produces the next item of a stream. It returns ErrEndOfStream
// when the stream is exhausted.
type Source[T any] func(ctx context.Context) (T, error)

// Result carries one stream element, either a value or an error. It is the
// element type of channels adapted with FromChan.
type Result[T any] struct {
	Value T
	Err   error
}

// FromChan adapts a channel of results into a Source. A closed channel
// ends the stream.
func FromChan[T any](input <-chan Result[T]) Source[T] {
	return func(ctx context.Context) (T, error) {
		var zero T

		select {
		case <-ctx.Done():
			return zero, errors.Wrap(ctx.Err(), "stream aborted")
		case res, ok := <-input:
			if !ok {
				return zero, ErrEndOfStream
			}

			return res.Value, res.Err
		}
	}
}

// Stream provides a way to handle errors during a stream execution, i.e.
// it polls the source for further items with the handler's decision in
// between.
//
// The semantics differ from Do: a stream is a natural producer of new
// items, so no factory is needed and the source is simply polled again
// after an error. Every item is paired with the number of attempts it took
// to obtain it, and the counter resets on success.
//
// A typical usage is recovering from transient errors while accepting
// connections on a TCP server; see the examples folder.
type Stream[T any] struct {
	source  Source[T]
	handler ErrorHandler
	attempt int
}

// NewStream creates a Stream from a source and an ErrorHandler that
// decides on a retry policy depending on an encountered error.
func NewStream[T any](source Source[T], handler ErrorHandler) *Stream[T] {
	return NewStreamWithCounter(source, handler, 1)
}

// NewStreamWithCounter is like NewStream, but a custom initial value for
// the attempt counter might be provided.
func NewStreamWithCounter[T any](source Source[T], handler ErrorHandler, attempt int) *Stream[T] {
	return &Stream[T]{
		source:  source,
		handler: handler,
		attempt: attempt,
	}
}

// Next returns the next item of the stream along with the attempt number
// it took to obtain it.
//
// A forwarded error is returned with its attempt number, but the stream
// stays usable: the counter keeps running and the following call polls the
// source again. The end of the stream is reported as ErrEndOfStream with
// an attempt number of zero.
func (s *Stream[T]) Next(ctx context.Context) (T, int, error) {
	var zero T

	if s.source == nil {
		return zero, 0, ErrSourceMustBeSet
	}

	if s.handler == nil {
		return zero, 0, ErrHandlerMustBeSet
	}

	for {
		item, err := s.source(ctx)
		attempt := s.attempt

		if err == nil {
			s.attempt = 1
			s.handler.OK(attempt)

			return item, attempt, nil
		}

		if errors.Is(err, ErrEndOfStream) {
			return zero, 0, ErrEndOfStream
		}

		s.attempt++

		policy := s.handler.Handle(attempt, err)
		if !policy.ShouldRetry() {
			return zero, attempt, policy.Err()
		}

		if wait := policy.Wait(); wait > 0 {
			if err := sleep(ctx, wait); err != nil {
				return zero, attempt, err
			}

			continue
		}

		select {
		case <-ctx.Done():
			return zero, attempt, errors.Wrap(ctx.Err(), "retry aborted")
		default:
		}
	}
}

// ForEach consumes the stream until its end, invoking fn for every item.
// It returns the first forwarded error, or nil when the stream ends.
func (s *Stream[T]) ForEach(ctx context.Context, fn func(ctx context.Context, item T) error) error {
	for {
		item, _, err := s.Next(ctx)
		if errors.Is(err, ErrEndOfStream) {
			return nil
		}

		if err != nil {
			return err
		}

		if err := fn(ctx, item); err != nil {
			return err
		}
	}
}

// Collect consumes the stream until its end and returns all items.
func (s *Stream[T]) Collect(ctx context.Context) ([]T, error) {
	var items []T

	err := s.ForEach(ctx, func(_ context.Context, item T) error {
		items = append(items, item)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}
