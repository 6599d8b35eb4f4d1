package retry

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Factory creates a fresh operation for every attempt.
//
// A factory is needed because when (and if) an operation returns an error,
// its internal state is undefined and it cannot be resumed; a new one has
// to be created instead. Any closure over the inputs of the operation is a
// valid factory, so simple cases don't need a dedicated type.
type Factory[T any] func(ctx context.Context) (T, error)

// Do transparently runs operations created by the factory as many times as
// needed to get things done.
//
// Attempts are numbered from 1. On every error the handler decides which
// route to take: Repeat re-invokes the factory immediately, WaitRetry
// sleeps first (the sleep is aborted when the context is cancelled), and
// ForwardError returns the carried error. On success the handler is
// notified through OK with the attempt number that succeeded.
func Do[T any](ctx context.Context, factory Factory[T], handler ErrorHandler) (T, error) {
	var zero T

	if factory == nil {
		return zero, ErrFactoryMustBeSet
	}

	if handler == nil {
		return zero, ErrHandlerMustBeSet
	}

	for attempt := 1; ; attempt++ {
		out, err := factory(ctx)
		if err == nil {
			handler.OK(attempt)

			return out, nil
		}

		policy := handler.Handle(attempt, err)
		if !policy.ShouldRetry() {
			return zero, policy.Err()
		}

		if wait := policy.Wait(); wait > 0 {
			if err := sleep(ctx, wait); err != nil {
				return zero, err
			}

			continue
		}

		// Repeat still has to observe cancellation, otherwise a factory
		// that fails without blocking would spin forever.
		select {
		case <-ctx.Done():
			return zero, errors.Wrap(ctx.Err(), "retry aborted")
		default:
		}
	}
}

func sleep(ctx context.Context, wait time.Duration) error {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "retry aborted")
	case <-timer.C:
		return nil
	}
}
