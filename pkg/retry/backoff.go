package retry

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// Backoff computes the delay before the next attempt. The attempt number
// is the one that just failed, starting at 1.
type Backoff interface {
	Next(attempt int) time.Duration
}

// ConstantBackoff waits the same duration between all attempts.
type ConstantBackoff time.Duration

func (b ConstantBackoff) Next(int) time.Duration {
	return time.Duration(b)
}

// ExponentialBackoff doubles (or multiplies by Multiplier) the delay on
// every attempt, capped at Max.
type ExponentialBackoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

func (b ExponentialBackoff) Next(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	multiplier := b.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}

	wait := float64(b.Initial) * math.Pow(multiplier, float64(attempt-1))
	if b.Max > 0 && wait > float64(b.Max) {
		return b.Max
	}

	return time.Duration(wait)
}

// ArctanBackoff grows the delay from Min towards Max rather fast but never
// actually reaches the upper value. With a 5ms..1000ms range the first
// attempt waits 5ms, the second about 503ms, then 706ms, 787ms, and by the
// tenth attempt about 930ms.
type ArctanBackoff struct {
	Min time.Duration
	Max time.Duration
}

func (b ArctanBackoff) Next(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	minWait, maxWait := float64(b.Min), float64(b.Max)
	if maxWait <= minWait {
		return b.Min
	}

	wait := minWait + (maxWait-minWait)*math.Atan(float64(attempt-1))*2/math.Pi

	return time.Duration(wait)
}

// BackoffHandler is an ErrorHandler that waits according to a Backoff and
// gives up once MaxAttempts consecutive failures have been used up.
type BackoffHandler struct {
	// Backoff computes the wait between attempts. When unset every error
	// is forwarded as ErrBackoffMustBeSet.
	Backoff Backoff
	// MaxAttempts caps consecutive failures. Zero means no cap.
	MaxAttempts int
	// Classify, when set, short-circuits the backoff: errors it reports as
	// fatal are forwarded immediately.
	Classify func(err error) bool
}

func (h BackoffHandler) Handle(attempt int, err error) Policy {
	if h.Classify != nil && h.Classify(err) {
		return ForwardError(err)
	}

	if h.MaxAttempts > 0 && attempt >= h.MaxAttempts {
		return ForwardError(errors.Wrapf(err, "all %d attempts have been used up", h.MaxAttempts))
	}

	if h.Backoff == nil {
		return ForwardError(ErrBackoffMustBeSet)
	}

	return WaitRetry(h.Backoff.Next(attempt))
}

func (h BackoffHandler) OK(int) {}
