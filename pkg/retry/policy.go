package retry

import (
	"fmt"
	"time"
)

type policyKind int

const (
	kindRepeat policyKind = iota
	kindWaitRetry
	kindForwardError
)

// Policy is the decision an error handler takes for a single error.
type Policy struct {
	err  error
	wait time.Duration
	kind policyKind
}

// Repeat retries the operation immediately.
func Repeat() Policy {
	return Policy{kind: kindRepeat}
}

// WaitRetry retries the operation after the given delay.
func WaitRetry(wait time.Duration) Policy {
	return Policy{kind: kindWaitRetry, wait: wait}
}

// ForwardError gives up and propagates the given error. The handler may
// forward the error it was given or a transformed one.
func ForwardError(err error) Policy {
	return Policy{kind: kindForwardError, err: err}
}

// ShouldRetry reports whether the policy leads to another attempt.
func (p Policy) ShouldRetry() bool {
	return p.kind != kindForwardError
}

// Wait returns the delay before the next attempt. It is zero for Repeat
// and ForwardError.
func (p Policy) Wait() time.Duration {
	return p.wait
}

// Err returns the error carried by a ForwardError policy, nil otherwise.
func (p Policy) Err() error {
	return p.err
}

func (p Policy) String() string {
	switch p.kind {
	case kindRepeat:
		return "repeat"
	case kindWaitRetry:
		return fmt.Sprintf("wait %s and retry", p.wait)
	default:
		return fmt.Sprintf("forward error: %v", p.err)
	}
}
