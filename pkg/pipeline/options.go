package pipeline

import (
	"github.com/askiada/go-retry/pkg/pipeline/model"
	"github.com/askiada/go-retry/pkg/retry"
)

type StepOption[O any] func(s *model.Step[O])

// StepConcurrency runs the step function with the given number of
// concurrent goroutines.
func StepConcurrency[O any](concurrent int) StepOption[O] {
	return func(s *model.Step[O]) {
		s.Details.Concurrent = concurrent
	}
}

// StepKeepOpen leaves the output channel open when the step function
// finishes, so several steps can feed the same channel.
func StepKeepOpen[O any]() StepOption[O] {
	return func(s *model.Step[O]) {
		s.KeepOpen = true
	}
}

// StepBufferSize sets the capacity of the step output channel.
func StepBufferSize[O any](bufferSize int) StepOption[O] {
	return func(s *model.Step[O]) {
		s.Details.BufferSize = bufferSize
	}
}

// StepRetry attaches a retry handler to the step. A failed step function
// is re-attempted under the handler's policy instead of failing the
// pipeline; only a forwarded error propagates.
//
// For root steps the whole producer function is re-run, since its state is
// undefined after a failure; values emitted before the failure are not
// recalled. For transform steps and sinks the retry applies per input
// value. With StepConcurrency > 1 the handler must be safe for concurrent
// use.
func StepRetry[O any](handler retry.ErrorHandler) StepOption[O] {
	return func(s *model.Step[O]) {
		s.Retry = handler
		s.Details.Retried = handler != nil
	}
}

type SplitterOption[I any] func(s *Splitter[I])

// SplitterBufferSize sets the capacity of the buffer in front of each
// splitter output.
func SplitterBufferSize[I any](bufferSize int) SplitterOption[I] {
	return func(s *Splitter[I]) {
		s.bufferSize = bufferSize
	}
}
