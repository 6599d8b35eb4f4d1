package pipeline

import (
	"context"

	"github.com/askiada/go-retry/pkg/pipeline/model"
	"github.com/askiada/go-retry/pkg/retry"
)

// runWithRetry runs fn under the given retry handler when one is set, and
// plainly otherwise. Retries are reported to the pipeline options.
func runWithRetry[O any](ctx context.Context, pipe *Pipeline, info *model.StepInfo, handler retry.ErrorHandler, fn retry.Factory[O]) (O, error) {
	if handler == nil {
		return fn(ctx)
	}

	notify := &notifyingHandler{inner: handler, pipe: pipe, step: info}

	out, err := retry.Do(ctx, fn, notify)
	if notify.hookErr != nil {
		var zero O

		return zero, notify.hookErr
	}

	return out, err
}

// notifyingHandler forwards the decisions of the wrapped handler and
// reports every upcoming retry to the pipeline options. A hook error turns
// the current decision into a forward, so the step stops.
type notifyingHandler struct {
	inner   retry.ErrorHandler
	pipe    *Pipeline
	step    *model.StepInfo
	hookErr error
}

func (h *notifyingHandler) Handle(attempt int, err error) retry.Policy {
	policy := h.inner.Handle(attempt, err)
	if !policy.ShouldRetry() {
		return policy
	}

	hookErr := h.pipe.onStepRetry(h.step, attempt, policy.Wait())
	if hookErr != nil {
		h.hookErr = hookErr

		return retry.ForwardError(err)
	}

	return policy
}

func (h *notifyingHandler) OK(attempt int) {
	h.inner.OK(attempt)
}
