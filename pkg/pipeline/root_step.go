package pipeline

import (
	"context"

	"github.com/pkg/errors"

	"github.com/askiada/go-retry/pkg/pipeline/model"
)

// AddRootStep adds a producer step to the pipeline. The step function owns
// the output channel and runs in a separate goroutine.
//
// When the step carries a retry handler, the whole function is re-run on
// failure: a failed producer cannot be resumed because its state is
// undefined. Values emitted before the failure are not recalled.
func AddRootStep[O any](p *Pipeline, name string, stepFn func(ctx context.Context, rootChan chan<- O) error, opts ...StepOption[O]) (*model.Step[O], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	step := &model.Step[O]{
		Details: &model.StepInfo{
			Type:       model.RootStepType,
			Name:       name,
			Concurrent: 1,
		},
	}
	for _, opt := range opts {
		opt(step)
	}

	step.Output = make(chan O, step.Details.BufferSize)

	for _, opt := range p.opts {
		err := opt.PrepareStep(model.StartStep.Details, step.Details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to run before step function")
		}
	}

	errC := make(chan error, 1)
	decoratedError := newErrorChan(name, errC)

	go func() {
		defer func() {
			if !step.KeepOpen {
				close(step.Output)
			}

			close(errC)
		}()

		_, err := runWithRetry(p.ctx, p, step.Details, step.Retry, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, stepFn(ctx, step.Output)
		})
		if err != nil {
			errC <- err
		}
	}()
	p.errcList.add(decoratedError)

	return step, nil
}
