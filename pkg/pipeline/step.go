package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-retry/pkg/pipeline/model"
)

func sequentialOneToOneFn[I any, O any](ctx context.Context, pipe *Pipeline, goIdx int, input *model.Step[I], output *model.Step[O], oneToOneFn func(context.Context, I) (O, error)) error {
outer:
	for {
		start := time.Now()
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "go routine %d:", goIdx)
		case in, ok := <-input.Output:
			if !ok {
				break outer
			}

			startFn := time.Now()

			out, err := runWithRetry(ctx, pipe, output.Details, output.Retry, func(fnCtx context.Context) (O, error) {
				return oneToOneFn(fnCtx, in)
			})
			if err != nil {
				return errors.Wrapf(err, "go routine %d:", goIdx)
			}

			endFn := time.Since(startFn)

			// we check the context again to make sure all go routines currently running
			// stop to add new elements to the pipeline
			select {
			case <-ctx.Done():
				return errors.Wrapf(ctx.Err(), "go routine %d:", goIdx)
			case output.Output <- out:
				err := pipe.onStepOutput(input.Details, output.Details, time.Since(start), endFn)
				if err != nil {
					return errors.Wrapf(err, "go routine %d:", goIdx)
				}
			}
		}
	}

	return nil
}

func concurrentOneToOneFn[I any, O any](ctx context.Context, pipe *Pipeline, input *model.Step[I], output *model.Step[O], oneToOneFn func(context.Context, I) (O, error)) error {
	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(output.Details.Concurrent)
	// starts many consumers concurrently
	// each consumer stops as soon as an error happens
	for goIdx := 0; goIdx < output.Details.Concurrent; goIdx++ {
		localGoIdx := goIdx

		errGrp.Go(func() error {
			return sequentialOneToOneFn(dCtx, pipe, localGoIdx, input, output, oneToOneFn)
		})
	}

	return errGrp.Wait()
}

func oneToOne[I any, O any](ctx context.Context, pipe *Pipeline, input *model.Step[I], output *model.Step[O], oneToOneFn func(context.Context, I) (O, error)) error {
	if output.Details.Concurrent == 0 {
		output.Details.Concurrent = 1
	}

	if output.Details.Concurrent == 1 {
		return sequentialOneToOneFn(ctx, pipe, 1, input, output, oneToOneFn)
	}

	return concurrentOneToOneFn(ctx, pipe, input, output, oneToOneFn)
}

func sequentialOneToManyFn[I any, O any](ctx context.Context, pipe *Pipeline, goIdx int, input *model.Step[I], output *model.Step[O], oneToManyFn func(context.Context, I) ([]O, error)) error {
outer:
	for {
		start := time.Now()
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "go routine %d:", goIdx)
		case in, ok := <-input.Output:
			if !ok {
				break outer
			}

			startFn := time.Now()

			outs, err := runWithRetry(ctx, pipe, output.Details, output.Retry, func(fnCtx context.Context) ([]O, error) {
				return oneToManyFn(fnCtx, in)
			})
			if err != nil {
				return errors.Wrapf(err, "go routine %d:", goIdx)
			}

			endFn := time.Since(startFn)

			for _, out := range outs {
				select {
				case <-ctx.Done():
					return errors.Wrapf(ctx.Err(), "go routine %d:", goIdx)
				case output.Output <- out:
					err := pipe.onStepOutput(input.Details, output.Details, time.Since(start), endFn)
					if err != nil {
						return errors.Wrapf(err, "go routine %d:", goIdx)
					}
				}
			}
		}
	}

	return nil
}

func concurrentOneToManyFn[I any, O any](ctx context.Context, pipe *Pipeline, input *model.Step[I], output *model.Step[O], oneToManyFn func(context.Context, I) ([]O, error)) error {
	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(output.Details.Concurrent)

	for goIdx := 0; goIdx < output.Details.Concurrent; goIdx++ {
		localGoIdx := goIdx

		errGrp.Go(func() error {
			return sequentialOneToManyFn(dCtx, pipe, localGoIdx, input, output, oneToManyFn)
		})
	}

	return errGrp.Wait()
}

func oneToMany[I any, O any](ctx context.Context, pipe *Pipeline, input *model.Step[I], output *model.Step[O], oneToManyFn func(context.Context, I) ([]O, error)) error {
	if output.Details.Concurrent == 0 {
		output.Details.Concurrent = 1
	}

	if output.Details.Concurrent == 1 {
		return sequentialOneToManyFn(ctx, pipe, 1, input, output, oneToManyFn)
	}

	return concurrentOneToManyFn(ctx, pipe, input, output, oneToManyFn)
}

func addStep[I any, O any](pipe *Pipeline, name string, input *model.Step[I], runFn func(ctx context.Context, input *model.Step[I], output *model.Step[O]) error, opts ...StepOption[O]) (*model.Step[O], error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}

	if input == nil {
		return nil, ErrInputMustBeSet
	}

	step := &model.Step[O]{
		Details: &model.StepInfo{
			Type:       model.NormalStepType,
			Name:       name,
			Concurrent: 1,
		},
	}
	for _, opt := range opts {
		opt(step)
	}

	if step.Details.Concurrent <= 0 {
		step.Details.Concurrent = 1
	}

	step.Output = make(chan O, step.Details.BufferSize)

	for _, opt := range pipe.opts {
		err := opt.PrepareStep(input.Details, step.Details)
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

		err := runFn(pipe.ctx, input, step)
		if err != nil {
			errC <- err
		}
	}()
	pipe.errcList.add(decoratedError)

	return step, nil
}

// AddStepOneToOne adds a step that transforms every input value into
// exactly one output value.
func AddStepOneToOne[I any, O any](p *Pipeline, name string, input *model.Step[I], oneToOneFn func(context.Context, I) (O, error), opts ...StepOption[O]) (*model.Step[O], error) {
	return addStep(p, name, input, func(ctx context.Context, in *model.Step[I], out *model.Step[O]) error {
		return oneToOne(ctx, p, in, out, oneToOneFn)
	}, opts...)
}

// AddStepOneToMany adds a step that transforms every input value into any
// number of output values.
func AddStepOneToMany[I any, O any](p *Pipeline, name string, input *model.Step[I], oneToManyFn func(context.Context, I) ([]O, error), opts ...StepOption[O]) (*model.Step[O], error) {
	return addStep(p, name, input, func(ctx context.Context, in *model.Step[I], out *model.Step[O]) error {
		return oneToMany(ctx, p, in, out, oneToManyFn)
	}, opts...)
}
