package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-retry/pkg/pipeline/model"
)

func sequentialSinkFn[I any](ctx context.Context, pipe *Pipeline, goIdx int, input *model.Step[I], step *model.Step[I], sinkFn func(ctx context.Context, input I) error) error {
outer:
	for {
		startIter := time.Now()
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "go routine %d:", goIdx)
		case in, ok := <-input.Output:
			if !ok {
				break outer
			}

			startFn := time.Now()

			_, err := runWithRetry(ctx, pipe, step.Details, step.Retry, func(fnCtx context.Context) (struct{}, error) {
				return struct{}{}, sinkFn(fnCtx, in)
			})
			if err != nil {
				return errors.Wrapf(err, "go routine %d:", goIdx)
			}

			err = pipe.onSinkOutput(input.Details, step.Details, time.Since(startIter), time.Since(startFn))
			if err != nil {
				return errors.Wrapf(err, "go routine %d:", goIdx)
			}
		}
	}

	return nil
}

func runSink[I any](ctx context.Context, pipe *Pipeline, input *model.Step[I], step *model.Step[I], sinkFn func(ctx context.Context, input I) error) error {
	if step.Details.Concurrent == 0 {
		step.Details.Concurrent = 1
	}

	if step.Details.Concurrent == 1 {
		return sequentialSinkFn(ctx, pipe, 1, input, step, sinkFn)
	}

	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(step.Details.Concurrent)

	for goIdx := 0; goIdx < step.Details.Concurrent; goIdx++ {
		localGoIdx := goIdx

		errGrp.Go(func() error {
			return sequentialSinkFn(dCtx, pipe, localGoIdx, input, step, sinkFn)
		})
	}

	return errGrp.Wait()
}

func prepareSink[I any](pipe *Pipeline, name string, input *model.Step[I], opts ...StepOption[I]) (*model.Step[I], error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}

	if input == nil {
		return nil, ErrInputMustBeSet
	}

	step := &model.Step[I]{
		Details: &model.StepInfo{
			Type:       model.SinkStepType,
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

	for _, opt := range pipe.opts {
		err := opt.PrepareSink(input.Details, step.Details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to run before sink function")
		}
	}

	return step, nil
}

// AddSink adds a final consumer to the pipeline, invoked once per input
// value. A retry handler set with StepRetry applies per input value.
func AddSink[I any](pipe *Pipeline, name string, input *model.Step[I], sinkFn func(ctx context.Context, input I) error, opts ...StepOption[I]) error {
	step, err := prepareSink(pipe, name, input, opts...)
	if err != nil {
		return err
	}

	errC := make(chan error, 1)
	decoratedError := newErrorChan(name, errC)

	go func() {
		defer close(errC)

		err := runSink(pipe.ctx, pipe, input, step, sinkFn)
		if err != nil {
			errC <- err

			return
		}

		err = pipe.afterSink(step.Details, time.Since(pipe.startTime))
		if err != nil {
			errC <- err
		}
	}()
	pipe.errcList.add(decoratedError)

	return nil
}

// AddSinkFromChan adds a final consumer that owns the input channel. When
// the consumer carries a retry handler the whole function is re-run on
// failure; it resumes reading wherever the previous run stopped.
func AddSinkFromChan[I any](pipe *Pipeline, name string, input *model.Step[I], stepFn func(ctx context.Context, input <-chan I) error, opts ...StepOption[I]) error {
	step, err := prepareSink(pipe, name, input, opts...)
	if err != nil {
		return err
	}

	errC := make(chan error, 1)
	decoratedError := newErrorChan(name, errC)

	go func() {
		defer close(errC)

		_, err := runWithRetry(pipe.ctx, pipe, step.Details, step.Retry, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, stepFn(ctx, input.Output)
		})
		if err != nil {
			errC <- err

			return
		}

		err = pipe.afterSink(step.Details, time.Since(pipe.startTime))
		if err != nil {
			errC <- err
		}
	}()
	pipe.errcList.add(decoratedError)

	return nil
}
