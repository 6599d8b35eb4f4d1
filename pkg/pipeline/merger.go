package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-retry/pkg/pipeline/model"
)

func prepareMerger[I any](pipe *Pipeline, output chan I, name string, steps ...*model.Step[I]) (*model.Step[I], error) {
	outputStep := &model.Step[I]{
		Details: &model.StepInfo{
			Type:       model.MergerStepType,
			Name:       name,
			Concurrent: 1,
		},
		Output: output,
	}

	stepInfos := make([]*model.StepInfo, len(steps))
	for i, step := range steps {
		stepInfos[i] = step.Details
	}

	for _, opt := range pipe.opts {
		err := opt.PrepareMerger(stepInfos, outputStep.Details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to run before merger function")
		}
	}

	return outputStep, nil
}

func runStepMerger[I any](ctx context.Context, pipe *Pipeline, errC chan error, step, outputStep *model.Step[I]) {
	for {
		startIter := time.Now()
		select {
		case <-ctx.Done():
			errC <- errors.Wrap(ctx.Err(), "merger aborted")

			return
		case entry, ok := <-step.Output:
			if !ok {
				return
			}

			select {
			case <-ctx.Done():
				errC <- errors.Wrap(ctx.Err(), "merger aborted")

				return
			case outputStep.Output <- entry:
				endIter := time.Since(startIter)

				for _, opt := range pipe.opts {
					err := opt.OnMergerOutput(step.Details, outputStep.Details, endIter)
					if err != nil {
						errC <- errors.Wrap(err, "unable to run on merger output function")

						return
					}
				}
			}
		}
	}
}

// AddMerger adds a merger step to the pipeline. It merges the output of
// the given steps into a single channel. Retried steps keep their own
// handlers; the merger itself performs no retry.
func AddMerger[I any](pipe *Pipeline, name string, steps ...*model.Step[I]) (*model.Step[I], error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}

	if len(steps) == 0 {
		return nil, ErrInputMustBeSet
	}

	output := make(chan I)

	outputStep, err := prepareMerger(pipe, output, name, steps...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to prepare merger")
	}

	errC := make(chan error, len(steps))
	decoratedError := newErrorChan(name, errC)
	wgrp := sync.WaitGroup{}
	wgrp.Add(len(steps))

	go func() {
		wgrp.Wait()
		close(errC)
		close(output)
	}()

	for _, step := range steps {
		localStep := step

		go func() {
			defer wgrp.Done()
			runStepMerger(pipe.ctx, pipe, errC, localStep, outputStep)
		}()
	}

	pipe.errcList.add(decoratedError)

	return outputStep, nil
}
