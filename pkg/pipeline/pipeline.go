package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-retry/pkg/pipeline/model"
)

// Pipeline is a pipeline of steps. Steps start running as soon as they are
// added; Run waits for all of them to finish.
type Pipeline struct {
	ctx       context.Context
	errcList  *errorChans
	opts      []model.PipelineOption
	startTime time.Time
}

// New creates a new pipeline. The context is used by every step; cancel it
// to tear the whole pipeline down.
func New(ctx context.Context, opts ...model.PipelineOption) (*Pipeline, error) {
	if ctx == nil {
		return nil, ErrContextMustBeSet
	}

	pipe := &Pipeline{
		ctx:       ctx,
		errcList:  &errorChans{},
		startTime: time.Now(),
		opts:      opts,
	}

	for _, opt := range opts {
		err := opt.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

// waitForPipeline waits for results from all error channels.
// It returns early on the first error.
func waitForPipeline(errs ...*errorChan) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}

	return nil
}

// Run waits for the pipeline to finish. It returns the first unrecovered
// error, if any.
func (p *Pipeline) Run() error {
	err := waitForPipeline(p.errcList.list...)
	if err != nil {
		return err
	}

	return p.finishRun()
}

func (p *Pipeline) finishRun() error {
	for _, opt := range p.opts {
		err := opt.Finish()
		if err != nil {
			return errors.Wrap(err, "unable to finish pipeline option")
		}
	}

	return nil
}

func (p *Pipeline) onStepOutput(parentStep, step *model.StepInfo, iterationDuration, computationDuration time.Duration) error {
	for _, opt := range p.opts {
		err := opt.OnStepOutput(parentStep, step, iterationDuration, computationDuration)
		if err != nil {
			return errors.Wrap(err, "unable to run on step output function")
		}
	}

	return nil
}

func (p *Pipeline) onStepRetry(step *model.StepInfo, attempt int, wait time.Duration) error {
	for _, opt := range p.opts {
		err := opt.OnStepRetry(step, attempt, wait)
		if err != nil {
			return errors.Wrap(err, "unable to run on step retry function")
		}
	}

	return nil
}

func (p *Pipeline) onSinkOutput(parentStep, step *model.StepInfo, iterationDuration, computationDuration time.Duration) error {
	for _, opt := range p.opts {
		err := opt.OnSinkOutput(parentStep, step, iterationDuration, computationDuration)
		if err != nil {
			return errors.Wrap(err, "unable to run on sink output function")
		}
	}

	return nil
}

func (p *Pipeline) afterSink(step *model.StepInfo, totalDuration time.Duration) error {
	for _, opt := range p.opts {
		err := opt.AfterSink(step, totalDuration)
		if err != nil {
			return errors.Wrap(err, "unable to run after sink function")
		}
	}

	return nil
}
