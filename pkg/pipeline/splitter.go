package pipeline

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-retry/pkg/pipeline/model"
)

// Splitter duplicates every input value to a fixed number of output steps.
type Splitter[I any] struct {
	mainStep      *model.Step[I]
	splittedSteps []*model.Step[I]
	mu            sync.Mutex
	currIdx       int
	bufferSize    int
	Total         int
}

// Get claims the next unclaimed output step. It returns false when all of
// them have been claimed.
func (s *Splitter[I]) Get() (*model.Step[I], bool) {
	s.mu.Lock()
	defer func() {
		s.currIdx++
		s.mu.Unlock()
	}()

	if s.currIdx >= len(s.splittedSteps) {
		return nil, false
	}

	return s.splittedSteps[s.currIdx], true
}

// AddSplitter adds a splitter to the pipeline. Every input value is
// duplicated to total output steps; a buffer in front of each output
// decouples slow consumers (see SplitterBufferSize).
func AddSplitter[I any](p *Pipeline, name string, input *model.Step[I], total int, opts ...SplitterOption[I]) (*Splitter[I], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	if input == nil {
		return nil, ErrInputMustBeSet
	}

	if total <= 0 {
		return nil, ErrSplitterTotal
	}

	splitter := &Splitter[I]{
		Total: total,
		mainStep: &model.Step[I]{
			Details: &model.StepInfo{
				Type:       model.SplitterStepType,
				Name:       name,
				Concurrent: 1,
			},
		},
	}
	for _, opt := range opts {
		opt(splitter)
	}

	if splitter.bufferSize == 0 {
		splitter.bufferSize = 1
	}

	buffers := make([]chan I, total)
	splitter.splittedSteps = make([]*model.Step[I], total)

	for i := range buffers {
		buffers[i] = make(chan I, splitter.bufferSize)
		splitter.splittedSteps[i] = &model.Step[I]{
			Details: &model.StepInfo{
				Type: model.SplitterStepType,
				Name: name,
			},
			Output: make(chan I),
		}
	}

	for _, opt := range p.opts {
		err := opt.PrepareSplitter(input.Details, splitter.mainStep.Details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to run before splitter function")
		}
	}

	errC := make(chan error, total+1)
	decoratedError := newErrorChan(name, errC)
	wgrp := &sync.WaitGroup{}
	wgrp.Add(total)

	// One forwarder per output drains its buffer.
	for i, buf := range buffers {
		localBuf := buf
		localStep := splitter.splittedSteps[i]

		go func() {
			defer wgrp.Done()
			defer close(localStep.Output)

			for {
				select {
				case <-p.ctx.Done():
					errC <- errors.Wrap(p.ctx.Err(), "splitter aborted")

					return
				case elem, ok := <-localBuf:
					if !ok {
						return
					}

					select {
					case <-p.ctx.Done():
						errC <- errors.Wrap(p.ctx.Err(), "splitter aborted")

						return
					case localStep.Output <- elem:
					}
				}
			}
		}()
	}

	go func() {
		defer func() {
			for _, buf := range buffers {
				close(buf)
			}

			wgrp.Wait()
			close(errC)
		}()

	outer:
		for {
			startIter := time.Now()
			select {
			case <-p.ctx.Done():
				errC <- errors.Wrap(p.ctx.Err(), "splitter aborted")

				break outer
			case entry, ok := <-input.Output:
				if !ok {
					break outer
				}

				startFn := time.Now()

				for _, buf := range buffers {
					select {
					case <-p.ctx.Done():
						errC <- errors.Wrap(p.ctx.Err(), "splitter aborted")

						break outer
					case buf <- entry:
					}
				}

				endFn := time.Since(startFn)

				for _, opt := range p.opts {
					err := opt.OnSplitterOutput(input.Details, splitter.mainStep.Details, time.Since(startIter)-endFn, endFn)
					if err != nil {
						errC <- errors.Wrap(err, "unable to run on splitter output function")

						break outer
					}
				}
			}
		}
	}()
	p.errcList.add(decoratedError)

	return splitter, nil
}
