package model

import "github.com/askiada/go-retry/pkg/retry"

type stepType string

const (
	RootStepType     stepType = "root"
	NormalStepType   stepType = "step"
	SplitterStepType stepType = "splitter"
	SinkStepType     stepType = "sink"
	MergerStepType   stepType = "merger"
)

// StepInfo describes a step to the pipeline options.
type StepInfo struct {
	Type       stepType
	Name       string
	Concurrent int
	BufferSize int
	// Retried reports whether the step carries a retry handler.
	Retried bool
}

var (
	StartStep = &Step[any]{Details: &StepInfo{Name: "start"}}
	EndStep   = &Step[any]{Details: &StepInfo{Name: "end"}}
)

// Step is one stage of a pipeline. Output carries the values it produces
// to the next stage.
type Step[O any] struct {
	Output chan O
	// Retry, when set, decides what to do with an error instead of failing
	// the pipeline. With Concurrent > 1 the handler is shared between
	// goroutines and must be safe for concurrent use.
	Retry    retry.ErrorHandler
	KeepOpen bool
	Details  *StepInfo
}
