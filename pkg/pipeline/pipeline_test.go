package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-retry/pkg/pipeline"
	"github.com/askiada/go-retry/pkg/pipeline/drawer"
	"github.com/askiada/go-retry/pkg/pipeline/measure"
	"github.com/askiada/go-retry/pkg/pipeline/model"
	"github.com/askiada/go-retry/pkg/retry"
)

func repeatPolicy(err error) retry.Policy {
	return retry.Repeat()
}

func addRange(t *testing.T, pipe *pipeline.Pipeline, total int) *model.Step[int] {
	t.Helper()

	step, err := pipeline.AddRootStep(pipe, "root", func(ctx context.Context, rootChan chan<- int) error {
		for i := 0; i < total; i++ {
			rootChan <- i
		}

		return nil
	})
	require.NoError(t, err)

	return step
}

func addCollect(t *testing.T, pipe *pipeline.Pipeline, name string, input *model.Step[int], got *[]int) {
	t.Helper()

	err := pipeline.AddSink(pipe, name, input, func(ctx context.Context, in int) error {
		*got = append(*got, in)

		return nil
	})
	require.NoError(t, err)
}

func TestNewNilContext(t *testing.T) {
	t.Parallel()

	_, err := pipeline.New(nil) //nolint:staticcheck // nil context on purpose

	assert.ErrorIs(t, err, pipeline.ErrContextMustBeSet)
}

func TestPipeline(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)

	root := addRange(t, pipe, 10)

	double, err := pipeline.AddStepOneToOne(pipe, "double", root, func(_ context.Context, in int) (int, error) {
		return in * 2, nil
	})
	require.NoError(t, err)

	got := []int{}
	addCollect(t, pipe, "sink", double, &got)

	require.NoError(t, pipe.Run())
	assert.Equal(t, []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18}, got)
}

func TestPipelineOneToMany(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)

	root := addRange(t, pipe, 3)

	dup, err := pipeline.AddStepOneToMany(pipe, "dup", root, func(_ context.Context, in int) ([]int, error) {
		return []int{in, in}, nil
	})
	require.NoError(t, err)

	got := []int{}
	addCollect(t, pipe, "sink", dup, &got)

	require.NoError(t, pipe.Run())
	assert.Equal(t, []int{0, 0, 1, 1, 2, 2}, got)
}

func TestPipelineStepRetryMeasure(t *testing.T) {
	t.Parallel()

	mes := measure.NewDefaultMeasure()

	pipe, err := pipeline.New(context.Background(), measure.PipelineMeasure(mes))
	require.NoError(t, err)

	root := addRange(t, pipe, 10)

	failures := 0

	double, err := pipeline.AddStepOneToOne(pipe, "double", root, func(_ context.Context, in int) (int, error) {
		if in == 5 && failures == 0 {
			failures++

			return 0, errors.New("transient")
		}

		return in * 2, nil
	}, pipeline.StepRetry[int](retry.HandlerFunc(repeatPolicy)))
	require.NoError(t, err)

	got := []int{}
	addCollect(t, pipe, "sink", double, &got)

	require.NoError(t, pipe.Run())

	assert.Equal(t, []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18}, got)
	assert.EqualValues(t, 1, mes.GetMetric("double").Retries())
	assert.EqualValues(t, 0, mes.GetMetric("sink").Retries())
}

func TestPipelineStepRetryExhausted(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)

	root := addRange(t, pipe, 10)

	errBroken := errors.New("broken")
	handler := &retry.BackoffHandler{
		Backoff:     retry.ConstantBackoff(time.Millisecond),
		MaxAttempts: 3,
	}

	double, err := pipeline.AddStepOneToOne(pipe, "double", root, func(_ context.Context, in int) (int, error) {
		if in == 5 {
			return 0, errBroken
		}

		return in * 2, nil
	}, pipeline.StepRetry[int](handler))
	require.NoError(t, err)

	got := []int{}
	addCollect(t, pipe, "sink", double, &got)

	err = pipe.Run()
	assert.ErrorIs(t, err, errBroken)
	assert.ErrorContains(t, err, "all 3 attempts have been used up")
}

func TestPipelineSinkRetry(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)

	root := addRange(t, pipe, 5)

	got := []int{}
	failures := 0

	err = pipeline.AddSink(pipe, "sink", root, func(ctx context.Context, in int) error {
		if in == 3 && failures == 0 {
			failures++

			return errors.New("transient")
		}

		got = append(got, in)

		return nil
	}, pipeline.StepRetry[int](retry.HandlerFunc(repeatPolicy)))
	require.NoError(t, err)

	require.NoError(t, pipe.Run())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	assert.Equal(t, 1, failures)
}

func TestPipelineSinkFromChanRetryResumes(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)

	root := addRange(t, pipe, 5)

	got := []int{}
	runs := 0

	// the consumer re-runs after a failure and resumes reading where the
	// previous run stopped
	err = pipeline.AddSinkFromChan(pipe, "sink", root, func(ctx context.Context, input <-chan int) error {
		runs++

		for in := range input {
			if in == 2 && runs == 1 {
				return errors.New("transient")
			}

			got = append(got, in)
		}

		return nil
	}, pipeline.StepRetry[int](retry.HandlerFunc(repeatPolicy)))
	require.NoError(t, err)

	require.NoError(t, pipe.Run())
	assert.Equal(t, []int{0, 1, 3, 4}, got)
	assert.Equal(t, 2, runs)
}

func TestPipelineMerger(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)

	first, err := pipeline.AddRootStep(pipe, "first", func(ctx context.Context, rootChan chan<- int) error {
		for i := 0; i < 5; i++ {
			rootChan <- i
		}

		return nil
	})
	require.NoError(t, err)

	second, err := pipeline.AddRootStep(pipe, "second", func(ctx context.Context, rootChan chan<- int) error {
		for i := 5; i < 10; i++ {
			rootChan <- i
		}

		return nil
	})
	require.NoError(t, err)

	merged, err := pipeline.AddMerger(pipe, "merger", first, second)
	require.NoError(t, err)

	got := []int{}
	addCollect(t, pipe, "sink", merged, &got)

	require.NoError(t, pipe.Run())
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestPipelineMergerNoSteps(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)

	_, err = pipeline.AddMerger[int](pipe, "merger")
	assert.ErrorIs(t, err, pipeline.ErrInputMustBeSet)
}

func TestPipelineSplitter(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)

	root := addRange(t, pipe, 10)

	splitter, err := pipeline.AddSplitter(pipe, "splitter", root, 2, pipeline.SplitterBufferSize[int](5))
	require.NoError(t, err)
	require.Equal(t, 2, splitter.Total)

	firstOut, ok := splitter.Get()
	require.True(t, ok)
	secondOut, ok := splitter.Get()
	require.True(t, ok)

	_, ok = splitter.Get()
	require.False(t, ok)

	firstGot := []int{}
	addCollect(t, pipe, "first sink", firstOut, &firstGot)

	secondGot := []int{}
	addCollect(t, pipe, "second sink", secondOut, &secondGot)

	require.NoError(t, pipe.Run())

	want := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	assert.Equal(t, want, firstGot)
	assert.Equal(t, want, secondGot)
}

func TestPipelineSplitterInvalidTotal(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)

	root := addRange(t, pipe, 1)

	_, err = pipeline.AddSplitter(pipe, "splitter", root, 0)
	assert.ErrorIs(t, err, pipeline.ErrSplitterTotal)

	for range root.Output { //nolint:revive // drain the output
	}
}

func TestPipelinePrometheus(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()

	pipe, err := pipeline.New(context.Background(), measure.PipelinePrometheus(reg, "test"))
	require.NoError(t, err)

	root := addRange(t, pipe, 10)

	failures := 0

	double, err := pipeline.AddStepOneToOne(pipe, "double", root, func(_ context.Context, in int) (int, error) {
		if in == 5 && failures == 0 {
			failures++

			return 0, errors.New("transient")
		}

		return in * 2, nil
	}, pipeline.StepRetry[int](retry.HandlerFunc(repeatPolicy)))
	require.NoError(t, err)

	got := []int{}
	addCollect(t, pipe, "sink", double, &got)

	require.NoError(t, pipe.Run())

	expected := `
# HELP test_pipeline_step_retries_total Total number of retries a step performed
# TYPE test_pipeline_step_retries_total counter
test_pipeline_step_retries_total{step="double"} 1
test_pipeline_step_retries_total{step="root"} 0
test_pipeline_step_retries_total{step="sink"} 0
`

	err = testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_pipeline_step_retries_total")
	assert.NoError(t, err)

	outputs, err := testutil.GatherAndCount(reg, "test_pipeline_step_outputs_total")
	assert.NoError(t, err)
	assert.Equal(t, 3, outputs)
}

func TestPipelineDrawer(t *testing.T) {
	t.Parallel()

	svgFileName := filepath.Join(t.TempDir(), "pipeline.gv")

	mes := measure.NewDefaultMeasure()
	draw := drawer.NewSVGDrawer(svgFileName)

	pipe, err := pipeline.New(context.Background(), drawer.PipelineDrawer(draw, mes), measure.PipelineMeasure(mes))
	require.NoError(t, err)

	root := addRange(t, pipe, 10)

	failures := 0

	double, err := pipeline.AddStepOneToOne(pipe, "double", root, func(_ context.Context, in int) (int, error) {
		if in == 5 && failures == 0 {
			failures++

			return 0, errors.New("transient")
		}

		return in * 2, nil
	}, pipeline.StepRetry[int](retry.HandlerFunc(repeatPolicy)))
	require.NoError(t, err)

	got := []int{}
	addCollect(t, pipe, "sink", double, &got)

	require.NoError(t, pipe.Run())

	content, err := os.ReadFile(svgFileName)
	require.NoError(t, err)

	assert.Contains(t, string(content), "digraph")
	assert.Contains(t, string(content), "double")
	assert.Contains(t, string(content), "retries: 1")
}
