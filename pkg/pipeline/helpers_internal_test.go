package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/askiada/go-retry/pkg/pipeline/model"
)

func createInputChan(t *testing.T, total int) chan int {
	t.Helper()

	inputChan := make(chan int, total)

	go func() {
		defer close(inputChan)

		for i := 0; i < total; i++ {
			inputChan <- i
		}
	}()

	return inputChan
}

func createInputChanWithCancel(t *testing.T, total int, cancelAfter int, cancel context.CancelFunc) chan int {
	t.Helper()

	inputChan := make(chan int)

	go func() {
		defer close(inputChan)

		for i := 0; i < total; i++ {
			if i == cancelAfter {
				cancel()
				// leave the consumer a moment to observe the cancellation
				time.Sleep(10 * time.Millisecond)
			}
			inputChan <- i
		}
	}()

	return inputChan
}

func processOutputChan(t *testing.T, output <-chan int) []int {
	t.Helper()

	got := []int{}
	for out := range output {
		got = append(got, out)
	}

	return got
}

func testPipe(t *testing.T, ctx context.Context) *Pipeline {
	t.Helper()

	pipe, err := New(ctx)
	require.NoError(t, err)

	return pipe
}

func testStep(name string, output chan int, concurrent int) *model.Step[int] {
	return &model.Step[int]{
		Output: output,
		Details: &model.StepInfo{
			Name:       name,
			Concurrent: concurrent,
		},
	}
}
