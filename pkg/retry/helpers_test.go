package retry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askiada/go-retry/pkg/retry"
)

func ok(value int) retry.Result[int] {
	return retry.Result[int]{Value: value}
}

func failed(err error) retry.Result[int] {
	return retry.Result[int]{Err: err}
}

func sourceOf(t *testing.T, results ...retry.Result[int]) retry.Source[int] {
	t.Helper()

	input := make(chan retry.Result[int], len(results))
	for _, res := range results {
		input <- res
	}

	close(input)

	return retry.FromChan(input)
}

func factoryOf(t *testing.T, results ...retry.Result[int]) retry.Factory[int] {
	t.Helper()

	idx := 0

	return func(context.Context) (int, error) {
		require.Less(t, idx, len(results), "no more operations")
		res := results[idx]
		idx++

		return res.Value, res.Err
	}
}

// recordingHandler keeps track of every Handle and OK call.
type recordingHandler struct {
	decide  func(attempt int, err error) retry.Policy
	handled []int
	oks     []int
}

func (h *recordingHandler) Handle(attempt int, err error) retry.Policy {
	h.handled = append(h.handled, attempt)

	return h.decide(attempt, err)
}

func (h *recordingHandler) OK(attempt int) {
	h.oks = append(h.oks, attempt)
}
