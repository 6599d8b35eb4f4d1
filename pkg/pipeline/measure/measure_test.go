package measure_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-retry/pkg/pipeline/measure"
)

func TestAddMetric(t *testing.T) {
	t.Parallel()

	mes := measure.NewDefaultMeasure()

	mt := mes.AddMetric("step", 2)
	require.NotNil(t, mt)

	assert.Equal(t, mt, mes.GetMetric("step"))
	assert.Nil(t, mes.GetMetric("unknown"))
	assert.Len(t, mes.AllMetrics(), 1)
}

func TestMetricDurations(t *testing.T) {
	t.Parallel()

	mes := measure.NewDefaultMeasure()
	mt := mes.AddMetric("step", 1)

	mt.AddDuration(10 * time.Millisecond)
	mt.AddDuration(20 * time.Millisecond)

	assert.Equal(t, 15*time.Millisecond, mt.AVGDuration())
}

func TestMetricRetries(t *testing.T) {
	t.Parallel()

	mes := measure.NewDefaultMeasure()
	mt := mes.AddMetric("step", 1)

	assert.EqualValues(t, 0, mt.Retries())
	assert.Equal(t, time.Duration(0), mt.TotalWait())

	mt.AddRetry(5 * time.Millisecond)
	mt.AddRetry(10 * time.Millisecond)

	assert.EqualValues(t, 2, mt.Retries())
	assert.Equal(t, 15*time.Millisecond, mt.TotalWait())
}

func TestMetricTransports(t *testing.T) {
	t.Parallel()

	mes := measure.NewDefaultMeasure()
	mt := mes.AddMetric("step", 1)

	mt.AddTransportDuration("input", 10*time.Millisecond)
	mt.AddTransportDuration("input", 30*time.Millisecond)

	avg := mt.AVGTransportDuration()
	require.Contains(t, avg, "input")
	assert.Equal(t, 20*time.Millisecond, avg["input"].Elapsed)
}
