package measure

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/askiada/go-retry/pkg/pipeline/model"
)

type pipelinePrometheus struct {
	outputs   *prometheus.CounterVec
	retries   *prometheus.CounterVec
	durations *prometheus.HistogramVec
	waits     *prometheus.HistogramVec
	total     prometheus.Gauge
}

// PipelinePrometheus exports per-step outputs, durations, retry counts and
// retry waits to the given registerer.
func PipelinePrometheus(reg prometheus.Registerer, namespace string) model.PipelineOption {
	factory := promauto.With(reg)

	return &pipelinePrometheus{
		outputs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_step_outputs_total",
			Help:      "Total number of values a step pushed to its output",
		}, []string{"step"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_step_retries_total",
			Help:      "Total number of retries a step performed",
		}, []string{"step"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_step_duration_seconds",
			Help:      "Time a step function spent on one value",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		waits: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_step_retry_wait_seconds",
			Help:      "Wait before a retry of a step",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		total: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Total duration of the pipeline up to the last sink output",
		}),
	}
}

func (pp *pipelinePrometheus) New() error {
	return nil
}

func (pp *pipelinePrometheus) Finish() error {
	return nil
}

// prepare initialises the series of a step so they are exported even when
// the step never outputs or retries.
func (pp *pipelinePrometheus) prepare(step *model.StepInfo) {
	pp.outputs.WithLabelValues(step.Name).Add(0)
	pp.retries.WithLabelValues(step.Name).Add(0)
}

func (pp *pipelinePrometheus) PrepareStep(parentStep, step *model.StepInfo) error {
	pp.prepare(step)

	return nil
}

func (pp *pipelinePrometheus) PrepareSplitter(parentStep, splitterStep *model.StepInfo) error {
	pp.prepare(splitterStep)

	return nil
}

func (pp *pipelinePrometheus) PrepareMerger(parentStep []*model.StepInfo, step *model.StepInfo) error {
	pp.prepare(step)

	return nil
}

func (pp *pipelinePrometheus) PrepareSink(parentStep, step *model.StepInfo) error {
	pp.prepare(step)

	return nil
}

func (pp *pipelinePrometheus) OnStepOutput(parentStep, step *model.StepInfo, iterationDuration, computationDuration time.Duration) error {
	pp.outputs.WithLabelValues(step.Name).Inc()
	pp.durations.WithLabelValues(step.Name).Observe(computationDuration.Seconds())

	return nil
}

func (pp *pipelinePrometheus) OnStepRetry(step *model.StepInfo, attempt int, wait time.Duration) error {
	pp.retries.WithLabelValues(step.Name).Inc()
	pp.waits.WithLabelValues(step.Name).Observe(wait.Seconds())

	return nil
}

func (pp *pipelinePrometheus) OnSplitterOutput(parentStep, splitterStep *model.StepInfo, iterationDuration, computationDuration time.Duration) error {
	pp.outputs.WithLabelValues(splitterStep.Name).Inc()
	pp.durations.WithLabelValues(splitterStep.Name).Observe(computationDuration.Seconds())

	return nil
}

func (pp *pipelinePrometheus) OnMergerOutput(parentStep *model.StepInfo, outputStep *model.StepInfo, iterationDuration time.Duration) error {
	pp.outputs.WithLabelValues(outputStep.Name).Inc()

	return nil
}

func (pp *pipelinePrometheus) OnSinkOutput(parentStep, step *model.StepInfo, iterationDuration, computationDuration time.Duration) error {
	pp.outputs.WithLabelValues(step.Name).Inc()
	pp.durations.WithLabelValues(step.Name).Observe(computationDuration.Seconds())

	return nil
}

func (pp *pipelinePrometheus) AfterSink(step *model.StepInfo, totalDuration time.Duration) error {
	pp.total.Set(totalDuration.Seconds())

	return nil
}

var _ model.PipelineOption = (*pipelinePrometheus)(nil)
