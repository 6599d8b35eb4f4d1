// Package pipeline provides a pipeline for processing data, with retry
// semantics at every stage.
//
// The pipeline package offers a convenient way to process data using a
// series of stages. Each stage performs a specific operation on the data
// and passes it to the next stage through a channel, which enables
// concurrent processing without complex synchronisation mechanisms.
//
// The pipeline stops on the first unrecovered error. A stage can however
// carry a retry handler (see the retry package and the StepRetry option):
// instead of failing the pipeline, a failed stage function is re-attempted
// under the handler's policy, and only a forwarded error propagates. Every
// retry is reported to the pipeline options, so observers such as the
// measure and drawer packages can account for them.
package pipeline
