// Package model provides the data structures shared between the pipeline
// package and its options. It defines the steps of a pipeline, the
// information attached to each step, and the option interface observers
// implement to follow a pipeline execution, including every retry a step
// performs.
package model
