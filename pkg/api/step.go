package api

import "context"

// StepRunner executes one unit of work. The loop calls it once per dataflow
// item; input and output are opaque to the loop and are passed through to
// hooks via BeforeStep / AfterStep.
//
// Returning an error aborts the run, unless the error is a StopTraining
// signal, which ends it gracefully.
type StepRunner interface {
	RunStep(ctx context.Context, input any) (output any, err error)
}

// StepFunc adapts a plain function to a StepRunner.
type StepFunc func(ctx context.Context, input any) (any, error)

func (f StepFunc) RunStep(ctx context.Context, input any) (any, error) {
	return f(ctx, input)
}
