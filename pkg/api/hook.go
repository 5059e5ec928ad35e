package api

import "context"

// Hook receives lifecycle notifications from the training loop.
//
// Notifications are dispatched synchronously on the loop goroutine: each one
// completes fully before the next is issued. Implementations that need heavy
// work should do it asynchronously so as not to delay training, with the
// exception of Trigger-style notifications, which exist precisely for
// periodic expensive side effects.
//
// Any notification may return an error. StopTraining errors end the run
// gracefully; every other error aborts it. Errors returned from AfterTrain
// are isolated by the hook group and do not reach the caller.
type Hook interface {
	// Setup is called once, before BeforeTrain, with a read-only view of the
	// trainer. Hooks keep the reference to query counters and monitors later;
	// they must not use it to drive the loop.
	Setup(t Trainer) error

	// BeforeTrain is called once after all hooks are set up, before the
	// first epoch. A restore hook may load a state dict here to resume.
	BeforeTrain(ctx context.Context) error

	// BeforeEpoch is called at the start of each epoch, after the epoch
	// counter has been advanced.
	BeforeEpoch(ctx context.Context) error

	// BeforeStep is called before the step runner, with the input about to
	// be processed. Step counters are already advanced.
	BeforeStep(ctx context.Context, input any) error

	// AfterStep is called after the step runner, with the input and the
	// output it produced.
	AfterStep(ctx context.Context, input, output any) error

	// TriggerStep is called after AfterStep, once per step. Periodic
	// decorators gate Trigger invocations on it.
	TriggerStep(ctx context.Context) error

	// AfterEpoch is called at the end of each epoch, before TriggerEpoch.
	AfterEpoch(ctx context.Context) error

	// TriggerEpoch is called once per epoch after AfterEpoch. Hooks that
	// want the conventional "fire once per epoch" behavior delegate it to
	// Trigger.
	TriggerEpoch(ctx context.Context) error

	// Trigger is the semantic default notification for periodic side
	// effects (checkpointing, flushing writers). It is never called by the
	// loop directly; it is reached via TriggerEpoch delegation or via
	// periodic decorators.
	Trigger(ctx context.Context) error

	// AfterTrain is called exactly once per run, even when the run stops
	// early, is interrupted, or fails.
	AfterTrain(ctx context.Context) error

	// PrimaryOnly reports whether this hook must run only on the primary
	// worker (rank 0) of a distributed group. The loop skips registration
	// of such hooks on other ranks.
	PrimaryOnly() bool
}

// NoopHook is a Hook that does nothing. Concrete hooks embed it and override
// only the notifications they use.
type NoopHook struct{}

func (NoopHook) Setup(Trainer) error                       { return nil }
func (NoopHook) BeforeTrain(context.Context) error         { return nil }
func (NoopHook) BeforeEpoch(context.Context) error         { return nil }
func (NoopHook) BeforeStep(context.Context, any) error     { return nil }
func (NoopHook) AfterStep(context.Context, any, any) error { return nil }
func (NoopHook) TriggerStep(context.Context) error         { return nil }
func (NoopHook) AfterEpoch(context.Context) error          { return nil }
func (NoopHook) TriggerEpoch(context.Context) error        { return nil }
func (NoopHook) Trigger(context.Context) error             { return nil }
func (NoopHook) AfterTrain(context.Context) error          { return nil }
func (NoopHook) PrimaryOnly() bool                         { return false }

// PrimaryOnlyHook is a NoopHook whose PrimaryOnly reports true. Hooks whose
// side effects must not be duplicated across a worker group (checkpoint
// savers, progress output) embed it instead of NoopHook.
type PrimaryOnlyHook struct {
	NoopHook
}

func (PrimaryOnlyHook) PrimaryOnly() bool { return true }
