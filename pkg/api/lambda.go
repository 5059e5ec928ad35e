package api

import "context"

// LambdaHook builds a hook out of optional per-notification functions, for
// one-off hooks that do not warrant a named type:
//
//	h := &api.LambdaHook{
//	    OnTrigger: func(ctx context.Context, h *api.LambdaHook) error {
//	        return save(h.Trainer().StateDict())
//	    },
//	}
//
// Unbound notifications are no-ops. Every handler receives the hook itself,
// through which the trainer view is reachable after Setup. TriggerEpoch
// keeps the conventional delegation: when OnTriggerEpoch is unbound it falls
// through to Trigger, so an OnTrigger handler alone fires once per epoch.
type LambdaHook struct {
	// Primary marks the hook as primary-worker-only.
	Primary bool

	OnSetup        func(h *LambdaHook, t Trainer) error
	OnBeforeTrain  func(ctx context.Context, h *LambdaHook) error
	OnBeforeEpoch  func(ctx context.Context, h *LambdaHook) error
	OnBeforeStep   func(ctx context.Context, h *LambdaHook, input any) error
	OnAfterStep    func(ctx context.Context, h *LambdaHook, input, output any) error
	OnTriggerStep  func(ctx context.Context, h *LambdaHook) error
	OnAfterEpoch   func(ctx context.Context, h *LambdaHook) error
	OnTriggerEpoch func(ctx context.Context, h *LambdaHook) error
	OnTrigger      func(ctx context.Context, h *LambdaHook) error
	OnAfterTrain   func(ctx context.Context, h *LambdaHook) error

	trainer Trainer
}

// Trainer returns the view received at Setup, or nil before registration.
func (h *LambdaHook) Trainer() Trainer { return h.trainer }

func (h *LambdaHook) Setup(t Trainer) error {
	h.trainer = t
	if h.OnSetup != nil {
		return h.OnSetup(h, t)
	}
	return nil
}

func (h *LambdaHook) BeforeTrain(ctx context.Context) error {
	if h.OnBeforeTrain != nil {
		return h.OnBeforeTrain(ctx, h)
	}
	return nil
}

func (h *LambdaHook) BeforeEpoch(ctx context.Context) error {
	if h.OnBeforeEpoch != nil {
		return h.OnBeforeEpoch(ctx, h)
	}
	return nil
}

func (h *LambdaHook) BeforeStep(ctx context.Context, input any) error {
	if h.OnBeforeStep != nil {
		return h.OnBeforeStep(ctx, h, input)
	}
	return nil
}

func (h *LambdaHook) AfterStep(ctx context.Context, input, output any) error {
	if h.OnAfterStep != nil {
		return h.OnAfterStep(ctx, h, input, output)
	}
	return nil
}

func (h *LambdaHook) TriggerStep(ctx context.Context) error {
	if h.OnTriggerStep != nil {
		return h.OnTriggerStep(ctx, h)
	}
	return nil
}

func (h *LambdaHook) AfterEpoch(ctx context.Context) error {
	if h.OnAfterEpoch != nil {
		return h.OnAfterEpoch(ctx, h)
	}
	return nil
}

func (h *LambdaHook) TriggerEpoch(ctx context.Context) error {
	if h.OnTriggerEpoch != nil {
		return h.OnTriggerEpoch(ctx, h)
	}
	return h.Trigger(ctx)
}

func (h *LambdaHook) Trigger(ctx context.Context) error {
	if h.OnTrigger != nil {
		return h.OnTrigger(ctx, h)
	}
	return nil
}

func (h *LambdaHook) AfterTrain(ctx context.Context) error {
	if h.OnAfterTrain != nil {
		return h.OnAfterTrain(ctx, h)
	}
	return nil
}

func (h *LambdaHook) PrimaryOnly() bool { return h.Primary }
