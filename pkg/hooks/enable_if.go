package hooks

import (
	"context"
	"fmt"

	"github.com/petrijr/treino/pkg/api"
)

// EnableIf forwards step and epoch notifications to the inner hook only when
// the predicate holds. The predicate is evaluated at BeforeStep and the
// result is remembered for the paired AfterStep, so the two always agree;
// epoch notifications and TriggerStep re-evaluate it independently. Setup,
// BeforeTrain, AfterTrain and plain Trigger are forwarded unconditionally.
type EnableIf struct {
	api.ProxyHook
	pred    func(api.Trainer) bool
	trainer api.Trainer
	enabled bool
}

// NewEnableIf wraps inner behind the predicate. Panics on a nil predicate.
func NewEnableIf(inner api.Hook, pred func(api.Trainer) bool) *EnableIf {
	if pred == nil {
		panic("treino: enable-if requires a predicate")
	}
	return &EnableIf{ProxyHook: api.NewProxyHook(inner), pred: pred}
}

func (e *EnableIf) Setup(t api.Trainer) error {
	e.trainer = t
	return e.ProxyHook.Setup(t)
}

func (e *EnableIf) BeforeStep(ctx context.Context, input any) error {
	e.enabled = e.pred(e.trainer)
	if !e.enabled {
		return nil
	}
	return e.ProxyHook.BeforeStep(ctx, input)
}

func (e *EnableIf) AfterStep(ctx context.Context, input, output any) error {
	if !e.enabled {
		return nil
	}
	return e.ProxyHook.AfterStep(ctx, input, output)
}

func (e *EnableIf) TriggerStep(ctx context.Context) error {
	if !e.pred(e.trainer) {
		return nil
	}
	return e.ProxyHook.TriggerStep(ctx)
}

func (e *EnableIf) BeforeEpoch(ctx context.Context) error {
	if !e.pred(e.trainer) {
		return nil
	}
	return e.ProxyHook.BeforeEpoch(ctx)
}

func (e *EnableIf) AfterEpoch(ctx context.Context) error {
	if !e.pred(e.trainer) {
		return nil
	}
	return e.ProxyHook.AfterEpoch(ctx)
}

func (e *EnableIf) TriggerEpoch(ctx context.Context) error {
	if !e.pred(e.trainer) {
		return nil
	}
	return e.ProxyHook.TriggerEpoch(ctx)
}

func (e *EnableIf) String() string {
	return fmt.Sprintf("EnableIf(%s)", hookName(e.Inner()))
}
