package hooks

import (
	"context"
	"fmt"

	"github.com/petrijr/treino/pkg/api"
)

// PeriodicTriggerOptions sets the cadence of a PeriodicTrigger. At least one
// period must be set, unless TriggerBeforeTrain is true.
type PeriodicTriggerOptions struct {
	// EveryKSteps fires the inner trigger when the global step is a
	// multiple of k.
	EveryKSteps int

	// EveryKEpochs fires the inner trigger when the epoch number is a
	// multiple of k.
	EveryKEpochs int

	// TriggerBeforeTrain fires the inner trigger once right after the
	// inner hook's BeforeTrain.
	TriggerBeforeTrain bool
}

// PeriodicTrigger converts step and epoch boundaries into Trigger calls on
// the inner hook at a fixed cadence. All other notifications flow through
// unchanged, with two exceptions: TriggerStep is forwarded and then possibly
// followed by a gated Trigger, and TriggerEpoch is replaced entirely by the
// gated Trigger.
type PeriodicTrigger struct {
	api.ProxyHook
	opts    PeriodicTriggerOptions
	trainer api.Trainer
}

// NewPeriodicTrigger wraps inner. It panics when no period is set and
// TriggerBeforeTrain is false; such a trigger would never fire.
func NewPeriodicTrigger(inner api.Hook, opts PeriodicTriggerOptions) *PeriodicTrigger {
	if opts.EveryKSteps <= 0 && opts.EveryKEpochs <= 0 && !opts.TriggerBeforeTrain {
		panic("treino: periodic trigger requires a period or trigger-before-train")
	}
	return &PeriodicTrigger{ProxyHook: api.NewProxyHook(inner), opts: opts}
}

func (p *PeriodicTrigger) Setup(t api.Trainer) error {
	p.trainer = t
	return p.ProxyHook.Setup(t)
}

func (p *PeriodicTrigger) BeforeTrain(ctx context.Context) error {
	if err := p.ProxyHook.BeforeTrain(ctx); err != nil {
		return err
	}
	if p.opts.TriggerBeforeTrain {
		return p.Inner().Trigger(ctx)
	}
	return nil
}

// TriggerStep always forwards the inner TriggerStep, then fires the inner
// Trigger when the global step hits the step cadence.
func (p *PeriodicTrigger) TriggerStep(ctx context.Context) error {
	if err := p.ProxyHook.TriggerStep(ctx); err != nil {
		return err
	}
	if p.opts.EveryKSteps > 0 && p.trainer.GlobalStep()%p.opts.EveryKSteps == 0 {
		return p.Inner().Trigger(ctx)
	}
	return nil
}

// TriggerEpoch fires the inner Trigger when the epoch hits the epoch
// cadence. The inner TriggerEpoch itself is never forwarded; the cadenced
// Trigger is this wrapper's replacement for it.
func (p *PeriodicTrigger) TriggerEpoch(ctx context.Context) error {
	if p.opts.EveryKEpochs > 0 && p.trainer.EpochNum()%p.opts.EveryKEpochs == 0 {
		return p.Inner().Trigger(ctx)
	}
	return nil
}

func (p *PeriodicTrigger) String() string {
	return fmt.Sprintf("PeriodicTrigger(%s)", hookName(p.Inner()))
}
