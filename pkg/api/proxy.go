package api

import (
	"context"
	"fmt"
)

// ProxyHook forwards every notification verbatim to an inner hook. It is the
// base for decorators: a wrapper embeds ProxyHook and overrides only the
// notifications it gates or augments, so unoverridden events keep flowing to
// the inner hook.
//
// The inner hook's PrimaryOnly flag is snapshot at construction time and not
// re-read later.
type ProxyHook struct {
	inner   Hook
	primary bool
}

// NewProxyHook wraps inner. It panics if inner is nil; a proxy without an
// inner hook is a programmer error.
func NewProxyHook(inner Hook) ProxyHook {
	if inner == nil {
		panic("treino: proxy hook requires an inner hook")
	}
	return ProxyHook{inner: inner, primary: inner.PrimaryOnly()}
}

// Inner returns the wrapped hook.
func (p *ProxyHook) Inner() Hook { return p.inner }

func (p *ProxyHook) Setup(t Trainer) error { return p.inner.Setup(t) }

func (p *ProxyHook) BeforeTrain(ctx context.Context) error { return p.inner.BeforeTrain(ctx) }

func (p *ProxyHook) BeforeEpoch(ctx context.Context) error { return p.inner.BeforeEpoch(ctx) }

func (p *ProxyHook) BeforeStep(ctx context.Context, input any) error {
	return p.inner.BeforeStep(ctx, input)
}

func (p *ProxyHook) AfterStep(ctx context.Context, input, output any) error {
	return p.inner.AfterStep(ctx, input, output)
}

func (p *ProxyHook) TriggerStep(ctx context.Context) error { return p.inner.TriggerStep(ctx) }

func (p *ProxyHook) AfterEpoch(ctx context.Context) error { return p.inner.AfterEpoch(ctx) }

func (p *ProxyHook) TriggerEpoch(ctx context.Context) error { return p.inner.TriggerEpoch(ctx) }

func (p *ProxyHook) Trigger(ctx context.Context) error { return p.inner.Trigger(ctx) }

func (p *ProxyHook) AfterTrain(ctx context.Context) error { return p.inner.AfterTrain(ctx) }

func (p *ProxyHook) PrimaryOnly() bool { return p.primary }

// String names the proxy after its inner hook, so log lines point at the
// hook doing the work rather than the wrapper.
func (p *ProxyHook) String() string {
	if s, ok := p.inner.(fmt.Stringer); ok {
		return "Proxy(" + s.String() + ")"
	}
	return fmt.Sprintf("Proxy(%T)", p.inner)
}
