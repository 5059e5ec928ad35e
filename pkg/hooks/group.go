package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/petrijr/treino/pkg/api"
)

// epochTriggerBudget is how much accumulated TriggerEpoch time the group
// tolerates before logging a breakdown of the slow members.
const epochTriggerBudget = 3 * time.Second

// Group fans every notification out to its members in registration order.
// The first member error aborts the fan-out, except during AfterTrain where
// every member gets its chance at cleanup: failures and panics there are
// logged per member and swallowed.
type Group struct {
	members []api.Hook
	logger  *slog.Logger
}

// NewGroup builds a group over the given members, skipping nil entries.
// A nil logger falls back to slog.Default().
func NewGroup(logger *slog.Logger, members ...api.Hook) *Group {
	if logger == nil {
		logger = slog.Default()
	}
	ms := make([]api.Hook, 0, len(members))
	for _, m := range members {
		if m != nil {
			ms = append(ms, m)
		}
	}
	return &Group{members: ms, logger: logger}
}

// Members returns the hooks in dispatch order.
func (g *Group) Members() []api.Hook {
	out := make([]api.Hook, len(g.members))
	copy(out, g.members)
	return out
}

func (g *Group) each(event string, fn func(api.Hook) error) error {
	for _, m := range g.members {
		if err := fn(m); err != nil {
			return fmt.Errorf("hook %s %s: %w", hookName(m), event, err)
		}
	}
	return nil
}

func (g *Group) Setup(t api.Trainer) error {
	return g.each("setup", func(m api.Hook) error { return m.Setup(t) })
}

func (g *Group) BeforeTrain(ctx context.Context) error {
	return g.each("before-train", func(m api.Hook) error { return m.BeforeTrain(ctx) })
}

func (g *Group) BeforeEpoch(ctx context.Context) error {
	return g.each("before-epoch", func(m api.Hook) error { return m.BeforeEpoch(ctx) })
}

func (g *Group) BeforeStep(ctx context.Context, input any) error {
	return g.each("before-step", func(m api.Hook) error { return m.BeforeStep(ctx, input) })
}

func (g *Group) AfterStep(ctx context.Context, input, output any) error {
	return g.each("after-step", func(m api.Hook) error { return m.AfterStep(ctx, input, output) })
}

func (g *Group) TriggerStep(ctx context.Context) error {
	return g.each("trigger-step", func(m api.Hook) error { return m.TriggerStep(ctx) })
}

func (g *Group) AfterEpoch(ctx context.Context) error {
	return g.each("after-epoch", func(m api.Hook) error { return m.AfterEpoch(ctx) })
}

// TriggerEpoch dispatches each member's epoch trigger and times it. When the
// accumulated time exceeds the budget, members holding more than 30% of the
// total and over a second each are named in a warning.
func (g *Group) TriggerEpoch(ctx context.Context) error {
	timings := make([]time.Duration, len(g.members))
	var total time.Duration

	for i, m := range g.members {
		start := time.Now()
		err := m.TriggerEpoch(ctx)
		timings[i] = time.Since(start)
		total += timings[i]
		if err != nil {
			return fmt.Errorf("hook %s trigger-epoch: %w", hookName(m), err)
		}
	}

	if total > epochTriggerBudget {
		var slow []string
		for i, d := range timings {
			if d > time.Second && float64(d) > 0.3*float64(total) {
				slow = append(slow, fmt.Sprintf("%s (%.1fs)", hookName(g.members[i]), d.Seconds()))
			}
		}
		g.logger.Warn("epoch triggers are slow",
			slog.Duration("total", total),
			slog.String("dominated_by", strings.Join(slow, ", ")))
	}
	return nil
}

func (g *Group) Trigger(ctx context.Context) error {
	return g.each("trigger", func(m api.Hook) error { return m.Trigger(ctx) })
}

// AfterTrain lets every member clean up. A member's error or panic is logged
// with its name and does not keep the remaining members from running.
func (g *Group) AfterTrain(ctx context.Context) error {
	for _, m := range g.members {
		g.afterTrainOne(ctx, m)
	}
	return nil
}

func (g *Group) afterTrainOne(ctx context.Context, m api.Hook) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("hook panicked in after-train",
				slog.String("hook", hookName(m)),
				slog.Any("panic", r))
		}
	}()
	if err := m.AfterTrain(ctx); err != nil {
		g.logger.Error("hook failed in after-train",
			slog.String("hook", hookName(m)),
			slog.String("error", err.Error()))
	}
}

func (g *Group) PrimaryOnly() bool { return false }

func hookName(h api.Hook) string {
	if s, ok := h.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", h)
}
