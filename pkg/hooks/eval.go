package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/petrijr/treino/pkg/api"
)

// EvalHook observes one evaluation round. Summarize is consulted once per
// round, after the last step.
type EvalHook interface {
	// BeforeEval resets per-round accumulators.
	BeforeEval() error

	// AfterEvalStep receives every input and the output the step runner
	// produced for it.
	AfterEvalStep(ctx context.Context, input, output any) error

	// Summarize reduces the round into named scalars, which the runner
	// records into the trainer's monitors.
	Summarize() (map[string]float64, error)
}

// EvalRunner drives a held-out dataflow through a step runner whenever it is
// triggered, typically once per epoch or behind a PeriodicTrigger. The
// training loop itself never sees the evaluation steps; only the summarized
// scalars enter the monitors.
type EvalRunner struct {
	api.NoopHook
	flow    api.Dataflow
	runner  api.StepRunner
	hooks   []EvalHook
	logger  *slog.Logger
	trainer api.Trainer
}

// NewEvalRunner evaluates flow with runner and summarizes through evalHooks.
// It panics when flow or runner is nil.
func NewEvalRunner(flow api.Dataflow, runner api.StepRunner, evalHooks []EvalHook, logger *slog.Logger) *EvalRunner {
	if flow == nil {
		panic("treino: eval runner requires a dataflow")
	}
	if runner == nil {
		panic("treino: eval runner requires a step runner")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EvalRunner{flow: flow, runner: runner, hooks: evalHooks, logger: logger}
}

func (e *EvalRunner) Setup(t api.Trainer) error {
	e.trainer = t
	return nil
}

func (e *EvalRunner) TriggerEpoch(ctx context.Context) error { return e.Trigger(ctx) }

func (e *EvalRunner) Trigger(ctx context.Context) error {
	for _, h := range e.hooks {
		if err := h.BeforeEval(); err != nil {
			return fmt.Errorf("hooks: eval %T before round: %w", h, err)
		}
	}
	if es, ok := e.flow.(api.EpochSetter); ok {
		es.SetEpoch(e.trainer.EpochNum())
	}

	size := e.flow.Len()
	e.logger.Info("evaluation started", slog.Int("steps", size))
	startedAt := time.Now()

	for i := 0; i < size; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		input, err := e.flow.Next(ctx)
		if err != nil {
			return fmt.Errorf("hooks: eval input %d: %w", i, err)
		}
		output, err := e.runner.RunStep(ctx, input)
		if err != nil {
			return fmt.Errorf("hooks: eval step %d: %w", i, err)
		}
		for _, h := range e.hooks {
			if err := h.AfterEvalStep(ctx, input, output); err != nil {
				return fmt.Errorf("hooks: eval %T step %d: %w", h, i, err)
			}
		}
	}

	mon := e.trainer.Monitors()
	for _, h := range e.hooks {
		summary, err := h.Summarize()
		if err != nil {
			return fmt.Errorf("hooks: eval %T summary: %w", h, err)
		}
		if mon == nil {
			continue
		}
		for name, value := range summary {
			mon.AddScalar(name, value)
		}
	}

	e.logger.Info("evaluation finished",
		slog.Int("steps", size),
		slog.Duration("took", time.Since(startedAt).Round(time.Millisecond)))
	return nil
}

func (e *EvalRunner) String() string { return "EvalRunner" }

var _ api.Hook = (*EvalRunner)(nil)
