package treino

import (
	"context"
	"log/slog"

	"github.com/petrijr/treino/internal/engine"
	"github.com/petrijr/treino/pkg/comm"
)

// Builder provides a fluent API for assembling a training loop:
//
//	trainer := treino.New(step).
//	    Hooks(treino.NewScalarPrinter(treino.ScalarPrinterOptions{})).
//	    MaxEpoch(50).
//	    Build()
//
//	if err := trainer.Train(ctx, df, treino.TrainOptions{MaxEpoch: 50}); err != nil {
//	    log.Fatal(err)
//	}
//
// or, carrying the epoch range on the builder itself:
//
//	err := treino.New(step).MaxEpoch(50).Train(ctx, df)
type Builder struct {
	cfg  engine.Config
	opts TrainOptions
}

// New creates a builder around the given step runner.
func New(runner StepRunner) *Builder {
	if runner == nil {
		panic("treino: builder requires a step runner")
	}
	return &Builder{cfg: engine.Config{Runner: runner}}
}

// Hooks appends hooks in dispatch order.
func (b *Builder) Hooks(hks ...Hook) *Builder {
	for _, h := range hks {
		if h == nil {
			panic("treino: nil hook passed to builder")
		}
	}
	b.cfg.Hooks = append(b.cfg.Hooks, hks...)
	return b
}

// Monitors appends monitor hooks. It is Hooks with a narrower argument type,
// for call sites that want the distinction visible.
func (b *Builder) Monitors(ms ...Monitor) *Builder {
	for _, m := range ms {
		if m == nil {
			panic("treino: nil monitor passed to builder")
		}
		b.cfg.Hooks = append(b.cfg.Hooks, m)
	}
	return b
}

// Comm connects the loop to its peer workers. Unset means a single-worker
// group.
func (b *Builder) Comm(c comm.Communicator) *Builder {
	b.cfg.Comm = c
	return b
}

// Logger routes the loop's progress records. Unset means slog.Default.
func (b *Builder) Logger(l *slog.Logger) *Builder {
	b.cfg.Logger = l
	return b
}

// Extension attaches extra persistable state to the trainer's StateDict.
// Unset defaults to the runner when it implements Persistable.
func (b *Builder) Extension(p Persistable) *Builder {
	b.cfg.Extension = p
	return b
}

// StartingEpoch sets the 1-based first epoch used by Train.
func (b *Builder) StartingEpoch(n int) *Builder {
	b.opts.StartingEpoch = n
	return b
}

// MaxEpoch sets the last epoch, inclusive, used by Train.
func (b *Builder) MaxEpoch(n int) *Builder {
	b.opts.MaxEpoch = n
	return b
}

// Options returns the epoch range accumulated on the builder.
func (b *Builder) Options() TrainOptions {
	return b.opts
}

// Build assembles the loop. The builder can keep being used afterwards;
// later mutations do not affect loops already built.
func (b *Builder) Build() Loop {
	cfg := b.cfg
	cfg.Hooks = append([]Hook(nil), b.cfg.Hooks...)
	return engine.New(cfg)
}

// Train builds the loop and runs it over df with the builder's epoch range.
func (b *Builder) Train(ctx context.Context, df Dataflow) error {
	return b.Build().Train(ctx, df, b.opts)
}
