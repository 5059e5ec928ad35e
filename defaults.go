package treino

import (
	"context"

	"github.com/petrijr/treino/pkg/hooks"
)

// DefaultHooks returns the hook set a typical run wants: progress lines, a
// per-epoch scalar summary, a time-left projection and, when dir is
// non-empty, JSON scalar history under dir.
func DefaultHooks(dir string) ([]Hook, error) {
	hks := []Hook{
		hooks.NewProgressLogger(0, nil),
		hooks.NewScalarPrinter(hooks.ScalarPrinterOptions{}),
		hooks.NewEstimatedTimeLeft(hooks.EstimatedTimeLeftOptions{}),
	}
	if dir != "" {
		w, err := hooks.NewJSONWriter(dir, nil)
		if err != nil {
			return nil, err
		}
		hks = append(hks, w)
	}
	return hks, nil
}

// TrainWithDefaults runs runner over df with DefaultHooks plus any extra
// hooks. It is the quickest way to a fully instrumented single-process run:
//
//	err := treino.TrainWithDefaults(ctx, step, treino.Slice(batches),
//	    "./runs/exp1", treino.TrainOptions{MaxEpoch: 10})
func TrainWithDefaults(ctx context.Context, runner StepRunner, df Dataflow, dir string, opts TrainOptions, extra ...Hook) error {
	hks, err := DefaultHooks(dir)
	if err != nil {
		return err
	}
	return Train(ctx, runner, df, opts, append(hks, extra...)...)
}
