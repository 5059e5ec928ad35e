package hooks

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/petrijr/treino/pkg/api"
)

// EstimatedTimeLeftOptions tunes the estimator.
type EstimatedTimeLeftOptions struct {
	// LastK bounds how many recent epoch durations feed the estimate.
	// Zero means 5.
	LastK int

	// Mean averages the recent durations instead of taking their median.
	// The median is the default because a single slow epoch (first-epoch
	// warmup, a checkpoint on a cold disk) should not skew the estimate.
	Mean bool

	Logger *slog.Logger
}

// EstimatedTimeLeft logs a projection of the remaining training time after
// every epoch, based on the durations of the most recent epochs.
type EstimatedTimeLeft struct {
	api.PrimaryOnlyHook
	opts    EstimatedTimeLeftOptions
	logger  *slog.Logger
	trainer api.Trainer

	lastAt    time.Time
	durations []time.Duration
}

// NewEstimatedTimeLeft builds the estimator. Zero options keep the last five
// epoch durations and take their median.
func NewEstimatedTimeLeft(opts EstimatedTimeLeftOptions) *EstimatedTimeLeft {
	if opts.LastK <= 0 {
		opts.LastK = 5
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &EstimatedTimeLeft{opts: opts, logger: logger}
}

func (e *EstimatedTimeLeft) Setup(t api.Trainer) error {
	e.trainer = t
	return nil
}

func (e *EstimatedTimeLeft) BeforeTrain(ctx context.Context) error {
	e.lastAt = time.Now()
	return nil
}

func (e *EstimatedTimeLeft) TriggerEpoch(ctx context.Context) error {
	now := time.Now()
	e.durations = append(e.durations, now.Sub(e.lastAt))
	e.lastAt = now
	if len(e.durations) > e.opts.LastK {
		e.durations = e.durations[len(e.durations)-e.opts.LastK:]
	}

	remaining := e.trainer.MaxEpoch() - e.trainer.EpochNum()
	if remaining <= 0 {
		return nil
	}

	perEpoch := e.estimate()
	e.logger.Info("estimated time left",
		slog.Duration("remaining", (perEpoch * time.Duration(remaining)).Round(time.Second)),
		slog.Int("epochs_left", remaining))
	return nil
}

func (e *EstimatedTimeLeft) estimate() time.Duration {
	if e.opts.Mean {
		var total time.Duration
		for _, d := range e.durations {
			total += d
		}
		return total / time.Duration(len(e.durations))
	}
	sorted := append([]time.Duration(nil), e.durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[len(sorted)/2]
}

func (e *EstimatedTimeLeft) String() string { return "EstimatedTimeLeft" }

var _ api.Hook = (*EstimatedTimeLeft)(nil)
