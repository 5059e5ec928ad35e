package hooks

import (
	"context"
	"log/slog"

	"github.com/petrijr/treino/pkg/api"
)

// ProgressLogger logs step progress at a fixed cadence so long epochs stay
// visible in plain log output.
type ProgressLogger struct {
	api.PrimaryOnlyHook
	every   int
	logger  *slog.Logger
	trainer api.Trainer
}

// NewProgressLogger logs every k-th step of each epoch. k below one means
// every 100 steps.
func NewProgressLogger(every int, logger *slog.Logger) *ProgressLogger {
	if every <= 0 {
		every = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressLogger{every: every, logger: logger}
}

func (p *ProgressLogger) Setup(t api.Trainer) error {
	p.trainer = t
	return nil
}

func (p *ProgressLogger) TriggerStep(ctx context.Context) error {
	local := p.trainer.LocalStep()
	if local%p.every != 0 && local != p.trainer.StepsPerEpoch() {
		return nil
	}
	p.logger.Info("progress",
		slog.Int("epoch_num", p.trainer.EpochNum()),
		slog.Int("local_step", local),
		slog.Int("steps_per_epoch", p.trainer.StepsPerEpoch()),
		slog.Int("global_step", p.trainer.GlobalStep()))
	return nil
}

func (p *ProgressLogger) String() string { return "ProgressLogger" }

var _ api.Hook = (*ProgressLogger)(nil)
