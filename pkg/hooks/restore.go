package hooks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/petrijr/treino/internal/persistence"
	"github.com/petrijr/treino/pkg/api"
)

// SaverRestore resumes from the newest step checkpoint in a store. It runs
// on every process, so each member of a group restores the same state.
type SaverRestore struct {
	api.NoopHook
	store   persistence.SnapshotStore
	logger  *slog.Logger
	trainer api.Trainer
}

// NewSaverRestore restores from dir before training starts. Missing
// directories and empty directories are not errors; training simply starts
// fresh.
func NewSaverRestore(dir string, logger *slog.Logger) (*SaverRestore, error) {
	store, err := persistence.NewCheckpointStore(dir)
	if err != nil {
		return nil, err
	}
	return NewSaverRestoreWithStore(store, logger), nil
}

// NewSaverRestoreWithStore restores from the given store instead of a
// directory. It serves the database submodules; most callers want
// NewSaverRestore.
func NewSaverRestoreWithStore(store persistence.SnapshotStore, logger *slog.Logger) *SaverRestore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SaverRestore{store: store, logger: logger}
}

func (r *SaverRestore) Setup(t api.Trainer) error {
	r.trainer = t
	return nil
}

func (r *SaverRestore) BeforeTrain(ctx context.Context) error {
	step, ok, err := r.store.LatestStep()
	if err != nil {
		return fmt.Errorf("hooks: scanning %s: %w", r.store, err)
	}
	if !ok {
		r.logger.Info("no checkpoint to restore", slog.String("store", r.store.String()))
		return nil
	}

	name := persistence.StepFile(step)
	snap, err := r.store.Load(name)
	if err != nil {
		return fmt.Errorf("hooks: loading %s: %w", r.store.Ref(name), err)
	}
	if err := r.trainer.LoadStateDict(api.StateDict(snap.State)); err != nil {
		return fmt.Errorf("hooks: restoring %s: %w", r.store.Ref(name), err)
	}

	r.logger.Info("checkpoint restored",
		slog.String("checkpoint", r.store.Ref(name)),
		slog.Int("step", step))
	return nil
}

func (r *SaverRestore) String() string { return "SaverRestore" }

var _ api.Hook = (*SaverRestore)(nil)
