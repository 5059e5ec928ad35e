package hooks

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/petrijr/treino/internal/persistence"
	"github.com/petrijr/treino/pkg/api"
)

// BestSaverOptions tunes MinSaver and MaxSaver.
type BestSaverOptions struct {
	// Filename overrides the derived checkpoint name.
	Filename string

	Logger *slog.Logger
}

// bestSaver tracks the best recorded value of one scalar and keeps the
// checkpoint that produced it under a fixed name. The best seen so far lives
// in the monitor history under `<key>/<min|max>` and is re-recorded on every
// trigger, so downstream writers see a continuous series.
type bestSaver struct {
	api.PrimaryOnlyHook
	store    persistence.SnapshotStore
	key      string
	mode     string
	filename string
	logger   *slog.Logger
	trainer  api.Trainer
}

func newBestSaver(dir, key, mode string, opts BestSaverOptions) (bestSaver, error) {
	store, err := persistence.NewCheckpointStore(dir)
	if err != nil {
		return bestSaver{}, err
	}
	return newBestSaverWithStore(store, key, mode, opts)
}

func newBestSaverWithStore(store persistence.SnapshotStore, key, mode string, opts BestSaverOptions) (bestSaver, error) {
	if key == "" {
		return bestSaver{}, errors.New("hooks: best saver requires a scalar name")
	}
	filename := opts.Filename
	if filename == "" {
		filename = strings.ReplaceAll(key, "/", "-") + "-" + mode + ".ckpt"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return bestSaver{store: store, key: key, mode: mode, filename: filename, logger: logger}, nil
}

func (b *bestSaver) derivedKey() string { return b.key + "/" + b.mode }

func (b *bestSaver) Setup(t api.Trainer) error {
	b.trainer = t
	return nil
}

// BeforeTrain seeds the derived best series from the best checkpoint a
// previous run left behind, so a resumed run does not replace a better
// checkpoint with a worse one.
func (b *bestSaver) BeforeTrain(ctx context.Context) error {
	mon := b.trainer.Monitors()
	if mon == nil {
		return nil
	}
	if _, ok := mon.Latest(b.derivedKey()); ok {
		return nil
	}

	snap, err := b.store.Load(b.filename)
	if errors.Is(err, persistence.ErrCheckpointNotFound) {
		return nil
	}
	if err != nil {
		b.logger.Warn("best checkpoint unreadable",
			slog.String("checkpoint", b.store.Ref(b.filename)),
			slog.String("error", err.Error()))
		return nil
	}

	if v, ok := snap.Metrics[b.derivedKey()]; ok {
		mon.Seed(b.derivedKey(), api.ScalarEntry{Step: snap.Step, Value: v})
		b.logger.Info("best value restored",
			slog.String("name", b.derivedKey()),
			slog.Float64("value", v))
	}
	return nil
}

func (b *bestSaver) TriggerEpoch(ctx context.Context) error { return b.Trigger(ctx) }

func (b *bestSaver) Trigger(ctx context.Context) error {
	mon := b.trainer.Monitors()
	if mon == nil {
		return nil
	}
	latest, ok := mon.Latest(b.key)
	if !ok {
		return nil
	}
	best, hasBest := mon.Latest(b.derivedKey())

	if !hasBest || b.improved(latest.Value, best.Value) {
		snap := snapshotOf(b.trainer)
		if snap.Metrics == nil {
			snap.Metrics = make(map[string]float64)
		}
		snap.Metrics[b.derivedKey()] = latest.Value

		if err := b.store.Save(b.filename, snap); err != nil {
			b.logger.Error("best checkpoint save failed",
				slog.String("checkpoint", b.store.Ref(b.filename)),
				slog.String("error", err.Error()))
		} else {
			b.logger.Info("best checkpoint saved",
				slog.String("checkpoint", b.store.Ref(b.filename)),
				slog.String("name", b.key),
				slog.Float64("value", latest.Value))
			best = api.ScalarEntry{Step: latest.Step, Value: latest.Value}
			hasBest = true
		}
	}

	if hasBest {
		mon.AddScalar(b.derivedKey(), best.Value)
	}
	return nil
}

func (b *bestSaver) improved(value, best float64) bool {
	if b.mode == "min" {
		return value < best
	}
	return value > best
}

// MinSaver keeps the checkpoint with the lowest recorded value of a scalar.
type MinSaver struct{ bestSaver }

// NewMinSaver tracks key and keeps the checkpoint of its minimum.
func NewMinSaver(dir, key string, opts BestSaverOptions) (*MinSaver, error) {
	b, err := newBestSaver(dir, key, "min", opts)
	if err != nil {
		return nil, err
	}
	return &MinSaver{bestSaver: b}, nil
}

// NewMinSaverWithStore is NewMinSaver over the given store. It serves the
// database submodules.
func NewMinSaverWithStore(store persistence.SnapshotStore, key string, opts BestSaverOptions) (*MinSaver, error) {
	b, err := newBestSaverWithStore(store, key, "min", opts)
	if err != nil {
		return nil, err
	}
	return &MinSaver{bestSaver: b}, nil
}

// MaxSaver keeps the checkpoint with the highest recorded value of a scalar.
type MaxSaver struct{ bestSaver }

// NewMaxSaver tracks key and keeps the checkpoint of its maximum.
func NewMaxSaver(dir, key string, opts BestSaverOptions) (*MaxSaver, error) {
	b, err := newBestSaver(dir, key, "max", opts)
	if err != nil {
		return nil, err
	}
	return &MaxSaver{bestSaver: b}, nil
}

// NewMaxSaverWithStore is NewMaxSaver over the given store. It serves the
// database submodules.
func NewMaxSaverWithStore(store persistence.SnapshotStore, key string, opts BestSaverOptions) (*MaxSaver, error) {
	b, err := newBestSaverWithStore(store, key, "max", opts)
	if err != nil {
		return nil, err
	}
	return &MaxSaver{bestSaver: b}, nil
}

var (
	_ api.Hook = (*MinSaver)(nil)
	_ api.Hook = (*MaxSaver)(nil)
)
