package hooks

import (
	"container/heap"
	"context"
	"log/slog"
	"time"

	"github.com/petrijr/treino/internal/persistence"
	"github.com/petrijr/treino/pkg/api"
)

// DefaultMaxToKeep bounds Saver retention when no limit is given.
const DefaultMaxToKeep = 10

// fileAge orders checkpoint files oldest first for eviction.
type fileAge struct {
	at   time.Time
	name string
}

type fileAgeHeap []fileAge

func (h fileAgeHeap) Len() int           { return len(h) }
func (h fileAgeHeap) Less(i, j int) bool { return h[i].at.Before(h[j].at) }
func (h fileAgeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *fileAgeHeap) Push(x any) {
	*h = append(*h, x.(fileAge))
}

func (h *fileAgeHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// SaverOptions tunes a Saver.
type SaverOptions struct {
	// MaxToKeep bounds the number of numbered checkpoints on disk.
	// Zero means DefaultMaxToKeep; negative keeps everything.
	MaxToKeep int

	Logger *slog.Logger
}

// Saver persists the trainer state on every epoch trigger under a name
// derived from the global step, and keeps only the most recent checkpoints.
// The bound spans runs: at BeforeTrain the store is rescanned, so
// checkpoints left by an earlier run count against the limit too.
//
// Save and remove failures are logged and never abort the run.
type Saver struct {
	api.PrimaryOnlyHook
	store     persistence.SnapshotStore
	maxToKeep int
	logger    *slog.Logger
	trainer   api.Trainer
	ages      fileAgeHeap
}

// NewSaver creates the checkpoint directory if needed and returns the hook.
func NewSaver(dir string, opts SaverOptions) (*Saver, error) {
	store, err := persistence.NewCheckpointStore(dir)
	if err != nil {
		return nil, err
	}
	return NewSaverWithStore(store, opts), nil
}

// NewSaverWithStore saves through the given store instead of a directory.
// It serves the database submodules; most callers want NewSaver.
func NewSaverWithStore(store persistence.SnapshotStore, opts SaverOptions) *Saver {
	maxToKeep := opts.MaxToKeep
	if maxToKeep == 0 {
		maxToKeep = DefaultMaxToKeep
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Saver{store: store, maxToKeep: maxToKeep, logger: logger}
}

func (s *Saver) Setup(t api.Trainer) error {
	s.trainer = t
	return nil
}

// BeforeTrain seeds the eviction heap from the numbered checkpoints already
// in the store.
func (s *Saver) BeforeTrain(ctx context.Context) error {
	steps, err := s.store.ListSteps()
	if err != nil {
		return err
	}
	s.ages = s.ages[:0]
	for _, step := range steps {
		name := persistence.StepFile(step)
		at, err := s.store.ModTime(name)
		if err != nil {
			continue
		}
		s.ages = append(s.ages, fileAge{at: at, name: name})
	}
	heap.Init(&s.ages)
	s.evict()
	return nil
}

func (s *Saver) TriggerEpoch(ctx context.Context) error { return s.Trigger(ctx) }

func (s *Saver) Trigger(ctx context.Context) error {
	step := s.trainer.GlobalStep()
	name := persistence.StepFile(step)

	if err := s.store.Save(name, snapshotOf(s.trainer)); err != nil {
		s.logger.Error("checkpoint save failed",
			slog.String("checkpoint", s.store.Ref(name)),
			slog.String("error", err.Error()))
		return nil
	}
	s.logger.Info("checkpoint saved",
		slog.String("checkpoint", s.store.Ref(name)),
		slog.Int("global_step", step))

	heap.Push(&s.ages, fileAge{at: time.Now(), name: name})
	s.evict()
	return nil
}

func (s *Saver) evict() {
	if s.maxToKeep < 0 {
		return
	}
	for len(s.ages) > s.maxToKeep {
		oldest := heap.Pop(&s.ages).(fileAge)
		if err := s.store.Remove(oldest.name); err != nil {
			s.logger.Error("checkpoint remove failed",
				slog.String("checkpoint", s.store.Ref(oldest.name)),
				slog.String("error", err.Error()))
		}
	}
}

// snapshotOf captures the trainer's counters, state and current scalar values.
func snapshotOf(t api.Trainer) *persistence.Snapshot {
	snap := &persistence.Snapshot{
		RunID:   t.RunID(),
		Step:    t.GlobalStep(),
		SavedAt: time.Now(),
		State:   t.StateDict(),
	}
	if mon := t.Monitors(); mon != nil {
		snap.Metrics = mon.Snapshot()
	}
	return snap
}
