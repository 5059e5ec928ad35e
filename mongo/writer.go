package mongo

import (
	"context"
	"log/slog"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	corep "github.com/petrijr/treino/internal/persistence"
	mstore "github.com/petrijr/treino/mongo/internal/persistence"
	"github.com/petrijr/treino/pkg/api"
)

// Writer records every scalar into a MongoDB collection, batching documents
// in memory and flushing one InsertMany per trigger. Several runs can share
// one collection; documents carry the run ID.
type Writer struct {
	api.NoopHook
	store   *mstore.MongoScalarStore
	logger  *slog.Logger
	trainer api.Trainer

	mu      sync.Mutex
	pending []corep.ScalarRow
}

// NewScalarWriter persists scalars through client into the store's default
// database and collection ("treino"/"scalars").
func NewScalarWriter(client *mongo.Client, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		store:  mstore.NewMongoScalarStore(client, "", ""),
		logger: logger,
	}
}

// Store exposes the underlying collection for history queries.
func (w *Writer) Store() *mstore.MongoScalarStore { return w.store }

func (w *Writer) Setup(t api.Trainer) error {
	w.trainer = t
	return nil
}

// AddScalar buffers one document stamped with the current loop counters.
func (w *Writer) AddScalar(name string, value float64) {
	row := corep.ScalarRow{Name: name, Value: value}
	if w.trainer != nil {
		row.RunID = w.trainer.RunID()
		row.EpochNum = w.trainer.EpochNum()
		row.LocalStep = w.trainer.LocalStep()
		row.GlobalStep = w.trainer.GlobalStep()
	}
	w.mu.Lock()
	w.pending = append(w.pending, row)
	w.mu.Unlock()
}

func (w *Writer) TriggerEpoch(ctx context.Context) error { return w.Trigger(ctx) }

// Trigger flushes the buffered documents. A failed insert is logged and the
// batch dropped; the run keeps going.
func (w *Writer) Trigger(ctx context.Context) error {
	w.mu.Lock()
	batch := w.pending
	w.pending = nil
	w.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if err := w.store.InsertBatch(ctx, batch); err != nil {
		w.logger.Error("scalar batch insert failed",
			slog.Int("rows", len(batch)),
			slog.String("error", err.Error()))
	}
	return nil
}

func (w *Writer) AfterTrain(ctx context.Context) error { return w.Trigger(ctx) }

func (w *Writer) String() string { return "MongoWriter" }

var _ api.Monitor = (*Writer)(nil)
