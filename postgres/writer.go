package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	corep "github.com/petrijr/treino/internal/persistence"
	"github.com/petrijr/treino/pkg/api"
	"github.com/petrijr/treino/postgres/internal/persistence"
)

// Writer records every scalar into a PostgreSQL table, batching rows in
// memory and flushing one transaction per trigger. Several runs can share
// one database; rows carry the run ID.
type Writer struct {
	api.NoopHook
	store   *persistence.PostgresScalarStore
	logger  *slog.Logger
	trainer api.Trainer

	mu      sync.Mutex
	pending []corep.ScalarRow
}

// NewScalarWriter persists scalars through db, creating the schema if it is
// missing.
func NewScalarWriter(db *sql.DB, logger *slog.Logger) (*Writer, error) {
	store, err := persistence.NewPostgresScalarStore(db)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{store: store, logger: logger}, nil
}

// Store exposes the underlying table for history queries.
func (w *Writer) Store() *persistence.PostgresScalarStore { return w.store }

func (w *Writer) Setup(t api.Trainer) error {
	w.trainer = t
	return nil
}

// AddScalar buffers one row stamped with the current loop counters.
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

// Trigger flushes the buffered rows. A failed transaction is logged and the
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

func (w *Writer) String() string { return "PostgresWriter" }

var _ api.Monitor = (*Writer)(nil)
