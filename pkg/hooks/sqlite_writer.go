package hooks

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"github.com/petrijr/treino/internal/persistence"
	"github.com/petrijr/treino/pkg/api"
)

// SQLiteWriter records every scalar into a SQLite table, batching rows in
// memory and flushing one transaction per trigger. Unlike JSONWriter it
// never rewrites history, so several runs can share one database.
type SQLiteWriter struct {
	api.NoopHook
	store   *persistence.SQLiteScalarStore
	logger  *slog.Logger
	trainer api.Trainer

	mu      sync.Mutex
	pending []persistence.ScalarRow
}

// NewSQLiteWriter persists scalars through db, creating the schema if it is
// missing.
func NewSQLiteWriter(db *sql.DB, logger *slog.Logger) (*SQLiteWriter, error) {
	store, err := persistence.NewSQLiteScalarStore(db)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteWriter{store: store, logger: logger}, nil
}

// Store exposes the underlying table for history queries.
func (w *SQLiteWriter) Store() *persistence.SQLiteScalarStore { return w.store }

func (w *SQLiteWriter) Setup(t api.Trainer) error {
	w.trainer = t
	return nil
}

// AddScalar buffers one row stamped with the current loop counters.
func (w *SQLiteWriter) AddScalar(name string, value float64) {
	row := persistence.ScalarRow{Name: name, Value: value}
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

func (w *SQLiteWriter) TriggerEpoch(ctx context.Context) error { return w.Trigger(ctx) }

// Trigger flushes the buffered rows. A failed transaction is logged and the
// batch dropped; the run keeps going.
func (w *SQLiteWriter) Trigger(ctx context.Context) error {
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

func (w *SQLiteWriter) AfterTrain(ctx context.Context) error { return w.Trigger(ctx) }

func (w *SQLiteWriter) String() string { return "SQLiteWriter" }

var _ api.Monitor = (*SQLiteWriter)(nil)
