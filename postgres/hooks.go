package postgres

import (
	"database/sql"
	"log/slog"

	"github.com/petrijr/treino/pkg/hooks"
	"github.com/petrijr/treino/postgres/internal/persistence"
)

// NewSaver returns a Saver that keeps checkpoints in PostgreSQL instead of
// a directory, creating the schema if it is missing.
func NewSaver(db *sql.DB, opts hooks.SaverOptions) (*hooks.Saver, error) {
	store, err := persistence.NewPostgresSnapshotStore(db)
	if err != nil {
		return nil, err
	}
	return hooks.NewSaverWithStore(store, opts), nil
}

// NewSaverRestore returns a SaverRestore that resumes from the newest
// checkpoint in PostgreSQL.
func NewSaverRestore(db *sql.DB, logger *slog.Logger) (*hooks.SaverRestore, error) {
	store, err := persistence.NewPostgresSnapshotStore(db)
	if err != nil {
		return nil, err
	}
	return hooks.NewSaverRestoreWithStore(store, logger), nil
}

// NewMinSaver returns a MinSaver that keeps its best checkpoint in
// PostgreSQL.
func NewMinSaver(db *sql.DB, key string, opts hooks.BestSaverOptions) (*hooks.MinSaver, error) {
	store, err := persistence.NewPostgresSnapshotStore(db)
	if err != nil {
		return nil, err
	}
	return hooks.NewMinSaverWithStore(store, key, opts)
}

// NewMaxSaver returns a MaxSaver that keeps its best checkpoint in
// PostgreSQL.
func NewMaxSaver(db *sql.DB, key string, opts hooks.BestSaverOptions) (*hooks.MaxSaver, error) {
	store, err := persistence.NewPostgresSnapshotStore(db)
	if err != nil {
		return nil, err
	}
	return hooks.NewMaxSaverWithStore(store, key, opts)
}
