package persistence

import (
	"context"
	"database/sql"
	"time"

	corep "github.com/petrijr/treino/internal/persistence"
)

// PostgresScalarStore keeps scalar history in PostgreSQL, one row per
// measurement. It shares the row shape with the core SQLite store, so
// history written by either reads the same.
type PostgresScalarStore struct {
	db *sql.DB
}

// NewPostgresScalarStore initializes the required schema in the given
// database and returns a new PostgresScalarStore.
func NewPostgresScalarStore(db *sql.DB) (*PostgresScalarStore, error) {
	s := &PostgresScalarStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// initSchema issues one statement per Exec; the pgx driver does not accept
// multi-statement strings over the extended protocol.
func (s *PostgresScalarStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS scalars (
			id BIGSERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			name TEXT NOT NULL,
			epoch_num INTEGER NOT NULL,
			local_step INTEGER NOT NULL,
			global_step INTEGER NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			recorded_at BIGINT NOT NULL
		);
	`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_scalars_run_name ON scalars(run_id, name, id);`)
	return err
}

// InsertBatch appends the rows in a single transaction. Rows with a zero
// RecordedAt are stamped with the current time.
func (s *PostgresScalarStore) InsertBatch(ctx context.Context, batch []corep.ScalarRow) error {
	if len(batch) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scalars (run_id, name, epoch_num, local_step, global_step, value, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range batch {
		at := r.RecordedAt
		if at.IsZero() {
			at = time.Now()
		}
		_, err := stmt.ExecContext(ctx,
			r.RunID,
			r.Name,
			r.EpochNum,
			r.LocalStep,
			r.GlobalStep,
			r.Value,
			at.UnixNano(),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// History returns every measurement recorded under name for the run, in
// insertion order.
func (s *PostgresScalarStore) History(ctx context.Context, runID, name string) ([]corep.ScalarRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, name, epoch_num, local_step, global_step, value, recorded_at
		FROM scalars
		WHERE run_id = $1 AND name = $2
		ORDER BY id ASC`, runID, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []corep.ScalarRow
	for rows.Next() {
		var r corep.ScalarRow
		var atN int64
		if err := rows.Scan(&r.RunID, &r.Name, &r.EpochNum, &r.LocalStep, &r.GlobalStep, &r.Value, &atN); err != nil {
			return nil, err
		}
		r.RecordedAt = time.Unix(0, atN)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Names returns the distinct scalar names recorded for the run, sorted.
func (s *PostgresScalarStore) Names(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT name FROM scalars WHERE run_id = $1 ORDER BY name ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
