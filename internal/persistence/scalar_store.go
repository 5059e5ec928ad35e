package persistence

import (
	"context"
	"database/sql"
	"time"
)

// ScalarRow is one scalar measurement as stored in SQLite.
type ScalarRow struct {
	RunID      string
	Name       string
	EpochNum   int
	LocalStep  int
	GlobalStep int
	Value      float64
	RecordedAt time.Time
}

// SQLiteScalarStore keeps scalar history in SQLite, one row per measurement.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteScalarStore struct {
	db *sql.DB
}

// NewSQLiteScalarStore initializes the required schema in the given
// database and returns a new SQLiteScalarStore.
func NewSQLiteScalarStore(db *sql.DB) (*SQLiteScalarStore, error) {
	s := &SQLiteScalarStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteScalarStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS scalars (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			name TEXT NOT NULL,
			epoch_num INTEGER NOT NULL,
			local_step INTEGER NOT NULL,
			global_step INTEGER NOT NULL,
			value REAL NOT NULL,
			recorded_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_scalars_run_name ON scalars(run_id, name, id);
	`)
	return err
}

// InsertBatch appends the rows in a single transaction. Rows with a zero
// RecordedAt are stamped with the current time.
func (s *SQLiteScalarStore) InsertBatch(ctx context.Context, batch []ScalarRow) error {
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
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
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
func (s *SQLiteScalarStore) History(ctx context.Context, runID, name string) ([]ScalarRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, name, epoch_num, local_step, global_step, value, recorded_at
		FROM scalars
		WHERE run_id = ? AND name = ?
		ORDER BY id ASC`, runID, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScalarRow
	for rows.Next() {
		var r ScalarRow
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
func (s *SQLiteScalarStore) Names(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT name FROM scalars WHERE run_id = ? ORDER BY name ASC`, runID)
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
