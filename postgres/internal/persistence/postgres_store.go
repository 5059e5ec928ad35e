package persistence

import (
	"database/sql"
	"errors"
	"sort"
	"time"

	corep "github.com/petrijr/treino/internal/persistence"
)

// PostgresSnapshotStore is a SnapshotStore backed by PostgreSQL, one row per
// named checkpoint.
//
// It expects an *sql.DB that uses a PostgreSQL driver (for example,
// "github.com/jackc/pgx/v5/stdlib" or "github.com/lib/pq").
//
// The caller is responsible for:
//   - importing the driver for its side effects, e.g.:
//     _ "github.com/jackc/pgx/v5/stdlib"
//   - providing a DSN via sql.Open.
type PostgresSnapshotStore struct {
	db *sql.DB
}

// Ensure PostgresSnapshotStore implements SnapshotStore.
var _ corep.SnapshotStore = (*PostgresSnapshotStore)(nil)

// NewPostgresSnapshotStore initializes the required schema in the given
// database and returns a new PostgresSnapshotStore.
func NewPostgresSnapshotStore(db *sql.DB) (*PostgresSnapshotStore, error) {
	s := &PostgresSnapshotStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *PostgresSnapshotStore) initSchema() error {
	_, err := p.db.Exec(`
		CREATE TABLE IF NOT EXISTS checkpoints (
			name TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			saved_at BIGINT NOT NULL,
			written_at BIGINT NOT NULL,
			state BYTEA,
			metrics BYTEA
		);
	`)
	return err
}

// Save upserts the snapshot under the given name, so repeated saves of a
// fixed name overwrite each other the way files do.
func (p *PostgresSnapshotStore) Save(name string, snap *corep.Snapshot) error {
	state, err := corep.EncodeValue(snap.State)
	if err != nil {
		return err
	}
	metrics, err := corep.EncodeValue(snap.Metrics)
	if err != nil {
		return err
	}

	_, err = p.db.Exec(`
		INSERT INTO checkpoints (name, run_id, step, saved_at, written_at, state, metrics)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE
		SET run_id     = EXCLUDED.run_id,
		    step       = EXCLUDED.step,
		    saved_at   = EXCLUDED.saved_at,
		    written_at = EXCLUDED.written_at,
		    state      = EXCLUDED.state,
		    metrics    = EXCLUDED.metrics
	`,
		name,
		snap.RunID,
		snap.Step,
		snap.SavedAt.UnixNano(),
		time.Now().UnixNano(),
		state,
		metrics,
	)
	return err
}

func (p *PostgresSnapshotStore) Load(name string) (*corep.Snapshot, error) {
	row := p.db.QueryRow(`
		SELECT run_id, step, saved_at, state, metrics
		FROM checkpoints
		WHERE name = $1
	`,
		name,
	)

	var snap corep.Snapshot
	var savedAt int64
	var state, metrics []byte

	if err := row.Scan(&snap.RunID, &snap.Step, &savedAt, &state, &metrics); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, corep.ErrCheckpointNotFound
		}
		return nil, err
	}
	snap.SavedAt = time.Unix(0, savedAt)

	stateVal, err := corep.DecodeValue[map[string]any](state)
	if err != nil {
		return nil, err
	}
	snap.State = stateVal

	metricsVal, err := corep.DecodeValue[map[string]float64](metrics)
	if err != nil {
		return nil, err
	}
	snap.Metrics = metricsVal

	return &snap, nil
}

func (p *PostgresSnapshotStore) Remove(name string) error {
	res, err := p.db.Exec(`DELETE FROM checkpoints WHERE name = $1`, name)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return corep.ErrCheckpointNotFound
	}
	return nil
}

func (p *PostgresSnapshotStore) ModTime(name string) (time.Time, error) {
	var writtenAt int64
	err := p.db.QueryRow(`SELECT written_at FROM checkpoints WHERE name = $1`, name).Scan(&writtenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, corep.ErrCheckpointNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, writtenAt), nil
}

func (p *PostgresSnapshotStore) ListSteps() ([]int, error) {
	rows, err := p.db.Query(`SELECT name FROM checkpoints`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []int
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if n, ok := corep.ParseStepFile(name); ok {
			steps = append(steps, n)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Ints(steps)
	return steps, nil
}

func (p *PostgresSnapshotStore) LatestStep() (step int, ok bool, err error) {
	steps, err := p.ListSteps()
	if err != nil {
		return 0, false, err
	}
	if len(steps) == 0 {
		return 0, false, nil
	}
	return steps[len(steps)-1], true, nil
}

func (p *PostgresSnapshotStore) Ref(name string) string { return "postgres:checkpoints/" + name }

func (p *PostgresSnapshotStore) String() string { return "postgres:checkpoints" }
