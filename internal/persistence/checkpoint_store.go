package persistence

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// ErrCheckpointNotFound is returned when a named checkpoint does not exist.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

func init() {
	gob.Register(&Snapshot{})
	// State and Metrics travel through EncodeValue as bare interface
	// payloads in the database-backed stores.
	gob.Register(map[string]any{})
	gob.Register(map[string]float64{})
}

// Snapshot is the unit of checkpoint persistence: the loop counters plus
// whatever state the run's collaborators contributed, and the scalar values
// current at save time so derived series survive a restart.
type Snapshot struct {
	RunID   string
	Step    int
	SavedAt time.Time
	State   map[string]any
	Metrics map[string]float64
}

// SnapshotStore is where the checkpoint hooks keep snapshots. Snapshots are
// addressed by name; numbered checkpoints use the StepFile naming so stores
// can enumerate them. The file-backed CheckpointStore below is the default;
// database-backed stores live in the mongo and postgres submodules.
type SnapshotStore interface {
	Save(name string, snap *Snapshot) error
	Load(name string) (*Snapshot, error)
	Remove(name string) error

	// ModTime reports when the named snapshot was last written.
	ModTime(name string) (time.Time, error)

	// ListSteps returns the steps of all numbered snapshots, ascending.
	ListSteps() ([]int, error)

	// LatestStep returns the greatest numbered snapshot, or ok=false when
	// the store holds none.
	LatestStep() (step int, ok bool, err error)

	// Ref names the place the named snapshot lives, for logs and errors.
	Ref(name string) string

	// String names the store itself.
	String() string
}

// CheckpointStore keeps snapshots as files in a single directory. Writes go
// through a temp file and a rename, so a crash mid-save never leaves a
// truncated checkpoint under the final name.
type CheckpointStore struct {
	dir string
}

var _ SnapshotStore = (*CheckpointStore)(nil)

// NewCheckpointStore creates the directory if needed and returns a store
// over it.
func NewCheckpointStore(dir string) (*CheckpointStore, error) {
	if dir == "" {
		return nil, errors.New("persistence: checkpoint directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &CheckpointStore{dir: dir}, nil
}

// Dir returns the directory the store writes into.
func (s *CheckpointStore) Dir() string { return s.dir }

// Path returns the absolute path of a named checkpoint.
func (s *CheckpointStore) Path(name string) string { return filepath.Join(s.dir, name) }

func (s *CheckpointStore) Ref(name string) string { return s.Path(name) }

func (s *CheckpointStore) String() string { return s.dir }

// StepFile returns the canonical file name for a numbered checkpoint.
func StepFile(step int) string { return fmt.Sprintf("step-%d.ckpt", step) }

var stepFilePattern = regexp.MustCompile(`^step-(\d+)\.ckpt$`)

// ParseStepFile extracts the step from a name produced by StepFile.
func ParseStepFile(name string) (int, bool) {
	m := stepFilePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Save writes the snapshot under the given file name.
func (s *CheckpointStore) Save(name string, snap *Snapshot) error {
	data, err := EncodeValue(snap)
	if err != nil {
		return err
	}
	tmp := s.Path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path(name))
}

// Load reads the snapshot saved under the given file name.
func (s *CheckpointStore) Load(name string) (*Snapshot, error) {
	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCheckpointNotFound
	}
	if err != nil {
		return nil, err
	}
	return DecodeValue[*Snapshot](data)
}

// Remove deletes a named checkpoint.
func (s *CheckpointStore) Remove(name string) error {
	err := os.Remove(s.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return ErrCheckpointNotFound
	}
	return err
}

// ModTime reports when the named checkpoint was last written.
func (s *CheckpointStore) ModTime(name string) (time.Time, error) {
	fi, err := os.Stat(s.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, ErrCheckpointNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}

// ListSteps returns the steps of all numbered checkpoints in the directory,
// ascending. Files that do not match the canonical naming are ignored.
func (s *CheckpointStore) ListSteps() ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var steps []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n, ok := ParseStepFile(e.Name()); ok {
			steps = append(steps, n)
		}
	}
	sort.Ints(steps)
	return steps, nil
}

// LatestStep returns the greatest numbered checkpoint, or ok=false when the
// directory holds none.
func (s *CheckpointStore) LatestStep() (step int, ok bool, err error) {
	steps, err := s.ListSteps()
	if err != nil {
		return 0, false, err
	}
	if len(steps) == 0 {
		return 0, false, nil
	}
	return steps[len(steps)-1], true, nil
}
