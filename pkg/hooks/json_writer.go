package hooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/petrijr/treino/pkg/api"
)

// JSONFilename is the file JSONWriter maintains inside its directory.
const JSONFilename = "scalars.json"

// JSONWriter appends every scalar to a JSON document on disk, one entry per
// scalar with the loop counters alongside. The whole history is rewritten
// atomically on each trigger, so the file is valid JSON at any point in
// time and survives a resumed run.
type JSONWriter struct {
	api.NoopHook
	dir     string
	logger  *slog.Logger
	trainer api.Trainer

	mu      sync.Mutex
	entries []map[string]any
}

// NewJSONWriter writes scalars.json under dir, creating it if needed.
func NewJSONWriter(dir string, logger *slog.Logger) (*JSONWriter, error) {
	if dir == "" {
		return nil, errors.New("hooks: json writer requires a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("hooks: creating %s: %w", dir, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONWriter{dir: dir, logger: logger}, nil
}

// Path returns the location of the JSON document.
func (w *JSONWriter) Path() string { return filepath.Join(w.dir, JSONFilename) }

func (w *JSONWriter) Setup(t api.Trainer) error {
	w.trainer = t
	return nil
}

// BeforeTrain reloads history from a previous run so new entries extend it
// instead of clobbering it. A history that does not stop right before the
// first epoch of this run is kept but flagged, since the counters will not
// be contiguous. Register this writer after any restore hook so a restored
// epoch counter is already in effect here.
func (w *JSONWriter) BeforeTrain(ctx context.Context) error {
	raw, err := os.ReadFile(w.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("hooks: reading %s: %w", w.Path(), err)
	}

	var entries []map[string]any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("hooks: parsing %s: %w", w.Path(), err)
	}

	w.mu.Lock()
	w.entries = entries
	w.mu.Unlock()

	if len(entries) == 0 {
		return nil
	}
	last, ok := api.StateDict(entries[len(entries)-1]).Int(api.StateKeyEpochNum)
	if !ok {
		return nil
	}
	// EpochNum at this point is the number of epochs already completed,
	// whether set by TrainOptions or moved by a restore hook.
	if done := w.trainer.EpochNum(); last != done {
		w.logger.Warn("scalar history does not precede this run",
			slog.String("file", w.Path()),
			slog.Int("history_epoch", last),
			slog.Int("next_epoch", done+1))
	}
	return nil
}

// AddScalar appends one entry carrying the current loop counters.
func (w *JSONWriter) AddScalar(name string, value float64) {
	entry := map[string]any{name: value}
	if w.trainer != nil {
		entry[api.StateKeyEpochNum] = w.trainer.EpochNum()
		entry[api.StateKeyGlobalStep] = w.trainer.GlobalStep()
		entry[api.StateKeyLocalStep] = w.trainer.LocalStep()
	}
	w.mu.Lock()
	w.entries = append(w.entries, entry)
	w.mu.Unlock()
}

func (w *JSONWriter) TriggerEpoch(ctx context.Context) error { return w.Trigger(ctx) }

// Trigger rewrites the document. Write failures are logged and swallowed so
// a full disk does not end the run.
func (w *JSONWriter) Trigger(ctx context.Context) error {
	if err := w.flush(); err != nil {
		w.logger.Error("scalar flush failed",
			slog.String("file", w.Path()),
			slog.String("error", err.Error()))
	}
	return nil
}

func (w *JSONWriter) AfterTrain(ctx context.Context) error { return w.Trigger(ctx) }

func (w *JSONWriter) flush() error {
	w.mu.Lock()
	entries := w.entries
	if entries == nil {
		entries = []map[string]any{}
	}
	raw, err := json.Marshal(entries)
	w.mu.Unlock()
	if err != nil {
		return err
	}

	tmp := w.Path() + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, w.Path())
}

func (w *JSONWriter) String() string { return "JSONWriter" }

var _ api.Monitor = (*JSONWriter)(nil)
