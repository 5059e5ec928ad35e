package api

import (
	"encoding/gob"
	"errors"
)

func init() {
	gob.Register(StateDict{})
	gob.Register(map[string]any{})
}

// Status represents the lifecycle state of a training run.
type Status string

const (
	StatusIdle        Status = "IDLE"
	StatusRunning     Status = "RUNNING"
	StatusCompleted   Status = "COMPLETED"
	StatusStopped     Status = "STOPPED"
	StatusInterrupted Status = "INTERRUPTED"
	StatusFailed      Status = "FAILED"
)

// DefaultMaxEpoch is used when TrainOptions.MaxEpoch is zero. Runs with this
// bound are expected to end through a StopTraining hook rather than epoch
// exhaustion.
const DefaultMaxEpoch = 9999999

// TrainOptions controls the epoch range of a run.
type TrainOptions struct {
	// StartingEpoch is the 1-based first epoch of the run. Zero means 1.
	// A restore hook may move the run further forward during BeforeTrain.
	StartingEpoch int

	// MaxEpoch is the last epoch, inclusive. Zero means DefaultMaxEpoch.
	MaxEpoch int
}

// Trainer is the read-only view of the running loop that hooks receive at
// Setup. It is a back-reference: hooks query it for counters, monitors and
// state, but never drive the loop through it. The single exception is
// LoadStateDict, which restore hooks call during BeforeTrain.
//
// Counter semantics from the first BeforeEpoch onward:
//
//	GlobalStep == (EpochNum-1)*StepsPerEpoch + LocalStep
//
// with EpochNum 1-based and LocalStep in [0, StepsPerEpoch]. Before the
// first epoch begins EpochNum is StartingEpoch-1, LocalStep is zero and
// GlobalStep is EpochNum*StepsPerEpoch.
type Trainer interface {
	// RunID identifies this run; it is regenerated for every Train call.
	RunID() string

	// Status reports the current lifecycle state.
	Status() Status

	// EpochNum is the current 1-based epoch number.
	EpochNum() int

	// LocalStep counts steps completed within the current epoch.
	LocalStep() int

	// GlobalStep counts steps since training conceptually began, across
	// resumes.
	GlobalStep() int

	// StepsPerEpoch is the dataflow length.
	StepsPerEpoch() int

	// StartingEpoch is the first epoch of this run.
	StartingEpoch() int

	// MaxEpoch is the last epoch of this run, inclusive.
	MaxEpoch() int

	// Monitors is the scalar summary shared by all registered monitors.
	Monitors() *MonitorGroup

	// StateDict captures the loop counters merged with the extension state
	// (typically the step runner's own state).
	StateDict() StateDict

	// LoadStateDict restores the loop counters from a previously captured
	// dict. The global step is recomputed from the epoch number so that
	// steps-per-epoch changes between runs resolve consistently.
	LoadStateDict(d StateDict) error
}

// Canonical StateDict keys written by the loop.
const (
	StateKeyEpochNum   = "epoch_num"
	StateKeyLocalStep  = "local_step"
	StateKeyGlobalStep = "global_step"
	StateKeyRunID      = "run_id"
)

// StateDict is the persistable snapshot of a run: the loop counters under
// the canonical keys, merged with opaque extension entries.
type StateDict map[string]any

// Int reads an integer entry, tolerating the numeric widths a codec may
// have produced.
func (d StateDict) Int(key string) (int, bool) {
	switch v := d[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// String reads a string entry.
func (d StateDict) String(key string) (string, bool) {
	s, ok := d[key].(string)
	return s, ok
}

// Clone returns a shallow copy.
func (d StateDict) Clone() StateDict {
	out := make(StateDict, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Persistable is implemented by collaborators (typically step runners) whose
// state should ride along in the trainer's StateDict. The loop merges the
// returned entries on save and hands unknown entries back on restore.
type Persistable interface {
	StateDict() map[string]any
	LoadStateDict(map[string]any) error
}

// ErrAlreadyRunning is returned by Train when the loop is reentered while a
// run is in progress.
var ErrAlreadyRunning = errors.New("treino: trainer is already running")
