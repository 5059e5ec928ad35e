package treino

import (
	"context"

	"github.com/petrijr/treino/internal/engine"
	"github.com/petrijr/treino/pkg/api"
	"github.com/petrijr/treino/pkg/comm"
	"github.com/petrijr/treino/pkg/dataflow"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Trainer         = api.Trainer
	TrainOptions    = api.TrainOptions
	Status          = api.Status
	Hook            = api.Hook
	NoopHook        = api.NoopHook
	PrimaryOnlyHook = api.PrimaryOnlyHook
	ProxyHook       = api.ProxyHook
	LambdaHook      = api.LambdaHook
	Monitor         = api.Monitor
	MonitorGroup    = api.MonitorGroup
	ScalarEntry     = api.ScalarEntry
	StateDict       = api.StateDict
	Persistable     = api.Persistable
	StepRunner      = api.StepRunner
	StepFunc        = api.StepFunc
	Dataflow        = api.Dataflow
	EpochSetter     = api.EpochSetter
	Communicator    = comm.Communicator
)

// Loop is a runnable trainer: the api.Trainer view the hooks see, plus the
// Train entry point. Values are assembled with New.
type Loop interface {
	api.Trainer
	Train(ctx context.Context, df api.Dataflow, opts api.TrainOptions) error
}

// Re-export common helpers.

var (
	StopTraining    = api.StopTraining
	IsStopTraining  = api.IsStopTraining
	NewMonitorGroup = api.NewMonitorGroup
	NewProxyHook    = api.NewProxyHook
)

// Re-export status values for convenience.

const (
	StatusIdle        = api.StatusIdle
	StatusRunning     = api.StatusRunning
	StatusCompleted   = api.StatusCompleted
	StatusStopped     = api.StatusStopped
	StatusInterrupted = api.StatusInterrupted
	StatusFailed      = api.StatusFailed
)

// Canonical state dict keys.

const (
	StateKeyEpochNum   = api.StateKeyEpochNum
	StateKeyLocalStep  = api.StateKeyLocalStep
	StateKeyGlobalStep = api.StateKeyGlobalStep
	StateKeyRunID      = api.StateKeyRunID
)

// DefaultMaxEpoch is the epoch bound used when TrainOptions.MaxEpoch is zero.
const DefaultMaxEpoch = api.DefaultMaxEpoch

// ErrAlreadyRunning is returned by Train when a loop is reentered.
var ErrAlreadyRunning = api.ErrAlreadyRunning

// Dataflow constructors re-exported from pkg/dataflow.

var (
	FromSlice = dataflow.FromSlice
	Generate  = dataflow.Generate
	Prefetch  = dataflow.Prefetch
)

// Slice creates a dataflow over a typed slice, boxing each element.
func Slice[T any](items []T) *dataflow.SliceFlow {
	return dataflow.Slice(items)
}

// Train drives runner over df with the given hooks and defaults for
// everything else. It is the shortest path from a step function to a run:
//
//	err := treino.Train(ctx, step, treino.Slice(batches),
//	    treino.TrainOptions{MaxEpoch: 10},
//	    treino.NewProgressLogger(0, nil))
func Train(ctx context.Context, runner StepRunner, df Dataflow, opts TrainOptions, hks ...Hook) error {
	return engine.New(engine.Config{Runner: runner, Hooks: hks}).Train(ctx, df, opts)
}
