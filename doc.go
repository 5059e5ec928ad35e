// Package treino provides an embeddable training loop for Go.
//
// Treino drives iterative, epoch-structured workloads: anything shaped like
// "walk a finite stream of items, once per epoch, for a range of epochs" can
// run on it. The loop itself carries no workload semantics. Model updates,
// simulation ticks or index rebuilds all live in a user-supplied step
// function, while the loop contributes counters, lifecycle dispatch,
// checkpointing and scalar tracking around it.
//
// # Core Concepts
//
// The programming model is small:
//
//  1. Loop
//  2. StepRunner
//  3. Dataflow
//  4. Hook
//  5. Monitor
//
// # Loop
//
// The Loop owns the run: it walks the dataflow once per epoch between
// StartingEpoch and MaxEpoch, maintains the epoch, local-step and
// global-step counters, and ends in one of four states. Completed when the
// epoch range is exhausted, Stopped when a hook or the step function asks
// for a graceful stop, Interrupted when the context is cancelled, and
// Failed when an error escapes. Hooks receive the loop as a read-only
// Trainer view and must not drive it, with one exception: a restore hook
// may call LoadStateDict during BeforeTrain to resume an earlier run.
//
// Loops are assembled with the builder:
//
//	err := treino.New(step).
//	    Hooks(hks...).
//	    MaxEpoch(50).
//	    Train(ctx, df)
//
// # StepRunner
//
// A StepRunner executes one unit of work per dataflow item:
//
//	type StepRunner interface {
//	    RunStep(ctx context.Context, input any) (output any, err error)
//	}
//
// StepFunc adapts a plain function. Returning an error ends the run;
// returning StopTraining ends it gracefully. A runner that implements
// Persistable has its state saved and restored alongside the loop counters.
//
// # Dataflow
//
// A Dataflow yields Len items per epoch through context-aware Next calls.
// FromSlice and Generate cover fixed and synthetic inputs; Prefetch wraps
// any dataflow with a bounded background reader so slow producers overlap
// with the step function.
//
// # Hook
//
// Hooks observe the run at fixed points: Setup, BeforeTrain, BeforeEpoch,
// BeforeStep, AfterStep, TriggerStep, AfterEpoch, TriggerEpoch, Trigger and
// AfterTrain. Embed NoopHook and override what you need, or PrimaryOnlyHook
// for hooks that should run on one worker of a distributed group only.
//
// Decorators compose hooks: PeriodicTrigger fires an inner hook's Trigger on
// a step or epoch cadence, EnableIf gates a hook behind a predicate, and
// Periodic suppresses a wrapped hook outside its cadence. The hooks package
// ships ready-made hooks for checkpointing (Saver, MinSaver, MaxSaver,
// SaverRestore), scalar output (ScalarPrinter, JSONWriter, SQLiteWriter,
// PrometheusWriter), pacing (ProgressLogger, EstimatedTimeLeft,
// ThroughputTracker), sampling external gauges (ResourceTracker) and
// mid-run evaluation (EvalRunner).
//
// # Monitor
//
// A Monitor is a hook that also receives every scalar published during the
// run. The loop collects all registered monitors into a MonitorGroup;
// hooks and step code publish through it:
//
//	trainer.Monitors().AddScalar("loss", v)
//
// Each scalar is stamped with the global step, kept as history for the run
// and fanned out to every monitor, so one AddScalar feeds the printer, the
// JSON history and the best-checkpoint tracker at once.
//
// # Checkpoints
//
// Saver persists the trainer state every epoch under its global-step name
// and keeps a bounded number of recent files. MinSaver and MaxSaver keep
// the single checkpoint that produced the best value of one scalar.
// SaverRestore loads the newest checkpoint at BeforeTrain, moving the run
// forward. Persistence failures are logged, never fatal.
//
// # Distributed runs
//
// The comm package synchronizes a fixed group of cooperating processes with
// variable-length allgather, sum allreduce and barriers, over in-process
// channels or Redis. The loop itself stays single-threaded; hand it a
// Communicator and rank-aware hooks filter themselves.
//
// # Configuration
//
// LoadConfig reads a RunConfig from YAML and assembles the matching hook
// set, covering the common checkpoint-and-resume setup without code:
//
//	cfg, err := treino.LoadConfig("run.yaml")
//	hks, err := cfg.Hooks(nil)
//	err = treino.New(step).Hooks(hks...).
//	    StartingEpoch(cfg.StartingEpoch).
//	    MaxEpoch(cfg.MaxEpoch).
//	    Train(ctx, df)
//
// For examples, see the /examples directory.
package treino
