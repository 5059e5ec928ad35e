// Package hooks provides the ready-made hook implementations that ship with
// treino: composition (Group, PeriodicTrigger, EnableIf, Periodic),
// checkpointing (Saver, MinSaver, MaxSaver, SaverRestore), scalar writers
// (ScalarPrinter, JSONWriter, SQLiteWriter, PrometheusWriter), run trackers
// (ThroughputTracker, EstimatedTimeLeft, ProgressLogger, ResourceTracker)
// and periodic evaluation (EvalRunner).
//
// Hooks in this package embed api.NoopHook or api.PrimaryOnlyHook and follow
// the convention that TriggerEpoch delegates to Trigger, so any of them can
// be re-gated onto a step or epoch period with PeriodicTrigger.
package hooks
