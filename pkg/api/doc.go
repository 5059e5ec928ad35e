// Package api contains the core building blocks used by the treino training
// loop. It defines the hook model, the trainer view exposed to hooks, and the
// small collaborator interfaces (dataflows, step runners, monitors) the loop
// is driven by.
//
// Most users interact with the higher-level treino package, which re-exports
// selected types and helpers from this package. The api package is intended
// for advanced use cases, custom integrations, or contributors extending the
// loop itself.
//
// # Concepts
//
// The api package centers around a small set of concepts:
//
//   - Hooks and lifecycle notifications
//   - The trainer view
//   - Dataflows and step runners
//   - Monitors and scalar summaries
//
// # Hooks
//
// A Hook receives named lifecycle notifications from the training loop:
// once around the whole run (BeforeTrain / AfterTrain), once around each
// epoch (BeforeEpoch / AfterEpoch / TriggerEpoch), and once around each step
// (BeforeStep / AfterStep / TriggerStep). Trigger is the semantic default for
// periodic side effects such as checkpointing; decorators in the hooks
// package gate it on step or epoch periods.
//
// Concrete hooks embed NoopHook (or PrimaryOnlyHook) and override only the
// notifications they care about. Returning an error from any notification
// aborts the run, except during AfterTrain where failures are isolated; see
// the hooks package for composition semantics.
//
// # The trainer view
//
// At registration every hook receives a Trainer: a read-only back-reference
// into the running loop. Hooks use it to query counters (epoch number,
// global step), to reach the monitor group, and to save or restore state.
// Hooks must never drive the loop through it; the loop alone mutates
// lifecycle state.
//
// # Dataflows and step runners
//
// A Dataflow yields a fixed number of step inputs per epoch. A StepRunner
// consumes one input and produces one output; it is opaque to the loop.
// Both are deliberately tiny interfaces so existing data pipelines and
// models can be adapted with a few lines.
//
// # Monitors
//
// Monitors are hooks that additionally accept scalar measurements. The loop
// collects all registered monitors into a MonitorGroup, which records an
// in-memory history and fans each scalar out to every member (console,
// JSON, SQLite, Prometheus writers live in the hooks package).
//
// # Usage
//
// Most applications should start from the treino package, using the
// TrainerBuilder and the ready-made hooks. The api package is useful when
// you need lower-level access or custom composition.
package api
