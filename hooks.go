package treino

import (
	"github.com/petrijr/treino/pkg/hooks"
)

// Re-export the hook constructors and their option types, so common runs can
// be assembled from the root package alone.

type (
	PeriodicTriggerOptions   = hooks.PeriodicTriggerOptions
	SaverOptions             = hooks.SaverOptions
	BestSaverOptions         = hooks.BestSaverOptions
	ScalarPrinterOptions     = hooks.ScalarPrinterOptions
	EstimatedTimeLeftOptions = hooks.EstimatedTimeLeftOptions
	ResourceTrackerOptions   = hooks.ResourceTrackerOptions
	EvalHook                 = hooks.EvalHook
	ThroughputTracker        = hooks.ThroughputTracker
)

// Composition wrappers.

var (
	NewPeriodicTrigger = hooks.NewPeriodicTrigger
	NewEnableIf        = hooks.NewEnableIf
	NewPeriodic        = hooks.NewPeriodic
)

// Checkpointing.

var (
	NewSaver        = hooks.NewSaver
	NewMinSaver     = hooks.NewMinSaver
	NewMaxSaver     = hooks.NewMaxSaver
	NewSaverRestore = hooks.NewSaverRestore
)

// Scalar writers and trackers.

var (
	NewScalarPrinter     = hooks.NewScalarPrinter
	NewJSONWriter        = hooks.NewJSONWriter
	NewSQLiteWriter      = hooks.NewSQLiteWriter
	NewPrometheusWriter  = hooks.NewPrometheusWriter
	NewProgressLogger    = hooks.NewProgressLogger
	NewEstimatedTimeLeft = hooks.NewEstimatedTimeLeft
	NewResourceTracker   = hooks.NewResourceTracker
	NewEvalRunner        = hooks.NewEvalRunner
)
