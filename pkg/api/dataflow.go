package api

import "context"

// Dataflow produces a finite sequence of step inputs, Len items per epoch.
// The loop calls Next exactly Len times per epoch; implementations restart
// their sequence at each epoch boundary.
type Dataflow interface {
	// Len is the number of items per epoch (steps per epoch). It must be
	// stable for the duration of a run.
	Len() int

	// Next yields the next step input. It is context-aware: a cancelled
	// context should surface ctx.Err.
	Next(ctx context.Context) (any, error)
}

// EpochSetter is optionally implemented by sharding-aware dataflows that
// want to know the epoch number before it starts (e.g. to reshuffle with an
// epoch-derived seed). The loop calls it best-effort before BeforeEpoch.
type EpochSetter interface {
	SetEpoch(epoch int)
}
