package hooks

import (
	"context"
	"time"

	"github.com/petrijr/treino/pkg/api"
)

// stopwatch accumulates wall time across pause/resume cycles.
type stopwatch struct {
	acc     time.Duration
	started time.Time
	running bool
}

func (s *stopwatch) resume() {
	if !s.running {
		s.started = time.Now()
		s.running = true
	}
}

func (s *stopwatch) pause() {
	if s.running {
		s.acc += time.Since(s.started)
		s.running = false
	}
}

// reset zeroes the accumulated time, preserving the running state.
func (s *stopwatch) reset() {
	s.acc = 0
	if s.running {
		s.started = time.Now()
	}
}

func (s *stopwatch) seconds() float64 {
	d := s.acc
	if s.running {
		d += time.Since(s.started)
	}
	return d.Seconds()
}

// ThroughputTracker records steps per second between consecutive epoch
// triggers. The stopwatch pauses between AfterEpoch and BeforeEpoch, so
// time spent in epoch triggers (checkpointing, evaluation) is excluded
// from the measurement.
type ThroughputTracker struct {
	api.PrimaryOnlyHook

	// SamplesPerStep scales the rate into samples per second. Zero records
	// plain steps per second.
	SamplesPerStep float64

	trainer  api.Trainer
	watch    stopwatch
	lastStep int
}

func (t *ThroughputTracker) Setup(tr api.Trainer) error {
	t.trainer = tr
	return nil
}

func (t *ThroughputTracker) markLast() {
	t.watch.reset()
	t.lastStep = t.trainer.GlobalStep()
}

func (t *ThroughputTracker) BeforeTrain(ctx context.Context) error {
	t.markLast()
	return nil
}

func (t *ThroughputTracker) BeforeEpoch(ctx context.Context) error {
	t.watch.resume()
	return nil
}

func (t *ThroughputTracker) AfterEpoch(ctx context.Context) error {
	t.watch.pause()
	return nil
}

func (t *ThroughputTracker) TriggerEpoch(ctx context.Context) error {
	steps := t.trainer.GlobalStep() - t.lastStep
	secs := t.watch.seconds()
	t.markLast()

	if steps <= 0 || secs <= 0 {
		return nil
	}
	rate := float64(steps) / secs
	if t.SamplesPerStep > 0 {
		rate *= t.SamplesPerStep
	}
	if mon := t.trainer.Monitors(); mon != nil {
		mon.AddScalar("throughput", rate)
	}
	return nil
}

func (t *ThroughputTracker) String() string { return "ThroughputTracker" }

var _ api.Hook = (*ThroughputTracker)(nil)
