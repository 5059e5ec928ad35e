package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/petrijr/treino/pkg/api"
	"github.com/petrijr/treino/pkg/comm"
	"github.com/petrijr/treino/pkg/hooks"
)

// scalarSink is a monitor that records every scalar handed to it.
type scalarSink struct {
	api.NoopHook
	added    []string
	triggers int
}

func (m *scalarSink) AddScalar(name string, value float64) {
	m.added = append(m.added, fmt.Sprintf("%s=%g", name, value))
}

func (m *scalarSink) Trigger(ctx context.Context) error {
	m.triggers++
	return nil
}

func (m *scalarSink) String() string { return "ScalarSink" }

// emitPerStep publishes one scalar per step through the trainer's monitors.
type emitPerStep struct {
	api.NoopHook
	t api.Trainer
}

func (h *emitPerStep) Setup(t api.Trainer) error { h.t = t; return nil }

func (h *emitPerStep) AfterStep(ctx context.Context, in, out any) error {
	h.t.Monitors().AddScalar("loss", float64(h.t.GlobalStep()))
	return nil
}

func TestMonitorsCollectThroughDecorators(t *testing.T) {
	sink := &scalarSink{}
	gated := hooks.NewPeriodicTrigger(sink, hooks.PeriodicTriggerOptions{EveryKSteps: 2})
	loop := New(Config{
		Runner: &countStep{},
		Hooks:  []api.Hook{&emitPerStep{}, gated},
		Logger: quietLogger(),
	})

	if err := loop.Train(context.Background(), intFlow(4), api.TrainOptions{MaxEpoch: 1}); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	// Every scalar reaches the sink even though its triggers are gated.
	if len(sink.added) != 4 {
		t.Fatalf("expected 4 scalars, got %v", sink.added)
	}
	if sink.triggers != 2 {
		t.Fatalf("expected 2 gated triggers, got %d", sink.triggers)
	}

	entry, ok := loop.Monitors().Latest("loss")
	if !ok {
		t.Fatalf("expected a latest loss entry")
	}
	if entry.Step != 4 || entry.Value != 4 {
		t.Fatalf("unexpected latest entry: %+v", entry)
	}
}

func TestMonitorHistoryStampsGlobalSteps(t *testing.T) {
	loop := New(Config{
		Runner: &countStep{},
		Hooks:  []api.Hook{&emitPerStep{}, &scalarSink{}},
		Logger: quietLogger(),
	})

	if err := loop.Train(context.Background(), intFlow(3), api.TrainOptions{MaxEpoch: 2}); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	history := loop.Monitors().History("loss")
	if len(history) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(history))
	}
	for i, e := range history {
		if e.Step != i+1 {
			t.Fatalf("entry %d carries step %d", i, e.Step)
		}
	}
}

// primaryProbe reports whether it ran at all.
type primaryProbe struct {
	api.PrimaryOnlyHook
	ran bool
}

func (h *primaryProbe) BeforeTrain(ctx context.Context) error {
	h.ran = true
	return nil
}

func (h *primaryProbe) String() string { return "PrimaryProbe" }

func TestPrimaryOnlyHooksSkippedOffPrimary(t *testing.T) {
	members := comm.NewLocalGroup(2)
	probe := &primaryProbe{}
	var log []string
	rec := &eventHook{name: "rec", log: &log}

	loop := New(Config{
		Runner: &countStep{},
		Hooks:  []api.Hook{probe, rec},
		Comm:   members[1],
		Logger: quietLogger(),
	})

	if err := loop.Train(context.Background(), intFlow(2), api.TrainOptions{MaxEpoch: 1}); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if probe.ran {
		t.Fatalf("primary-only hook ran on rank 1")
	}
	if countEvent(log, "rec:before_train") != 1 {
		t.Fatalf("rank-agnostic hook should still run")
	}
}

func TestPrimaryRankKeepsPrimaryOnlyHooks(t *testing.T) {
	probe := &primaryProbe{}
	loop := New(Config{Runner: &countStep{}, Hooks: []api.Hook{probe}, Logger: quietLogger()})

	if err := loop.Train(context.Background(), intFlow(2), api.TrainOptions{MaxEpoch: 1}); err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if !probe.ran {
		t.Fatalf("primary-only hook should run on rank 0")
	}
}

func TestPrimaryOnlyDecoratorsAreFilteredToo(t *testing.T) {
	probe := &primaryProbe{}
	gated := hooks.NewPeriodicTrigger(probe, hooks.PeriodicTriggerOptions{EveryKEpochs: 1})
	members := comm.NewLocalGroup(2)

	loop := New(Config{
		Runner: &countStep{},
		Hooks:  []api.Hook{gated},
		Comm:   members[1],
		Logger: quietLogger(),
	})

	if err := loop.Train(context.Background(), intFlow(2), api.TrainOptions{MaxEpoch: 1}); err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if probe.ran {
		t.Fatalf("wrapping a primary-only hook must not defeat rank filtering")
	}
}

func TestTrainRejectsReentry(t *testing.T) {
	var once sync.Once
	started := make(chan struct{})
	release := make(chan struct{})
	runner := api.StepFunc(func(ctx context.Context, input any) (any, error) {
		once.Do(func() { close(started) })
		<-release
		return input, nil
	})
	loop := New(Config{Runner: runner, Logger: quietLogger()})

	done := make(chan error, 1)
	go func() {
		done <- loop.Train(context.Background(), intFlow(2), api.TrainOptions{MaxEpoch: 1})
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatalf("first run never started")
	}

	err := loop.Train(context.Background(), intFlow(2), api.TrainOptions{MaxEpoch: 1})
	if !errors.Is(err, api.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if got := loop.Status(); got != api.StatusCompleted {
		t.Fatalf("expected status %q, got %q", api.StatusCompleted, got)
	}
}

func TestLoopIsReusableAfterARun(t *testing.T) {
	runner := &countStep{}
	loop := New(Config{Runner: runner, Logger: quietLogger()})

	if err := loop.Train(context.Background(), intFlow(2), api.TrainOptions{MaxEpoch: 2}); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	first := loop.RunID()

	if err := loop.Train(context.Background(), intFlow(3), api.TrainOptions{MaxEpoch: 1}); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if loop.RunID() == first {
		t.Fatalf("expected a fresh run id per run")
	}
	if got := loop.GlobalStep(); got != 3 {
		t.Fatalf("expected counters reset for the new run, got global step %d", got)
	}
	if runner.steps != 4+3 {
		t.Fatalf("expected 7 total steps, got %d", runner.steps)
	}
}
