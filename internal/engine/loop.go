// Package engine contains the training loop at the core of treino: a
// callback-driven driver that walks a dataflow for a range of epochs,
// maintains the step counters and dispatches the hook lifecycle around every
// step and epoch boundary. The loop carries no workload semantics of its
// own; everything beyond counting lives in the step runner and the hooks.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/petrijr/treino/pkg/api"
	"github.com/petrijr/treino/pkg/comm"
	"github.com/petrijr/treino/pkg/hooks"
)

// Config assembles a Loop.
type Config struct {
	// Runner executes one step per dataflow item. Required.
	Runner api.StepRunner

	// Hooks observe and steer the run. Slice order is dispatch order.
	Hooks []api.Hook

	// Comm connects this loop to its peer workers. Nil means a
	// single-worker group.
	Comm comm.Communicator

	// Logger receives the loop's progress records. Nil means slog.Default.
	Logger *slog.Logger

	// Extension contributes extra entries to the trainer's StateDict.
	// When nil and the runner is persistable, the runner is used.
	Extension api.Persistable
}

// Loop drives epoch-structured work over a dataflow. It implements
// api.Trainer: hooks receive it at Setup and read counters back from it.
//
// A Loop is reusable but not reentrant; Train returns ErrAlreadyRunning when
// called while a run is in progress.
type Loop struct {
	runner    api.StepRunner
	hooks     []api.Hook
	comm      comm.Communicator
	logger    *slog.Logger
	extension api.Persistable

	mu         sync.Mutex
	status     api.Status
	runID      string
	epochNum   int
	localStep  int
	globalStep int
	stepsPer   int
	starting   int
	maxEpoch   int
	monitors   *api.MonitorGroup
}

var _ api.Trainer = (*Loop)(nil)

// New builds a Loop from cfg. It panics if cfg.Runner is nil.
func New(cfg Config) *Loop {
	if cfg.Runner == nil {
		panic("treino: engine requires a step runner")
	}
	ext := cfg.Extension
	if ext == nil {
		if p, ok := cfg.Runner.(api.Persistable); ok {
			ext = p
		}
	}
	c := cfg.Comm
	if c == nil {
		c = comm.Local()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		runner:    cfg.Runner,
		hooks:     cfg.Hooks,
		comm:      c,
		logger:    logger,
		extension: ext,
		status:    api.StatusIdle,
	}
}

// Train runs the loop over df until MaxEpoch is reached, a hook or the
// runner signals StopTraining, the context is cancelled or an error escapes.
// The final lifecycle state is readable from Status after it returns.
//
// Hooks marked PrimaryOnly are skipped on non-primary workers. Registered
// hooks that implement api.Monitor, directly or behind decorators, become
// members of the run's MonitorGroup.
func (l *Loop) Train(ctx context.Context, df api.Dataflow, opts api.TrainOptions) error {
	if df == nil {
		return errors.New("engine: dataflow is required")
	}
	stepsPer := df.Len()
	if stepsPer < 0 {
		return fmt.Errorf("engine: dataflow reports negative length %d", stepsPer)
	}

	starting := opts.StartingEpoch
	if starting <= 0 {
		starting = 1
	}
	maxEpoch := opts.MaxEpoch
	if maxEpoch <= 0 {
		maxEpoch = api.DefaultMaxEpoch
	}
	runID := uuid.NewString()

	l.mu.Lock()
	if l.status == api.StatusRunning {
		l.mu.Unlock()
		return api.ErrAlreadyRunning
	}
	group, monitors := l.assemble()
	monitors.SetTrainer(l)
	l.status = api.StatusRunning
	l.runID = runID
	l.starting = starting
	l.maxEpoch = maxEpoch
	l.stepsPer = stepsPer
	l.epochNum = starting - 1
	l.localStep = 0
	l.globalStep = (starting - 1) * stepsPer
	l.monitors = monitors
	l.mu.Unlock()

	l.logger.Info("training started",
		slog.String("run_id", runID),
		slog.Int("starting_epoch", starting),
		slog.Int("max_epoch", maxEpoch),
		slog.Int("steps_per_epoch", stepsPer),
		slog.Int("rank", l.comm.Rank()),
		slog.Int("world_size", l.comm.WorldSize()))
	started := time.Now()

	if err := group.Setup(l); err != nil {
		l.setStatus(api.StatusFailed)
		return err
	}

	// AfterTrain fans out exactly once per run, whatever path ends it.
	// A cancelled context must not keep hooks from flushing.
	defer func() {
		group.AfterTrain(context.WithoutCancel(ctx))
		l.mu.Lock()
		final := l.status
		l.mu.Unlock()
		l.logger.Info("training finished",
			slog.String("run_id", runID),
			slog.String("status", string(final)),
			slog.Duration("took", time.Since(started).Round(time.Millisecond)))
	}()

	return l.conclude(l.run(ctx, df, group))
}

// run walks the epoch and step loops, dispatching hook notifications in
// lifecycle order. It returns the first error any of them surfaces.
func (l *Loop) run(ctx context.Context, df api.Dataflow, group *hooks.Group) error {
	if err := group.BeforeTrain(ctx); err != nil {
		return err
	}

	for l.EpochNum() < l.MaxEpoch() {
		if err := ctx.Err(); err != nil {
			return err
		}

		epoch := l.beginEpoch()
		if es, ok := df.(api.EpochSetter); ok {
			es.SetEpoch(epoch)
		}
		l.logger.Info("epoch started",
			slog.Int("epoch_num", epoch),
			slog.Int("max_epoch", l.MaxEpoch()))
		epochStart := time.Now()

		if err := group.BeforeEpoch(ctx); err != nil {
			return err
		}

		for i := 0; i < l.StepsPerEpoch(); i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			input, err := df.Next(ctx)
			if err != nil {
				return fmt.Errorf("engine: reading step input: %w", err)
			}
			l.bumpStep()

			if err := group.BeforeStep(ctx, input); err != nil {
				return err
			}
			output, err := l.runner.RunStep(ctx, input)
			if err != nil {
				return err
			}
			if err := group.AfterStep(ctx, input, output); err != nil {
				return err
			}
			if err := group.TriggerStep(ctx); err != nil {
				return err
			}
		}

		if err := group.AfterEpoch(ctx); err != nil {
			return err
		}
		l.logger.Info("epoch finished",
			slog.Int("epoch_num", epoch),
			slog.Duration("took", time.Since(epochStart).Round(time.Millisecond)))
		if err := group.TriggerEpoch(ctx); err != nil {
			return err
		}
	}
	return nil
}

// conclude maps the loop's exit error to a final status. Graceful stops are
// swallowed; everything else is returned to the caller.
func (l *Loop) conclude(err error) error {
	if err == nil {
		l.setStatus(api.StatusCompleted)
		return nil
	}
	if reason, ok := api.IsStopTraining(err); ok {
		l.setStatus(api.StatusStopped)
		l.logger.Info("training stopped", slog.String("reason", reason))
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		l.setStatus(api.StatusInterrupted)
		l.logger.Warn("training interrupted", slog.String("cause", err.Error()))
		return err
	}
	l.setStatus(api.StatusFailed)
	return err
}

// assemble partitions the configured hooks into the run's dispatch group,
// dropping primary-only hooks on non-primary workers, and collects the
// monitor members.
func (l *Loop) assemble() (*hooks.Group, *api.MonitorGroup) {
	kept := make([]api.Hook, 0, len(l.hooks))
	var members []api.Monitor
	primary := comm.IsPrimary(l.comm)
	for _, h := range l.hooks {
		if h == nil {
			continue
		}
		if h.PrimaryOnly() && !primary {
			l.logger.Info("skipping primary-only hook",
				slog.String("hook", hookName(h)),
				slog.Int("rank", l.comm.Rank()))
			continue
		}
		kept = append(kept, h)
		if m, ok := monitorOf(h); ok {
			members = append(members, m)
		}
	}
	return hooks.NewGroup(l.logger, kept...), api.NewMonitorGroup(members...)
}

// monitorOf reports whether h collects scalars, looking through decorator
// chains so that a gated writer still receives every AddScalar.
func monitorOf(h api.Hook) (api.Monitor, bool) {
	for h != nil {
		if m, ok := h.(api.Monitor); ok {
			return m, true
		}
		p, ok := h.(interface{ Inner() api.Hook })
		if !ok {
			break
		}
		h = p.Inner()
	}
	return nil, false
}

func hookName(h api.Hook) string {
	if s, ok := h.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", h)
}

func (l *Loop) beginEpoch() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.epochNum++
	l.localStep = 0
	return l.epochNum
}

func (l *Loop) bumpStep() {
	l.mu.Lock()
	l.localStep++
	l.globalStep++
	l.mu.Unlock()
}

func (l *Loop) setStatus(s api.Status) {
	l.mu.Lock()
	l.status = s
	l.mu.Unlock()
}

// Counter accessors take the loop mutex so hooks may observe a consistent
// view from other goroutines.

func (l *Loop) RunID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.runID
}

func (l *Loop) Status() api.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

func (l *Loop) EpochNum() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.epochNum
}

func (l *Loop) LocalStep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.localStep
}

func (l *Loop) GlobalStep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.globalStep
}

func (l *Loop) StepsPerEpoch() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stepsPer
}

func (l *Loop) StartingEpoch() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.starting
}

func (l *Loop) MaxEpoch() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.maxEpoch
}

// Monitors returns the scalar summary of the current (or last) run. It is
// nil until the first Train call.
func (l *Loop) Monitors() *api.MonitorGroup {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.monitors
}

// StateDict captures the loop counters under the canonical keys, merged
// with the extension's entries. Counter keys win on collision.
func (l *Loop) StateDict() api.StateDict {
	l.mu.Lock()
	d := api.StateDict{
		api.StateKeyEpochNum:   l.epochNum,
		api.StateKeyLocalStep:  l.localStep,
		api.StateKeyGlobalStep: l.globalStep,
		api.StateKeyRunID:      l.runID,
	}
	l.mu.Unlock()

	if l.extension != nil {
		for k, v := range l.extension.StateDict() {
			if _, taken := d[k]; !taken {
				d[k] = v
			}
		}
	}
	return d
}

// LoadStateDict restores the epoch counter from d and recomputes the global
// step from the current steps-per-epoch, so a dataflow of a different length
// resumes at a consistent position. Non-counter entries are handed to the
// extension.
func (l *Loop) LoadStateDict(d api.StateDict) error {
	epoch, ok := d.Int(api.StateKeyEpochNum)
	if !ok {
		return errors.New("engine: state dict is missing epoch_num")
	}

	l.mu.Lock()
	l.epochNum = epoch
	l.localStep = 0
	l.globalStep = epoch * l.stepsPer
	l.mu.Unlock()

	if l.extension == nil {
		return nil
	}
	rest := make(map[string]any, len(d))
	for k, v := range d {
		switch k {
		case api.StateKeyEpochNum, api.StateKeyLocalStep, api.StateKeyGlobalStep, api.StateKeyRunID:
		default:
			rest[k] = v
		}
	}
	if err := l.extension.LoadStateDict(rest); err != nil {
		return fmt.Errorf("engine: restoring extension state: %w", err)
	}
	return nil
}
