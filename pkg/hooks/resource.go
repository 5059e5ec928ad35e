package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/petrijr/treino/pkg/api"
)

// ResourceTrackerOptions tunes the sampling window.
type ResourceTrackerOptions struct {
	// Name is the scalar recorded per epoch. Zero means "utilization".
	Name string

	// Interval between samples. Zero means one second.
	Interval time.Duration

	// Wait bounds how long TriggerEpoch waits for the window's result before
	// declaring the sampler stuck. Zero means one minute.
	Wait time.Duration

	Logger *slog.Logger
}

type sampleResult struct {
	sum   float64
	count int
	err   error
}

// ResourceTracker samples a probe on a background goroutine for the duration
// of each epoch and records the mean as a scalar. The window opens at
// BeforeEpoch and closes at AfterEpoch, so time spent in epoch triggers is
// never sampled. A probe that returns an error stops the run gracefully; a
// sampler that stops responding aborts it.
type ResourceTracker struct {
	api.PrimaryOnlyHook
	sample   func() (float64, error)
	name     string
	interval time.Duration
	wait     time.Duration
	logger   *slog.Logger
	trainer  api.Trainer

	start   chan struct{}
	stop    chan struct{}
	results chan sampleResult

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewResourceTracker records the mean of sample over each epoch. It panics
// when sample is nil.
func NewResourceTracker(sample func() (float64, error), opts ResourceTrackerOptions) *ResourceTracker {
	if sample == nil {
		panic("treino: resource tracker requires a sample function")
	}
	if opts.Name == "" {
		opts.Name = "utilization"
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Wait <= 0 {
		opts.Wait = time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ResourceTracker{
		sample:   sample,
		name:     opts.Name,
		interval: opts.Interval,
		wait:     opts.Wait,
		logger:   logger,
		start:    make(chan struct{}),
		stop:     make(chan struct{}),
		results:  make(chan sampleResult),
	}
}

func (r *ResourceTracker) Setup(t api.Trainer) error {
	r.trainer = t
	return nil
}

func (r *ResourceTracker) BeforeTrain(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return nil
	}
	wctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.wg.Add(1)
	go r.worker(wctx)
	return nil
}

func (r *ResourceTracker) BeforeEpoch(ctx context.Context) error {
	select {
	case r.start <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *ResourceTracker) AfterEpoch(ctx context.Context) error {
	select {
	case r.stop <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *ResourceTracker) TriggerEpoch(ctx context.Context) error {
	select {
	case res := <-r.results:
		if res.err != nil {
			return api.StopTraining(fmt.Sprintf("resource probe %q failed: %v", r.name, res.err))
		}
		if res.count > 0 {
			if mon := r.trainer.Monitors(); mon != nil {
				mon.AddScalar(r.name, res.sum/float64(res.count))
			}
		}
		return nil
	case <-time.After(r.wait):
		return fmt.Errorf("hooks: resource tracker %q did not report within %s", r.name, r.wait)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AfterTrain stops the sampling goroutine and waits for it to exit.
func (r *ResourceTracker) AfterTrain(ctx context.Context) error {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	r.wg.Wait()
	return nil
}

func (r *ResourceTracker) worker(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.start:
		}
		ticker.Reset(r.interval)

		var (
			values    []float64
			sampleErr error
		)
	window:
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				break window
			case <-ticker.C:
				if sampleErr != nil {
					continue
				}
				v, err := r.sample()
				if err != nil {
					sampleErr = err
					r.logger.Warn("resource probe failed",
						slog.String("name", r.name),
						slog.String("error", err.Error()))
					continue
				}
				values = append(values, v)
			}
		}

		// The newest sample may overlap the epoch boundary; drop it.
		if len(values) > 0 {
			values = values[:len(values)-1]
		}
		res := sampleResult{err: sampleErr, count: len(values)}
		for _, v := range values {
			res.sum += v
		}

		select {
		case r.results <- res:
		case <-ctx.Done():
			return
		}
	}
}

func (r *ResourceTracker) String() string { return "ResourceTracker(" + r.name + ")" }

var _ api.Hook = (*ResourceTracker)(nil)
