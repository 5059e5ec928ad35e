package dataflow

import (
	"context"
	"sync"

	"github.com/petrijr/treino/pkg/api"
)

type prefetched struct {
	item any
	err  error
}

// PrefetchFlow pulls items from an inner flow on a background goroutine and
// keeps up to capacity of them ready in a buffered channel. One epoch's worth
// of items is prefetched per fill; SetEpoch restarts the fill, so a loop that
// resets epochs gets fresh inner reads each time.
//
// Next is intended for a single consumer.
type PrefetchFlow struct {
	inner    api.Dataflow
	capacity int

	mu     sync.Mutex
	ch     chan prefetched
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Prefetch wraps inner with a prefetcher holding up to capacity items.
func Prefetch(inner api.Dataflow, capacity int) *PrefetchFlow {
	if inner == nil {
		panic("treino: prefetch requires an inner dataflow")
	}
	if capacity <= 0 {
		capacity = 1
	}
	return &PrefetchFlow{inner: inner, capacity: capacity}
}

func (f *PrefetchFlow) Len() int { return f.inner.Len() }

// SetEpoch stops the current fill, forwards the epoch to the inner flow and
// starts prefetching the new epoch.
func (f *PrefetchFlow) SetEpoch(epoch int) {
	f.stop()

	if es, ok := f.inner.(api.EpochSetter); ok {
		es.SetEpoch(epoch)
	}

	f.mu.Lock()
	f.startLocked()
	f.mu.Unlock()
}

// Next returns the next prefetched item. The fill starts lazily on first use;
// when one epoch's worth of items is exhausted the fill restarts, so the flow
// cycles like the inner flow would.
func (f *PrefetchFlow) Next(ctx context.Context) (any, error) {
	for {
		f.mu.Lock()
		if f.ch == nil {
			f.startLocked()
		}
		ch := f.ch
		f.mu.Unlock()

		select {
		case p, ok := <-ch:
			if !ok {
				f.restartAfter(ch)
				continue
			}
			return p.item, p.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Stop ends the background fill and discards buffered items. The flow can be
// used again afterwards; the next read starts a fresh fill.
func (f *PrefetchFlow) Stop() {
	f.stop()
}

func (f *PrefetchFlow) stop() {
	f.mu.Lock()
	cancel := f.cancel
	f.cancel = nil
	f.ch = nil
	f.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	f.wg.Wait()
}

// restartAfter reaps a naturally finished fill, unless someone already
// replaced it.
func (f *PrefetchFlow) restartAfter(old chan prefetched) {
	f.mu.Lock()
	if f.ch != old {
		f.mu.Unlock()
		return
	}
	cancel := f.cancel
	f.cancel = nil
	f.ch = nil
	f.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	f.wg.Wait()
}

func (f *PrefetchFlow) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	ch := make(chan prefetched, f.capacity)
	f.ch = ch

	n := f.inner.Len()
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer close(ch)
		for i := 0; i < n; i++ {
			item, err := f.inner.Next(ctx)
			select {
			case ch <- prefetched{item: item, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
}

var (
	_ api.Dataflow    = (*PrefetchFlow)(nil)
	_ api.EpochSetter = (*PrefetchFlow)(nil)
)
