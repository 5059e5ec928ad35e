// Package dataflow provides ready-made input flows for the training loop:
// fixed slices, generated items and a channel-backed prefetcher that keeps a
// bounded number of items ready ahead of the consumer.
package dataflow

import (
	"context"
	"sync"

	"github.com/petrijr/treino/pkg/api"
)

// SliceFlow yields a fixed set of items in order. The position resets at
// every epoch; without epoch resets the flow cycles.
type SliceFlow struct {
	mu    sync.Mutex
	items []any
	pos   int
}

// FromSlice creates a flow over the given items.
func FromSlice(items []any) *SliceFlow {
	return &SliceFlow{items: items}
}

// Slice creates a flow over a typed slice, boxing each element.
func Slice[T any](items []T) *SliceFlow {
	boxed := make([]any, len(items))
	for i, v := range items {
		boxed[i] = v
	}
	return FromSlice(boxed)
}

func (f *SliceFlow) Len() int { return len(f.items) }

func (f *SliceFlow) Next(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == 0 {
		return nil, nil
	}
	item := f.items[f.pos]
	f.pos = (f.pos + 1) % len(f.items)
	return item, nil
}

// SetEpoch rewinds the flow to its first item.
func (f *SliceFlow) SetEpoch(epoch int) {
	f.mu.Lock()
	f.pos = 0
	f.mu.Unlock()
}

// GeneratorFlow yields n items per epoch, computing each from its index.
type GeneratorFlow struct {
	mu  sync.Mutex
	n   int
	fn  func(i int) any
	pos int
}

// Generate creates a flow of n synthetic items.
func Generate(n int, fn func(i int) any) *GeneratorFlow {
	if fn == nil {
		panic("treino: generate requires a function")
	}
	return &GeneratorFlow{n: n, fn: fn}
}

func (f *GeneratorFlow) Len() int { return f.n }

func (f *GeneratorFlow) Next(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n == 0 {
		return nil, nil
	}
	item := f.fn(f.pos)
	f.pos = (f.pos + 1) % f.n
	return item, nil
}

// SetEpoch rewinds the flow to index zero.
func (f *GeneratorFlow) SetEpoch(epoch int) {
	f.mu.Lock()
	f.pos = 0
	f.mu.Unlock()
}

var (
	_ api.Dataflow    = (*SliceFlow)(nil)
	_ api.EpochSetter = (*SliceFlow)(nil)
	_ api.Dataflow    = (*GeneratorFlow)(nil)
	_ api.EpochSetter = (*GeneratorFlow)(nil)
)
