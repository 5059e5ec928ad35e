// Package comm provides the collective operations a multi-worker run needs:
// variable-length allgather, sum allreduce and barriers over a fixed group of
// members. The transport is pluggable; in-process channel groups serve tests
// and single-machine runs, a Redis-backed group serves separate processes.
//
// Collectives must be invoked in the same order by every member of a group.
// A member that drops out mid-collective surfaces as a context timeout on the
// others; that is fatal for the run, collectives are never retried.
package comm

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrProtocolMismatch is returned when a collective receives a result set
// that does not line up with the group's world size. It is fatal; callers
// must not retry the collective.
var ErrProtocolMismatch = errors.New("comm: collective protocol mismatch")

// Communicator is the transport under the collectives. Implementations relay
// equal-length payloads between all members of a fixed group and return them
// rank-ordered, own payload included.
type Communicator interface {
	// Rank identifies this member, in [0, WorldSize).
	Rank() int

	// WorldSize is the fixed number of members in the group.
	WorldSize() int

	// ExchangeInt64 is an all-to-all broadcast of one integer.
	ExchangeInt64(ctx context.Context, v int64) ([]int64, error)

	// ExchangeBytes is an all-to-all broadcast of one payload. Every
	// member must pass a buffer of the same length.
	ExchangeBytes(ctx context.Context, buf []byte) ([][]byte, error)

	// Barrier blocks until every member has entered it.
	Barrier(ctx context.Context) error

	// Close releases transport resources held by this member.
	Close() error
}

// Allgather collects one value from every member and returns them ordered by
// rank. Values of different sizes are fine: members first agree on sizes,
// then exchange payloads padded to the largest and truncate on receipt.
//
// At world size 1 (or with a nil communicator) the local value is returned
// directly and the transport is never touched, so single-process runs need
// no live backend.
func Allgather(ctx context.Context, c Communicator, s Serializer, v any) ([]any, error) {
	if c == nil || c.WorldSize() == 1 {
		return []any{v}, nil
	}

	data, err := s.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("comm: encoding local value: %w", err)
	}

	sizes, err := c.ExchangeInt64(ctx, int64(len(data)))
	if err != nil {
		return nil, err
	}
	if len(sizes) != c.WorldSize() {
		return nil, fmt.Errorf("%w: got %d sizes for world size %d", ErrProtocolMismatch, len(sizes), c.WorldSize())
	}

	var max int64
	for _, n := range sizes {
		if n > max {
			max = n
		}
	}
	padded := make([]byte, max)
	copy(padded, data)

	bufs, err := c.ExchangeBytes(ctx, padded)
	if err != nil {
		return nil, err
	}
	if len(bufs) != c.WorldSize() {
		return nil, fmt.Errorf("%w: got %d payloads for world size %d", ErrProtocolMismatch, len(bufs), c.WorldSize())
	}

	out := make([]any, len(bufs))
	for rank, b := range bufs {
		if int64(len(b)) < sizes[rank] {
			return nil, fmt.Errorf("%w: rank %d payload truncated (%d of %d bytes)", ErrProtocolMismatch, rank, len(b), sizes[rank])
		}
		val, err := s.Unmarshal(b[:sizes[rank]])
		if err != nil {
			return nil, fmt.Errorf("comm: decoding rank %d payload: %w", rank, err)
		}
		out[rank] = val
	}
	return out, nil
}

// Allreduce gathers one value from every member and returns their elementwise
// sum. Supported value types are float64, int, int64 and []float64; slices
// must have the same length on every member.
func Allreduce(ctx context.Context, c Communicator, s Serializer, v any) (any, error) {
	parts, err := Allgather(ctx, c, s, v)
	if err != nil {
		return nil, err
	}
	return sumValues(parts)
}

// Barrier blocks until every member has entered it. No-op at world size 1.
func Barrier(ctx context.Context, c Communicator) error {
	if c == nil || c.WorldSize() == 1 {
		return nil
	}
	return c.Barrier(ctx)
}

// IsPrimary reports whether this member is rank 0. A nil communicator counts
// as primary, so single-process runs behave like the only worker.
func IsPrimary(c Communicator) bool {
	return c == nil || c.Rank() == 0
}

func sumValues(parts []any) (any, error) {
	switch first := parts[0].(type) {
	case float64:
		total := first
		for rank, p := range parts[1:] {
			v, ok := p.(float64)
			if !ok {
				return nil, reduceTypeMismatch(rank+1, p, first)
			}
			total += v
		}
		return total, nil
	case int:
		total := first
		for rank, p := range parts[1:] {
			v, ok := p.(int)
			if !ok {
				return nil, reduceTypeMismatch(rank+1, p, first)
			}
			total += v
		}
		return total, nil
	case int64:
		total := first
		for rank, p := range parts[1:] {
			v, ok := p.(int64)
			if !ok {
				return nil, reduceTypeMismatch(rank+1, p, first)
			}
			total += v
		}
		return total, nil
	case []float64:
		total := append([]float64(nil), first...)
		for rank, p := range parts[1:] {
			vs, ok := p.([]float64)
			if !ok {
				return nil, reduceTypeMismatch(rank+1, p, first)
			}
			if len(vs) != len(total) {
				return nil, fmt.Errorf("comm: allreduce shape mismatch: rank %d has %d values, want %d", rank+1, len(vs), len(total))
			}
			for i := range vs {
				total[i] += vs[i]
			}
		}
		return total, nil
	default:
		return nil, fmt.Errorf("comm: allreduce does not support %T values", parts[0])
	}
}

func reduceTypeMismatch(rank int, got, want any) error {
	return fmt.Errorf("comm: allreduce type mismatch: rank %d has %T, want %T", rank, got, want)
}

func int64ToBytes(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func bytesToInt64(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: integer payload has %d bytes, want 8", ErrProtocolMismatch, len(b))
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}
