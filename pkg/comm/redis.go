package comm

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGroup is a Communicator whose members rendezvous through a shared
// Redis instance. It uses a simple key structure:
//
//	<prefix><seq>:<rank> => the payload rank contributed to collective seq
//
// Every member keeps a local collective sequence number, so collectives must
// be invoked in the same order by every member; the sequence is what pairs
// one member's SET with the others' polling GETs. Keys carry a TTL so an
// aborted run does not leave payloads behind.
type RedisGroup struct {
	client    *redis.Client
	prefix    string
	rank      int
	worldSize int

	seq int64

	ttl     time.Duration
	pollMin time.Duration
	pollMax time.Duration
}

// NewRedisGroup creates one member of an n-way group. All members must use
// the same prefix and world size, and each a distinct rank in [0, n).
// prefix is optional but recommended (e.g. "treino:run-7:").
func NewRedisGroup(client *redis.Client, prefix string, rank, worldSize int) (*RedisGroup, error) {
	if client == nil {
		return nil, errors.New("comm: redis group requires a client")
	}
	if worldSize < 1 {
		return nil, fmt.Errorf("comm: world size must be at least 1, got %d", worldSize)
	}
	if rank < 0 || rank >= worldSize {
		return nil, fmt.Errorf("comm: rank %d out of range [0, %d)", rank, worldSize)
	}
	if prefix == "" {
		prefix = "treino:comm:"
	}
	return &RedisGroup{
		client:    client,
		prefix:    prefix,
		rank:      rank,
		worldSize: worldSize,
		ttl:       10 * time.Minute,
		pollMin:   5 * time.Millisecond,
		pollMax:   200 * time.Millisecond,
	}, nil
}

func (g *RedisGroup) Rank() int      { return g.rank }
func (g *RedisGroup) WorldSize() int { return g.worldSize }

func (g *RedisGroup) key(seq int64, rank int) string {
	return g.prefix + strconv.FormatInt(seq, 10) + ":" + strconv.Itoa(rank)
}

func (g *RedisGroup) ExchangeInt64(ctx context.Context, v int64) ([]int64, error) {
	bufs, err := g.ExchangeBytes(ctx, int64ToBytes(v))
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(bufs))
	for rank, b := range bufs {
		n, err := bytesToInt64(b)
		if err != nil {
			return nil, err
		}
		out[rank] = n
	}
	return out, nil
}

func (g *RedisGroup) ExchangeBytes(ctx context.Context, buf []byte) ([][]byte, error) {
	g.seq++
	seq := g.seq

	if err := g.client.Set(ctx, g.key(seq, g.rank), buf, g.ttl).Err(); err != nil {
		return nil, fmt.Errorf("comm: publishing rank %d payload: %w", g.rank, err)
	}

	out := make([][]byte, g.worldSize)
	own := make([]byte, len(buf))
	copy(own, buf)
	out[g.rank] = own

	for rank := 0; rank < g.worldSize; rank++ {
		if rank == g.rank {
			continue
		}
		b, err := g.await(ctx, g.key(seq, rank))
		if err != nil {
			return nil, fmt.Errorf("comm: waiting for rank %d: %w", rank, err)
		}
		out[rank] = b
	}
	return out, nil
}

// await polls for a key until it appears, with exponential backoff capped at
// pollMax. Cancellation or deadline on ctx ends the wait.
func (g *RedisGroup) await(ctx context.Context, key string) ([]byte, error) {
	wait := g.pollMin
	for {
		b, err := g.client.Get(ctx, key).Bytes()
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, redis.Nil) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		if wait < g.pollMax {
			wait *= 2
			if wait > g.pollMax {
				wait = g.pollMax
			}
		}
	}
}

func (g *RedisGroup) Barrier(ctx context.Context) error {
	_, err := g.ExchangeBytes(ctx, nil)
	return err
}

// Close removes this member's keys from the current collective. The client
// itself belongs to the caller and stays open.
func (g *RedisGroup) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.client.Del(ctx, g.key(g.seq, g.rank)).Err()
}
