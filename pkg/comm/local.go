package comm

import (
	"context"
)

// Local returns the communicator for a single-process run: world size 1,
// rank 0, exchanges that echo the local payload back.
func Local() Communicator { return localComm{} }

type localComm struct{}

func (localComm) Rank() int      { return 0 }
func (localComm) WorldSize() int { return 1 }

func (localComm) ExchangeInt64(ctx context.Context, v int64) ([]int64, error) {
	return []int64{v}, nil
}

func (localComm) ExchangeBytes(ctx context.Context, buf []byte) ([][]byte, error) {
	own := make([]byte, len(buf))
	copy(own, buf)
	return [][]byte{own}, nil
}

func (localComm) Barrier(ctx context.Context) error { return nil }
func (localComm) Close() error                      { return nil }

// NewLocalGroup connects n in-process members over a full mesh of buffered
// channels, one communicator per worker goroutine. Collectives block until
// every member participates, honoring ctx cancellation.
func NewLocalGroup(n int) []Communicator {
	if n <= 0 {
		panic("treino: local group size must be positive")
	}

	mesh := make([][]chan []byte, n)
	for from := range mesh {
		mesh[from] = make([]chan []byte, n)
		for to := range mesh[from] {
			if to != from {
				mesh[from][to] = make(chan []byte, 1)
			}
		}
	}

	members := make([]Communicator, n)
	for rank := range members {
		members[rank] = &localMember{mesh: mesh, rank: rank}
	}
	return members
}

// localMember is one endpoint of a channel mesh. mesh[from][to] carries
// payloads from member `from` to member `to`.
type localMember struct {
	mesh [][]chan []byte
	rank int
}

func (m *localMember) Rank() int      { return m.rank }
func (m *localMember) WorldSize() int { return len(m.mesh) }

func (m *localMember) ExchangeInt64(ctx context.Context, v int64) ([]int64, error) {
	bufs, err := m.ExchangeBytes(ctx, int64ToBytes(v))
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

func (m *localMember) ExchangeBytes(ctx context.Context, buf []byte) ([][]byte, error) {
	n := len(m.mesh)
	out := make([][]byte, n)

	own := make([]byte, len(buf))
	copy(own, buf)
	out[m.rank] = own

	for to := 0; to < n; to++ {
		if to == m.rank {
			continue
		}
		payload := make([]byte, len(buf))
		copy(payload, buf)
		select {
		case m.mesh[m.rank][to] <- payload:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	for from := 0; from < n; from++ {
		if from == m.rank {
			continue
		}
		select {
		case b := <-m.mesh[from][m.rank]:
			out[from] = b
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return out, nil
}

func (m *localMember) Barrier(ctx context.Context) error {
	_, err := m.ExchangeBytes(ctx, nil)
	return err
}

// Close is a no-op: the mesh is garbage-collected with its members.
func (m *localMember) Close() error { return nil }
