package mongo

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petrijr/treino"
	"github.com/petrijr/treino/mongo/internal/testutil"
	"github.com/petrijr/treino/pkg/api"
	"github.com/petrijr/treino/pkg/hooks"
)

// cumulativeStep counts every step it has ever run and carries the count
// through checkpoints.
type cumulativeStep struct {
	total int
}

func (s *cumulativeStep) RunStep(ctx context.Context, input any) (any, error) {
	s.total++
	return s.total, nil
}

func (s *cumulativeStep) StateDict() map[string]any {
	return map[string]any{"total": s.total}
}

func (s *cumulativeStep) LoadStateDict(d map[string]any) error {
	if n, ok := api.StateDict(d).Int("total"); ok {
		s.total = n
	}
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func connectMongo(t *testing.T) *mongo.Client {
	t.Helper()

	uri := testutil.GetMongoURI(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err, "mongo.Connect failed")
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})
	return client
}

// TestSaverRoundTripsThroughMongo runs a loop that checkpoints into a real
// MongoDB instance, then resumes a second loop from that collection using
// only the public constructors.
func TestSaverRoundTripsThroughMongo(t *testing.T) {
	client := connectMongo(t)
	quiet := quietLogger()

	// Start from a clean collection so earlier runs do not leak in.
	coll := client.Database("treino").Collection("checkpoints")
	require.NoError(t, coll.Drop(context.Background()), "dropping checkpoints failed")

	saver := NewSaver(client, hooks.SaverOptions{Logger: quiet})

	step1 := &cumulativeStep{}
	loop1 := treino.New(step1).Logger(quiet).Hooks(saver).Build()
	err := loop1.Train(context.Background(), treino.Slice([]int{1, 2}), treino.TrainOptions{MaxEpoch: 3})
	require.NoError(t, err, "first run failed")
	require.Equal(t, 6, loop1.GlobalStep())
	require.Equal(t, 6, step1.total)

	restore := NewSaverRestore(client, quiet)
	saver2 := NewSaver(client, hooks.SaverOptions{Logger: quiet})

	step2 := &cumulativeStep{}
	loop2 := treino.New(step2).Logger(quiet).Hooks(restore, saver2).Build()
	err = loop2.Train(context.Background(), treino.Slice([]int{1, 2}), treino.TrainOptions{MaxEpoch: 5})
	require.NoError(t, err, "resumed run failed")

	require.Equal(t, treino.StatusCompleted, loop2.Status())
	require.Equal(t, 5, loop2.EpochNum())
	require.Equal(t, 10, loop2.GlobalStep())
	require.Equal(t, 10, step2.total, "restored counter should continue from the checkpoint")
}

// TestScalarWriterRecordsDocuments drives a short run publishing one scalar
// per step and reads the history back from MongoDB.
func TestScalarWriterRecordsDocuments(t *testing.T) {
	client := connectMongo(t)
	quiet := quietLogger()

	writer := NewScalarWriter(client, quiet)

	emit := &treino.LambdaHook{
		OnAfterStep: func(ctx context.Context, h *treino.LambdaHook, in, out any) error {
			h.Trainer().Monitors().AddScalar("loss", float64(h.Trainer().GlobalStep()))
			return nil
		},
	}

	step := treino.StepFunc(func(ctx context.Context, input any) (any, error) {
		return input, nil
	})
	loop := treino.New(step).Logger(quiet).Hooks(emit).Monitors(writer).Build()
	err := loop.Train(context.Background(), treino.Slice([]int{1, 2}), treino.TrainOptions{MaxEpoch: 2})
	require.NoError(t, err, "run failed")

	history, err := writer.Store().History(context.Background(), loop.RunID(), "loss")
	require.NoError(t, err, "History failed")
	require.Len(t, history, 4)
	for i, row := range history {
		require.Equal(t, i+1, row.GlobalStep)
		require.Equal(t, float64(i+1), row.Value)
	}
}
