package persistence

import (
	"context"
	"time"

	corep "github.com/petrijr/treino/internal/persistence"
)

func (m *MongoStoreTestSuite) TestScalarInsertAndHistory() {
	ctx := context.Background()
	batch := []corep.ScalarRow{
		{RunID: "run-1", Name: "acc", EpochNum: 1, LocalStep: 1, GlobalStep: 1, Value: 0.3},
		{RunID: "run-1", Name: "acc", EpochNum: 1, LocalStep: 2, GlobalStep: 2, Value: 0.6},
		{RunID: "run-1", Name: "loss", EpochNum: 1, LocalStep: 2, GlobalStep: 2, Value: 1.2},
	}
	m.Require().NoError(m.scalars.InsertBatch(ctx, batch), "InsertBatch failed")

	history, err := m.scalars.History(ctx, "run-1", "acc")
	m.Require().NoError(err, "History failed")
	m.Require().Len(history, 2)
	m.Equal(0.3, history[0].Value)
	m.Equal(0.6, history[1].Value)
	m.Equal(2, history[1].GlobalStep)

	names, err := m.scalars.Names(ctx, "run-1")
	m.Require().NoError(err, "Names failed")
	m.Equal([]string{"acc", "loss"}, names)
}

func (m *MongoStoreTestSuite) TestScalarHistoryFiltersByRun() {
	ctx := context.Background()
	batch := []corep.ScalarRow{
		{RunID: "run-a", Name: "acc", GlobalStep: 1, Value: 1},
		{RunID: "run-b", Name: "acc", GlobalStep: 1, Value: 2},
	}
	m.Require().NoError(m.scalars.InsertBatch(ctx, batch), "InsertBatch failed")

	history, err := m.scalars.History(ctx, "run-b", "acc")
	m.Require().NoError(err, "History failed")
	m.Require().Len(history, 1)
	m.Equal(float64(2), history[0].Value)
}

func (m *MongoStoreTestSuite) TestScalarZeroTimeStamped() {
	ctx := context.Background()
	row := corep.ScalarRow{RunID: "run-1", Name: "acc", Value: 0.4}
	m.Require().NoError(m.scalars.InsertBatch(ctx, []corep.ScalarRow{row}), "InsertBatch failed")

	history, err := m.scalars.History(ctx, "run-1", "acc")
	m.Require().NoError(err, "History failed")
	m.Require().Len(history, 1)
	m.False(history[0].RecordedAt.IsZero())
	m.WithinDuration(time.Now(), history[0].RecordedAt, time.Minute)
}
