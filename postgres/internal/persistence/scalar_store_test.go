package persistence

import (
	"context"
	"time"

	corep "github.com/petrijr/treino/internal/persistence"
)

func (p *PostgresStoreTestSuite) TestScalarInsertAndHistory() {
	ctx := context.Background()
	batch := []corep.ScalarRow{
		{RunID: "run-1", Name: "loss", EpochNum: 1, LocalStep: 1, GlobalStep: 1, Value: 0.9},
		{RunID: "run-1", Name: "loss", EpochNum: 1, LocalStep: 2, GlobalStep: 2, Value: 0.7},
		{RunID: "run-1", Name: "acc", EpochNum: 1, LocalStep: 2, GlobalStep: 2, Value: 0.4},
	}
	p.Require().NoError(p.scalars.InsertBatch(ctx, batch), "InsertBatch failed")

	history, err := p.scalars.History(ctx, "run-1", "loss")
	p.Require().NoError(err, "History failed")
	p.Require().Len(history, 2)
	p.Equal(0.9, history[0].Value)
	p.Equal(0.7, history[1].Value)
	p.Equal(2, history[1].GlobalStep)

	names, err := p.scalars.Names(ctx, "run-1")
	p.Require().NoError(err, "Names failed")
	p.Equal([]string{"acc", "loss"}, names)
}

func (p *PostgresStoreTestSuite) TestScalarHistoryFiltersByRun() {
	ctx := context.Background()
	batch := []corep.ScalarRow{
		{RunID: "run-a", Name: "loss", GlobalStep: 1, Value: 1},
		{RunID: "run-b", Name: "loss", GlobalStep: 1, Value: 2},
	}
	p.Require().NoError(p.scalars.InsertBatch(ctx, batch), "InsertBatch failed")

	history, err := p.scalars.History(ctx, "run-a", "loss")
	p.Require().NoError(err, "History failed")
	p.Require().Len(history, 1)
	p.Equal(float64(1), history[0].Value)
}

func (p *PostgresStoreTestSuite) TestScalarZeroTimeStamped() {
	ctx := context.Background()
	row := corep.ScalarRow{RunID: "run-1", Name: "loss", Value: 0.5}
	p.Require().NoError(p.scalars.InsertBatch(ctx, []corep.ScalarRow{row}), "InsertBatch failed")

	history, err := p.scalars.History(ctx, "run-1", "loss")
	p.Require().NoError(err, "History failed")
	p.Require().Len(history, 1)
	p.False(history[0].RecordedAt.IsZero())
	p.WithinDuration(time.Now(), history[0].RecordedAt, time.Minute)
}
