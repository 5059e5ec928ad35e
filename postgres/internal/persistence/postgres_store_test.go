package persistence

import (
	"time"

	corep "github.com/petrijr/treino/internal/persistence"
)

func (p *PostgresStoreTestSuite) TestSnapshotSaveLoadRoundTrip() {
	snap := &corep.Snapshot{
		RunID:   "run-1",
		Step:    8,
		SavedAt: time.Now(),
		State:   map[string]any{"epoch_num": 2, "cursor": "abc"},
		Metrics: map[string]float64{"loss": 0.5},
	}

	err := p.snapshots.Save(corep.StepFile(8), snap)
	p.Require().NoError(err, "Save failed")

	got, err := p.snapshots.Load(corep.StepFile(8))
	p.Require().NoError(err, "Load failed")

	p.Equal("run-1", got.RunID)
	p.Equal(8, got.Step)
	p.Equal(snap.SavedAt.UnixNano(), got.SavedAt.UnixNano())
	p.Equal(2, got.State["epoch_num"])
	p.Equal("abc", got.State["cursor"])
	p.Equal(0.5, got.Metrics["loss"])
}

func (p *PostgresStoreTestSuite) TestSnapshotOverwriteKeepsLatest() {
	first := &corep.Snapshot{RunID: "run-1", Step: 8, SavedAt: time.Now()}
	second := &corep.Snapshot{RunID: "run-2", Step: 12, SavedAt: time.Now()}

	p.Require().NoError(p.snapshots.Save("loss-min.ckpt", first))
	p.Require().NoError(p.snapshots.Save("loss-min.ckpt", second))

	got, err := p.snapshots.Load("loss-min.ckpt")
	p.Require().NoError(err, "Load failed")
	p.Equal("run-2", got.RunID)
	p.Equal(12, got.Step)
}

func (p *PostgresStoreTestSuite) TestSnapshotLoadMissing() {
	_, err := p.snapshots.Load("nope.ckpt")
	p.Require().ErrorIs(err, corep.ErrCheckpointNotFound)
}

func (p *PostgresStoreTestSuite) TestSnapshotRemove() {
	snap := &corep.Snapshot{RunID: "run-1", Step: 4, SavedAt: time.Now()}
	p.Require().NoError(p.snapshots.Save(corep.StepFile(4), snap))

	p.Require().NoError(p.snapshots.Remove(corep.StepFile(4)))

	_, err := p.snapshots.Load(corep.StepFile(4))
	p.Require().ErrorIs(err, corep.ErrCheckpointNotFound)

	err = p.snapshots.Remove(corep.StepFile(4))
	p.Require().ErrorIs(err, corep.ErrCheckpointNotFound)
}

func (p *PostgresStoreTestSuite) TestSnapshotListStepsIgnoresNamed() {
	now := time.Now()
	p.Require().NoError(p.snapshots.Save(corep.StepFile(30), &corep.Snapshot{Step: 30, SavedAt: now}))
	p.Require().NoError(p.snapshots.Save(corep.StepFile(4), &corep.Snapshot{Step: 4, SavedAt: now}))
	p.Require().NoError(p.snapshots.Save("loss-min.ckpt", &corep.Snapshot{Step: 30, SavedAt: now}))

	steps, err := p.snapshots.ListSteps()
	p.Require().NoError(err, "ListSteps failed")
	p.Equal([]int{4, 30}, steps)

	latest, ok, err := p.snapshots.LatestStep()
	p.Require().NoError(err, "LatestStep failed")
	p.True(ok)
	p.Equal(30, latest)
}

func (p *PostgresStoreTestSuite) TestSnapshotLatestStepEmpty() {
	_, ok, err := p.snapshots.LatestStep()
	p.Require().NoError(err, "LatestStep failed")
	p.False(ok)
}

func (p *PostgresStoreTestSuite) TestSnapshotModTime() {
	before := time.Now().Add(-time.Second)
	p.Require().NoError(p.snapshots.Save(corep.StepFile(2), &corep.Snapshot{Step: 2, SavedAt: time.Now()}))

	at, err := p.snapshots.ModTime(corep.StepFile(2))
	p.Require().NoError(err, "ModTime failed")
	p.True(at.After(before), "mod time %v not after %v", at, before)

	_, err = p.snapshots.ModTime("nope.ckpt")
	p.Require().ErrorIs(err, corep.ErrCheckpointNotFound)
}
