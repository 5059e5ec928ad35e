package persistence

import (
	"time"

	corep "github.com/petrijr/treino/internal/persistence"
)

func (m *MongoStoreTestSuite) TestSnapshotSaveLoadRoundTrip() {
	snap := &corep.Snapshot{
		RunID:   "run-7",
		Step:    6,
		SavedAt: time.Now(),
		State:   map[string]any{"epoch_num": 3, "cursor": "xyz"},
		Metrics: map[string]float64{"acc": 0.85},
	}

	err := m.snapshots.Save(corep.StepFile(6), snap)
	m.Require().NoError(err, "Save failed")

	got, err := m.snapshots.Load(corep.StepFile(6))
	m.Require().NoError(err, "Load failed")

	m.Equal("run-7", got.RunID)
	m.Equal(6, got.Step)
	m.Equal(snap.SavedAt.UnixNano(), got.SavedAt.UnixNano())
	m.Equal(3, got.State["epoch_num"])
	m.Equal("xyz", got.State["cursor"])
	m.Equal(0.85, got.Metrics["acc"])
}

func (m *MongoStoreTestSuite) TestSnapshotOverwriteKeepsLatest() {
	first := &corep.Snapshot{RunID: "run-1", Step: 6, SavedAt: time.Now()}
	second := &corep.Snapshot{RunID: "run-2", Step: 9, SavedAt: time.Now()}

	m.Require().NoError(m.snapshots.Save("acc-max.ckpt", first))
	m.Require().NoError(m.snapshots.Save("acc-max.ckpt", second))

	got, err := m.snapshots.Load("acc-max.ckpt")
	m.Require().NoError(err, "Load failed")
	m.Equal("run-2", got.RunID)
	m.Equal(9, got.Step)
}

func (m *MongoStoreTestSuite) TestSnapshotLoadMissing() {
	_, err := m.snapshots.Load("nope.ckpt")
	m.Require().ErrorIs(err, corep.ErrCheckpointNotFound)
}

func (m *MongoStoreTestSuite) TestSnapshotRemove() {
	snap := &corep.Snapshot{RunID: "run-1", Step: 10, SavedAt: time.Now()}
	m.Require().NoError(m.snapshots.Save(corep.StepFile(10), snap))

	m.Require().NoError(m.snapshots.Remove(corep.StepFile(10)))

	_, err := m.snapshots.Load(corep.StepFile(10))
	m.Require().ErrorIs(err, corep.ErrCheckpointNotFound)

	err = m.snapshots.Remove(corep.StepFile(10))
	m.Require().ErrorIs(err, corep.ErrCheckpointNotFound)
}

func (m *MongoStoreTestSuite) TestSnapshotListStepsIgnoresNamed() {
	now := time.Now()
	m.Require().NoError(m.snapshots.Save(corep.StepFile(20), &corep.Snapshot{Step: 20, SavedAt: now}))
	m.Require().NoError(m.snapshots.Save(corep.StepFile(6), &corep.Snapshot{Step: 6, SavedAt: now}))
	m.Require().NoError(m.snapshots.Save("acc-max.ckpt", &corep.Snapshot{Step: 20, SavedAt: now}))

	steps, err := m.snapshots.ListSteps()
	m.Require().NoError(err, "ListSteps failed")
	m.Equal([]int{6, 20}, steps)

	latest, ok, err := m.snapshots.LatestStep()
	m.Require().NoError(err, "LatestStep failed")
	m.True(ok)
	m.Equal(20, latest)
}

func (m *MongoStoreTestSuite) TestSnapshotLatestStepEmpty() {
	_, ok, err := m.snapshots.LatestStep()
	m.Require().NoError(err, "LatestStep failed")
	m.False(ok)
}

func (m *MongoStoreTestSuite) TestSnapshotModTime() {
	before := time.Now().Add(-time.Second)
	m.Require().NoError(m.snapshots.Save(corep.StepFile(3), &corep.Snapshot{Step: 3, SavedAt: time.Now()}))

	at, err := m.snapshots.ModTime(corep.StepFile(3))
	m.Require().NoError(err, "ModTime failed")
	m.True(at.After(before), "mod time %v not after %v", at, before)

	_, err = m.snapshots.ModTime("nope.ckpt")
	m.Require().ErrorIs(err, corep.ErrCheckpointNotFound)
}
