package persistence

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	corep "github.com/petrijr/treino/internal/persistence"
)

// MongoSnapshotStore is a SnapshotStore backed by a MongoDB collection, one
// document per named checkpoint.
type MongoSnapshotStore struct {
	coll *mongo.Collection
}

// Ensure it implements SnapshotStore.
var _ corep.SnapshotStore = (*MongoSnapshotStore)(nil)

// NewMongoSnapshotStore creates a Mongo-backed snapshot store.
// dbName defaults to "treino" if empty, collName defaults to "checkpoints".
func NewMongoSnapshotStore(client *mongo.Client, dbName, collName string) *MongoSnapshotStore {
	if dbName == "" {
		dbName = "treino"
	}
	if collName == "" {
		collName = "checkpoints"
	}

	return &MongoSnapshotStore{
		coll: client.Database(dbName).Collection(collName),
	}
}

type mongoSnapshotDoc struct {
	Name      string `bson:"_id"`
	RunID     string `bson:"run_id"`
	Step      int    `bson:"step"`
	SavedAt   int64  `bson:"saved_at"`
	WrittenAt int64  `bson:"written_at"`
	State     []byte `bson:"state,omitempty"`
	Metrics   []byte `bson:"metrics,omitempty"`
}

// Save replaces the document under the given name, upserting on first save,
// so repeated saves of a fixed name overwrite each other the way files do.
func (s *MongoSnapshotStore) Save(name string, snap *corep.Snapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	state, err := corep.EncodeValue(snap.State)
	if err != nil {
		return err
	}
	metrics, err := corep.EncodeValue(snap.Metrics)
	if err != nil {
		return err
	}

	doc := mongoSnapshotDoc{
		Name:      name,
		RunID:     snap.RunID,
		Step:      snap.Step,
		SavedAt:   snap.SavedAt.UnixNano(),
		WrittenAt: time.Now().UnixNano(),
		State:     state,
		Metrics:   metrics,
	}

	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoSnapshotStore) Load(name string) (*corep.Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var doc mongoSnapshotDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, corep.ErrCheckpointNotFound
		}
		return nil, err
	}

	stateVal, err := corep.DecodeValue[map[string]any](doc.State)
	if err != nil {
		return nil, err
	}
	metricsVal, err := corep.DecodeValue[map[string]float64](doc.Metrics)
	if err != nil {
		return nil, err
	}

	return &corep.Snapshot{
		RunID:   doc.RunID,
		Step:    doc.Step,
		SavedAt: time.Unix(0, doc.SavedAt),
		State:   stateVal,
		Metrics: metricsVal,
	}, nil
}

func (s *MongoSnapshotStore) Remove(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return corep.ErrCheckpointNotFound
	}
	return nil
}

func (s *MongoSnapshotStore) ModTime(name string) (time.Time, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var doc struct {
		WrittenAt int64 `bson:"written_at"`
	}
	err := s.coll.FindOne(ctx, bson.M{"_id": name},
		options.FindOne().SetProjection(bson.M{"written_at": 1})).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return time.Time{}, corep.ErrCheckpointNotFound
		}
		return time.Time{}, err
	}
	return time.Unix(0, doc.WrittenAt), nil
}

func (s *MongoSnapshotStore) ListSteps() ([]int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var steps []int
	for cur.Next(ctx) {
		var doc struct {
			Name string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		if n, ok := corep.ParseStepFile(doc.Name); ok {
			steps = append(steps, n)
		}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	sort.Ints(steps)
	return steps, nil
}

func (s *MongoSnapshotStore) LatestStep() (step int, ok bool, err error) {
	steps, err := s.ListSteps()
	if err != nil {
		return 0, false, err
	}
	if len(steps) == 0 {
		return 0, false, nil
	}
	return steps[len(steps)-1], true, nil
}

func (s *MongoSnapshotStore) Ref(name string) string {
	return "mongodb:" + s.coll.Database().Name() + "." + s.coll.Name() + "/" + name
}

func (s *MongoSnapshotStore) String() string {
	return "mongodb:" + s.coll.Database().Name() + "." + s.coll.Name()
}
