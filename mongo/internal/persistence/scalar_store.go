package persistence

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	corep "github.com/petrijr/treino/internal/persistence"
)

// MongoScalarStore keeps scalar history in a MongoDB collection, one
// document per measurement. It shares the row shape with the core SQLite
// store, so history written by either reads the same.
type MongoScalarStore struct {
	coll *mongo.Collection
}

// NewMongoScalarStore creates a Mongo-backed scalar store.
// dbName defaults to "treino" if empty, collName defaults to "scalars".
func NewMongoScalarStore(client *mongo.Client, dbName, collName string) *MongoScalarStore {
	if dbName == "" {
		dbName = "treino"
	}
	if collName == "" {
		collName = "scalars"
	}

	return &MongoScalarStore{
		coll: client.Database(dbName).Collection(collName),
	}
}

// The driver assigns each document an ObjectID at insert, which carries the
// insertion order History sorts on.
type mongoScalarDoc struct {
	RunID      string  `bson:"run_id"`
	Name       string  `bson:"name"`
	EpochNum   int     `bson:"epoch_num"`
	LocalStep  int     `bson:"local_step"`
	GlobalStep int     `bson:"global_step"`
	Value      float64 `bson:"value"`
	RecordedAt int64   `bson:"recorded_at"`
}

// InsertBatch appends the rows in one InsertMany. Rows with a zero
// RecordedAt are stamped with the current time.
func (s *MongoScalarStore) InsertBatch(ctx context.Context, batch []corep.ScalarRow) error {
	if len(batch) == 0 {
		return nil
	}

	docs := make([]any, 0, len(batch))
	for _, r := range batch {
		at := r.RecordedAt
		if at.IsZero() {
			at = time.Now()
		}
		docs = append(docs, mongoScalarDoc{
			RunID:      r.RunID,
			Name:       r.Name,
			EpochNum:   r.EpochNum,
			LocalStep:  r.LocalStep,
			GlobalStep: r.GlobalStep,
			Value:      r.Value,
			RecordedAt: at.UnixNano(),
		})
	}

	_, err := s.coll.InsertMany(ctx, docs)
	return err
}

// History returns every measurement recorded under name for the run, in
// insertion order.
func (s *MongoScalarStore) History(ctx context.Context, runID, name string) ([]corep.ScalarRow, error) {
	cur, err := s.coll.Find(ctx,
		bson.M{"run_id": runID, "name": name},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []corep.ScalarRow
	for cur.Next(ctx) {
		var doc mongoScalarDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, corep.ScalarRow{
			RunID:      doc.RunID,
			Name:       doc.Name,
			EpochNum:   doc.EpochNum,
			LocalStep:  doc.LocalStep,
			GlobalStep: doc.GlobalStep,
			Value:      doc.Value,
			RecordedAt: time.Unix(0, doc.RecordedAt),
		})
	}
	return out, cur.Err()
}

// Names returns the distinct scalar names recorded for the run, sorted.
func (s *MongoScalarStore) Names(ctx context.Context, runID string) ([]string, error) {
	vals, err := s.coll.Distinct(ctx, "name", bson.M{"run_id": runID})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(vals))
	for _, v := range vals {
		if n, ok := v.(string); ok {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}
