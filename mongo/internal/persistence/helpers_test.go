package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petrijr/treino/mongo/internal/testutil"
)

type MongoStoreTestSuite struct {
	suite.Suite
	client    *mongo.Client
	dbName    string
	snapshots *MongoSnapshotStore
	scalars   *MongoScalarStore
}

func TestMongoStoreTestSuite(t *testing.T) {
	testsuite := new(MongoStoreTestSuite)
	uri := testutil.GetMongoURI(t)
	initTestMongoStores(t, testsuite, uri)
	suite.Run(t, testsuite)
}

func (m *MongoStoreTestSuite) SetupTest() {
	ctx := context.Background()
	db := m.client.Database(m.dbName)
	m.Require().NoError(db.Collection("checkpoints_test").Drop(ctx), "dropping checkpoints failed")
	m.Require().NoError(db.Collection("scalars_test").Drop(ctx), "dropping scalars failed")
}

func initTestMongoStores(t *testing.T, ts *MongoStoreTestSuite, uri string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("mongo.Connect failed: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})
	ts.client = client
	ts.dbName = "treino_test"

	ts.snapshots = NewMongoSnapshotStore(client, ts.dbName, "checkpoints_test")
	ts.scalars = NewMongoScalarStore(client, ts.dbName, "scalars_test")
}
