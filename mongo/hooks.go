package mongo

import (
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/petrijr/treino/mongo/internal/persistence"
	"github.com/petrijr/treino/pkg/hooks"
)

// NewSaver returns a Saver that keeps checkpoints in MongoDB instead of a
// directory, using the store's default database and collection names
// ("treino"/"checkpoints").
func NewSaver(client *mongo.Client, opts hooks.SaverOptions) *hooks.Saver {
	return hooks.NewSaverWithStore(persistence.NewMongoSnapshotStore(client, "", ""), opts)
}

// NewSaverRestore returns a SaverRestore that resumes from the newest
// checkpoint in MongoDB.
func NewSaverRestore(client *mongo.Client, logger *slog.Logger) *hooks.SaverRestore {
	return hooks.NewSaverRestoreWithStore(persistence.NewMongoSnapshotStore(client, "", ""), logger)
}

// NewMinSaver returns a MinSaver that keeps its best checkpoint in MongoDB.
func NewMinSaver(client *mongo.Client, key string, opts hooks.BestSaverOptions) (*hooks.MinSaver, error) {
	return hooks.NewMinSaverWithStore(persistence.NewMongoSnapshotStore(client, "", ""), key, opts)
}

// NewMaxSaver returns a MaxSaver that keeps its best checkpoint in MongoDB.
func NewMaxSaver(client *mongo.Client, key string, opts hooks.BestSaverOptions) (*hooks.MaxSaver, error) {
	return hooks.NewMaxSaverWithStore(persistence.NewMongoSnapshotStore(client, "", ""), key, opts)
}
