package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTestMongoURI = "mongodb://localhost:27017"
	testMongoDatabase   = "blood_bank_test"
)

func NewTestMongoDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		uri = defaultTestMongoURI
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("failed to connect to mongo: %v", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("skipping MongoDB integration tests: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})

	return client.Database(testMongoDatabase)
}

func DropCollection(t *testing.T, ctx context.Context, db *mongo.Database, name string) {
	t.Helper()
	if err := db.Collection(name).Drop(ctx); err != nil {
		t.Fatalf("drop collection %s: %v", name, err)
	}
}
