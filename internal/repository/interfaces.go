package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

// ErrNoDocuments is returned by Collection.FindOne when nothing matches.
var ErrNoDocuments = errors.New("no documents in result")

// ErrDisconnected is returned by a Database that can no longer reach its store.
var ErrDisconnected = errors.New("database client is disconnected")

// ErrDuplicateKey is returned when a write would break a unique key.
var ErrDuplicateKey = errors.New("duplicate key")

// Store handles shared by every facade
type (
	// Database hands out named collections. It replaces the ambient
	// getCollection lookup: callers receive it explicitly.
	Database interface {
		Collection(name string) Collection
		Ping(ctx context.Context) error
		Close(ctx context.Context) error
	}

	// Collection is the subset of document store operations the facades use.
	Collection interface {
		Name() string
		InsertOne(ctx context.Context, doc bson.M) error
		Find(ctx context.Context, filter bson.M, opts FindOptions) ([]bson.M, error)
		FindOne(ctx context.Context, filter bson.M) (bson.M, error)
		UpdateOne(ctx context.Context, filter, update bson.M, upsert bool) (UpdateResult, error)
		UpdateMany(ctx context.Context, filter, update bson.M) (UpdateResult, error)
		// FindOneAndUpdate returns the matched document as it is after the
		// update, or ErrNoDocuments when nothing matched and upsert is false.
		FindOneAndUpdate(ctx context.Context, filter, update bson.M, upsert bool) (bson.M, error)
		DeleteOne(ctx context.Context, filter bson.M) (int64, error)
		DeleteMany(ctx context.Context, filter bson.M) (int64, error)
		CountDocuments(ctx context.Context, filter bson.M) (int64, error)
		Aggregate(ctx context.Context, pipeline []bson.M) ([]bson.M, error)
	}
)

type FindOptions struct {
	Skip  int64
	Limit int64
	Sort  bson.D
}

type UpdateResult struct {
	Matched    int64
	Modified   int64
	UpsertedID interface{}
}
